package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/loomery/catalog-backend/internal/handlers"
	"github.com/loomery/catalog-backend/internal/middleware"
)

type RouterConfig struct {
	ChangeHandler      *handlers.ChangeHandler
	EntityHandler      *handlers.EntityHandler
	TaxonomyHandler    *handlers.TaxonomyHandler
	IdentityMiddleware *middleware.IdentityMiddleware
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireUser())

	// Changes
	api.POST("/changes", cfg.ChangeHandler.Create)
	api.GET("/changes", cfg.ChangeHandler.List)
	api.GET("/changes/:id", cfg.ChangeHandler.Get)
	api.DELETE("/changes/:id", cfg.ChangeHandler.Delete)
	api.POST("/changes/:id/propose", cfg.ChangeHandler.Propose)
	api.POST("/changes/:id/approve", cfg.ChangeHandler.Approve)
	api.POST("/changes/:id/reject", cfg.ChangeHandler.Reject)
	api.POST("/changes/:id/merge", cfg.ChangeHandler.Merge)
	api.DELETE("/changes/:id/edits/:editId", cfg.ChangeHandler.DiscardEdit)

	// Entities: mutation with optional change capture, direct-edit preview
	api.POST("/entities/:entityName", cfg.EntityHandler.Create)
	api.PATCH("/entities/:entityName/:id", cfg.EntityHandler.Update)
	api.GET("/entities/:entityName/resolve", cfg.EntityHandler.Resolve)

	// Taxonomy trees
	api.POST("/taxonomy/:entityName/:id/move", cfg.TaxonomyHandler.Move)
	api.DELETE("/taxonomy/:entityName/:id", cfg.TaxonomyHandler.RemoveSubtree)
	api.DELETE("/taxonomy/:entityName/:id/descendants", cfg.TaxonomyHandler.RemoveDescendants)
	api.GET("/taxonomy/:entityName/:id/descendants", cfg.TaxonomyHandler.Descendants)

	return router
}
