package app

import (
	"github.com/gin-gonic/gin"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/middleware"
	"github.com/loomery/catalog-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers) *gin.Engine {
	identity := middleware.NewIdentityMiddleware(log, cfg.JWTSecretKey)
	return server.NewRouter(server.RouterConfig{
		ChangeHandler:      handlerset.Change,
		EntityHandler:      handlerset.Entity,
		TaxonomyHandler:    handlerset.Taxonomy,
		IdentityMiddleware: identity,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
