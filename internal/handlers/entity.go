package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/services"
)

// EntityHandler carries the generic mutation and direct-edit endpoints. The
// optional change_id reroutes a mutation into a pending ChangeEdit; the GET
// endpoint previews DB state overlaid with a pending edit.
type EntityHandler struct {
	log               *logger.Logger
	entityService     services.EntityService
	directEditService services.DirectEditService
}

func NewEntityHandler(log *logger.Logger, entityService services.EntityService, directEditService services.DirectEditService) *EntityHandler {
	return &EntityHandler{
		log:               log.With("handler", "EntityHandler"),
		entityService:     entityService,
		directEditService: directEditService,
	}
}

type entityMutationRequest struct {
	Fields   map[string]interface{} `json:"fields"`
	ChangeID *uuid.UUID             `json:"change_id"`
}

func (h *EntityHandler) Create(c *gin.Context) {
	entityName := c.Param("entityName")
	var req entityMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.entityService.Create(c.Request.Context(), entityName, req.Fields, req.ChangeID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

func (h *EntityHandler) Update(c *gin.Context) {
	entityName := c.Param("entityName")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req entityMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.entityService.Update(c.Request.Context(), entityName, id, req.Fields, req.ChangeID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"result": result})
}

// Resolve handles both forms: without id it returns the blank create input,
// with id the live (optionally change-overlaid) update input.
func (h *EntityHandler) Resolve(c *gin.Context) {
	entityName := c.Param("entityName")

	var entityID *uuid.UUID
	if raw := c.Query("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", err)
			return
		}
		entityID = &id
	}
	var changeID *uuid.UUID
	if raw := c.Query("change_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_change_id", err)
			return
		}
		changeID = &id
	}

	result, err := h.directEditService.Resolve(c.Request.Context(), entityName, entityID, changeID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"direct_edit": result})
}
