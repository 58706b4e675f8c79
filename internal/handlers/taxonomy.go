package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/services"
)

type TaxonomyHandler struct {
	log             *logger.Logger
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(log *logger.Logger, taxonomyService services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{
		log:             log.With("handler", "TaxonomyHandler"),
		taxonomyService: taxonomyService,
	}
}

func (h *TaxonomyHandler) Move(c *gin.Context) {
	entityName := c.Param("entityName")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		DestinationID uuid.UUID `json:"destination_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.taxonomyService.Move(c.Request.Context(), entityName, id, req.DestinationID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"moved": id})
}

func (h *TaxonomyHandler) RemoveSubtree(c *gin.Context) {
	entityName := c.Param("entityName")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.taxonomyService.RemoveSubtree(c.Request.Context(), entityName, id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": id})
}

func (h *TaxonomyHandler) RemoveDescendants(c *gin.Context) {
	entityName := c.Param("entityName")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.taxonomyService.RemoveDescendants(c.Request.Context(), entityName, id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed_descendants_of": id})
}

func (h *TaxonomyHandler) Descendants(c *gin.Context) {
	entityName := c.Param("entityName")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	descendants, err := h.taxonomyService.Descendants(c.Request.Context(), entityName, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	out := make([]gin.H, 0, len(descendants))
	for _, d := range descendants {
		out = append(out, gin.H{"id": d.ID, "depth": d.Depth})
	}
	RespondOK(c, gin.H{"descendants": out})
}
