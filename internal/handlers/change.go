package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/loomery/catalog-backend/internal/logger"
	"github.com/loomery/catalog-backend/internal/services"
	"github.com/loomery/catalog-backend/internal/types"
)

type ChangeHandler struct {
	log           *logger.Logger
	changeService services.ChangeService
	mergeService  services.MergeService
}

func NewChangeHandler(log *logger.Logger, changeService services.ChangeService, mergeService services.MergeService) *ChangeHandler {
	return &ChangeHandler{
		log:           log.With("handler", "ChangeHandler"),
		changeService: changeService,
		mergeService:  mergeService,
	}
}

type createChangeRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Sources     datatypes.JSON `json:"sources"`
	Metadata    datatypes.JSON `json:"metadata"`
}

func (h *ChangeHandler) Create(c *gin.Context) {
	var req createChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	change, err := h.changeService.Create(c.Request.Context(), services.CreateChangeInput{
		Title:       req.Title,
		Description: req.Description,
		Sources:     req.Sources,
		Metadata:    req.Metadata,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"change": change})
}

func (h *ChangeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	change, err := h.changeService.Get(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"change": change})
}

func (h *ChangeHandler) List(c *gin.Context) {
	var status *types.ChangeStatus
	if raw := c.Query("status"); raw != "" {
		s := types.ChangeStatus(raw)
		status = &s
	}
	changes, err := h.changeService.List(c.Request.Context(), status)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"changes": changes})
}

func (h *ChangeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.changeService.Delete(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (h *ChangeHandler) transition(c *gin.Context, target types.ChangeStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	change, err := h.changeService.Transition(c.Request.Context(), id, target)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"change": change})
}

func (h *ChangeHandler) Propose(c *gin.Context) { h.transition(c, types.ChangeStatusProposed) }
func (h *ChangeHandler) Approve(c *gin.Context) { h.transition(c, types.ChangeStatusApproved) }
func (h *ChangeHandler) Reject(c *gin.Context)  { h.transition(c, types.ChangeStatusRejected) }

func (h *ChangeHandler) Merge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	change, err := h.mergeService.Merge(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"change": change})
}

func (h *ChangeHandler) DiscardEdit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	editID, err := strconv.Atoi(c.Param("editId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_edit_id", err)
		return
	}
	if err := h.changeService.DiscardEdit(c.Request.Context(), id, editID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"discarded": editID})
}
