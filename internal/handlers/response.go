package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loomery/catalog-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps the typed error taxonomy onto HTTP statuses. Workflow
// violations (bad transition, closed change, structural tree errors) are 409
// so clients can tell them apart from true server faults.
func RespondAppError(c *gin.Context, err error) {
	switch {
	case apperr.IsNotFound(err), apperr.IsUnknownEntity(err):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case apperr.IsDuplicateNode(err),
		apperr.IsParentNotFound(err),
		apperr.IsWouldCreateCycle(err),
		apperr.IsInvalidTransition(err),
		apperr.IsChangeNotEditable(err):
		RespondError(c, http.StatusConflict, "conflict", err)
	case apperr.IsValidation(err):
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
