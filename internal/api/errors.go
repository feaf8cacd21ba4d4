package api

import (
	"errors"
	"log/slog"
	"net/http"

	"alcyxob/nutrition-app/internal/apperr"

	"github.com/gin-gonic/gin"
)

// statusOf maps an application error type to an HTTP status.
func statusOf(t apperr.Type) int {
	switch t {
	case apperr.TypeValidation:
		return http.StatusBadRequest
	case apperr.TypeNotFound:
		return http.StatusNotFound
	case apperr.TypePrecondition, apperr.TypeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondWithError writes err as JSON. Application errors keep their message
// and code; anything else is logged and hidden behind a generic message.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		slog.ErrorContext(c.Request.Context(), "unexpected error", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	status := statusOf(appErr.Type)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "internal error", appErr.LogFields()...)
		abortWithError(c, status, "An unexpected error occurred")
		return
	}
	if appErr.Internal != nil {
		slog.WarnContext(c.Request.Context(), "request failed", appErr.LogFields()...)
	}
	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if len(appErr.Context) > 0 {
		body["details"] = appErr.Context
	}
	c.AbortWithStatusJSON(status, body)
}
