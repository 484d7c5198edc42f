// Package respond maps service errors to HTTP responses so every handler
// answers the same way.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
)

// Error writes err as a JSON body with the status its code maps to.
// Unclassified errors become 500 and are logged; their text is not sent.
func Error(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		external   *apperr.ExternalServiceError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   apperr.CodeValidation,
			"field":   validation.Field,
			"message": validation.Message,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   apperr.CodeNotFound,
			"message": notFound.Entity + " not found",
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    apperr.CodeConflict,
			"message":  conflict.Reason,
			"order_id": conflict.OrderID,
			"status":   conflict.Status,
			"event":    conflict.Event,
		})
	case errors.As(err, &external):
		slog.WarnContext(c.Request.Context(), "external service failed", "service", external.Service, "error", external.Err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     apperr.CodeExternal,
			"message":   external.Service + " is unavailable, please try again",
			"retryable": true,
		})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "internal error"})
	}
}

// BadRequest answers a request whose body or parameters could not be bound.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": apperr.CodeValidation, "message": err.Error()})
}
