// Package handler provides the HTTP surface: thin gin handlers that
// bind requests, call the services and translate failures into status
// codes. No business rules live here.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bingo-platform/internal/apperr"
)

// statusOf maps a failure kind to its HTTP status code.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.InvalidInput:
		return http.StatusUnprocessableEntity
	case apperr.InsufficientFunds:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// userID returns the authenticated user id set by the auth middleware.
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}