package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bingo-platform/internal/service"
)

// AuthRequired validates the bearer token and stores the user id on
// the request context.
func AuthRequired(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			// WebSocket clients cannot set headers from the browser;
			// accept the token as a query parameter there.
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		uid, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user_id", uid)
		c.Next()
	}
}