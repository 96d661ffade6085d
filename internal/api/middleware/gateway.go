package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"

	// owner used for saved cards when auth is disabled
	AnonymousUserID = "anonymous"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email).
// The fronting gateway validates the session; this service only reads the result.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used behind the gateway with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"details": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", c.GetHeader(headerUserEmail))
		c.Next()
	}
}

// GetUserIDFromGateway retrieves the user ID set by GatewayAuth or NoAuth
// Returns the ID and a boolean indicating if it was found
func GetUserIDFromGateway(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}
