package middleware

import (
	"net/http"
	"strings"

	"remindful/services/identity"
	"remindful/utils"

	"github.com/gin-gonic/gin"
)

// SessionAuthMiddleware authenticates requests against the active account
// session: the bearer JWT must verify, and its hash must match the session
// established at sign-in. A valid request refreshes the session TTL and
// exposes the uid on the context.
func SessionAuthMiddleware(sessions identity.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// Validate the token signature and expiration.
		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		session, err := sessions.Get(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session store unavailable"})
			return
		}
		if session == nil || session.TokenHash != utils.HashToken(tokenString) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token does not match the active session"})
			return
		}

		if err := sessions.Refresh(c.Request.Context()); err != nil {
			// A failed TTL refresh is not worth failing the request over.
			utils.GetLogger().Warn("Failed to refresh session TTL")
		}

		c.Set("uid", session.UID)
		c.Next()
	}
}
