package middleware

import (
	"net/http"
	"strings"

	"remindful/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// OpsAuthMiddleware guards the operational endpoints (manual sync, GC,
// trigger restore). The bearer key must match the configured bcrypt hash;
// deployments without one get no ops surface at all.
func OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := config.AppConfig.AdminKeyHash
		if configured == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Operational endpoints are not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		key := strings.TrimPrefix(authHeader, "Bearer ")

		if err := bcrypt.CompareHashAndPassword([]byte(configured), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}
