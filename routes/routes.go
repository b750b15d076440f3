package routes

import (
	"net/http"
	"time"

	"remindful/handlers"
	"remindful/middleware"
	"remindful/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-in and session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/signin", hb.Auth.SignInHandler)

		// Protected routes (Require Authentication)
		api.Use(middleware.SessionAuthMiddleware(hb.Sessions))
		api.POST("/signout", hb.Auth.SignOutHandler)
		api.GET("/session", hb.Auth.SessionStatusHandler)
		api.PUT("/device-token", hb.Auth.UpdateFCMTokenHandler)
	}
}

// RegisterReminderRoutes registers reminder CRUD endpoints.
func RegisterReminderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reminders")
	{
		api.Use(middleware.SessionAuthMiddleware(hb.Sessions))
		api.POST("", hb.Reminders.CreateReminderHandler)
		api.GET("", hb.Reminders.ListRemindersHandler)
		api.GET("/:id", hb.Reminders.GetReminderHandler)
		api.PUT("/:id", hb.Reminders.UpdateReminderHandler)
		api.PATCH("/:id/enabled", hb.Reminders.SetEnabledHandler)
		api.DELETE("/:id", hb.Reminders.DeleteReminderHandler)
	}
}

// RegisterOpsRoutes registers operational endpoints for manual sync, GC and
// trigger restore.
func RegisterOpsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/ops")
	{
		api.Use(middleware.OpsAuthMiddleware())
		api.POST("/sync", hb.Ops.RunSyncHandler)
		api.GET("/sync", hb.Ops.SyncStatusHandler)
		api.POST("/gc", hb.Ops.RunGCHandler)
		api.GET("/gc", hb.Ops.GCStatusHandler)
		api.POST("/restore", hb.Ops.RestoreTriggersHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hi, I'm Remindful",
			"checks":  utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAuthRoutes(r, hb)
	RegisterReminderRoutes(r, hb)
	RegisterOpsRoutes(r, hb)
	RegisterHealthRoute(r)
}
