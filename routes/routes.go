package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shiftwise/shiftwise-backend/config"
	"github.com/shiftwise/shiftwise-backend/internal/auditlog"
	"github.com/shiftwise/shiftwise-backend/internal/auth"
	"github.com/shiftwise/shiftwise-backend/internal/notification"
	"github.com/shiftwise/shiftwise-backend/internal/report"
	"github.com/shiftwise/shiftwise-backend/internal/subscription"
	"github.com/shiftwise/shiftwise-backend/middleware"
)

type Handlers struct {
	Auth         *auth.Handler
	Report       *report.Handler
	Subscription *subscription.Handler
	Notification *notification.Handler
	AuditLog     *auditlog.Handler
}

// Setup wires middleware and every route group onto the engine.
func Setup(r *gin.Engine, cfg *config.Config, authSvc auth.Service, h Handlers) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:9002"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.RateLimiter())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public
	api.POST("/auth/login", h.Auth.Login)

	// Authenticated
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg, authSvc))
	{
		protected.POST("/reports", h.Report.CreateReport)
		protected.GET("/reports/:id", h.Report.GetReport)
		protected.GET("/issues", h.Report.ListIssues)
		protected.PATCH("/issues/:issueId/status", h.Report.UpdateStatus)

		protected.POST("/issues/:issueId/subscribe", h.Subscription.Subscribe)
		protected.DELETE("/issues/:issueId/subscribe", h.Subscription.Unsubscribe)
		protected.GET("/issues/:issueId/subscription", h.Subscription.IsSubscribed)

		protected.POST("/notifications", h.Notification.SendNotification)
		protected.POST("/notifications/devices", h.Subscription.RegisterDevice)
		protected.DELETE("/notifications/devices", h.Subscription.RemoveDevice)
		protected.GET("/notifications/settings", h.Subscription.GetSettings)
		protected.PUT("/notifications/settings", h.Subscription.UpdateSettings)

		protected.GET("/auditlogs", h.AuditLog.GetAuditLogs)
		protected.GET("/auditlogs/:id", h.AuditLog.GetAuditLogByID)
	}
}
