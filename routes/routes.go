package routes

import (
	"net/http"

	"SupportChat/controllers"
	"SupportChat/middleware"
	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "SupportChat/routes/auth"
	convRoutes "SupportChat/routes/conversation"
	dashboardRoutes "SupportChat/routes/dashboard"
	profileRoutes "SupportChat/routes/profile"
	websocketRoutes "SupportChat/routes/websocket"
	widgetRoutes "SupportChat/routes/widget"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, relay *svc.Relay, dash *svc.DashboardService) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Support chat relay running"})
	})
	r.GET("/health", controllers.Health())

	widgetRoutes.Register(r)
	websocketRoutes.Register(r, relay)

	api := r.Group("/api")
	convRoutes.Register(api, db)
	authRoutes.RegisterPublic(api, db)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected, db)
	profileRoutes.Register(protected, db)

	// dashboard auth depends on DASHBOARD_AUTH
	dashboardRoutes.Register(api, dash)
}
