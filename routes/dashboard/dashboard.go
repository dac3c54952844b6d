package dashboard

import (
	"SupportChat/controllers"
	"SupportChat/middleware"
	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, dash *svc.DashboardService) {
	d := g.Group("/dashboard")
	d.Use(middleware.DashboardGuard())
	{
		d.GET("/metrics", controllers.DashboardMetrics(dash))
		d.GET("/engagement", controllers.DashboardEngagement(dash))
		d.GET("/conversations", controllers.DashboardConversations(dash))
		d.GET("/conversations/:conversation_id", controllers.DashboardConversation(dash))
		d.POST("/refresh", controllers.DashboardRefresh(dash))
	}
}
