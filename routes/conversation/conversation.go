package conversation

import (
	"SupportChat/controllers"
	"SupportChat/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers the widget persistence routes (public)
func Register(g *gin.RouterGroup, db *gorm.DB) {
	// AddMessage charges the messages scope itself, visitor turns only
	g.POST("/conversations", middleware.RateLimit(middleware.ScopeConversations), controllers.OpenConversation(db))
	g.GET("/conversations/:conversation_id/messages", controllers.ListMessages(db))
	g.POST("/conversations/:conversation_id/messages", controllers.AddMessage(db))
	g.POST("/conversations/:conversation_id/feedback", middleware.RateLimit(middleware.ScopeFeedback), controllers.AddFeedback(db))
}
