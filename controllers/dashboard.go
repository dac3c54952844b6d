package controllers

import (
	"net/http"

	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
)

func DashboardMetrics(dash *svc.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := dash.Metrics(c.Request.Context())
		if err != nil {
			respondError(c, "dashboard", err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func DashboardEngagement(dash *svc.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := dash.Engagement(c.Request.Context())
		if err != nil {
			respondError(c, "dashboard", err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// DashboardConversations lists conversation metrics, optionally filtered by ?q=.
func DashboardConversations(dash *svc.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := dash.Conversations(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, "dashboard", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": rows, "total": len(rows)})
	}
}

func DashboardConversation(dash *svc.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := dash.Conversation(c.Request.Context(), c.Param("conversation_id"))
		if err != nil {
			respondError(c, "dashboard", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func DashboardRefresh(dash *svc.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := dash.Refresh(c.Request.Context()); err != nil {
			respondError(c, "dashboard", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "views refreshed"})
	}
}
