package controllers

import (
	"net/http"

	"SupportChat/middleware"
	"SupportChat/models"
	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OpenConversation resumes the visitor's newest conversation or starts one.
func OpenConversation(db *gorm.DB) gin.HandlerFunc {
	store := svc.NewConversationStore(db)
	return func(c *gin.Context) {
		var body struct {
			Email     string `json:"email"`
			SessionID string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		conv, resumed, err := store.Open(c.Request.Context(), body.Email, body.SessionID)
		if err != nil {
			respondError(c, "conversation", err)
			return
		}
		status := http.StatusCreated
		if resumed {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"conversation": conv, "resumed": resumed})
	}
}

func ListMessages(db *gorm.DB) gin.HandlerFunc {
	store := svc.NewConversationStore(db)
	return func(c *gin.Context) {
		msgs, err := store.Messages(c.Request.Context(), c.Param("conversation_id"))
		if err != nil {
			respondError(c, "conversation", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}

// AddMessage stores one turn. Only visitor turns are rate limited.
func AddMessage(db *gorm.DB) gin.HandlerFunc {
	store := svc.NewConversationStore(db)
	return func(c *gin.Context) {
		var body struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			SessionID string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if body.Role == models.RoleUser &&
			!middleware.Allow(middleware.ScopedKey(middleware.ScopeMessages, middleware.RequestKey(c))) {
			middleware.AbortTooManyRequests(c)
			return
		}
		msg, err := store.AddMessage(c.Request.Context(), c.Param("conversation_id"), body.SessionID, body.Role, body.Content)
		if err != nil {
			respondError(c, "conversation", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": msg})
	}
}

func AddFeedback(db *gorm.DB) gin.HandlerFunc {
	store := svc.NewConversationStore(db)
	return func(c *gin.Context) {
		var body struct {
			IsPositive *bool  `json:"is_positive"`
			SessionID  string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.IsPositive == nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "is_positive is required"})
			return
		}
		if _, err := store.AddFeedback(c.Request.Context(), c.Param("conversation_id"), body.SessionID, *body.IsPositive); err != nil {
			respondError(c, "feedback", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"msg": "Thank you for your feedback!"})
	}
}
