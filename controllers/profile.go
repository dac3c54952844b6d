package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"SupportChat/middleware"
	"SupportChat/models"
	svc "SupportChat/pkg/services"
	utils "SupportChat/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Profile reads (GET) or updates (PUT) the signed-in operator.
func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.Atoi(c.GetString(middleware.ContextOperatorIDKey))

		var op models.Operator
		if err := db.First(&op, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Operator not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"id":    op.ID,
				"email": op.Email,
				"name":  op.Name,
			})
			return
		}

		var body struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		newEmail := utils.NormalizeEmail(body.Email)
		if newEmail == "" {
			newEmail = op.Email
		}
		if !utils.IsValidEmail(newEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Please enter a valid email address"})
			return
		}
		newName := strings.TrimSpace(body.Name)
		if newName == "" {
			newName = op.Name
		}

		if newEmail != op.Email {
			var t models.Operator
			if err := db.Where("email = ?", newEmail).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
				return
			}
		}

		op.Email = newEmail
		op.Name = newName
		if body.Password != "" {
			if !svc.ValidPassword(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must be at least 8 characters and contain a letter and a number"})
				return
			}
			if err := op.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}
		if err := db.Save(&op).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully"})
	}
}
