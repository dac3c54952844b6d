package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SupportChat/middleware"
	"SupportChat/models"
	svc "SupportChat/pkg/services"
	tokenstore "SupportChat/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// IssueToken signs an operator access token.
func IssueToken(op *models.Operator) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(int(op.ID)),
		"exp": time.Now().Add(tokenTTL).Unix(),
		"jti": uuid.NewString(),
	}
	key, err := middleware.SigningKey()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// Login handler
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if strings.TrimSpace(body.Email) == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email and password are required"})
			return
		}

		op, err := svc.Authenticate(c.Request.Context(), db, body.Email, body.Password)
		if errors.Is(err, svc.ErrOperatorNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		if err != nil {
			log.Printf("[auth] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		tokenStr, err := IssueToken(op)
		if errors.Is(err, middleware.ErrAuthNotConfigured) {
			log.Printf("[auth] login refused: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "operator login is not configured"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": tokenStr, "name": op.Name})
	}
}

// Logout handler
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		jti := c.GetString(middleware.ContextJTIKey)
		exp, _ := c.Get(middleware.ContextTokenExpKey)
		expAt, _ := exp.(time.Time)
		tokenstore.RevokeToken(jti, expAt)
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}
