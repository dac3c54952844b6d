package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SupportChat/pkg/config"
	tokenstore "SupportChat/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextOperatorIDKey = "current_operator_id"
	ContextJTIKey        = "current_jti"
	ContextTokenExpKey   = "current_token_exp"
)

var ErrAuthNotConfigured = errors.New("JWT_SECRET_KEY is not set")

// SigningKey returns the HS256 key for operator tokens. An empty secret
// never signs or verifies anything.
func SigningKey() ([]byte, error) {
	if config.JWTSecret == "" {
		return nil, ErrAuthNotConfigured
	}
	return []byte(config.JWTSecret), nil
}

// AuthMiddleware requires a valid operator bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := SigningKey()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "operator auth is not configured"})
			return
		}
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			// only accept HMAC signing
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return key, nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid token claims"})
			return
		}

		jti, _ := claims["jti"].(string)
		if tokenstore.IsRevoked(jti) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token has been revoked (logout)"})
			return
		}

		var operatorID string
		if sub, ok := claims["sub"].(string); ok {
			operatorID = sub
		} else if subf, ok := claims["sub"].(float64); ok {
			// numeric claims decode as float64
			operatorID = strconv.Itoa(int(subf))
		}
		if operatorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid subject in token"})
			return
		}

		var exp time.Time
		if e, err := claims.GetExpirationTime(); err == nil && e != nil {
			exp = e.Time
		}

		c.Set(ContextOperatorIDKey, operatorID)
		c.Set(ContextJTIKey, jti)
		c.Set(ContextTokenExpKey, exp)
		c.Next()
	}
}

// DashboardGuard applies AuthMiddleware when dashboard auth is switched on
// and lets every request through otherwise.
func DashboardGuard() gin.HandlerFunc {
	if !config.DashboardAuth {
		return func(c *gin.Context) { c.Next() }
	}
	return AuthMiddleware()
}
