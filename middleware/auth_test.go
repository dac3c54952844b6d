package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SupportChat/pkg/config"
	tokenstore "SupportChat/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": c.GetString(ContextOperatorIDKey)})
	})
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsEmptySecret(t *testing.T) {
	prev := config.JWTSecret
	config.JWTSecret = ""
	defer func() { config.JWTSecret = prev }()

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "jti": "jti-forged", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(authRouter(), "Bearer "+forged).Code)
	_, err = SigningKey()
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
}

func TestAuthMiddleware(t *testing.T) {
	prev := config.JWTSecret
	config.JWTSecret = "test-secret"
	defer func() { config.JWTSecret = prev }()
	r := authRouter()

	exp := time.Now().Add(time.Hour)
	good := signed(t, jwt.MapClaims{"sub": "7", "jti": "jti-ok", "exp": exp.Unix()})

	w := get(r, "Bearer "+good)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator":"7"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token "+good).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-jwt").Code)

	noExp := signed(t, jwt.MapClaims{"sub": "7", "jti": "jti-noexp"})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+noExp).Code)

	expired := signed(t, jwt.MapClaims{"sub": "7", "jti": "jti-old", "exp": time.Now().Add(-time.Minute).Unix()})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+expired).Code)

	noSub := signed(t, jwt.MapClaims{"jti": "jti-nosub", "exp": exp.Unix()})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+noSub).Code)

	tokenstore.RevokeToken("jti-ok", exp)
	w = get(r, "Bearer "+good)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestDashboardGuard(t *testing.T) {
	prev := config.DashboardAuth
	defer func() { config.DashboardAuth = prev }()
	gin.SetMode(gin.TestMode)

	config.DashboardAuth = false
	open := gin.New()
	open.GET("/private", DashboardGuard(), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, get(open, "").Code)

	config.DashboardAuth = true
	closed := gin.New()
	closed.GET("/private", DashboardGuard(), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, get(closed, "").Code)
}
