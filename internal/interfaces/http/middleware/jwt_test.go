package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/pos-backend/internal/infrastructure/auth"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
	"github.com/pharmacy/pos-backend/internal/infrastructure/logger"
)

func newTestJWTService(accessExpiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration:  accessExpiration,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "pos-backend-test",
	})
}

func newProtectedRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username":  GetJWTUsername(c),
			"full_name": GetJWTFullName(c),
		})
	})
	router.GET("/api/v1/auth/login", func(c *gin.Context) {
		c.String(http.StatusOK, "login")
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "Asha Verma")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cashier@hospital.local")
	assert.Contains(t, w.Body.String(), "Asha Verma")
}

func TestJWTAuthMiddleware_OperatorOnRequestContext(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(DefaultJWTConfig(svc)))

	var gotOperator string
	router.GET("/protected", func(c *gin.Context) {
		gotOperator = logger.GetOperator(c.Request.Context())
		c.Status(http.StatusOK)
	})

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "Asha Verma")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cashier@hospital.local", gotOperator)
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestJWTAuthMiddleware_GarbageToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(-time.Minute)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_RefreshTokenRejectedAsAccess(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN_TYPE")
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	router := newProtectedRouter(DefaultJWTConfig(svc))

	req := httptest.NewRequest("GET", "/api/v1/auth/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "login", w.Body.String())
}

func TestJWTAuthMiddleware_BlacklistedToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	blacklist := auth.NewInMemoryTokenBlacklist()

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	router := newProtectedRouter(cfg)

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
}

func TestJWTAuthMiddleware_OperatorInvalidation(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	blacklist := auth.NewInMemoryTokenBlacklist()

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	router := newProtectedRouter(cfg)

	pair, err := svc.GenerateTokenPair("cashier@hospital.local", "")
	require.NoError(t, err)

	// Invalidation timestamp must land after the token's issued-at second
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, blacklist.AddOperatorTokensToBlacklist(context.Background(), "cashier@hospital.local", time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")

	// A different operator's token is untouched
	otherPair, err := svc.GenerateTokenPair("manager@hospital.local", "")
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+otherPair.AccessToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	cfg := DefaultJWTConfig(svc)
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": true})
	}
	router := newProtectedRouter(cfg)

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "custom")
}
