package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/domain/shared"
	"github.com/pharmacy/pos-backend/internal/infrastructure/auth"
	"github.com/pharmacy/pos-backend/internal/infrastructure/config"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/middleware"
)

type stubVerifier struct {
	fullName string
	err      error
}

func (v *stubVerifier) VerifyCredentials(ctx context.Context, username, password string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.fullName, nil
}

type authFixture struct {
	router    *gin.Engine
	verifier  *stubVerifier
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier := &stubVerifier{fullName: "Asha Verma"}
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "pos-backend-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	h := NewAuthHandler(verifier, jwtService, blacklist, zap.NewNop())

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist

	router := gin.New()
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/refresh", h.RefreshToken)

	authed := router.Group("/api/v1")
	authed.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	authed.GET("/auth/session", h.Session)
	authed.POST("/auth/logout", h.Logout)

	return &authFixture{router: router, verifier: verifier, jwt: jwtService, blacklist: blacklist}
}

func (f *authFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) login(t *testing.T) LoginResponse {
	t.Helper()
	w := f.do(t, "POST", "/api/v1/auth/login",
		`{"username": "cashier@hospital.local", "password": "secret"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Data
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t)

	result := f.login(t)
	assert.NotEmpty(t, result.Token.AccessToken)
	assert.NotEmpty(t, result.Token.RefreshToken)
	assert.Equal(t, "Bearer", result.Token.TokenType)
	assert.Equal(t, "cashier@hospital.local", result.Operator.Username)
	assert.Equal(t, "Asha Verma", result.Operator.FullName)
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.verifier.err = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

	w := f.do(t, "POST", "/api/v1/auth/login",
		`{"username": "cashier@hospital.local", "password": "wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_Login_UpstreamDown(t *testing.T) {
	f := newAuthFixture(t)
	f.verifier.err = shared.NewDomainError("EXTERNAL_FAILURE", "ERPNext is unreachable")

	w := f.do(t, "POST", "/api/v1/auth/login",
		`{"username": "cashier@hospital.local", "password": "secret"}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(t, "POST", "/api/v1/auth/login", `{"username": "cashier@hospital.local"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Session(t *testing.T) {
	f := newAuthFixture(t)
	result := f.login(t)

	w := f.do(t, "GET", "/api/v1/auth/session", "", result.Token.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cashier@hospital.local")
	assert.Contains(t, w.Body.String(), "Asha Verma")
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	result := f.login(t)

	w := f.do(t, "POST", "/api/v1/auth/refresh",
		`{"refresh_token": "`+result.Token.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Data RefreshTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Data.Token.AccessToken)
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	f := newAuthFixture(t)

	w := f.do(t, "POST", "/api/v1/auth/refresh", `{"refresh_token": "garbage"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	result := f.login(t)

	w := f.do(t, "POST", "/api/v1/auth/logout", "", result.Token.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked token no longer passes the middleware
	w = f.do(t, "GET", "/api/v1/auth/session", "", result.Token.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
}
