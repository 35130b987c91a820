package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmacy/pos-backend/internal/infrastructure/auth"
	"github.com/pharmacy/pos-backend/internal/interfaces/http/middleware"
)

// CredentialVerifier checks an operator's credentials against the upstream
// ERPNext instance and returns the operator's full name.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles operator authentication
type AuthHandler struct {
	BaseHandler
	verifier   CredentialVerifier
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(verifier CredentialVerifier, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		verifier:   verifier,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger.Named("auth"),
	}
}

// Login verifies the operator's ERPNext credentials and issues a token pair.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	fullName, err := h.verifier.VerifyCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("username", req.Username),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(req.Username, fullName)
	if err != nil {
		h.logger.Error("failed to generate token pair", zap.Error(err))
		h.InternalError(c, "Failed to issue tokens")
		return
	}

	h.logger.Info("operator logged in", zap.String("username", req.Username))

	h.Success(c, LoginResponse{
		Token:    tokenResponse(pair),
		Operator: OperatorResponse{Username: req.Username, FullName: fullName},
	})
}

// RefreshToken issues a fresh token pair from a valid refresh token.
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		h.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	h.Success(c, RefreshTokenResponse{Token: tokenResponse(pair)})
}

// Session returns the current operator session.
// GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, SessionResponse{
		Operator: OperatorResponse{
			Username: claims.Username,
			FullName: claims.FullName,
		},
		ExpiresAt: claims.GetExpiresAtTime(),
	})
}

// Logout revokes the current access token for the remainder of its lifetime.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if h.blacklist != nil && claims.ID != "" {
		ttl := claims.GetRemainingTTL()
		if ttl > 0 {
			if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, ttl); err != nil {
				h.logger.Error("failed to blacklist token",
					zap.String("operator", claims.Username),
					zap.Error(err))
				h.InternalError(c, "Failed to revoke token")
				return
			}
		}
	}

	h.logger.Info("operator logged out", zap.String("username", claims.Username))

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

func tokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}
