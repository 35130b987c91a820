package handler

import "time"

// LoginRequest represents an operator login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents a JWT token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// OperatorResponse represents the authenticated operator
type OperatorResponse struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token    TokenResponse    `json:"token"`
	Operator OperatorResponse `json:"operator"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse represents a successful token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// SessionResponse represents the current operator session
type SessionResponse struct {
	Operator  OperatorResponse `json:"operator"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// LogoutResponse represents a successful logout
type LogoutResponse struct {
	Message string `json:"message"`
}
