package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the payload for creating an account. Role defaults
// to "user"; "admin" is honored only for allow-listed emails.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,max=100"`
}

// AuthResponse returns the public user view and the access token. The
// refresh token travels separately as an HTTP-only cookie.
type AuthResponse struct {
	User        UserInfo `json:"user"`
	AccessToken string   `json:"accessToken"`
}

// RefreshResponse returns a freshly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// UserInfo describes a user in auth responses, password excluded.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// Info derives the response view from a stored user.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// AccessClaims is the JWT payload. The user identifier is the only
// application claim: role is always loaded from the store by whoever
// needs it, so a stale token can never carry stale permissions.
type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenPair bundles freshly issued credentials.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
