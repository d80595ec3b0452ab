package dto

import (
	"time"

	"github.com/spec-kit/ip-manager/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for the login endpoint.
type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      domain.UserSummary `json:"user"`
}

// UserResponse wraps a single account.
type UserResponse struct {
	User domain.UserSummary `json:"user"`
}
