package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// RegisterRequest payload for operator registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse is the public shape of an operator.
type IdentityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      IdentityResponse `json:"user"`
}

// NewIdentityResponse projects an identity.
func NewIdentityResponse(identity *domain.Identity) IdentityResponse {
	if identity == nil {
		return IdentityResponse{}
	}
	return IdentityResponse{ID: identity.ID, Name: identity.Name, Email: identity.Email}
}
