package auth

import (
	"time"

	"github.com/isolele/isolele-backend/internal/profiles"
)

// LoginRequest captures the operator credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed token and the authenticated profile.
type LoginResponse struct {
	AccessToken string               `json:"access_token"`
	ExpiresAt   time.Time            `json:"expires_at"`
	Profile     *profiles.ProfileDTO `json:"profile"`
}
