package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ProfileID uuid.UUID
	Email     string
	Role      enums.ProfileRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to CMS operators.
type AccessTokenClaims struct {
	ProfileID uuid.UUID         `json:"profile_id"`
	Email     string            `json:"email"`
	Role      enums.ProfileRole `json:"role"`
	jwt.RegisteredClaims
}
