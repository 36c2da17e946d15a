package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// ProfileDTO is the transport shape that omits the password hash.
type ProfileDTO struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Role        enums.ProfileRole `json:"role"`
	IsActive    bool              `json:"is_active"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreatedProfile carries the generated password, shown once, when none was supplied.
type CreatedProfile struct {
	Profile      *ProfileDTO `json:"profile"`
	TempPassword string      `json:"temp_password,omitempty"`
}

type ProfileListResult struct {
	Profiles []ProfileDTO   `json:"profiles"`
	Page     pagination.Page `json:"page"`
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		IsActive:    p.IsActive,
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
