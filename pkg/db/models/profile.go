package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/enums"
)

// Profile is a CMS operator account.
type Profile struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email        string            `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	DisplayName  string            `gorm:"column:display_name;not null"`
	Role         enums.ProfileRole `gorm:"column:role;not null;default:editor"`
	IsActive     bool              `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time        `gorm:"column:last_login_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }
