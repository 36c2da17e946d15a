package models

import (
	"time"

	"github.com/google/uuid"
)

// Character is a member of the comic universe cast.
type Character struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	RoleEN    string    `gorm:"column:role_en;not null;default:''"`
	RoleFR    string    `gorm:"column:role_fr;not null;default:''"`
	BioEN     string    `gorm:"column:bio_en;not null;default:''"`
	BioFR     string    `gorm:"column:bio_fr;not null;default:''"`
	ImageURL  *string   `gorm:"column:image_url"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Character) TableName() string { return "characters" }
