package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/enums"
)

// Article is a bilingual news/blog entry.
type Article struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Slug          string              `gorm:"column:slug;not null;uniqueIndex"`
	TitleEN       string              `gorm:"column:title_en;not null"`
	TitleFR       string              `gorm:"column:title_fr;not null;default:''"`
	ExcerptEN     string              `gorm:"column:excerpt_en;not null;default:''"`
	ExcerptFR     string              `gorm:"column:excerpt_fr;not null;default:''"`
	BodyEN        string              `gorm:"column:body_en;not null;default:''"`
	BodyFR        string              `gorm:"column:body_fr;not null;default:''"`
	CoverImageURL *string             `gorm:"column:cover_image_url"`
	Status        enums.ArticleStatus `gorm:"column:status;not null;default:draft"`
	PublishedAt   *time.Time          `gorm:"column:published_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Article) TableName() string { return "articles" }
