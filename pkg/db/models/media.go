package models

import (
	"time"

	"github.com/google/uuid"
)

// Media records an uploaded asset by URL. Blob storage lives outside this service.
type Media struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FileName  string    `gorm:"column:file_name;not null"`
	URL       string    `gorm:"column:url;not null"`
	MimeType  string    `gorm:"column:mime_type;not null"`
	SizeBytes int64     `gorm:"column:size_bytes;not null;default:0"`
	AltText   string    `gorm:"column:alt_text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Media) TableName() string { return "media" }
