package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/enums"
)

// Product represents a shop listing. StockQty is informational only.
type Product struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Slug                string                `gorm:"column:slug;not null;uniqueIndex"`
	NameEN              string                `gorm:"column:name_en;not null"`
	NameFR              string                `gorm:"column:name_fr;not null;default:''"`
	DescriptionEN       string                `gorm:"column:description_en;not null;default:''"`
	DescriptionFR       string                `gorm:"column:description_fr;not null;default:''"`
	Category            enums.ProductCategory `gorm:"column:category;not null"`
	PriceCents          int64                 `gorm:"column:price_cents;not null"`
	CompareAtPriceCents *int64                `gorm:"column:compare_at_price_cents"`
	ImageURL            *string               `gorm:"column:image_url"`
	StockQty            int                   `gorm:"column:stock_qty;not null;default:0"`
	IsActive            bool                  `gorm:"column:is_active;not null"`
	IsFeatured          bool                  `gorm:"column:is_featured;not null;default:false"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
