package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// ProductDTO is the admin representation with both languages.
type ProductDTO struct {
	ID                  uuid.UUID `json:"id"`
	Slug                string    `json:"slug"`
	NameEN              string    `json:"name_en"`
	NameFR              string    `json:"name_fr"`
	DescriptionEN       string    `json:"description_en"`
	DescriptionFR       string    `json:"description_fr"`
	Category            string    `json:"category"`
	PriceCents          int64     `json:"price_cents"`
	Price               string    `json:"price"`
	CompareAtPriceCents *int64    `json:"compare_at_price_cents,omitempty"`
	ImageURL            *string   `json:"image_url,omitempty"`
	StockQty            int       `json:"stock_qty"`
	IsActive            bool      `json:"is_active"`
	IsFeatured          bool      `json:"is_featured"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewProductDTO maps a stored product.
func NewProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:                  p.ID,
		Slug:                p.Slug,
		NameEN:              p.NameEN,
		NameFR:              p.NameFR,
		DescriptionEN:       p.DescriptionEN,
		DescriptionFR:       p.DescriptionFR,
		Category:            string(p.Category),
		PriceCents:          p.PriceCents,
		Price:               cart.FormatCents(p.PriceCents),
		CompareAtPriceCents: p.CompareAtPriceCents,
		ImageURL:            p.ImageURL,
		StockQty:            p.StockQty,
		IsActive:            p.IsActive,
		IsFeatured:          p.IsFeatured,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// PublicProductDTO is the storefront view in a single locale.
type PublicProductDTO struct {
	ID             uuid.UUID `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Price          string    `json:"price"`
	PriceCents     int64     `json:"price_cents"`
	CompareAtPrice *string   `json:"compare_at_price,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	InStock        bool      `json:"in_stock"`
	IsFeatured     bool      `json:"is_featured"`
	Locale         string    `json:"locale"`
}

// NewPublicProductDTO localizes a product, falling back to English for blank French copy.
func NewPublicProductDTO(p *models.Product, loc i18n.Locale) *PublicProductDTO {
	dto := &PublicProductDTO{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        i18n.Pick(loc, p.NameEN, p.NameFR),
		Description: i18n.Pick(loc, p.DescriptionEN, p.DescriptionFR),
		Category:    string(p.Category),
		Price:       cart.FormatCents(p.PriceCents),
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		InStock:     p.StockQty > 0,
		IsFeatured:  p.IsFeatured,
		Locale:      string(loc),
	}
	if p.CompareAtPriceCents != nil && *p.CompareAtPriceCents > p.PriceCents {
		compare := cart.FormatCents(*p.CompareAtPriceCents)
		dto.CompareAtPrice = &compare
	}
	return dto
}

// ProductListResult is a page of admin products.
type ProductListResult struct {
	Products []ProductDTO   `json:"products"`
	Page     pagination.Page `json:"page"`
}

// PublicProductListResult is a page of storefront products.
type PublicProductListResult struct {
	Products []PublicProductDTO `json:"products"`
	Page     pagination.Page    `json:"page"`
}
