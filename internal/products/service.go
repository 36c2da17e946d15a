package product

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
	"github.com/isolele/isolele-backend/pkg/slug"
)

const snippetLength = 140

// Service exposes catalog reads for the storefront and CRUD for the CMS.
type Service interface {
	ListPublic(ctx context.Context, input PublicListInput) (*PublicProductListResult, error)
	GetPublicBySlug(ctx context.Context, slug string, loc i18n.Locale) (*PublicProductDTO, error)
	CartProduct(ctx context.Context, id uuid.UUID) (*cart.Product, error)

	List(ctx context.Context, input ListInput) (*ProductListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PublicListInput filters the storefront listing. Only active products are returned.
type PublicListInput struct {
	Locale   i18n.Locale
	Category *enums.ProductCategory
	Featured *bool
	Query    string
	Page     pagination.Params
}

// ListInput filters the admin listing.
type ListInput struct {
	Category *enums.ProductCategory
	IsActive *bool
	Query    string
	OrderBy  string
	Page     pagination.Params
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Slug                string
	NameEN              string
	NameFR              string
	DescriptionEN       string
	DescriptionFR       string
	Category            enums.ProductCategory
	PriceCents          int64
	CompareAtPriceCents *int64
	ImageURL            *string
	StockQty            int
	IsActive            bool
	IsFeatured          bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Slug                *string
	NameEN              *string
	NameFR              *string
	DescriptionEN       *string
	DescriptionFR       *string
	Category            *enums.ProductCategory
	PriceCents          *int64
	CompareAtPriceCents *int64
	ClearCompareAt      bool
	ImageURL            *string
	StockQty            *int
	IsActive            *bool
	IsFeatured          *bool
}

type service struct {
	products *repo.Table[models.Product]
}

// NewService constructs a product service instance.
func NewService(products *repo.Table[models.Product]) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{products: products}, nil
}

func (s *service) ListPublic(ctx context.Context, input PublicListInput) (*PublicProductListResult, error) {
	filter := repo.Filter{
		Equals:  map[string]any{"is_active": true},
		Search:  input.Query,
		OrderBy: "created_at desc",
	}
	if input.Category != nil {
		filter.Equals["category"] = *input.Category
	}
	if input.Featured != nil {
		filter.Equals["is_featured"] = *input.Featured
	}

	rows, page, err := s.products.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]PublicProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewPublicProductDTO(&rows[i], input.Locale))
	}
	return &PublicProductListResult{Products: out, Page: page}, nil
}

func (s *service) GetPublicBySlug(ctx context.Context, productSlug string, loc i18n.Locale) (*PublicProductDTO, error) {
	row, err := s.products.FindOne(ctx, map[string]any{"slug": productSlug, "is_active": true})
	if err != nil {
		return nil, err
	}
	return NewPublicProductDTO(row, loc), nil
}

// CartProduct snapshots an active product for the cart.
func (s *service) CartProduct(ctx context.Context, id uuid.UUID) (*cart.Product, error) {
	row, err := s.products.FindOne(ctx, map[string]any{"id": id, "is_active": true})
	if err != nil {
		return nil, err
	}
	image := ""
	if row.ImageURL != nil {
		image = *row.ImageURL
	}
	return &cart.Product{
		ID:                  row.ID,
		Name:                row.NameEN,
		PriceCents:          row.PriceCents,
		CompareAtPriceCents: row.CompareAtPriceCents,
		ImageRef:            image,
		DescriptionSnippet:  snippet(row.DescriptionEN, snippetLength),
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ProductListResult, error) {
	filter := repo.Filter{Equals: map[string]any{}, Search: input.Query, OrderBy: input.OrderBy}
	if input.Category != nil {
		filter.Equals["category"] = *input.Category
	}
	if input.IsActive != nil {
		filter.Equals["is_active"] = *input.IsActive
	}

	rows, page, err := s.products.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{Products: out, Page: page}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(row), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	productSlug := strings.TrimSpace(input.Slug)
	if productSlug == "" {
		productSlug = slug.Make(input.NameEN)
	}
	if err := validateSlug(productSlug); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.NameEN) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name_en is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if err := validatePricing(input.PriceCents, input.CompareAtPriceCents); err != nil {
		return nil, err
	}
	if input.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_qty must be non-negative")
	}

	row, err := s.products.Create(ctx, &models.Product{
		Slug:                productSlug,
		NameEN:              strings.TrimSpace(input.NameEN),
		NameFR:              strings.TrimSpace(input.NameFR),
		DescriptionEN:       input.DescriptionEN,
		DescriptionFR:       input.DescriptionFR,
		Category:            input.Category,
		PriceCents:          input.PriceCents,
		CompareAtPriceCents: input.CompareAtPriceCents,
		ImageURL:            input.ImageURL,
		StockQty:            input.StockQty,
		IsActive:            input.IsActive,
		IsFeatured:          input.IsFeatured,
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(row), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if input.Slug != nil {
		if err := validateSlug(*input.Slug); err != nil {
			return nil, err
		}
		changes["slug"] = *input.Slug
	}
	if input.NameEN != nil {
		if strings.TrimSpace(*input.NameEN) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name_en cannot be empty")
		}
		changes["name_en"] = strings.TrimSpace(*input.NameEN)
	}
	if input.NameFR != nil {
		changes["name_fr"] = strings.TrimSpace(*input.NameFR)
	}
	if input.DescriptionEN != nil {
		changes["description_en"] = *input.DescriptionEN
	}
	if input.DescriptionFR != nil {
		changes["description_fr"] = *input.DescriptionFR
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		changes["category"] = *input.Category
	}

	price := current.PriceCents
	if input.PriceCents != nil {
		price = *input.PriceCents
		changes["price_cents"] = price
	}
	compareAt := current.CompareAtPriceCents
	if input.ClearCompareAt {
		compareAt = nil
		changes["compare_at_price_cents"] = nil
	} else if input.CompareAtPriceCents != nil {
		compareAt = input.CompareAtPriceCents
		changes["compare_at_price_cents"] = *input.CompareAtPriceCents
	}
	if err := validatePricing(price, compareAt); err != nil {
		return nil, err
	}

	if input.ImageURL != nil {
		changes["image_url"] = *input.ImageURL
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_qty must be non-negative")
		}
		changes["stock_qty"] = *input.StockQty
	}
	if input.IsActive != nil {
		changes["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		changes["is_featured"] = *input.IsFeatured
	}

	row, err := s.products.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(row), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func validateSlug(value string) error {
	if !slug.Valid(value) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase words separated by hyphens")
	}
	return nil
}

func validatePricing(price int64, compareAt *int64) error {
	if price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be non-negative")
	}
	if compareAt != nil && *compareAt < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price_cents must be non-negative")
	}
	return nil
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
