package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	cartsvc "github.com/isolele/isolele-backend/internal/cart"
	mediasvc "github.com/isolele/isolele-backend/internal/media"
	productsvc "github.com/isolele/isolele-backend/internal/products"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type productRequest struct {
	Slug                *string `json:"slug" validate:"omitempty,max=120"`
	NameEN              *string `json:"name_en" validate:"omitempty,max=200"`
	NameFR              *string `json:"name_fr" validate:"omitempty,max=200"`
	DescriptionEN       *string `json:"description_en"`
	DescriptionFR       *string `json:"description_fr"`
	Category            *string `json:"category"`
	PriceCents          *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Price               *string `json:"price" validate:"omitempty,max=20"`
	CompareAtPriceCents *int64  `json:"compare_at_price_cents" validate:"omitempty,gte=0"`
	CompareAtPrice      *string `json:"compare_at_price" validate:"omitempty,max=20"`
	ClearCompareAt      bool    `json:"clear_compare_at"`
	ImageURL            *string `json:"image_url" validate:"omitempty,url"`
	StockQty            *int    `json:"stock_qty" validate:"omitempty,gte=0"`
	IsActive            *bool   `json:"is_active"`
	IsFeatured          *bool   `json:"is_featured"`
}

func (r productRequest) category() (*enums.ProductCategory, error) {
	if r.Category == nil {
		return nil, nil
	}
	category, err := enums.ParseProductCategory(*r.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	return &category, nil
}

// prices resolves price and compare-at price from either the cents fields or
// their decimal string forms. Both forms may be sent when they agree.
func (r productRequest) prices() (price, compareAt *int64, err error) {
	if price, err = amountField("price", r.PriceCents, r.Price); err != nil {
		return nil, nil, err
	}
	if compareAt, err = amountField("compare_at_price", r.CompareAtPriceCents, r.CompareAtPrice); err != nil {
		return nil, nil, err
	}
	return price, compareAt, nil
}

func amountField(name string, cents *int64, raw *string) (*int64, error) {
	if raw == nil {
		return cents, nil
	}
	parsed, err := cartsvc.ParseAmount(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{"field": name})
	}
	if parsed < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must not be negative").
			WithDetails(map[string]any{"field": name})
	}
	if cents != nil && *cents != parsed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" and "+name+"_cents disagree").
			WithDetails(map[string]any{"field": name})
	}
	return &parsed, nil
}

func AdminListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := optionalEnumQuery(r, "category", enums.ParseProductCategory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := optionalBoolQuery(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), productsvc.ListInput{
			Category: category,
			IsActive: active,
			Query:    searchQuery(r),
			OrderBy:  r.URL.Query().Get("order"),
			Page:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*productsvc.ProductDTO, error) {
		return svc.Get(ctx, id)
	})
}

// AdminCreateProduct creates a product. New products are active unless is_active is false.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := payload.category()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, compareAt, err := payload.prices()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if category == nil || price == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category and price are required"))
			return
		}

		input := productsvc.CreateProductInput{
			Slug:                deref(payload.Slug),
			NameEN:              deref(payload.NameEN),
			NameFR:              deref(payload.NameFR),
			DescriptionEN:       deref(payload.DescriptionEN),
			DescriptionFR:       deref(payload.DescriptionFR),
			Category:            *category,
			PriceCents:          *price,
			CompareAtPriceCents: compareAt,
			ImageURL:            trimmedPtr(payload.ImageURL),
			IsActive:            true,
		}
		if payload.StockQty != nil {
			input.StockQty = *payload.StockQty
		}
		if payload.IsActive != nil {
			input.IsActive = *payload.IsActive
		}
		if payload.IsFeatured != nil {
			input.IsFeatured = *payload.IsFeatured
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*productsvc.ProductDTO, error) {
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		category, err := payload.category()
		if err != nil {
			return nil, err
		}
		price, compareAt, err := payload.prices()
		if err != nil {
			return nil, err
		}
		return svc.Update(ctx, id, productsvc.UpdateProductInput{
			Slug:                trimmedPtr(payload.Slug),
			NameEN:              payload.NameEN,
			NameFR:              payload.NameFR,
			DescriptionEN:       payload.DescriptionEN,
			DescriptionFR:       payload.DescriptionFR,
			Category:            category,
			PriceCents:          price,
			CompareAtPriceCents: compareAt,
			ClearCompareAt:      payload.ClearCompareAt,
			ImageURL:            trimmedPtr(payload.ImageURL),
			StockQty:            payload.StockQty,
			IsActive:            payload.IsActive,
			IsFeatured:          payload.IsFeatured,
		})
	})
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, svc.Delete)
}

type createMediaRequest struct {
	FileName  string `json:"file_name" validate:"max=255"`
	URL       string `json:"url" validate:"required,url,max=2048"`
	MimeType  string `json:"mime_type" validate:"required,max=100"`
	SizeBytes int64  `json:"size_bytes" validate:"gte=0"`
	AltText   string `json:"alt_text" validate:"max=500"`
}

type updateMediaRequest struct {
	FileName *string `json:"file_name" validate:"omitempty,max=255"`
	AltText  *string `json:"alt_text" validate:"omitempty,max=500"`
}

func AdminListMedia(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), mediasvc.ListInput{
			MimeType: r.URL.Query().Get("mime_type"),
			Query:    searchQuery(r),
			Page:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetMedia(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*mediasvc.MediaDTO, error) {
		return svc.Get(ctx, id)
	})
}

// AdminCreateMedia registers an already uploaded asset by URL.
func AdminCreateMedia(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createMediaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		media, err := svc.Create(r.Context(), mediasvc.CreateMediaInput{
			FileName:  payload.FileName,
			URL:       payload.URL,
			MimeType:  payload.MimeType,
			SizeBytes: payload.SizeBytes,
			AltText:   payload.AltText,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, media)
	}
}

func AdminUpdateMedia(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*mediasvc.MediaDTO, error) {
		var payload updateMediaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Update(ctx, id, mediasvc.UpdateMediaInput{
			FileName: trimmedPtr(payload.FileName),
			AltText:  payload.AltText,
		})
	})
}

func AdminDeleteMedia(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteByID(logg, svc.Delete)
}
