package articles

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// ArticleDTO is the CMS representation with both languages.
type ArticleDTO struct {
	ID            uuid.UUID  `json:"id"`
	Slug          string     `json:"slug"`
	TitleEN       string     `json:"title_en"`
	TitleFR       string     `json:"title_fr"`
	ExcerptEN     string     `json:"excerpt_en"`
	ExcerptFR     string     `json:"excerpt_fr"`
	BodyEN        string     `json:"body_en"`
	BodyFR        string     `json:"body_fr"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewArticleDTO(a *models.Article) *ArticleDTO {
	return &ArticleDTO{
		ID:            a.ID,
		Slug:          a.Slug,
		TitleEN:       a.TitleEN,
		TitleFR:       a.TitleFR,
		ExcerptEN:     a.ExcerptEN,
		ExcerptFR:     a.ExcerptFR,
		BodyEN:        a.BodyEN,
		BodyFR:        a.BodyFR,
		CoverImageURL: a.CoverImageURL,
		Status:        string(a.Status),
		PublishedAt:   a.PublishedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// PublicArticleDTO is a published article in one locale.
type PublicArticleDTO struct {
	ID            uuid.UUID  `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Body          string     `json:"body,omitempty"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Locale        string     `json:"locale"`
}

// NewPublicArticleDTO localizes a. Listings omit the body.
func NewPublicArticleDTO(a *models.Article, loc i18n.Locale, withBody bool) *PublicArticleDTO {
	dto := &PublicArticleDTO{
		ID:            a.ID,
		Slug:          a.Slug,
		Title:         i18n.Pick(loc, a.TitleEN, a.TitleFR),
		Excerpt:       i18n.Pick(loc, a.ExcerptEN, a.ExcerptFR),
		CoverImageURL: a.CoverImageURL,
		PublishedAt:   a.PublishedAt,
		Locale:        string(loc),
	}
	if withBody {
		dto.Body = i18n.Pick(loc, a.BodyEN, a.BodyFR)
	}
	return dto
}

type ArticleListResult struct {
	Articles []ArticleDTO    `json:"articles"`
	Page     pagination.Page `json:"page"`
}

type PublicArticleListResult struct {
	Articles []PublicArticleDTO `json:"articles"`
	Page     pagination.Page    `json:"page"`
}
