package articles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
	"github.com/isolele/isolele-backend/pkg/slug"
)

// Service manages news articles.
type Service interface {
	ListPublished(ctx context.Context, loc i18n.Locale, page pagination.Params) (*PublicArticleListResult, error)
	GetPublishedBySlug(ctx context.Context, slug string, loc i18n.Locale) (*PublicArticleDTO, error)

	List(ctx context.Context, input ListInput) (*ArticleListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ArticleDTO, error)
	Create(ctx context.Context, input CreateArticleInput) (*ArticleDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateArticleInput) (*ArticleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ListInput struct {
	Status  *enums.ArticleStatus
	Query   string
	OrderBy string
	Page    pagination.Params
}

type CreateArticleInput struct {
	Slug          string
	TitleEN       string
	TitleFR       string
	ExcerptEN     string
	ExcerptFR     string
	BodyEN        string
	BodyFR        string
	CoverImageURL *string
	Status        enums.ArticleStatus
}

type UpdateArticleInput struct {
	Slug          *string
	TitleEN       *string
	TitleFR       *string
	ExcerptEN     *string
	ExcerptFR     *string
	BodyEN        *string
	BodyFR        *string
	CoverImageURL *string
	Status        *enums.ArticleStatus
}

// NewRepository returns the articles table store.
func NewRepository(db *gorm.DB) *repo.Table[models.Article] {
	return repo.NewTable[models.Article](db, repo.TableOptions{
		Columns: []string{
			"slug", "status", "excerpt_en", "excerpt_fr", "body_en", "body_fr",
			"cover_image_url", "published_at", "created_at", "updated_at",
		},
		SearchColumns: []string{"title_en", "title_fr", "slug"},
		DefaultOrder:  "created_at desc",
	})
}

type service struct {
	articles *repo.Table[models.Article]
	now      func() time.Time
}

func NewService(articles *repo.Table[models.Article]) (Service, error) {
	if articles == nil {
		return nil, fmt.Errorf("article repository required")
	}
	return &service{articles: articles, now: time.Now}, nil
}

func (s *service) ListPublished(ctx context.Context, loc i18n.Locale, page pagination.Params) (*PublicArticleListResult, error) {
	rows, meta, err := s.articles.Paginate(ctx, repo.Filter{
		Equals:  map[string]any{"status": enums.ArticleStatusPublished},
		OrderBy: "published_at desc",
	}, page)
	if err != nil {
		return nil, err
	}
	out := make([]PublicArticleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewPublicArticleDTO(&rows[i], loc, false))
	}
	return &PublicArticleListResult{Articles: out, Page: meta}, nil
}

func (s *service) GetPublishedBySlug(ctx context.Context, articleSlug string, loc i18n.Locale) (*PublicArticleDTO, error) {
	row, err := s.articles.FindOne(ctx, map[string]any{"slug": articleSlug, "status": enums.ArticleStatusPublished})
	if err != nil {
		return nil, err
	}
	return NewPublicArticleDTO(row, loc, true), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ArticleListResult, error) {
	filter := repo.Filter{Equals: map[string]any{}, Search: input.Query, OrderBy: input.OrderBy}
	if input.Status != nil {
		filter.Equals["status"] = *input.Status
	}
	rows, meta, err := s.articles.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]ArticleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewArticleDTO(&rows[i]))
	}
	return &ArticleListResult{Articles: out, Page: meta}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ArticleDTO, error) {
	row, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewArticleDTO(row), nil
}

func (s *service) Create(ctx context.Context, input CreateArticleInput) (*ArticleDTO, error) {
	if strings.TrimSpace(input.TitleEN) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title_en is required")
	}
	articleSlug := strings.TrimSpace(input.Slug)
	if articleSlug == "" {
		articleSlug = slug.Make(input.TitleEN)
	}
	if !slug.Valid(articleSlug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase words separated by hyphens")
	}
	status := input.Status
	if status == "" {
		status = enums.ArticleStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	row := &models.Article{
		Slug:          articleSlug,
		TitleEN:       strings.TrimSpace(input.TitleEN),
		TitleFR:       strings.TrimSpace(input.TitleFR),
		ExcerptEN:     input.ExcerptEN,
		ExcerptFR:     input.ExcerptFR,
		BodyEN:        input.BodyEN,
		BodyFR:        input.BodyFR,
		CoverImageURL: input.CoverImageURL,
		Status:        status,
	}
	if status == enums.ArticleStatusPublished {
		now := s.now().UTC()
		row.PublishedAt = &now
	}

	created, err := s.articles.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	return NewArticleDTO(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateArticleInput) (*ArticleDTO, error) {
	current, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if input.Slug != nil {
		if !slug.Valid(*input.Slug) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase words separated by hyphens")
		}
		changes["slug"] = *input.Slug
	}
	if input.TitleEN != nil {
		if strings.TrimSpace(*input.TitleEN) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title_en cannot be empty")
		}
		changes["title_en"] = strings.TrimSpace(*input.TitleEN)
	}
	setString(changes, "title_fr", input.TitleFR)
	setString(changes, "excerpt_en", input.ExcerptEN)
	setString(changes, "excerpt_fr", input.ExcerptFR)
	setString(changes, "body_en", input.BodyEN)
	setString(changes, "body_fr", input.BodyFR)
	setString(changes, "cover_image_url", input.CoverImageURL)
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		changes["status"] = *input.Status
		if *input.Status == enums.ArticleStatusPublished && current.PublishedAt == nil {
			changes["published_at"] = s.now().UTC()
		}
	}

	row, err := s.articles.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return NewArticleDTO(row), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.articles.Delete(ctx, id)
}

func setString(changes map[string]any, col string, value *string) {
	if value != nil {
		changes[col] = *value
	}
}
