package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

const maxSizeBytes = 50 * 1024 * 1024

type MediaDTO struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	AltText   string    `json:"alt_text"`
	CreatedAt time.Time `json:"created_at"`
}

type MediaListResult struct {
	Media []MediaDTO      `json:"media"`
	Page  pagination.Page `json:"page"`
}

func NewMediaDTO(m *models.Media) *MediaDTO {
	return &MediaDTO{
		ID:        m.ID,
		FileName:  m.FileName,
		URL:       m.URL,
		MimeType:  m.MimeType,
		SizeBytes: m.SizeBytes,
		AltText:   m.AltText,
		CreatedAt: m.CreatedAt,
	}
}

// Service records uploaded assets. The bytes live in external storage; only the URL is kept.
type Service interface {
	List(ctx context.Context, input ListInput) (*MediaListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*MediaDTO, error)
	Create(ctx context.Context, input CreateMediaInput) (*MediaDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateMediaInput) (*MediaDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ListInput struct {
	MimeType string
	Query    string
	Page     pagination.Params
}

type CreateMediaInput struct {
	FileName  string
	URL       string
	MimeType  string
	SizeBytes int64
	AltText   string
}

type UpdateMediaInput struct {
	FileName *string
	AltText  *string
}

func NewRepository(db *gorm.DB) *repo.Table[models.Media] {
	return repo.NewTable[models.Media](db, repo.TableOptions{
		Columns:       []string{"mime_type", "alt_text", "size_bytes", "created_at"},
		SearchColumns: []string{"file_name", "alt_text"},
		DefaultOrder:  "created_at desc",
	})
}

type service struct {
	media *repo.Table[models.Media]
}

func NewService(media *repo.Table[models.Media]) (Service, error) {
	if media == nil {
		return nil, fmt.Errorf("media repository required")
	}
	return &service{media: media}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*MediaListResult, error) {
	filter := repo.Filter{Equals: map[string]any{}, Search: input.Query}
	if input.MimeType != "" {
		filter.Equals["mime_type"] = strings.ToLower(strings.TrimSpace(input.MimeType))
	}
	rows, page, err := s.media.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]MediaDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewMediaDTO(&rows[i]))
	}
	return &MediaListResult{Media: out, Page: page}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MediaDTO, error) {
	row, err := s.media.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewMediaDTO(row), nil
}

func (s *service) Create(ctx context.Context, input CreateMediaInput) (*MediaDTO, error) {
	assetURL, err := validateURL(input.URL)
	if err != nil {
		return nil, err
	}
	mimeType, err := normalizeMimeType(input.MimeType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.SizeBytes < 0 || input.SizeBytes > maxSizeBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be between 0 and %d", maxSizeBytes))
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		fileName = path.Base(assetURL.Path)
	}
	if fileName == "" || fileName == "/" || fileName == "." {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}

	row, err := s.media.Create(ctx, &models.Media{
		FileName:  fileName,
		URL:       assetURL.String(),
		MimeType:  mimeType,
		SizeBytes: input.SizeBytes,
		AltText:   strings.TrimSpace(input.AltText),
	})
	if err != nil {
		return nil, err
	}
	return NewMediaDTO(row), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateMediaInput) (*MediaDTO, error) {
	changes := map[string]any{}
	if input.FileName != nil {
		name := strings.TrimSpace(*input.FileName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name cannot be empty")
		}
		changes["file_name"] = name
	}
	if input.AltText != nil {
		changes["alt_text"] = strings.TrimSpace(*input.AltText)
	}
	row, err := s.media.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return NewMediaDTO(row), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.media.Delete(ctx, id)
}

func validateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url must be an absolute http(s) URL")
	}
	return u, nil
}
