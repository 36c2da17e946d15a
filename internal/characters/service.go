package characters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
	"github.com/isolele/isolele-backend/pkg/slug"
)

// CharacterDTO is the CMS representation of a cast member.
type CharacterDTO struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	RoleEN    string    `json:"role_en"`
	RoleFR    string    `json:"role_fr"`
	BioEN     string    `json:"bio_en"`
	BioFR     string    `json:"bio_fr"`
	ImageURL  *string   `json:"image_url,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicCharacterDTO is a cast member in one locale.
type PublicCharacterDTO struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Bio      string    `json:"bio"`
	ImageURL *string   `json:"image_url,omitempty"`
	Locale   string    `json:"locale"`
}

type CharacterListResult struct {
	Characters []CharacterDTO  `json:"characters"`
	Page       pagination.Page `json:"page"`
}

func newCharacterDTO(c *models.Character) CharacterDTO {
	return CharacterDTO{
		ID:        c.ID,
		Slug:      c.Slug,
		Name:      c.Name,
		RoleEN:    c.RoleEN,
		RoleFR:    c.RoleFR,
		BioEN:     c.BioEN,
		BioFR:     c.BioFR,
		ImageURL:  c.ImageURL,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func newPublicCharacterDTO(c *models.Character, loc i18n.Locale) PublicCharacterDTO {
	return PublicCharacterDTO{
		ID:       c.ID,
		Slug:     c.Slug,
		Name:     c.Name,
		Role:     i18n.Pick(loc, c.RoleEN, c.RoleFR),
		Bio:      i18n.Pick(loc, c.BioEN, c.BioFR),
		ImageURL: c.ImageURL,
		Locale:   string(loc),
	}
}

// Service manages the comic's cast.
type Service interface {
	ListPublic(ctx context.Context, loc i18n.Locale) ([]PublicCharacterDTO, error)
	GetPublicBySlug(ctx context.Context, slug string, loc i18n.Locale) (*PublicCharacterDTO, error)

	List(ctx context.Context, query string, page pagination.Params) (*CharacterListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*CharacterDTO, error)
	Create(ctx context.Context, input CreateCharacterInput) (*CharacterDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCharacterInput) (*CharacterDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateCharacterInput struct {
	Slug      string
	Name      string
	RoleEN    string
	RoleFR    string
	BioEN     string
	BioFR     string
	ImageURL  *string
	SortOrder int
}

type UpdateCharacterInput struct {
	Slug      *string
	Name      *string
	RoleEN    *string
	RoleFR    *string
	BioEN     *string
	BioFR     *string
	ImageURL  *string
	SortOrder *int
}

// NewRepository returns the characters table store.
func NewRepository(db *gorm.DB) *repo.Table[models.Character] {
	return repo.NewTable[models.Character](db, repo.TableOptions{
		Columns:       []string{"slug", "role_en", "role_fr", "bio_en", "bio_fr", "image_url", "sort_order", "created_at"},
		SearchColumns: []string{"name", "slug"},
		DefaultOrder:  "sort_order asc",
	})
}

type service struct {
	characters *repo.Table[models.Character]
}

func NewService(characters *repo.Table[models.Character]) (Service, error) {
	if characters == nil {
		return nil, fmt.Errorf("character repository required")
	}
	return &service{characters: characters}, nil
}

func (s *service) ListPublic(ctx context.Context, loc i18n.Locale) ([]PublicCharacterDTO, error) {
	rows, err := s.characters.List(ctx, repo.Filter{OrderBy: "sort_order asc", Limit: pagination.MaxLimit})
	if err != nil {
		return nil, err
	}
	out := make([]PublicCharacterDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newPublicCharacterDTO(&rows[i], loc))
	}
	return out, nil
}

func (s *service) GetPublicBySlug(ctx context.Context, characterSlug string, loc i18n.Locale) (*PublicCharacterDTO, error) {
	row, err := s.characters.FindOne(ctx, map[string]any{"slug": characterSlug})
	if err != nil {
		return nil, err
	}
	dto := newPublicCharacterDTO(row, loc)
	return &dto, nil
}

func (s *service) List(ctx context.Context, query string, page pagination.Params) (*CharacterListResult, error) {
	rows, meta, err := s.characters.Paginate(ctx, repo.Filter{Search: query}, page)
	if err != nil {
		return nil, err
	}
	out := make([]CharacterDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newCharacterDTO(&rows[i]))
	}
	return &CharacterListResult{Characters: out, Page: meta}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CharacterDTO, error) {
	row, err := s.characters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := newCharacterDTO(row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateCharacterInput) (*CharacterDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	characterSlug := strings.TrimSpace(input.Slug)
	if characterSlug == "" {
		characterSlug = slug.Make(name)
	}
	if !slug.Valid(characterSlug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase words separated by hyphens")
	}

	row, err := s.characters.Create(ctx, &models.Character{
		Slug:      characterSlug,
		Name:      name,
		RoleEN:    input.RoleEN,
		RoleFR:    input.RoleFR,
		BioEN:     input.BioEN,
		BioFR:     input.BioFR,
		ImageURL:  input.ImageURL,
		SortOrder: input.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	dto := newCharacterDTO(row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCharacterInput) (*CharacterDTO, error) {
	changes := map[string]any{}
	if input.Slug != nil {
		if !slug.Valid(*input.Slug) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase words separated by hyphens")
		}
		changes["slug"] = *input.Slug
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		changes["name"] = strings.TrimSpace(*input.Name)
	}
	for col, v := range map[string]*string{
		"role_en":   input.RoleEN,
		"role_fr":   input.RoleFR,
		"bio_en":    input.BioEN,
		"bio_fr":    input.BioFR,
		"image_url": input.ImageURL,
	} {
		if v != nil {
			changes[col] = *v
		}
	}
	if input.SortOrder != nil {
		changes["sort_order"] = *input.SortOrder
	}

	row, err := s.characters.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	dto := newCharacterDTO(row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.characters.Delete(ctx, id)
}
