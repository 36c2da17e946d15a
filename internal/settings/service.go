package settings

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
)

const maxKeyLength = 64

var keyPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._][a-z0-9]+)*$`)

type SettingDTO struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	IsPublic  bool      `json:"is_public"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSettingDTO(s *models.SiteSetting) *SettingDTO {
	return &SettingDTO{ID: s.ID, Key: s.Key, Value: s.Value, IsPublic: s.IsPublic, UpdatedAt: s.UpdatedAt}
}

// UpsertInput sets a value by key. IsPublic is left unchanged on update when nil.
type UpsertInput struct {
	Key      string
	Value    string
	IsPublic *bool
}

// Service reads and writes key/value site settings.
type Service interface {
	List(ctx context.Context) ([]SettingDTO, error)
	Public(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, input UpsertInput) (*SettingDTO, error)
	Delete(ctx context.Context, key string) error
}

func NewRepository(db *gorm.DB) *repo.Table[models.SiteSetting] {
	return repo.NewTable[models.SiteSetting](db, repo.TableOptions{
		Columns:       []string{"key", "value", "is_public", "updated_at"},
		SearchColumns: []string{"key"},
		DefaultOrder:  "key asc",
	})
}

type service struct {
	settings *repo.Table[models.SiteSetting]
}

func NewService(settings *repo.Table[models.SiteSetting]) (Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{settings: settings}, nil
}

func (s *service) List(ctx context.Context) ([]SettingDTO, error) {
	rows, err := s.settings.List(ctx, repo.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]SettingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewSettingDTO(&rows[i]))
	}
	return out, nil
}

// Public returns the settings flagged for the storefront as a key/value map.
func (s *service) Public(ctx context.Context) (map[string]string, error) {
	rows, err := s.settings.List(ctx, repo.Filter{Equals: map[string]any{"is_public": true}})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*SettingDTO, error) {
	key, err := normalizeKey(input.Key)
	if err != nil {
		return nil, err
	}

	existing, err := s.settings.FindOne(ctx, map[string]any{"key": key})
	switch {
	case err == nil:
		changes := map[string]any{"value": input.Value}
		if input.IsPublic != nil {
			changes["is_public"] = *input.IsPublic
		}
		row, err := s.settings.Update(ctx, existing.ID, changes)
		if err != nil {
			return nil, err
		}
		return NewSettingDTO(row), nil
	case pkgerrors.Is(err, pkgerrors.CodeNotFound):
		public := input.IsPublic != nil && *input.IsPublic
		row, err := s.settings.Create(ctx, &models.SiteSetting{Key: key, Value: input.Value, IsPublic: public})
		if err != nil {
			return nil, err
		}
		return NewSettingDTO(row), nil
	default:
		return nil, err
	}
}

func (s *service) Delete(ctx context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	existing, err := s.settings.FindOne(ctx, map[string]any{"key": normalized})
	if err != nil {
		return err
	}
	return s.settings.Delete(ctx, existing.ID)
}

func normalizeKey(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" || len(key) > maxKeyLength || !keyPattern.MatchString(key) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "key must be lowercase words joined by dots or underscores")
	}
	return key, nil
}
