package profiles

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/pagination"
	"github.com/isolele/isolele-backend/pkg/security"
)

const (
	tempPasswordLength = 16
	minPasswordLength  = 8
)

// Service manages CMS operator accounts. Callers gate it to the admin role.
type Service interface {
	List(ctx context.Context, input ListInput) (*ProfileListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	Create(ctx context.Context, input CreateProfileInput) (*CreatedProfile, error)
	Update(ctx context.Context, actorID, id uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type ListInput struct {
	Role  *enums.ProfileRole
	Query string
	Page  pagination.Params
}

type CreateProfileInput struct {
	Email       string
	DisplayName string
	Role        enums.ProfileRole
	Password    string
}

type UpdateProfileInput struct {
	DisplayName *string
	Role        *enums.ProfileRole
	IsActive    *bool
	Password    *string
}

// NewRepository returns the profiles table store.
func NewRepository(db *gorm.DB) *repo.Table[models.Profile] {
	return repo.NewTable[models.Profile](db, repo.TableOptions{
		Columns:       []string{"email", "role", "is_active", "display_name", "password_hash", "last_login_at", "created_at"},
		SearchColumns: []string{"email", "display_name"},
		DefaultOrder:  "created_at desc",
	})
}

type service struct {
	profiles *repo.Table[models.Profile]
	password config.PasswordConfig
}

func NewService(profiles *repo.Table[models.Profile], password config.PasswordConfig) (Service, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{profiles: profiles, password: password}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ProfileListResult, error) {
	filter := repo.Filter{Equals: map[string]any{}, Search: input.Query}
	if input.Role != nil {
		filter.Equals["role"] = *input.Role
	}
	rows, page, err := s.profiles.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &ProfileListResult{Profiles: out, Page: page}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	row, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

func (s *service) Create(ctx context.Context, input CreateProfileInput) (*CreatedProfile, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = enums.ProfileRoleEditor
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	password, temp := input.Password, ""
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
		}
		password, temp = generated, generated
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	row, err := s.profiles.Create(ctx, &models.Profile{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	return &CreatedProfile{Profile: FromModel(row), TempPassword: temp}, nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	changes := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name cannot be empty")
		}
		changes["display_name"] = name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		if actorID == id && *input.Role != enums.ProfileRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot demote your own profile")
		}
		changes["role"] = *input.Role
	}
	if input.IsActive != nil {
		if actorID == id && !*input.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own profile")
		}
		changes["is_active"] = *input.IsActive
	}
	if input.Password != nil {
		hash, err := s.hash(*input.Password)
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = hash
	}

	row, err := s.profiles.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	return FromModel(row), nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own profile")
	}
	return s.profiles.Delete(ctx, id)
}

func (s *service) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

// NormalizeEmail lowercases a bare address and rejects display-name forms.
func NormalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	return strings.ToLower(addr.Address), nil
}
