package newsletter

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

type SubscriberDTO struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Locale       string    `json:"locale"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

type SubscriberListResult struct {
	Subscribers []SubscriberDTO `json:"subscribers"`
	Page        pagination.Page `json:"page"`
}

// SubscribeResult tells the caller whether the address was new.
type SubscribeResult struct {
	Subscriber SubscriberDTO `json:"subscriber"`
	Created    bool          `json:"created"`
}

func newSubscriberDTO(n *models.NewsletterSubscriber) SubscriberDTO {
	return SubscriberDTO{ID: n.ID, Email: n.Email, Locale: n.Locale, SubscribedAt: n.SubscribedAt}
}

// Service manages newsletter signups.
type Service interface {
	Subscribe(ctx context.Context, email string, loc i18n.Locale) (*SubscribeResult, error)
	List(ctx context.Context, query string, page pagination.Params) (*SubscriberListResult, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewRepository returns the subscribers table store.
func NewRepository(db *gorm.DB) *repo.Table[models.NewsletterSubscriber] {
	return repo.NewTable[models.NewsletterSubscriber](db, repo.TableOptions{
		Columns:       []string{"locale", "subscribed_at"},
		SearchColumns: []string{"email"},
		DefaultOrder:  "subscribed_at desc",
	})
}

type service struct {
	subscribers *repo.Table[models.NewsletterSubscriber]
}

func NewService(subscribers *repo.Table[models.NewsletterSubscriber]) (Service, error) {
	if subscribers == nil {
		return nil, fmt.Errorf("subscriber repository required")
	}
	return &service{subscribers: subscribers}, nil
}

// Subscribe is idempotent: an address already on the list returns the existing row.
func (s *service) Subscribe(ctx context.Context, email string, loc i18n.Locale) (*SubscribeResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if _, ok := i18n.Parse(string(loc)); !ok {
		loc = i18n.Default
	}

	existing, err := s.subscribers.FindOne(ctx, map[string]any{"email": normalized})
	if err == nil {
		return &SubscribeResult{Subscriber: newSubscriberDTO(existing)}, nil
	}
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	created, err := s.subscribers.Create(ctx, &models.NewsletterSubscriber{Email: normalized, Locale: string(loc)})
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeConflict) {
			return nil, err
		}
		// lost a race with a concurrent signup for the same address
		existing, findErr := s.subscribers.FindOne(ctx, map[string]any{"email": normalized})
		if findErr != nil {
			return nil, findErr
		}
		return &SubscribeResult{Subscriber: newSubscriberDTO(existing)}, nil
	}
	return &SubscribeResult{Subscriber: newSubscriberDTO(created), Created: true}, nil
}

func (s *service) List(ctx context.Context, query string, page pagination.Params) (*SubscriberListResult, error) {
	rows, meta, err := s.subscribers.Paginate(ctx, repo.Filter{Search: query}, page)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newSubscriberDTO(&rows[i]))
	}
	return &SubscriberListResult{Subscribers: out, Page: meta}, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.subscribers.Count(ctx, repo.Filter{})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.subscribers.Delete(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	return strings.ToLower(addr.Address), nil
}
