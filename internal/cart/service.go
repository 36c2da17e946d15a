package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// ProductLookup resolves an active catalog product into a cart snapshot.
type ProductLookup interface {
	CartProduct(ctx context.Context, id uuid.UUID) (*Product, error)
}

// Service exposes cart operations for one cart token at a time.
type Service interface {
	Get(ctx context.Context, token string) (*View, error)
	AddItem(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, token string) (*View, error)
	SetOpen(ctx context.Context, token string, open bool) (*View, error)
	Toggle(ctx context.Context, token string) (*View, error)

	// Snapshot returns the current cart contents and totals.
	Snapshot(ctx context.Context, token string) (Snapshot, error)
	// Reset empties the cart and closes the panel after a completed checkout.
	Reset(ctx context.Context, token string) error
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Store    Store
	Products ProductLookup
	Policy   ShippingPolicy
	Logger   *logger.Logger
}

type service struct {
	store    Store
	products ProductLookup
	calc     Calculator
	logg     *logger.Logger
	locks    keyedMutex
}

// NewService builds the cart service backed by the provided store and catalog.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Policy.FreeThresholdCents < 0 || params.Policy.FlatFeeCents < 0 {
		return nil, fmt.Errorf("shipping policy must be non-negative")
	}
	return &service{
		store:    params.Store,
		products: params.Products,
		calc:     NewCalculator(params.Policy),
		logg:     params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, token string) (*View, error) {
	c, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	view := NewView(c.Snapshot())
	return &view, nil
}

func (s *service) AddItem(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	product, err := s.products.CartProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, token, func(c *Cart) {
		c.AddItem(*product, quantity)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) (*View, error) {
	return s.update(ctx, token, func(c *Cart) {
		c.UpdateQuantity(productID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, token string, productID uuid.UUID) (*View, error) {
	return s.update(ctx, token, func(c *Cart) {
		c.RemoveItem(productID)
	})
}

func (s *service) Clear(ctx context.Context, token string) (*View, error) {
	return s.update(ctx, token, func(c *Cart) {
		c.Clear()
	})
}

func (s *service) SetOpen(ctx context.Context, token string, open bool) (*View, error) {
	return s.update(ctx, token, func(c *Cart) {
		if open {
			c.Open()
			return
		}
		c.Close()
	})
}

func (s *service) Toggle(ctx context.Context, token string) (*View, error) {
	return s.update(ctx, token, func(c *Cart) {
		c.Toggle()
	})
}

func (s *service) Snapshot(ctx context.Context, token string) (Snapshot, error) {
	c, err := s.load(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s *service) Reset(ctx context.Context, token string) error {
	_, err := s.update(ctx, token, func(c *Cart) {
		c.Clear()
		c.Close()
	})
	return err
}

// update serializes load-mutate-save per token and persists only when the
// mutation changed something.
func (s *service) update(ctx context.Context, token string, fn func(*Cart)) (*View, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(token)
	defer unlock()

	c, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	changed := false
	unsubscribe := c.Subscribe(func(snap Snapshot) {
		changed = true
		logCtx := s.logg.WithCartToken(ctx, token)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"lines":          len(snap.Items),
			"items":          snap.Totals.ItemCount,
			"subtotal_cents": snap.Totals.SubtotalCents,
			"total_cents":    snap.Totals.TotalCents,
			"open":           snap.Open,
		})
		s.logg.Debug(logCtx, "cart.changed")
	})
	fn(c)
	unsubscribe()

	if changed {
		if err := s.store.Save(ctx, token, c.State()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save cart")
		}
	}

	view := NewView(c.Snapshot())
	return &view, nil
}

func (s *service) load(ctx context.Context, token string) (*Cart, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	state, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if state == nil {
		return New(s.calc), nil
	}
	return Restore(s.calc, *state), nil
}

func validateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}
	return nil
}

// keyedMutex hands out one mutex per cart token so concurrent requests from
// the same browser apply in order.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*refMutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
