package orders

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// Service manages orders from the CMS.
type Service interface {
	List(ctx context.Context, input ListInput) (*OrderListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	CancelStalePending(ctx context.Context, cutoff time.Time) (int, error)
}

type ListInput struct {
	Status  *enums.OrderStatus
	Query   string
	OrderBy string
	Page    pagination.Params
}

// CreateOrderInput records an order taken outside the storefront checkout.
type CreateOrderInput struct {
	CustomerName  string
	CustomerEmail string
	PaymentMethod *enums.PaymentMethod
	ReceiptID     *string
	Items         []LineItemInput
}

type LineItemInput struct {
	ProductID      *uuid.UUID
	Name           string
	UnitPriceCents int64
	Quantity       int
}

// NewRepository returns the orders table store with line items preloaded.
func NewRepository(db *gorm.DB) *repo.Table[models.Order] {
	return repo.NewTable[models.Order](db, repo.TableOptions{
		Columns:       []string{"status", "total_cents", "created_at", "updated_at", "receipt_id"},
		SearchColumns: []string{"customer_name", "customer_email"},
		DefaultOrder:  "created_at desc",
		Preloads:      []string{"LineItems"},
	})
}

type service struct {
	orders *repo.Table[models.Order]
	calc   cart.Calculator
}

// NewService builds the order service. Totals use the storefront shipping policy.
func NewService(orders *repo.Table[models.Order], policy cart.ShippingPolicy) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{orders: orders, calc: cart.NewCalculator(policy)}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*OrderListResult, error) {
	filter := repo.Filter{Equals: map[string]any{}, Search: input.Query, OrderBy: input.OrderBy}
	if input.Status != nil {
		filter.Equals["status"] = *input.Status
	}
	rows, meta, err := s.orders.Paginate(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewOrderDTO(&rows[i]))
	}
	return &OrderListResult{Orders: out, Page: meta}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	row, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(row), nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	}
	email := strings.TrimSpace(input.CustomerEmail)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_email is invalid")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	lines := make([]cart.LineItem, 0, len(input.Items))
	rows := make([]models.OrderLineItem, 0, len(input.Items))
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity < 1 || item.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line item %d is invalid", i))
		}
		lines = append(lines, cart.LineItem{UnitPriceCents: item.UnitPriceCents, Quantity: item.Quantity})
		rows = append(rows, models.OrderLineItem{
			ProductID:      item.ProductID,
			Name:           strings.TrimSpace(item.Name),
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	totals := s.calc.Compute(lines)

	order := &models.Order{
		CustomerName:  name,
		CustomerEmail: strings.ToLower(email),
		Status:        enums.OrderStatusPending,
		SubtotalCents: totals.SubtotalCents,
		ShippingCents: totals.ShippingCents,
		TotalCents:    totals.TotalCents,
		ReceiptID:     input.ReceiptID,
		LineItems:     rows,
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		method := input.PaymentMethod.String()
		order.PaymentMethod = &method
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(created), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return NewOrderDTO(current), nil
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{"from": current.Status, "to": status})
	}

	row, applied, err := s.orders.UpdateWhere(ctx, id,
		map[string]any{"status": current.Status},
		map[string]any{"status": status})
	if err != nil {
		return nil, err
	}
	if !applied && row.Status != status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
			WithDetails(map[string]any{"from": current.Status, "to": status, "current": row.Status})
	}
	return NewOrderDTO(row), nil
}

// CancelStalePending cancels pending orders created before cutoff and
// reports how many were cancelled. Orders that left pending after the scan
// are skipped. Failures on individual orders are collected and returned
// together.
func (s *service) CancelStalePending(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.orders.List(ctx, repo.Filter{
		Equals:  map[string]any{"status": enums.OrderStatusPending},
		Before:  map[string]time.Time{"created_at": cutoff},
		OrderBy: "created_at asc",
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	var errs error
	for _, order := range stale {
		_, applied, err := s.orders.UpdateWhere(ctx, order.ID,
			map[string]any{"status": enums.OrderStatusPending},
			map[string]any{"status": enums.OrderStatusCancelled})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		if applied {
			cancelled++
		}
	}
	return cancelled, errs
}
