package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

// OrderDTO is the admin view of an order and its lines.
type OrderDTO struct {
	ID            uuid.UUID          `json:"id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Status        string             `json:"status"`
	Subtotal      string             `json:"subtotal"`
	Shipping      string             `json:"shipping"`
	Total         string             `json:"total"`
	SubtotalCents int64              `json:"subtotal_cents"`
	ShippingCents int64              `json:"shipping_cents"`
	TotalCents    int64              `json:"total_cents"`
	PaymentMethod *string            `json:"payment_method,omitempty"`
	ReceiptID     *string            `json:"receipt_id,omitempty"`
	LineItems     []OrderLineItemDTO `json:"line_items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type OrderLineItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	UnitPrice      string     `json:"unit_price"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	LineTotal      string     `json:"line_total"`
}

type OrderListResult struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// NewOrderDTO maps an order with its preloaded line items.
func NewOrderDTO(o *models.Order) *OrderDTO {
	items := make([]OrderLineItemDTO, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, OrderLineItemDTO{
			ID:             li.ID,
			ProductID:      li.ProductID,
			Name:           li.Name,
			UnitPrice:      cart.FormatCents(li.UnitPriceCents),
			UnitPriceCents: li.UnitPriceCents,
			Quantity:       li.Quantity,
			LineTotal:      cart.FormatCents(li.UnitPriceCents * int64(li.Quantity)),
		})
	}
	return &OrderDTO{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		Subtotal:      cart.FormatCents(o.SubtotalCents),
		Shipping:      cart.FormatCents(o.ShippingCents),
		Total:         cart.FormatCents(o.TotalCents),
		SubtotalCents: o.SubtotalCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
		PaymentMethod: o.PaymentMethod,
		ReceiptID:     o.ReceiptID,
		LineItems:     items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
