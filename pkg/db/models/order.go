package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/enums"
)

// Order is a customer order managed from the admin dashboard.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null;index"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	SubtotalCents int64             `gorm:"column:subtotal_cents;not null"`
	ShippingCents int64             `gorm:"column:shipping_cents;not null"`
	TotalCents    int64             `gorm:"column:total_cents;not null"`
	PaymentMethod *string           `gorm:"column:payment_method"`
	ReceiptID     *string           `gorm:"column:receipt_id"`
	LineItems     []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLineItem snapshots a product at the time the order was placed.
type OrderLineItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }
