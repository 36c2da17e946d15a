package cart

import "github.com/google/uuid"

// Product is the catalog snapshot needed to put something in the cart.
type Product struct {
	ID                  uuid.UUID
	Name                string
	PriceCents          int64
	CompareAtPriceCents *int64
	ImageRef            string
	DescriptionSnippet  string
}

// LineItem is one product entry in the cart. Quantity is always >= 1 while stored.
type LineItem struct {
	ProductID              uuid.UUID `json:"product_id"`
	Name                   string    `json:"name"`
	UnitPriceCents         int64     `json:"unit_price_cents"`
	OriginalUnitPriceCents *int64    `json:"original_unit_price_cents,omitempty"`
	Quantity               int       `json:"quantity"`
	ImageRef               string    `json:"image_ref,omitempty"`
	DescriptionSnippet     string    `json:"description_snippet,omitempty"`
}

// LineTotalCents is unit price times quantity.
func (l LineItem) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

func lineItemFromProduct(p Product, quantity int) LineItem {
	item := LineItem{
		ProductID:          p.ID,
		Name:               p.Name,
		UnitPriceCents:     p.PriceCents,
		Quantity:           quantity,
		ImageRef:           p.ImageRef,
		DescriptionSnippet: p.DescriptionSnippet,
	}
	if p.CompareAtPriceCents != nil && *p.CompareAtPriceCents > p.PriceCents {
		original := *p.CompareAtPriceCents
		item.OriginalUnitPriceCents = &original
	}
	return item
}
