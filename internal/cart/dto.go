package cart

import "github.com/google/uuid"

// View is the API representation of a cart.
type View struct {
	Items     []LineItemView `json:"items"`
	Totals    TotalsView     `json:"totals"`
	ItemCount int            `json:"item_count"`
	IsOpen    bool           `json:"is_open"`
}

type LineItemView struct {
	ProductID          uuid.UUID `json:"product_id"`
	Name               string    `json:"name"`
	UnitPrice          string    `json:"unit_price"`
	UnitPriceCents     int64     `json:"unit_price_cents"`
	OriginalUnitPrice  *string   `json:"original_unit_price,omitempty"`
	Quantity           int       `json:"quantity"`
	LineTotal          string    `json:"line_total"`
	ImageRef           string    `json:"image_ref,omitempty"`
	DescriptionSnippet string    `json:"description_snippet,omitempty"`
}

type TotalsView struct {
	Subtotal              string `json:"subtotal"`
	Shipping              string `json:"shipping"`
	Total                 string `json:"total"`
	SubtotalCents         int64  `json:"subtotal_cents"`
	ShippingCents         int64  `json:"shipping_cents"`
	TotalCents            int64  `json:"total_cents"`
	FreeShipping          bool   `json:"free_shipping"`
	FreeShippingRemaining string `json:"free_shipping_remaining"`
}

// NewView maps a snapshot to its API representation.
func NewView(s Snapshot) View {
	items := make([]LineItemView, 0, len(s.Items))
	for _, item := range s.Items {
		v := LineItemView{
			ProductID:          item.ProductID,
			Name:               item.Name,
			UnitPrice:          FormatCents(item.UnitPriceCents),
			UnitPriceCents:     item.UnitPriceCents,
			Quantity:           item.Quantity,
			LineTotal:          FormatCents(item.LineTotalCents()),
			ImageRef:           item.ImageRef,
			DescriptionSnippet: item.DescriptionSnippet,
		}
		if item.OriginalUnitPriceCents != nil {
			original := FormatCents(*item.OriginalUnitPriceCents)
			v.OriginalUnitPrice = &original
		}
		items = append(items, v)
	}
	return View{
		Items:     items,
		Totals:    NewTotalsView(s.Totals),
		ItemCount: s.Totals.ItemCount,
		IsOpen:    s.Open,
	}
}

func NewTotalsView(t Totals) TotalsView {
	return TotalsView{
		Subtotal:              FormatCents(t.SubtotalCents),
		Shipping:              FormatCents(t.ShippingCents),
		Total:                 FormatCents(t.TotalCents),
		SubtotalCents:         t.SubtotalCents,
		ShippingCents:         t.ShippingCents,
		TotalCents:            t.TotalCents,
		FreeShipping:          t.ShippingCents == 0,
		FreeShippingRemaining: FormatCents(t.FreeShippingRemainingCents),
	}
}
