package cart

import (
	"github.com/shopspring/decimal"

	"github.com/isolele/isolele-backend/pkg/config"
)

// ShippingPolicy is flat-rate shipping waived at or above a subtotal threshold.
type ShippingPolicy struct {
	FreeThresholdCents int64
	FlatFeeCents       int64
}

// PolicyFromConfig builds the shipping policy from the Shipping config section.
func PolicyFromConfig(cfg config.ShippingConfig) ShippingPolicy {
	return ShippingPolicy{
		FreeThresholdCents: cfg.FreeThresholdCents,
		FlatFeeCents:       cfg.FlatFeeCents,
	}
}

// DefaultShippingPolicy is 5.99 shipping, free from 50.00.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{FreeThresholdCents: 5000, FlatFeeCents: 599}
}

// Totals are derived from line items on every read and never stored.
type Totals struct {
	SubtotalCents int64
	ShippingCents int64
	TotalCents    int64
	ItemCount     int
	// FreeShippingRemainingCents is how much more the customer needs to spend
	// to unlock free shipping. Zero once the threshold is met.
	FreeShippingRemainingCents int64
}

// Calculator derives totals from line items under a fixed shipping policy.
type Calculator struct {
	policy ShippingPolicy
}

func NewCalculator(policy ShippingPolicy) Calculator {
	return Calculator{policy: policy}
}

// Policy returns the shipping policy the calculator applies.
func (c Calculator) Policy() ShippingPolicy {
	return c.policy
}

// Compute sums the line items in integer cents and applies the shipping rule.
// The rule depends on the subtotal alone, so an empty cart below the
// threshold is quoted the flat fee.
func (c Calculator) Compute(items []LineItem) Totals {
	var totals Totals
	for _, item := range items {
		totals.SubtotalCents += item.LineTotalCents()
		totals.ItemCount += item.Quantity
	}
	if totals.SubtotalCents < c.policy.FreeThresholdCents {
		totals.ShippingCents = c.policy.FlatFeeCents
		totals.FreeShippingRemainingCents = c.policy.FreeThresholdCents - totals.SubtotalCents
	}
	totals.TotalCents = totals.SubtotalCents + totals.ShippingCents
	return totals
}

// FormatCents renders an integer cents amount with two decimal places.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseAmount converts a decimal string such as "26.99" to cents. Extra
// precision is rounded half away from zero.
func ParseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
