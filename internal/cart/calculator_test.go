package cart

import (
	"testing"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/config"
)

func TestCalculatorFreeShippingThreshold(t *testing.T) {
	calc := NewCalculator(ShippingPolicy{FreeThresholdCents: 5000, FlatFeeCents: 599})

	atThreshold := calc.Compute([]LineItem{{ProductID: uuid.New(), UnitPriceCents: 5000, Quantity: 1}})
	if atThreshold.ShippingCents != 0 {
		t.Fatalf("expected free shipping at threshold, got %d", atThreshold.ShippingCents)
	}
	if atThreshold.TotalCents != 5000 {
		t.Fatalf("expected total 5000, got %d", atThreshold.TotalCents)
	}

	justBelow := calc.Compute([]LineItem{{ProductID: uuid.New(), UnitPriceCents: 4999, Quantity: 1}})
	if justBelow.ShippingCents != 599 {
		t.Fatalf("expected flat fee just below threshold, got %d", justBelow.ShippingCents)
	}
	if justBelow.TotalCents != 5598 {
		t.Fatalf("expected total 5598, got %d", justBelow.TotalCents)
	}
	if justBelow.FreeShippingRemainingCents != 1 {
		t.Fatalf("expected 1 cent remaining, got %d", justBelow.FreeShippingRemainingCents)
	}
}

func TestCalculatorEmptyCartFollowsShippingRule(t *testing.T) {
	totals := NewCalculator(DefaultShippingPolicy()).Compute(nil)
	want := Totals{ShippingCents: 599, TotalCents: 599, FreeShippingRemainingCents: 5000}
	if totals != want {
		t.Fatalf("expected %+v, got %+v", want, totals)
	}
	view := NewTotalsView(totals)
	if view.FreeShipping || view.Shipping != "5.99" || view.Total != "5.99" {
		t.Fatalf("unexpected empty cart view %+v", view)
	}

	free := NewCalculator(ShippingPolicy{FreeThresholdCents: 0, FlatFeeCents: 599}).Compute(nil)
	if free.ShippingCents != 0 || !NewTotalsView(free).FreeShipping {
		t.Fatalf("expected free shipping with a zero threshold, got %+v", free)
	}
}

func TestCalculatorScenarioTotals(t *testing.T) {
	calc := NewCalculator(DefaultShippingPolicy())
	totals := calc.Compute([]LineItem{
		{ProductID: uuid.New(), UnitPriceCents: 2699, Quantity: 1},
		{ProductID: uuid.New(), UnitPriceCents: 1999, Quantity: 2},
	})
	if totals.SubtotalCents != 6697 || totals.ShippingCents != 0 || totals.TotalCents != 6697 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.ItemCount != 3 {
		t.Fatalf("expected 3 items, got %d", totals.ItemCount)
	}
	if FormatCents(totals.TotalCents) != "66.97" {
		t.Fatalf("unexpected display total %s", FormatCents(totals.TotalCents))
	}
}

func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(config.ShippingConfig{FreeThresholdCents: 7500, FlatFeeCents: 899})
	if policy.FreeThresholdCents != 7500 || policy.FlatFeeCents != 899 {
		t.Fatalf("unexpected policy %+v", policy)
	}
}

func TestFormatAndParseAmount(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 599: "5.99", 123456: "1234.56"}
	for cents, want := range cases {
		if got := FormatCents(cents); got != want {
			t.Fatalf("FormatCents(%d) = %s, want %s", cents, got, want)
		}
	}

	got, err := ParseAmount("26.99")
	if err != nil || got != 2699 {
		t.Fatalf("ParseAmount(26.99) = %d, %v", got, err)
	}
	got, err = ParseAmount("19.995")
	if err != nil || got != 2000 {
		t.Fatalf("expected rounding to 2000, got %d, %v", got, err)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatal("expected parse error")
	}
}
