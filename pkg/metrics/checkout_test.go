package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.IncOutcome("success", "")
	m.IncOutcome("failed", "declined")
	m.IncOutcome("failed", "declined")
	m.ObservePayment("card", 2*time.Second)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	mf := findMetricFamily(mfs, "isolele_checkout_outcomes_total")
	if mf == nil {
		t.Fatal("outcome counter missing")
	}
	if got := counterWithLabels(mf, map[string]string{"outcome": "failed", "reason": "declined"}); got != 2 {
		t.Fatalf("expected 2 declined failures, got %f", got)
	}
	if got := counterWithLabels(mf, map[string]string{"outcome": "success", "reason": "none"}); got != 1 {
		t.Fatalf("expected 1 success, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "isolele_checkout_payment_duration_seconds", "method", "card"); err != nil || got != 2 {
		t.Fatalf("expected payment duration 2s, got %f err=%v", got, err)
	}
}

func TestReindexMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReindexMetrics(reg)
	m.IncPing("google", true)
	m.IncPing("bing", false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "isolele_reindex_pings_total")
	if mf == nil {
		t.Fatal("reindex counter missing")
	}
	if got := counterWithLabels(mf, map[string]string{"service": "bing", "result": "failure"}); got != 1 {
		t.Fatalf("expected one bing failure, got %f", got)
	}
}

func counterWithLabels(mf *dto.MetricFamily, want map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		matched := 0
		for name, value := range want {
			if matchesLabel(metric.GetLabel(), name, value) {
				matched++
			}
		}
		if matched == len(want) {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}
