package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks how checkout sessions end and how long payments take.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	payment  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "isolele_checkout_outcomes_total",
		Help: "Checkout sessions by terminal outcome and failure reason.",
	}, []string{"outcome", "reason"})
	payment := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "isolele_checkout_payment_duration_seconds",
		Help:    "Time spent in the payment processor.",
		Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10, 15},
	}, []string{"method"})
	reg.MustRegister(outcomes, payment)
	return &CheckoutMetrics{outcomes: outcomes, payment: payment}
}

// IncOutcome counts a checkout that reached success, failed or cancelled.
func (c *CheckoutMetrics) IncOutcome(outcome, reason string) {
	if c == nil || c.outcomes == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome), reason).Inc()
}

// ObservePayment records how long the processor took for the given method.
func (c *CheckoutMetrics) ObservePayment(method string, duration time.Duration) {
	if c == nil || c.payment == nil {
		return
	}
	c.payment.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}
