package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/enums"
)

// FailureReason explains why a simulated payment did not go through.
type FailureReason string

const (
	ReasonDeclined     FailureReason = "declined"
	ReasonNetworkError FailureReason = "network_error"
	ReasonTimeout      FailureReason = "timeout"
)

var failureMessages = map[FailureReason]string{
	ReasonDeclined:     "Your card was declined. Please try another card.",
	ReasonNetworkError: "We could not reach the payment service. Please try again.",
	ReasonTimeout:      "The payment took too long to process. Please try again.",
}

// MessageFor returns the shopper-facing message for a failure reason.
func MessageFor(reason FailureReason) string {
	if msg, ok := failureMessages[reason]; ok {
		return msg
	}
	return "The payment could not be completed."
}

// CardDetails is the raw card input as typed by the shopper.
type CardDetails struct {
	Number     string
	Expiry     string
	CVV        string
	HolderName string
	Email      string
}

// Request is a single charge attempt.
type Request struct {
	AmountCents int64
	Method      enums.PaymentMethod
	Card        CardDetails
}

// Result is either a success carrying a receipt id or a failure carrying a reason.
type Result struct {
	ReceiptID string
	Reason    FailureReason
	Message   string
}

// Succeeded reports whether the result carries a receipt.
func (r Result) Succeeded() bool {
	return r.ReceiptID != "" && r.Reason == ""
}

// Success builds a successful result.
func Success(receiptID string) Result {
	return Result{ReceiptID: receiptID}
}

// Failure builds a failed result with the default message for reason.
func Failure(reason FailureReason) Result {
	return Result{Reason: reason, Message: MessageFor(reason)}
}

// Processor charges a checkout. A returned error means the attempt could not
// be made at all; declines and timeouts are reported through Result.
type Processor interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// FailureInjector forces an outcome for a request. Returning ok=false lets
// the simulator decide.
type FailureInjector func(req Request) (reason FailureReason, ok bool)

// Simulator is a fake gateway: it waits, then approves everything that is not
// on the declined list.
type Simulator struct {
	delay      time.Duration
	declined   map[string]struct{}
	inject     FailureInjector
	newReceipt func() string
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithFailureInjector installs an injector consulted before the declined list.
func WithFailureInjector(fn FailureInjector) Option {
	return func(s *Simulator) {
		s.inject = fn
	}
}

// WithDelay overrides the processing delay.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.delay = d
	}
}

// WithReceiptGenerator overrides receipt id generation.
func WithReceiptGenerator(fn func() string) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.newReceipt = fn
		}
	}
}

// NewSimulator builds the simulated processor from checkout config.
func NewSimulator(cfg config.CheckoutConfig, opts ...Option) *Simulator {
	s := &Simulator{
		delay:      cfg.ProcessingDelay,
		declined:   map[string]struct{}{},
		newReceipt: NewReceiptID,
	}
	for _, card := range cfg.DeclinedCards {
		if digits := DigitsOnly(card); digits != "" {
			s.declined[digits] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Process(ctx context.Context, req Request) (Result, error) {
	if req.AmountCents < 0 {
		return Result{}, fmt.Errorf("amount must be non-negative")
	}
	if !req.Method.IsValid() {
		return Result{}, fmt.Errorf("unsupported payment method %q", req.Method)
	}

	if err := wait(ctx, s.delay); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Failure(ReasonTimeout), nil
		}
		return Result{}, err
	}

	if s.inject != nil {
		if reason, ok := s.inject(req); ok {
			return Failure(reason), nil
		}
	}
	if req.Method == enums.PaymentMethodCard {
		if _, declined := s.declined[DigitsOnly(req.Card.Number)]; declined {
			return Failure(ReasonDeclined), nil
		}
	}
	return Success(s.newReceipt()), nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewReceiptID returns a short shopper-facing receipt reference.
func NewReceiptID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ISL-" + strings.ToUpper(raw[:10])
}

// DigitsOnly strips everything but 0-9 from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
