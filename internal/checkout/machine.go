package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/checkout/payment"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
	"github.com/isolele/isolele-backend/pkg/metrics"
)

const cartResetTimeout = 5 * time.Second

// CartAccess is the slice of the cart service checkout depends on.
type CartAccess interface {
	Snapshot(ctx context.Context, token string) (cart.Snapshot, error)
	Reset(ctx context.Context, token string) error
}

// MachineParams wires a checkout machine.
type MachineParams struct {
	Cart           CartAccess
	Processor      payment.Processor
	Scheduler      Scheduler
	Logger         *logger.Logger
	Metrics        *metrics.CheckoutMetrics
	ResetDelay     time.Duration
	PaymentTimeout time.Duration
}

func (p MachineParams) validate() error {
	if p.Cart == nil {
		return fmt.Errorf("cart access required")
	}
	if p.Processor == nil {
		return fmt.Errorf("payment processor required")
	}
	if p.Scheduler == nil {
		return fmt.Errorf("scheduler required")
	}
	if p.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if p.ResetDelay < 0 || p.PaymentTimeout < 0 {
		return fmt.Errorf("checkout delays must be non-negative")
	}
	return nil
}

// Failure describes why the last payment attempt failed.
type Failure struct {
	Reason  payment.FailureReason
	Message string
}

// Err reports the failure as a payment error.
func (f Failure) Err() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodePayment, f.Message).
		WithDetails(map[string]any{"reason": f.Reason})
}

// Machine is the checkout flow for one cart token.
type Machine struct {
	token  string
	params MachineParams

	mu          sync.Mutex
	phase       Phase
	method      enums.PaymentMethod
	draft       CardDraft
	failure     *Failure
	receiptID   string
	amountCents int64

	// generation is bumped whenever an in-flight payment or reset timer
	// becomes stale.
	generation    uint64
	cancelPayment context.CancelFunc
	resetTimer    Timer
	inflight      sync.WaitGroup
	stopped       bool

	onClosed func(token string)

	// users and lastUsed are guarded by the owning Registry's mu.
	users    int
	lastUsed time.Time
}

// NewMachine builds a closed checkout for token.
func NewMachine(token string, params MachineParams) (*Machine, error) {
	if token == "" {
		return nil, fmt.Errorf("cart token required")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Machine{token: token, params: params, phase: PhaseClosed}, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Open starts checkout. The cart must hold at least one item.
func (m *Machine) Open(ctx context.Context) error {
	snap, err := m.params.Cart.Snapshot(ctx, m.token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requirePhase("open", PhaseClosed); err != nil {
		return err
	}
	if snap.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty").
			WithDetails(map[string]any{"operation": "open", "phase": m.phase})
	}
	m.amountCents = snap.Totals.TotalCents
	m.transition(ctx, PhaseMethodSelection)
	return nil
}

// SelectMethod picks card or wallet from the method selection step.
func (m *Machine) SelectMethod(ctx context.Context, method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": method})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requirePhase("select_method", PhaseMethodSelection); err != nil {
		return err
	}
	m.method = method
	m.transition(ctx, phaseForMethod(method))
	return nil
}

// UpdateCardDetails stores the masked card form.
func (m *Machine) UpdateCardDetails(ctx context.Context, draft CardDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requirePhase("update_card", PhaseCardEntry); err != nil {
		return err
	}
	m.draft = draft.Masked()
	return nil
}

// Submit validates the card form and hands the charge to the processor. The
// outcome arrives asynchronously.
func (m *Machine) Submit(ctx context.Context) error {
	snap, err := m.params.Cart.Snapshot(ctx, m.token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requirePhase("submit", PhaseCardEntry); err != nil {
		return err
	}
	if missing := m.draft.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "card details incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	if snap.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty").
			WithDetails(map[string]any{"operation": "submit", "phase": m.phase})
	}
	if m.stopped {
		return pkgerrors.New(pkgerrors.CodeDependency, "checkout is shutting down")
	}

	m.amountCents = snap.Totals.TotalCents
	m.failure = nil
	m.transition(ctx, PhaseProcessing)
	m.startPayment(payment.Request{
		AmountCents: m.amountCents,
		Method:      m.method,
		Card:        m.draft.details(),
	})
	return nil
}

// Retry leaves the failed phase. An empty method returns to method
// selection; card goes straight back to the kept card form.
func (m *Machine) Retry(ctx context.Context, method enums.PaymentMethod) error {
	if method != "" && !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": method})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requirePhase("retry", PhaseFailed); err != nil {
		return err
	}
	m.failure = nil
	m.method = method
	if method == "" {
		m.transition(ctx, PhaseMethodSelection)
		return nil
	}
	m.transition(ctx, phaseForMethod(method))
	return nil
}

// Cancel closes checkout without touching the cart. Nothing can be cancelled
// once a payment is processing or has succeeded.
func (m *Machine) Cancel(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == PhaseClosed {
		m.mu.Unlock()
		return nil
	}
	if !m.phase.Cancellable() {
		err := m.stateConflict("cancel")
		m.mu.Unlock()
		return err
	}
	m.reset()
	m.transition(ctx, PhaseClosed)
	m.params.Metrics.IncOutcome("cancelled", "")
	onClosed := m.onClosed
	m.mu.Unlock()

	if onClosed != nil {
		onClosed(m.token)
	}
	return nil
}

// Snapshot returns the current view of the session. The cvv never leaves the machine.
func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := View{
		Phase:       m.phase,
		ReceiptID:   m.receiptID,
		AmountCents: m.amountCents,
		Amount:      cart.FormatCents(m.amountCents),
		CanSubmit:   m.phase == PhaseCardEntry && m.draft.Complete(),
		Card: CardView{
			Number:     m.draft.Number,
			Last4:      lastFour(m.draft.Number),
			Expiry:     m.draft.Expiry,
			HolderName: m.draft.HolderName,
			Email:      m.draft.Email,
			HasCVV:     m.draft.CVV != "",
		},
	}
	if m.method != "" {
		method := m.method
		view.PaymentMethod = &method
	}
	if m.failure != nil {
		failed := m.failure.Err()
		view.Failure = &FailureView{
			Code:      string(failed.Code()),
			Reason:    string(m.failure.Reason),
			Message:   failed.Message(),
			Retryable: pkgerrors.MetadataFor(failed.Code()).Retryable,
		}
	}
	return view
}

// Stop cancels outstanding timers and payments and waits for the payment
// goroutine to return or ctx to expire.
func (m *Machine) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.generation++
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	if m.cancelPayment != nil {
		m.cancelPayment()
		m.cancelPayment = nil
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("checkout %s: %w", m.token, ctx.Err())
	}
}

// Wait blocks until no payment is in flight.
func (m *Machine) Wait() {
	m.inflight.Wait()
}

// startPayment must be called with m.mu held.
func (m *Machine) startPayment(req payment.Request) {
	m.generation++
	gen := m.generation

	ctx, cancel := context.WithCancel(context.Background())
	if m.params.PaymentTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.params.PaymentTimeout)
	}
	m.cancelPayment = cancel

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		defer cancel()

		started := time.Now()
		res, err := m.params.Processor.Process(ctx, req)
		m.params.Metrics.ObservePayment(req.Method.String(), time.Since(started))
		m.completePayment(gen, res, err)
	}()
}

func (m *Machine) completePayment(gen uint64, res payment.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.phase != PhaseProcessing {
		return
	}
	m.cancelPayment = nil
	ctx := m.logContext(context.Background())

	if err != nil {
		m.params.Logger.Error(ctx, "checkout.payment_error", err)
		res = payment.Failure(payment.ReasonNetworkError)
	}
	if !res.Succeeded() {
		if res.Reason == "" {
			res = payment.Failure(payment.ReasonNetworkError)
		}
		m.failure = &Failure{Reason: res.Reason, Message: res.Message}
		m.params.Logger.Warn(m.params.Logger.WithFields(ctx, map[string]any{
			"code":   m.failure.Err().Code(),
			"reason": res.Reason,
		}), "checkout.payment_failed")
		m.transition(ctx, PhaseFailed)
		m.params.Metrics.IncOutcome("failed", string(res.Reason))
		return
	}

	m.receiptID = res.ReceiptID
	m.transition(m.params.Logger.WithField(ctx, "receipt_id", res.ReceiptID), PhaseSuccess)
	m.params.Metrics.IncOutcome("success", "")

	m.generation++
	resetGen := m.generation
	m.resetTimer = m.params.Scheduler.AfterFunc(m.params.ResetDelay, func() {
		m.finishSuccess(resetGen)
	})
}

// finishSuccess clears the cart and closes the machine once the
// confirmation has been on screen for the reset delay.
func (m *Machine) finishSuccess(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.phase != PhaseSuccess {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cartResetTimeout)
	defer cancel()
	ctx = m.logContext(ctx)
	if err := m.params.Cart.Reset(ctx, m.token); err != nil {
		m.params.Logger.Error(ctx, "checkout.cart_reset_failed", err)
	}

	m.mu.Lock()
	if gen != m.generation || m.phase != PhaseSuccess {
		m.mu.Unlock()
		return
	}
	m.reset()
	m.transition(ctx, PhaseClosed)
	onClosed := m.onClosed
	m.mu.Unlock()

	if onClosed != nil {
		onClosed(m.token)
	}
}

// reset clears per-session data. Callers hold m.mu.
func (m *Machine) reset() {
	m.generation++
	m.method = ""
	m.draft = CardDraft{}
	m.failure = nil
	m.receiptID = ""
	m.amountCents = 0
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
}

func (m *Machine) transition(ctx context.Context, to Phase) {
	from := m.phase
	m.phase = to
	ctx = m.logContext(ctx)
	ctx = m.params.Logger.WithFields(ctx, map[string]any{
		"from": from,
		"to":   to,
	})
	m.params.Logger.Info(ctx, "checkout.phase_changed")
}

func (m *Machine) logContext(ctx context.Context) context.Context {
	return m.params.Logger.WithCartToken(ctx, m.token)
}

func (m *Machine) requirePhase(op string, want Phase) error {
	if m.phase != want {
		return m.stateConflict(op)
	}
	return nil
}

func (m *Machine) stateConflict(op string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s during %s", op, m.phase)).
		WithDetails(map[string]any{"operation": op, "phase": m.phase})
}

func phaseForMethod(method enums.PaymentMethod) Phase {
	if method == enums.PaymentMethodWallet {
		return PhaseExternalWallet
	}
	return PhaseCardEntry
}
