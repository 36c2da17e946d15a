package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/internal/cart"
	"github.com/isolele/isolele-backend/internal/checkout/payment"
	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type fakeCart struct {
	mu     sync.Mutex
	cart   *cart.Cart
	resets int
}

func newFakeCart(items ...cart.Product) *fakeCart {
	c := cart.New(cart.NewCalculator(cart.DefaultShippingPolicy()))
	for _, p := range items {
		c.AddItem(p, 1)
	}
	return &fakeCart{cart: c}
}

func (f *fakeCart) Snapshot(context.Context, string) (cart.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart.Snapshot(), nil
}

func (f *fakeCart) Reset(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.cart.Clear()
	f.cart.Close()
	return nil
}

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn, delay: d}
	s.timers = append(s.timers, t)
	return t
}

// fireAll runs every timer that has not been stopped.
func (s *fakeScheduler) fireAll() int {
	s.mu.Lock()
	pending := s.timers
	s.timers = nil
	s.mu.Unlock()

	fired := 0
	for _, t := range pending {
		if t.stopped {
			continue
		}
		t.stopped = true
		t.fn()
		fired++
	}
	return fired
}

type machineFixture struct {
	machine   *Machine
	cart      *fakeCart
	scheduler *fakeScheduler
}

func newFixture(t *testing.T, c *fakeCart, processor payment.Processor) machineFixture {
	t.Helper()
	sched := &fakeScheduler{}
	m, err := NewMachine("tok", MachineParams{
		Cart:       c,
		Processor:  processor,
		Scheduler:  sched,
		Logger:     logger.Nop(),
		ResetDelay: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return machineFixture{machine: m, cart: c, scheduler: sched}
}

func approvingProcessor() payment.Processor {
	return payment.NewSimulator(config.CheckoutConfig{}, payment.WithReceiptGenerator(func() string { return "ISL-OK" }))
}

func decliningProcessor() payment.Processor {
	return payment.NewSimulator(config.CheckoutConfig{}, payment.WithFailureInjector(func(payment.Request) (payment.FailureReason, bool) {
		return payment.ReasonDeclined, true
	}))
}

func fullDraft() CardDraft {
	return CardDraft{
		Number:     "4242424242424242",
		Expiry:     "1230",
		CVV:        "123",
		HolderName: "Ada Lovelace",
		Email:      "ada@example.com",
	}
}

func scenarioProducts() []cart.Product {
	return []cart.Product{
		{ID: uuid.New(), Name: "Isolele Vol. 1", PriceCents: 2699},
		{ID: uuid.New(), Name: "Poster", PriceCents: 1999},
	}
}

func openToCardEntry(t *testing.T, m *Machine) {
	t.Helper()
	ctx := context.Background()
	if err := m.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.SelectMethod(ctx, enums.PaymentMethodCard); err != nil {
		t.Fatalf("select method: %v", err)
	}
	if err := m.UpdateCardDetails(ctx, fullDraft()); err != nil {
		t.Fatalf("update card: %v", err)
	}
}

func TestFailureErrCarriesPaymentCode(t *testing.T) {
	err := Failure{Reason: payment.ReasonDeclined, Message: "card declined"}.Err()
	if !pkgerrors.Is(err, pkgerrors.CodePayment) {
		t.Fatalf("expected payment code, got %v", err)
	}
	if err.Message() != "card declined" {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestOpenRequiresNonEmptyCart(t *testing.T) {
	fx := newFixture(t, newFakeCart(), approvingProcessor())

	err := fx.machine.Open(context.Background())
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fx.machine.Phase() != PhaseClosed {
		t.Fatalf("expected closed, got %s", fx.machine.Phase())
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	products := scenarioProducts()
	c := newFakeCart(products[0])
	c.cart.AddItem(products[1], 2)
	fx := newFixture(t, c, approvingProcessor())
	ctx := context.Background()

	openToCardEntry(t, fx.machine)
	if !fx.machine.Snapshot().CanSubmit {
		t.Fatal("expected complete draft to be submittable")
	}
	if err := fx.machine.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.machine.Wait()

	view := fx.machine.Snapshot()
	if view.Phase != PhaseSuccess {
		t.Fatalf("expected success, got %s", view.Phase)
	}
	if view.ReceiptID != "ISL-OK" {
		t.Fatalf("unexpected receipt %q", view.ReceiptID)
	}
	if view.Amount != "66.97" {
		t.Fatalf("expected amount 66.97, got %s", view.Amount)
	}
	if fx.cart.resets != 0 {
		t.Fatal("cart must not be cleared before the reset delay")
	}

	if err := fx.machine.Cancel(ctx); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected cancel during success to be rejected, got %v", err)
	}

	if fired := fx.scheduler.fireAll(); fired != 1 {
		t.Fatalf("expected one reset timer, fired %d", fired)
	}
	if fx.machine.Phase() != PhaseClosed {
		t.Fatalf("expected closed after reset, got %s", fx.machine.Phase())
	}
	snap, _ := fx.cart.Snapshot(ctx, "tok")
	if !snap.IsEmpty() || snap.Open {
		t.Fatalf("expected empty closed cart, got %+v", snap)
	}
	if fx.machine.Snapshot().ReceiptID != "" {
		t.Fatal("expected session data cleared")
	}
}

func TestResetTimerUsesConfiguredDelay(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.machine.Wait()

	if len(fx.scheduler.timers) != 1 || fx.scheduler.timers[0].delay != 3*time.Second {
		t.Fatalf("expected a single 3s timer, got %+v", fx.scheduler.timers)
	}
}

func TestCancelFromCardEntryLeavesCartUnchanged(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	ctx := context.Background()
	before, _ := fx.cart.Snapshot(ctx, "tok")

	openToCardEntry(t, fx.machine)
	if err := fx.machine.Cancel(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if fx.machine.Phase() != PhaseClosed {
		t.Fatalf("expected closed, got %s", fx.machine.Phase())
	}
	after, _ := fx.cart.Snapshot(ctx, "tok")
	if len(after.Items) != len(before.Items) || after.Totals != before.Totals {
		t.Fatalf("cart changed on cancel: before %+v after %+v", before, after)
	}
	if fx.cart.resets != 0 {
		t.Fatal("cancel must not reset the cart")
	}
}

func TestSubmitListsMissingFields(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	ctx := context.Background()

	if err := fx.machine.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := fx.machine.SelectMethod(ctx, enums.PaymentMethodCard); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := fx.machine.UpdateCardDetails(ctx, CardDraft{Number: "4242", Email: "ada@example.com"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	err := fx.machine.Submit(ctx)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details %T", appErr.Details())
	}
	missing, _ := details["missing_fields"].([]string)
	want := []string{"expiry", "cvv", "holder_name"}
	if len(missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, missing)
		}
	}
	if fx.machine.Phase() != PhaseCardEntry {
		t.Fatalf("expected to stay in card entry, got %s", fx.machine.Phase())
	}
	if fx.machine.Snapshot().CanSubmit {
		t.Fatal("incomplete draft should not be submittable")
	}
}

func TestFailedPaymentThenRetry(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), decliningProcessor())
	ctx := context.Background()

	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.machine.Wait()

	view := fx.machine.Snapshot()
	if view.Phase != PhaseFailed {
		t.Fatalf("expected failed, got %s", view.Phase)
	}
	if view.Failure == nil || view.Failure.Reason != string(payment.ReasonDeclined) {
		t.Fatalf("expected declined failure, got %+v", view.Failure)
	}
	if view.Failure.Code != string(pkgerrors.CodePayment) || !view.Failure.Retryable {
		t.Fatalf("expected retryable payment failure, got %+v", view.Failure)
	}

	if err := fx.machine.Retry(ctx, enums.PaymentMethodCard); err != nil {
		t.Fatalf("retry: %v", err)
	}
	view = fx.machine.Snapshot()
	if view.Phase != PhaseCardEntry {
		t.Fatalf("expected card entry, got %s", view.Phase)
	}
	if view.Card.Number != "4242 4242 4242 4242" || !view.CanSubmit {
		t.Fatalf("expected draft kept, got %+v", view.Card)
	}
	if view.Failure != nil {
		t.Fatal("expected failure cleared")
	}
}

func TestRetryWithoutMethodReturnsToSelection(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), decliningProcessor())
	ctx := context.Background()
	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.machine.Wait()

	if err := fx.machine.Retry(ctx, ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if fx.machine.Phase() != PhaseMethodSelection {
		t.Fatalf("expected method selection, got %s", fx.machine.Phase())
	}
}

type erroringProcessor struct{}

func (erroringProcessor) Process(context.Context, payment.Request) (payment.Result, error) {
	return payment.Result{}, errors.New("connection reset")
}

func TestProcessorErrorBecomesNetworkFailure(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), erroringProcessor{})
	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fx.machine.Wait()

	view := fx.machine.Snapshot()
	if view.Phase != PhaseFailed || view.Failure.Reason != string(payment.ReasonNetworkError) {
		t.Fatalf("expected network failure, got %+v", view)
	}
}

func TestWalletIsAStub(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	ctx := context.Background()

	if err := fx.machine.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := fx.machine.SelectMethod(ctx, enums.PaymentMethodWallet); err != nil {
		t.Fatalf("select: %v", err)
	}
	if fx.machine.Phase() != PhaseExternalWallet {
		t.Fatalf("expected external wallet, got %s", fx.machine.Phase())
	}
	if err := fx.machine.Submit(ctx); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected submit from wallet to be rejected, got %v", err)
	}
	if err := fx.machine.Cancel(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestOutOfOrderOperationsAreRejected(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	ctx := context.Background()

	if err := fx.machine.SelectMethod(ctx, enums.PaymentMethodCard); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict selecting method while closed, got %v", err)
	}
	if err := fx.machine.UpdateCardDetails(ctx, fullDraft()); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict updating card while closed, got %v", err)
	}
	if err := fx.machine.Retry(ctx, ""); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict retrying while closed, got %v", err)
	}
	if err := fx.machine.Cancel(ctx); err != nil {
		t.Fatalf("cancel while closed should be a no-op, got %v", err)
	}
	if err := fx.machine.SelectMethod(ctx, "cash"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown method, got %v", err)
	}
}

type blockingProcessor struct {
	release chan struct{}
}

func (b blockingProcessor) Process(ctx context.Context, _ payment.Request) (payment.Result, error) {
	select {
	case <-b.release:
		return payment.Success("ISL-LATE"), nil
	case <-ctx.Done():
		return payment.Result{}, ctx.Err()
	}
}

func TestCancelDuringProcessingIsRejected(t *testing.T) {
	proc := blockingProcessor{release: make(chan struct{})}
	fx := newFixture(t, newFakeCart(scenarioProducts()...), proc)
	ctx := context.Background()

	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := fx.machine.Cancel(ctx); !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	close(proc.release)
	fx.machine.Wait()
	if fx.machine.Phase() != PhaseSuccess {
		t.Fatalf("expected success, got %s", fx.machine.Phase())
	}
}

func TestStopAbandonsInFlightPayment(t *testing.T) {
	proc := blockingProcessor{release: make(chan struct{})}
	fx := newFixture(t, newFakeCart(scenarioProducts()...), proc)

	openToCardEntry(t, fx.machine)
	if err := fx.machine.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := fx.machine.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if fx.machine.Phase() != PhaseProcessing {
		t.Fatalf("stale payment result must be ignored, got %s", fx.machine.Phase())
	}
}

func TestCardDraftMasking(t *testing.T) {
	masked := CardDraft{
		Number:     "4242-4242 4242x42424",
		Expiry:     "12/3099",
		CVV:        "12a34",
		HolderName: "  Ada ",
	}.Masked()

	if masked.Number != "4242 4242 4242 4242 4" {
		t.Fatalf("unexpected number %q", masked.Number)
	}
	if masked.Expiry != "12/30" {
		t.Fatalf("unexpected expiry %q", masked.Expiry)
	}
	if masked.CVV != "1234" {
		t.Fatalf("unexpected cvv %q", masked.CVV)
	}
	if masked.HolderName != "Ada" {
		t.Fatalf("unexpected holder %q", masked.HolderName)
	}
	if FormatExpiry("1") != "1" {
		t.Fatal("partial expiry should pass through")
	}
}

func TestSnapshotNeverExposesCVV(t *testing.T) {
	fx := newFixture(t, newFakeCart(scenarioProducts()...), approvingProcessor())
	openToCardEntry(t, fx.machine)

	view := fx.machine.Snapshot()
	if !view.Card.HasCVV {
		t.Fatal("expected cvv presence flag")
	}
	if view.Card.Last4 != "4242" {
		t.Fatalf("unexpected last4 %q", view.Card.Last4)
	}
}
