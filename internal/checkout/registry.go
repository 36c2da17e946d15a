package checkout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
)

const defaultIdleTTL = 24 * time.Hour

// Registry keeps one in-memory checkout machine per cart token. A machine is
// tracked only while a request holds it or it sits outside the closed phase.
type Registry struct {
	params  MachineParams
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	machines map[string]*Machine
	swept    time.Time
	closed   bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL evicts sessions nobody touched for d. Processing and success
// sessions are left to finish on their own.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

// WithClock overrides the clock used for idle tracking.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry validates params once so per-token machines can be built lazily.
func NewRegistry(params MachineParams, opts ...RegistryOption) (*Registry, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		params:   params,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
		machines: map[string]*Machine{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// View returns the session for token without tracking it. Unknown tokens
// read as a closed checkout.
func (r *Registry) View(token string) (View, error) {
	if m, ok := r.Peek(token); ok {
		return m.Snapshot(), nil
	}
	m, err := NewMachine(token, r.params)
	if err != nil {
		return View{}, err
	}
	return m.Snapshot(), nil
}

// Do runs fn against the machine for token and returns the resulting view.
// The machine is pinned while fn runs, so a concurrent close never hands a
// second request a different instance.
func (r *Registry) Do(token string, fn func(m *Machine) error) (View, error) {
	m, err := r.acquire(token)
	if err != nil {
		return View{}, err
	}
	defer r.settle(m)

	if fn != nil {
		err = fn(m)
	}
	return m.Snapshot(), err
}

// Peek returns the machine for token without creating one.
func (r *Registry) Peek(token string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[token]
	return m, ok
}

// Len reports how many checkouts are being tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.machines)
}

// EvictIdle drops unpinned sessions idle for longer than the TTL and reports
// how many were removed.
func (r *Registry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictIdleLocked(r.now())
}

func (r *Registry) acquire(token string) (*Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.swept) >= r.idleTTL/4 {
		r.evictIdleLocked(now)
	}

	m, ok := r.machines[token]
	if !ok {
		created, err := NewMachine(token, r.params)
		if err != nil {
			return nil, err
		}
		created.onClosed = r.release
		if r.closed {
			created.stopped = true
		} else {
			r.machines[token] = created
		}
		m = created
	}
	m.users++
	m.lastUsed = now
	return m, nil
}

// settle unpins m and forgets it once it is back in the closed phase.
func (r *Registry) settle(m *Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.users--
	m.lastUsed = r.now()
	r.forgetLocked(m)
}

func (r *Registry) release(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[token]; ok {
		r.forgetLocked(m)
	}
}

func (r *Registry) forgetLocked(m *Machine) {
	if m.users > 0 || r.machines[m.token] != m {
		return
	}
	if m.Phase() == PhaseClosed {
		delete(r.machines, m.token)
	}
}

func (r *Registry) evictIdleLocked(now time.Time) int {
	r.swept = now
	evicted := 0
	for token, m := range r.machines {
		if m.users > 0 || now.Sub(m.lastUsed) < r.idleTTL {
			continue
		}
		switch m.Phase() {
		case PhaseProcessing, PhaseSuccess:
			continue
		}
		delete(r.machines, token)
		r.params.Metrics.IncOutcome("evicted", "idle")
		evicted++
	}
	return evicted
}

// Shutdown stops every machine's timers and waits for payments in flight.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	machines := make([]*Machine, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, m)
	}
	r.machines = map[string]*Machine{}
	r.mu.Unlock()

	var errs error
	for _, m := range machines {
		errs = multierr.Append(errs, m.Stop(ctx))
	}
	return errs
}
