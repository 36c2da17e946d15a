package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time copy of the cart with freshly computed totals.
type Snapshot struct {
	Items  []LineItem
	Totals Totals
	Open   bool
}

// IsEmpty reports whether the snapshot has no line items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// State is the persisted form of a cart. Totals are derived on read.
type State struct {
	Items []LineItem `json:"items"`
	Open  bool       `json:"open"`
}

// Listener receives a snapshot after every change.
type Listener func(Snapshot)

// Cart is an ordered set of line items keyed by product id, plus the
// open/closed flag of the cart panel. It is safe for concurrent use.
type Cart struct {
	mu        sync.Mutex
	calc      Calculator
	items     []LineItem
	open      bool
	listeners map[int]Listener
	nextID    int
}

// New returns an empty, closed cart.
func New(calc Calculator) *Cart {
	return &Cart{calc: calc, listeners: map[int]Listener{}}
}

// Restore rebuilds a cart from persisted state, dropping any entries that
// would violate the quantity or uniqueness invariants.
func Restore(calc Calculator, state State) *Cart {
	c := New(calc)
	c.open = state.Open
	for _, item := range state.Items {
		if item.Quantity < 1 {
			continue
		}
		if idx := c.indexOf(item.ProductID); idx >= 0 {
			c.items[idx].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
	return c
}

// AddItem increments the quantity of an existing line or appends a new one.
// Quantities below 1 count as 1.
func (c *Cart) AddItem(p Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	c.mutate(func() bool {
		if idx := c.indexOf(p.ID); idx >= 0 {
			c.items[idx].Quantity += quantity
			return true
		}
		c.items = append(c.items, lineItemFromProduct(p, quantity))
		return true
	})
}

// UpdateQuantity sets the quantity directly. Zero or less removes the line;
// an unknown product is ignored.
func (c *Cart) UpdateQuantity(productID uuid.UUID, quantity int) {
	c.mutate(func() bool {
		idx := c.indexOf(productID)
		if idx < 0 {
			return false
		}
		if quantity <= 0 {
			c.removeAt(idx)
			return true
		}
		if c.items[idx].Quantity == quantity {
			return false
		}
		c.items[idx].Quantity = quantity
		return true
	})
}

// RemoveItem drops the line for productID if present.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	c.mutate(func() bool {
		idx := c.indexOf(productID)
		if idx < 0 {
			return false
		}
		c.removeAt(idx)
		return true
	})
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mutate(func() bool {
		if len(c.items) == 0 {
			return false
		}
		c.items = nil
		return true
	})
}

// Open shows the cart panel.
func (c *Cart) Open() {
	c.setOpen(true)
}

// Close hides the cart panel.
func (c *Cart) Close() {
	c.setOpen(false)
}

// Toggle flips the panel flag.
func (c *Cart) Toggle() {
	c.mutate(func() bool {
		c.open = !c.open
		return true
	})
}

func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Cart) setOpen(open bool) {
	c.mutate(func() bool {
		if c.open == open {
			return false
		}
		c.open = open
		return true
	})
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

// Totals recomputes the totals from the current items.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calc.Compute(c.items)
}

// IsEmpty reports whether there are no line items.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the persistable form of the cart.
func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Items: c.copyItems(), Open: c.open}
}

// Subscribe registers l for change notifications. The returned func removes it.
func (c *Cart) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// mutate applies fn under the lock and notifies listeners outside it when fn
// reports a change.
func (c *Cart) mutate(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (c *Cart) snapshotLocked() Snapshot {
	return Snapshot{
		Items:  c.copyItems(),
		Totals: c.calc.Compute(c.items),
		Open:   c.open,
	}
}

func (c *Cart) copyItems() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}
