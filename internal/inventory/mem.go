package inventory

import (
	"context"
	"sync"
)

type memEntry struct {
	mu  sync.Mutex
	qty int
}

// MemLedger keeps quantities in memory with one lock per product.
// Used by tests and local runs.
type MemLedger struct {
	mu       sync.RWMutex
	products map[string]*memEntry
}

func NewMemLedger() *MemLedger {
	return &MemLedger{products: make(map[string]*memEntry)}
}

// Seed registers a product with an initial quantity.
func (m *MemLedger) Seed(productID string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID] = &memEntry{qty: qty}
}

// Quantity reports the current quantity, false when the product is unknown.
func (m *MemLedger) Quantity(productID string) (int, bool) {
	e := m.entry(productID)
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qty, true
}

func (m *MemLedger) entry(productID string) *memEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.products[productID]
}

func (m *MemLedger) Reserve(_ context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	e := m.entry(productID)
	if e == nil {
		return 0, ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qty < qty {
		return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: e.qty}
	}
	e.qty -= qty
	return e.qty, nil
}

func (m *MemLedger) Release(_ context.Context, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	e := m.entry(productID)
	if e == nil {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.qty += qty
	return nil
}

func (m *MemLedger) SetQuantity(_ context.Context, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	e := m.entry(productID)
	if e == nil {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.qty = qty
	return nil
}
