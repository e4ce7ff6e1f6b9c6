package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a map-backed Store used by tests and local runs.
type MemStore struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[string]Order)}
}

func (m *MemStore) Create(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (m *MemStore) FindByUser(_ context.Context, userID string) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(o Order) bool { return o.UserID == userID }), nil
}

func (m *MemStore) FindAll(_ context.Context) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(Order) bool { return true }), nil
}

func (m *MemStore) collect(keep func(Order) bool) []Order {
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemStore) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.orders))
	m.orders = make(map[string]Order)
	return n, nil
}

func (m *MemStore) Transition(_ context.Context, id string, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, ErrOrderNotFound
	}
	if !CanTransition(o.Status, to) {
		return false, nil
	}
	o.Status = to
	if to == StatusConfirmed {
		o.Settled = true
	}
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return true, nil
}

func (m *MemStore) SetSession(_ context.Context, id, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.SessionID = sessionID
	m.orders[id] = o
	return nil
}

func (m *MemStore) ListStalePending(_ context.Context, cutoff time.Time) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(o Order) bool {
		return o.Status == StatusPending && o.Method == MethodGateway && o.CreatedAt.Before(cutoff)
	}), nil
}
