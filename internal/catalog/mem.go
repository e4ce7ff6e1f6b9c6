package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a map-backed Store used by tests and local runs.
type MemStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemStore() *MemStore {
	return &MemStore{products: make(map[string]Product)}
}

func (m *MemStore) Get(_ context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemStore) List(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(func(Product) bool { return true }), nil
}

func (m *MemStore) ListInStock(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(func(p Product) bool { return p.InStock }), nil
}

func (m *MemStore) snapshot(keep func(Product) bool) []Product {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemStore) Add(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.InStock = p.Quantity > 0
	m.products[p.ID] = p
	return nil
}

func (m *MemStore) Update(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.InStock = p.Quantity > 0
	m.products[p.ID] = p
	return nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}
