package services

import (
	"context"
	"sync"

	"freshgrocer/internal/domain"
)

// MemoryCartStore keeps carts in process memory; carts vanish on restart.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: map[string]domain.Cart{}}
}

func (m *MemoryCartStore) Load(_ context.Context, sessionID string) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := domain.Cart{}
	for k, v := range m.carts[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryCartStore) Save(_ context.Context, sessionID string, c domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(domain.Cart, len(c))
	for k, v := range c {
		cp[k] = v
	}
	m.carts[sessionID] = cp
	return nil
}

func (m *MemoryCartStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}
