package store

import (
	"context"
	"sync"
	"time"

	"github.com/thomas/eva-cart-go/internal/cache"
)

// Memory keeps carts in process memory. Entries expire after ttl without
// use, which scopes a cart to a live session. A ttl of zero keeps entries
// forever.
type Memory struct {
	mu      sync.Mutex
	entries *cache.Cache[string, []byte]
}

// NewMemory creates an in-memory store.
func NewMemory(ttl time.Duration, opts ...cache.Option) *Memory {
	opts = append([]cache.Option{cache.WithSlidingExpiry()}, opts...)
	return &Memory{entries: cache.New[string, []byte](ttl, opts...)}
}

// Load returns a copy of the stored value.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	v, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

// Save stores a copy of data.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Set(key, clone(data))
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries.Delete(key)
	return nil
}

// Update runs fn under the store lock.
func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if v, ok := m.entries.Get(key); ok {
		current = clone(v)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		m.entries.Delete(key)
		return nil
	}
	m.entries.Set(key, clone(next))
	return nil
}

// Sweep drops expired carts and reports how many were removed.
func (m *Memory) Sweep() int {
	return m.entries.Cleanup()
}
