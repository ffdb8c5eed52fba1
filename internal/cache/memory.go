package cache

import (
	"context"
	"sync"
	"time"
)

type item struct {
	value      []byte
	expiration time.Time
}

// MemoryStore is an in-process Store. Expired items are dropped lazily on Get
// and by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, used by tests to move past a TTL.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{items: make(map[string]item), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !it.expiration.IsZero() && !m.now().Before(it.expiration) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiration.Equal(it.expiration) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores value; a non-positive ttl never expires.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item{value: append([]byte(nil), value...), expiration: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired items and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if !it.expiration.IsZero() && !now.Before(it.expiration) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored items, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
