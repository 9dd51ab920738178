// Package cache stores short-lived JSON snapshots of read-heavy aggregates
// such as trending threats and national statistics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss is returned by GetJSON when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a JSON key/value cache with per-key TTLs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type memItem struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local Cache used when no Redis URL is configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

// GetJSON implements Cache.
func (m *Memory) GetJSON(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	it, ok := m.items[key]
	if ok && !it.expires.IsZero() && !m.now().Before(it.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(it.data, dest)
}

// SetJSON implements Cache. A zero ttl never expires.
func (m *Memory) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	it := memItem{data: data}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
