/*
Package cache stores rendered evaluation results keyed by request.

PURPOSE:
  Evaluation is cheap but calculator requests are repetitive (the same
  salary in the same region, re-submitted on every form change). The API
  caches the encoded response under a hash of the normalized request.

IMPLEMENTATIONS:
  - Memory: process-local map with TTL, the default
  - Redis: shared between server replicas

Cache misses and cache errors are never fatal. The API logs errors and
recomputes.

SEE ALSO:
  - api/cache.go: How handlers use the cache
*/
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Flush drops every entry. Called when a table is re-registered.
	Flush(ctx context.Context) error
}

// Key hashes a namespace and a normalized request body into a cache key.
func Key(namespace string, payload []byte) string {
	h := xxhash.New()
	_, _ = h.WriteString(namespace)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(payload)
	return namespace + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// =============================================================================
// MEMORY
// =============================================================================

type entry struct {
	value   []byte
	expires time.Time
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory cache. ttl <= 0 means entries never expire.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	e := entry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Flush(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
