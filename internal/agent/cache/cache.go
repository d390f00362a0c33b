// Package cache provides success-only response caching for agent calls.
// Only requests carrying a content-derived cache key participate; the
// evaluate stage uses it to avoid re-scoring identical contributions.
// Cache failures degrade gracefully to a live agent call.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long a cached agent response stays valid.
const DefaultTTL = 24 * time.Hour

// Store is the cache backend. The Redis implementation serves shared
// deployments; the in-memory implementation serves tests and single
// process setups.
type Store interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value under the key for the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// memoryEntry holds a cached value with its expiry.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store. Expired entries are
// dropped lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
