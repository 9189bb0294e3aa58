package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider used when Redis is disabled
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates an empty in-process cache
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && a.now().After(entry.expiresAt)) {
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a copy of value; a non-positive expiration never expires
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.mu.Lock()
	a.entries[key] = entry
	a.mu.Unlock()
	return nil
}

// Delete removes values from cache
func (a *MemoryAdapter) Delete(_ context.Context, keys ...string) error {
	a.mu.Lock()
	for _, key := range keys {
		delete(a.entries, key)
	}
	a.mu.Unlock()
	return nil
}
