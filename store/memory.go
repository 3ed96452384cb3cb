package store

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// MemoryBackend keeps entries in process memory
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     Clock
}

// NewMemoryBackend creates an empty in-memory backend. A nil clock uses
// time.Now.
func NewMemoryBackend(clock Clock) *MemoryBackend {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryBackend{
		entries: make(map[string]entry),
		now:     clock,
	}
}

// Get returns the live entry for key
func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if e.expired(b.now()) {
		b.mu.Lock()
		// re-check under the write lock, a concurrent Set may have replaced it
		if cur, ok := b.entries[key]; ok && cur.expired(b.now()) {
			delete(b.entries, key)
		}
		b.mu.Unlock()
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set stores value under key
func (b *MemoryBackend) Set(_ context.Context, key, value string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = entry{Value: value, ExpiresAt: expiresAt}
	return nil
}

// Delete removes keys; missing keys are ignored
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range keys {
		delete(b.entries, key)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
