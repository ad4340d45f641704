package cache

import (
	"sync"
	"time"
)

// entry pairs a cached value with the time it was written. Entries are
// written atomically as whole pairs, so a racing read sees either the old
// or the new pair, never a partial one.
type entry[T any] struct {
	value    T
	cachedAt time.Time
}

// Cache is a process-local, in-memory TTL cache keyed by string.
// An entry is valid iff now - cachedAt < ttl; expired entries are treated
// as absent and evicted lazily on the next lookup. There is no background
// sweep and no cross-process coherence.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
}

// New creates a cache whose entries expire after ttl
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
	}
}

// Get returns the value for key if present and not expired.
// An expired entry is removed before reporting a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if time.Since(e.cachedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a fresh value may have landed
		// between the read and here. Keep it in that case.
		if current, stillThere := c.entries[key]; stillThere && time.Since(current.cachedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, stamped with the current time
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, cachedAt: time.Now()}
	c.mu.Unlock()
}

// Delete removes key if present
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
