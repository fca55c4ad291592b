// Package cache provides a simple in-memory TTL cache with a capacity
// bound. Entries past their TTL are misses; when the capacity is reached
// the least recently used entry is evicted. State is per-process and
// rebuilt on demand.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value      T
	expiresAt  time.Time
	accessedAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL and LRU eviction.
type InMemory[T any] struct {
	mu      sync.Mutex
	items   map[string]entry[T]
	ttl     time.Duration
	maxSize int // 0 = unlimited
}

// New creates a new in-memory cache with the given TTL and capacity.
func New[T any](ttl time.Duration, maxSize int) *InMemory[T] {
	c := &InMemory[T]{
		items:   make(map[string]entry[T]),
		ttl:     ttl,
		maxSize: maxSize,
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	e.accessedAt = time.Now()
	c.items[key] = e
	return e.value, true
}

// Set stores a value with the configured TTL, evicting the least recently
// used entry when the cache is full.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.evictLRU()
		}
	}
	c.items[key] = entry[T]{
		value:      value,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of entries, expired ones included until cleanup.
func (c *InMemory[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// evictLRU removes the least recently accessed entry. Caller holds the lock.
func (c *InMemory[T]) evictLRU() {
	var lruKey string
	var lruTime time.Time
	for k, e := range c.items {
		if lruKey == "" || e.accessedAt.Before(lruTime) {
			lruKey = k
			lruTime = e.accessedAt
		}
	}
	if lruKey != "" {
		delete(c.items, lruKey)
	}
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for k, e := range c.items {
			if now.After(e.expiresAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
