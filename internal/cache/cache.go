// Package cache provides a small in-process TTL cache.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a map whose entries expire. Expired entries are dropped on read.
// It is safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu         sync.Mutex
	items      map[K]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache whose Put entries live for defaultTTL.
func New[K comparable, V any](defaultTTL time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		items:      make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (c *TTL[K, V]) WithClock(now func() time.Time) *TTL[K, V] {
	c.now = now
	return c
}

// Get returns the value for key if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl deletes the key.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.items, key)
		return
	}
	c.items[key] = entry[V]{value: value, expires: c.now().Add(ttl)}
}

// Put stores value under key for the default TTL.
func (c *TTL[K, V]) Put(key K, value V) {
	c.Set(key, value, c.defaultTTL)
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
