package bridge

import (
	"sync"
	"time"
)

// SnapshotTTL bounds how long any browser-side view of vault data may live in
// memory. Clearing on expiry is a security requirement, not an optimization.
const SnapshotTTL = 5 * time.Minute

// Cache holds one value with an explicit expiry. The clock is injected so
// expiry is deterministic in tests.
type Cache[T any] struct {
	mu        sync.Mutex
	value     T
	expiresAt time.Time
	set       bool
	now       func() time.Time
	ttl       time.Duration
}

// NewCache creates a Cache with the given TTL. A nil clock uses time.Now.
func NewCache[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{now: now, ttl: ttl}
}

// Put stores a value and stamps its expiry.
func (c *Cache[T]) Put(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.expiresAt = c.now().Add(c.ttl)
	c.set = true
}

// Get returns the cached value if it is still live. An expired value is
// dropped on read so it does not linger in memory.
func (c *Cache[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if !c.set {
		return zero, false
	}
	if c.now().After(c.expiresAt) {
		c.value = zero
		c.set = false
		return zero, false
	}
	return c.value, true
}

// Clear drops the cached value immediately. Hosts call this on suspend and
// shutdown.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.set = false
}
