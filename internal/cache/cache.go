// Package cache provides a generic in-memory TTL cache.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry holds a cached value with its expiration time.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	sliding bool
	now     func() time.Time
}

// WithSlidingExpiry pushes an entry's expiry forward on every read, so
// entries live for ttl after their last use rather than their last write.
func WithSlidingExpiry() Option {
	return func(o *options) { o.sliding = true }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a generic TTL cache with mutex protection. A ttl of zero or
// less disables expiry.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]entry[V]
	ttl     time.Duration
	sliding bool
	nowFunc func() time.Time
	loads   singleflight.Group
}

// New creates a new cache with the specified TTL.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[K, V]{
		items:   make(map[K]entry[V]),
		ttl:     ttl,
		sliding: o.sliding,
		nowFunc: o.now,
	}
}

func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return c.ttl > 0 && now.After(e.expiresAt)
}

// Get retrieves a value from the cache.
// Returns the value and true if found and not expired, otherwise zero value and false.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if c.sliding {
		return c.getSliding(key)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.expired(e, c.nowFunc()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[K, V]) getSliding(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	e, ok := c.items[key]
	if !ok || c.expired(e, now) {
		var zero V
		return zero, false
	}
	e.expiresAt = now.Add(c.ttl)
	c.items[key] = e
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: c.nowFunc().Add(c.ttl),
	}
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Concurrent misses for the same key share a single load call.
// Errors are returned to every waiter and are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.loads.Do(fmt.Sprintf("%#v", key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Delete removes a value from the cache.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]entry[V])
}

// Cleanup removes expired entries and reports how many were dropped.
// Callers run it periodically to free memory.
func (c *Cache[K, V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	dropped := 0
	for key, e := range c.items {
		if c.expired(e, now) {
			delete(c.items, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of items in the cache (including expired ones).
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
