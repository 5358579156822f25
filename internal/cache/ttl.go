package cache

import (
	"sort"
	"sync"
	"time"
)

// Entry is what a lookup returns: the stored value, when it was fetched and
// whether it has outlived the cache TTL.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
	IsStale   bool
}

type entry[T any] struct {
	data       T
	timestamp  time.Time
	refreshing bool
}

// Cache is a string-keyed store with age-based staleness.
// Entries are never expired eagerly: staleness is evaluated on read and stale
// values stay readable until overwritten or invalidated.
type Cache[T any] struct {
	mu      sync.RWMutex
	name    string
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*entry[T]
}

// New creates a cache. name labels the metrics; ttl is the staleness threshold.
func New[T any](name string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
}

// SetClock replaces the time source (tests).
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Name returns the cache name.
func (c *Cache[T]) Name() string { return c.name }

// TTL returns the staleness threshold.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// Get returns the entry for key. It never triggers any fetch.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		lookups.WithLabelValues(c.name, "miss").Inc()
		return Entry[T]{}, false
	}

	stale := c.now().Sub(e.timestamp) > c.ttl
	if stale {
		lookups.WithLabelValues(c.name, "stale").Inc()
	} else {
		lookups.WithLabelValues(c.name, "hit").Inc()
	}
	return Entry[T]{Data: e.data, Timestamp: e.timestamp, IsStale: stale}, true
}

// Set stores data fetched now. Any refreshing mark is cleared.
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[T]{data: data, timestamp: c.now()}
	c.observeSizeLocked()
}

// SetAt stores data with an explicit fetch time, so staleness is measured
// against when the data was really obtained (disk hydration).
func (c *Cache[T]) SetAt(key string, data T, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[T]{data: data, timestamp: timestamp}
	c.observeSizeLocked()
}

// MarkRefreshing flags key as being refreshed. It reports true only for the
// caller that set the flag; absent keys and already-flagged keys report false.
func (c *Cache[T]) MarkRefreshing(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.refreshing {
		return false
	}
	e.refreshing = true
	return true
}

// ClearRefreshing drops the refreshing flag without touching the data.
func (c *Cache[T]) ClearRefreshing(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.refreshing = false
	}
}

// IsRefreshing reports whether a refresh for key is in flight.
func (c *Cache[T]) IsRefreshing(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && e.refreshing
}

// Invalidate removes key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	invalidations.WithLabelValues(c.name).Inc()
	c.observeSizeLocked()
}

// InvalidateAll removes every entry.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
	invalidations.WithLabelValues(c.name).Inc()
	c.observeSizeLocked()
}

// Keys returns the stored keys, sorted.
func (c *Cache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[T]) observeSizeLocked() {
	entries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}
