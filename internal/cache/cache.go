// Package cache provides the short-TTL read cache that shields the
// store from redundant concurrent reads.
//
// Expiry is lazy: there is no background eviction, an entry is simply
// ignored once its TTL has elapsed. Concurrent fetches for the same
// key before the first completes are not deduplicated; fetchers are
// idempotent reads, so the only cost is a redundant store query.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/adiallo/debtbook/internal/metrics"
)

// Cache key constants for the logical resources the ledger serves.
const (
	KeyPersons        = "persons"
	KeySettledRecords = "settled_records"
	KeyActivityLogs   = "activity_logs"
)

// FetchFunc loads the authoritative value for a key from the store.
type FetchFunc func() (interface{}, error)

// Cache is the injectable read-cache abstraction. Mutating operations
// must call Invalidate for every key whose underlying data they
// changed before reporting success.
type Cache interface {
	// Get returns the live cached value for key, or invokes fetch and
	// stores the result. If fetch fails and a previously fetched value
	// exists, that stale value is returned alongside the error so the
	// caller can fall back to it for read-only failures.
	Get(key string, fetch FetchFunc) (interface{}, error)

	// Invalidate removes an entry immediately regardless of age.
	Invalidate(key string)

	// Flush drops every entry.
	Flush()
}

// TTLCache implements Cache with a fixed TTL per entry, backed by
// patrickmn/go-cache. At most one entry is held per key.
type TTLCache struct {
	entries *gocache.Cache
	// stale keeps the last successful value per key without expiry,
	// used only as a fallback when a re-fetch fails.
	stale *gocache.Cache
}

var _ Cache = (*TTLCache)(nil)

// New creates a TTLCache. The cleanup interval is zero: expired
// entries are never swept, only skipped on read.
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries: gocache.New(ttl, 0),
		stale:   gocache.New(gocache.NoExpiration, 0),
	}
}

// Get implements Cache.
func (c *TTLCache) Get(key string, fetch FetchFunc) (interface{}, error) {
	if v, ok := c.entries.Get(key); ok {
		metrics.CacheHits.WithLabelValues(key).Inc()
		return v, nil
	}

	metrics.CacheMisses.WithLabelValues(key).Inc()
	v, err := fetch()
	if err != nil {
		if prev, ok := c.stale.Get(key); ok {
			return prev, err
		}
		return nil, err
	}

	c.entries.Set(key, v, gocache.DefaultExpiration)
	c.stale.Set(key, v, gocache.NoExpiration)
	return v, nil
}

// Invalidate implements Cache. The stale copy is kept: it only serves
// as a fallback when the store itself is unreachable.
func (c *TTLCache) Invalidate(key string) {
	c.entries.Delete(key)
}

// Flush implements Cache.
func (c *TTLCache) Flush() {
	c.entries.Flush()
	c.stale.Flush()
}
