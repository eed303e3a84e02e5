// Package cache wraps bluele/gcache into the typed TTL caches the Transit
// Data Layer needs, plus singleflight coordination so concurrent refreshes
// of the same (authority, mode) key never thunder the herd.
package cache

import (
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached feed/weather/geocode payload with its acquisition time,
// so callers can tell freshness apart from a cache miss.
type Entry struct {
	Value     any
	AcquiredAt time.Time
}

// TTLCache is a process-wide, thread-safe cache keyed by string.
type TTLCache struct {
	backing gcache.Cache
	group   singleflight.Group
}

// NewTTLCache builds a cache bounded to maxEntries (LRU eviction beyond
// that).
func NewTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{backing: gcache.New(maxEntries).LRU().Build()}
}

// Get returns the cached entry and whether it is present and fresher than
// maxAge. A present-but-stale entry is still returned (ok=false) so callers
// can use it as a fallback when a refresh attempt fails. The cache does not
// compare a stale entry's age against any other source.
func (c *TTLCache) Get(key string, maxAge time.Duration) (Entry, bool) {
	v, err := c.backing.Get(key)
	if err != nil {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	if !ok {
		return Entry{}, false
	}
	fresh := time.Since(e.AcquiredAt) < maxAge
	return e, fresh
}

// Peek returns a cached entry regardless of age, for stale-fallback use.
func (c *TTLCache) Peek(key string) (Entry, bool) {
	v, err := c.backing.Get(key)
	if err != nil {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

// Set stores a value with the current time as its acquisition timestamp.
// On a refresh failure the cache is left untouched by the caller simply not
// calling Set, so a bad fetch never overwrites a good cached value.
func (c *TTLCache) Set(key string, value any) {
	_ = c.backing.Set(key, Entry{Value: value, AcquiredAt: time.Now()})
}

// Refresh runs fn at most once per key across concurrent callers
// (golang.org/x/sync/singleflight), so at most one in-flight fetch happens
// per (authority, mode) key. Callers still apply their own deadline around
// the call; a cancelled caller does not cancel the shared fetch — in-flight
// upstream fetches still run to completion to warm the cache for the next
// caller.
func (c *TTLCache) Refresh(key string, fn func() (any, error)) (any, error, bool) {
	v, err, shared := c.group.Do(key, fn)
	return v, err, shared
}
