package kvstore

import (
	"context"
	"time"

	"github.com/bluele/gcache"
)

// MemoryStore wraps bluele/gcache for LRU eviction plus per-entry
// expiration, as a generic []byte KV so pairing and permanent caches can
// share the implementation. Single-process only: acceptable for local
// development, not for a multi-instance deployment.
type MemoryStore struct {
	cache gcache.Cache
}

// NewMemoryStore builds a bounded in-process store. maxEntries caps memory
// use; entries without a TTL (ttl==0) never expire within the process
// lifetime but are still subject to LRU eviction once maxEntries is hit.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		cache: gcache.New(maxEntries).LRU().Build(),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, err := m.cache.Get(key)
	if err != nil {
		return nil, ErrNotFound
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return m.cache.Set(key, value)
	}
	return m.cache.SetWithExpire(key, value, ttl)
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}
