// Package kvstore defines the shared key-value store used by the pairing
// subsystem and by permanent caches (geocode results). Devices need a
// persistent store visible to all server instances, with an in-memory map
// acceptable only for single-process local development. We ship both: a
// gcache-backed MemoryStore, process-local, for dev, and a SQLite-backed
// Store (mattn/go-sqlite3) for a real deployment where the file lives on
// durable shared storage.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("kvstore: not found")

// Store is the KV contract both the pairing subsystem and permanent caches
// use. TTL of zero means "never expires" (used for permanent geocode cache
// entries).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
