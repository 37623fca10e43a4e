// Package cache provides the byte caches used by the renderer and the service.
//
// A [Cache] stores opaque byte slices under string keys with an optional TTL.
// Four backends are provided:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [MemoryCache]: bounded in-process map, for tests and single-node servers
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: shared cache for a fleet of servers
//
// Keys are built by a [Keyer] so every component agrees on the key layout.
// A [ScopedKeyer] adds a prefix to every key for namespace isolation.
//
// Cached values must be treated as read-only by callers.
package cache

import (
	"context"
	"time"
)

// Cache stores byte slices under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// A miss is (nil, false, nil); expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default TTLs for cached values.
const (
	// TTLImage is how long fetched remote image bytes are reused.
	TTLImage = time.Hour

	// TTLArtifact is how long encoded photocards are reused.
	TTLArtifact = 24 * time.Hour

	// TTLArtwork is how long artwork metadata from the exhibition service is reused.
	TTLArtwork = 10 * time.Minute
)
