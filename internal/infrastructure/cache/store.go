package cache

import (
	"context"
	"time"
)

// Store is a byte-value cache with per-key TTL. It fronts the master data
// reads so repeated dropdown loads do not hammer the upstream ERP.
type Store interface {
	// Get returns the cached value for key. The second return value is
	// false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the given TTL, replacing any
	// previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store. Safe to call multiple times.
	Close() error
}
