package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store shared by the quote and backfill services.
// Concurrent writers racing on the same key are fine: entries are
// idempotent and the last write wins.
type Cache interface {
	// Get returns the value for key and whether it was present and fresh.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration)
}
