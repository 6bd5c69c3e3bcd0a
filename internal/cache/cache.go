// Package cache provides the short-TTL side cache used by the softmax
// category scorer. It is never a source of truth: entries are derived
// from the interaction logs and can be dropped at any time.
package cache

import (
	"context"
	"time"
)

// StatsCache is a byte-value cache with per-entry expiry.
type StatsCache interface {
	// Get returns the value and true when the key exists and has not
	// expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
