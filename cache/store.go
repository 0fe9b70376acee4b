package cache

import (
	"context"
	"time"
)

// Store is the backend contract for the cache layer: a byte oriented
// key/value store with per-key expiry and a tag index from a tag to the
// keys registered under it.
type Store interface {
	// Get returns the value under key. A missing or expired key reports
	// false with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl. A non-positive ttl selects the
	// backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Tag registers keys under tag. The layer calls it after Set.
	Tag(ctx context.Context, tag string, keys ...string) error

	// Tagged lists the keys registered under tag. It may omit keys whose
	// values are already gone.
	Tagged(ctx context.Context, tag string) ([]string, error)

	// Untag removes keys from tag.
	Untag(ctx context.Context, tag string, keys ...string) error

	// Close releases backend resources.
	Close() error
}
