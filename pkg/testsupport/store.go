package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/store"
)

// OpenStore returns a migrated SQLite store in a temporary directory. It
// is closed when the test ends.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()

	cfg := store.DefaultConfig()
	cfg.DSN = "file:" + filepath.Join(t.TempDir(), "library.db") + "?_busy_timeout=5000"

	s, err := store.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewCache returns an in-process cache layer closed when the test ends.
func NewCache(t testing.TB, opts ...cache.LayerOption) *cache.Layer {
	t.Helper()

	cfg := cache.DefaultConfig()
	cfg.Capacity = 1000
	cfg.NumShards = 8

	layer, err := cache.New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create test cache: %v", err)
	}
	t.Cleanup(func() { layer.Close() })
	return layer
}

// Clock is a settable time source for deterministic timestamps.
type Clock struct {
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
