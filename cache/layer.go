package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a cached view lives when no TTL is configured.
const DefaultTTL = 3600 * time.Second

// Layer is the best-effort cache in front of the record store. It never
// returns backend errors; they are logged and treated as misses.
//
// Every invalidation advances an epoch. A fill records the epoch before it
// reads the store and drops its result if an invalidation happened in
// between, so a read that raced a write cannot put the pre-write state
// back into the cache.
type Layer struct {
	store  Store
	logger *zap.Logger
	ttl    time.Duration
	epoch  atomic.Uint64
}

// LayerOption customises a Layer.
type LayerOption func(*Layer)

// WithLogger sets the logger used for swallowed backend errors.
func WithLogger(logger *zap.Logger) LayerOption {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTTL sets the TTL used by Fill and Fetch.
func WithTTL(ttl time.Duration) LayerOption {
	return func(l *Layer) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// NewLayer wraps store.
func NewLayer(store Store, opts ...LayerOption) *Layer {
	l := &Layer{
		store:  store,
		logger: zap.NewNop(),
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TTL returns the configured entry lifetime.
func (l *Layer) TTL() time.Duration { return l.ttl }

// Epoch returns the invalidation counter. Pass it to Fill.
func (l *Layer) Epoch() uint64 { return l.epoch.Load() }

// Get returns the value under key. Errors count as a miss.
func (l *Layer) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, ok
}

// Set stores value under key for ttl and registers the key under tags.
// Failures are logged.
func (l *Layer) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) {
	if err := l.store.Set(ctx, key, value, ttl); err != nil {
		l.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	for _, tag := range dedupe(append(tags, tagsFromContext(ctx)...)) {
		if err := l.store.Tag(ctx, tag, key); err != nil {
			// an untagged entry would survive tag invalidation
			l.logger.Warn("cache tag failed", zap.String("key", key), zap.String("tag", tag), zap.Error(err))
			l.drop(ctx, key)
			return
		}
	}
}

// Fill stores value like Set, unless an invalidation happened since epoch
// was read. It reports whether the value was kept.
func (l *Layer) Fill(ctx context.Context, epoch uint64, key string, value []byte, tags ...string) bool {
	if l.Epoch() != epoch {
		l.logger.Debug("cache fill skipped", zap.String("key", key))
		return false
	}
	l.Set(ctx, key, value, l.ttl, tags...)

	// an invalidation may have run between the check and the write
	if l.Epoch() != epoch {
		l.drop(ctx, key)
		return false
	}
	return true
}

// Invalidate removes key.
func (l *Layer) Invalidate(ctx context.Context, key string) {
	l.InvalidateAll(ctx, []string{key})
}

// InvalidateAll removes every key in keys.
func (l *Layer) InvalidateAll(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	l.epoch.Add(1)
	if err := l.store.Delete(ctx, keys...); err != nil {
		l.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateTags removes every key registered under any of tags.
func (l *Layer) InvalidateTags(ctx context.Context, tags ...string) {
	tags = dedupe(tags)
	if len(tags) == 0 {
		return
	}
	l.epoch.Add(1)

	for _, tag := range tags {
		keys, err := l.store.Tagged(ctx, tag)
		if err != nil {
			l.logger.Warn("cache tag lookup failed", zap.String("tag", tag), zap.Error(err))
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := l.store.Delete(ctx, keys...); err != nil {
			l.logger.Warn("cache invalidate failed", zap.String("tag", tag), zap.Strings("keys", keys), zap.Error(err))
			continue
		}
		if err := l.store.Untag(ctx, tag, keys...); err != nil {
			l.logger.Warn("cache untag failed", zap.String("tag", tag), zap.Error(err))
		}
	}
}

func (l *Layer) drop(ctx context.Context, key string) {
	if err := l.store.Delete(ctx, key); err != nil {
		l.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the backend.
func (l *Layer) Close() error {
	return l.store.Close()
}
