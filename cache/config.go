package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-library-records/internal/cacheinfra"
)

// Backend selects the cache store implementation.
type Backend string

const (
	// BackendMemory keeps views in process with sturdyc.
	BackendMemory Backend = "memory"
	// BackendRedis shares views between processes through Redis.
	BackendRedis Backend = "redis"
	// BackendNone disables caching; every read goes to the record store.
	BackendNone Backend = "none"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	// Backend selects where views are kept. Default: memory
	Backend Backend

	// TTL is the lifetime of a cached view for every backend.
	// Must be greater than 0 unless Backend is none. Default: 1h
	TTL time.Duration

	// Capacity bounds the number of views held by the memory backend.
	// Must be greater than 0. Default: 10000
	Capacity int

	// NumShards is the number of independently locked shards of the memory
	// backend. Must be greater than 0. Default: 256
	NumShards int

	// EvictionPercentage is the share of a full memory shard dropped to
	// make room. Must be between 1-100. Default: 10
	EvictionPercentage int

	// EvictionInterval is the expiry sweep period of the memory backend.
	// Zero keeps the library default.
	EvictionInterval time.Duration

	// Redis configures the redis backend and is ignored otherwise.
	Redis RedisConfig
}

// RedisConfig mirrors the Redis store options. The entry TTL comes from
// Config.TTL.
type RedisConfig struct {
	// Addr is the host:port of the server. Default: localhost:6379
	Addr string

	// Username and Password authenticate the connection when set.
	Username string
	Password string

	// DB selects the logical database. Must not be negative.
	DB int

	// Prefix namespaces every key and tag. Default: library::
	Prefix string

	// TLS dials the server over TLS.
	TLS bool

	// DialTimeout bounds connection setup. Default: 5s
	DialTimeout time.Duration
}

// DefaultConfig returns an in-process cache with a one hour TTL.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultConfig()
	rds := cacheinfra.DefaultRedisConfig()
	return Config{
		Backend:            BackendMemory,
		TTL:                DefaultTTL,
		Capacity:           mem.Capacity,
		NumShards:          mem.NumShards,
		EvictionPercentage: mem.EvictionPercentage,
		EvictionInterval:   mem.EvictionInterval,
		Redis: RedisConfig{
			Addr:        rds.Addr,
			Prefix:      rds.Prefix,
			DialTimeout: rds.DialTimeout,
		},
	}
}

// Validate checks whether the configuration values are valid for the
// selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return c.memoryConfig().Validate()
	case BackendRedis:
		return c.redisConfig().Validate()
	case BackendNone:
		return nil
	default:
		return &cacheinfra.ConfigError{Field: "Backend", Message: fmt.Sprintf("unsupported backend %q", c.Backend)}
	}
}

// NewStore constructs the backend selected by cfg.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendRedis:
		s, err := cacheinfra.NewRedisStore(ctx, cfg.redisConfig())
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return NopStore{}, nil
	default:
		s, err := cacheinfra.NewSturdycStore(cfg.memoryConfig())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// New builds the backend selected by cfg and wraps it in a Layer.
func New(ctx context.Context, cfg Config, opts ...LayerOption) (*Layer, error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewLayer(store, append([]LayerOption{WithTTL(cfg.TTL)}, opts...)...), nil
}

func (c Config) memoryConfig() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func (c Config) redisConfig() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addr:        c.Redis.Addr,
		Username:    c.Redis.Username,
		Password:    c.Redis.Password,
		DB:          c.Redis.DB,
		Prefix:      c.Redis.Prefix,
		TLS:         c.Redis.TLS,
		TTL:         c.TTL,
		DialTimeout: c.Redis.DialTimeout,
	}
}

// NopStore is a Store that holds nothing. It backs BackendNone, so every
// read through a Layer falls through to its fetch function.
type NopStore struct{}

// Get always misses.
func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete has nothing to remove.
func (NopStore) Delete(context.Context, ...string) error { return nil }

// Tag records nothing.
func (NopStore) Tag(context.Context, string, ...string) error { return nil }

// Tagged reports no keys for any tag.
func (NopStore) Tagged(context.Context, string) ([]string, error) { return nil, nil }

// Untag has nothing to remove.
func (NopStore) Untag(context.Context, string, ...string) error { return nil }

// Close releases nothing.
func (NopStore) Close() error { return nil }
