package cacheinfra

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backed store.
type RedisConfig struct {
	// Addr is the host:port of the Redis server. Must not be empty.
	// Default: localhost:6379
	Addr string

	// Username and Password authenticate the connection when set.
	Username string
	Password string

	// DB selects the logical database. Must not be negative.
	DB int

	// Prefix namespaces every key and tag written by the store, so several
	// deployments can share one server. Default: library::
	Prefix string

	// TLS dials the server over TLS 1.2 or later.
	TLS bool

	// TTL is used when Set receives a non-positive ttl, and bounds the
	// lifetime of tag sets. Must be greater than 0. Default: 1h
	TTL time.Duration

	// DialTimeout bounds connection setup. Zero keeps the go-redis
	// default. Default: 5s
	DialTimeout time.Duration
}

// DefaultRedisConfig returns a local Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		Prefix:      "library::",
		TTL:         time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "must not be empty"}
	}
	if c.DB < 0 {
		return &ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.DialTimeout < 0 {
		return &ConfigError{Field: "DialTimeout", Message: "must be non-negative"}
	}
	return nil
}

func (c RedisConfig) options() *redis.Options {
	opts := &redis.Options{
		Addr:        c.Addr,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: c.DialTimeout,
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// RedisStore keeps cache entries in Redis with native expiry. Tags are
// Redis sets.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(cfg.options())
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) tagKey(tag string) string { return s.prefix + "tag::" + tag }

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key for ttl. A non-positive ttl uses the store
// TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

// Delete removes keys. Missing keys are ignored.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

// Tag adds keys to the set indexed by tag and extends the set's lifetime
// to the store TTL.
func (s *RedisStore) Tag(ctx context.Context, tag string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}

	tagKey := s.tagKey(tag)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, tagKey, members...)
		pipe.Expire(ctx, tagKey, s.ttl)
		return nil
	})
	return err
}

// Tagged returns the keys indexed by tag.
func (s *RedisStore) Tagged(ctx context.Context, tag string) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.tagKey(tag)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return keys, err
}

// Untag removes keys from the set indexed by tag. Redis drops empty sets.
func (s *RedisStore) Untag(ctx context.Context, tag string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	return s.client.SRem(ctx, s.tagKey(tag), members...).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
