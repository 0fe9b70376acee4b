package cacheinfra

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the in-process sturdyc store.
type Config struct {
	// Capacity bounds the number of cached views across all shards.
	// Must be greater than 0. Default: 10000
	Capacity int

	// NumShards splits the cache into independently locked shards.
	// More shards lower contention between concurrent readers and writers
	// at the cost of memory overhead. Capacity is divided evenly between
	// them. Must be greater than 0. Default: 256
	NumShards int

	// TTL is the longest an entry may live. Per-entry TTLs above it are
	// capped. Must be greater than 0. Default: 1h
	TTL time.Duration

	// EvictionPercentage is the share of a full shard dropped to make room
	// for a new entry. Must be between 1-100. Default: 10
	EvictionPercentage int

	// EvictionInterval is the period of the background sweep that removes
	// expired entries. Zero keeps the sturdyc default. Must not be negative.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config sized for a single library deployment.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                time.Hour,
		EvictionPercentage: 10,
	}
}

// sturdycOptions returns the options not passed positionally to sturdyc.New.
func (c Config) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError names the invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

type entry struct {
	value   []byte
	expires time.Time
}

// tagSet is replaced, never mutated, so readers can range over a loaded set.
type tagSet map[string]struct{}

// SturdycStore is an in-process byte cache on top of sturdyc with per-entry
// expiry and a tag index.
type SturdycStore struct {
	client *sturdyc.Client[entry]
	tags   *xsync.MapOf[string, tagSet]
	ttl    time.Duration
	now    func() time.Time
}

// NewSturdycStore validates cfg and creates the store.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)

	return &SturdycStore{
		client: client,
		tags:   xsync.NewMapOf[string, tagSet](),
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Get returns the live value stored under key.
func (s *SturdycStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expires) {
		s.client.Delete(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key for ttl. A non-positive ttl uses the store
// TTL.
func (s *SturdycStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > s.ttl {
		ttl = s.ttl
	}
	s.client.Set(key, entry{value: value, expires: s.now().Add(ttl)})
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *SturdycStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Tag adds keys to the set indexed by tag.
func (s *SturdycStore) Tag(_ context.Context, tag string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.tags.Compute(tag, func(old tagSet, _ bool) (tagSet, bool) {
		next := make(tagSet, len(old)+len(keys))
		for k := range old {
			next[k] = struct{}{}
		}
		for _, k := range keys {
			next[k] = struct{}{}
		}
		return next, false
	})
	return nil
}

// Tagged returns the live keys indexed by tag. Keys whose entries have
// expired or been evicted are pruned from the index.
func (s *SturdycStore) Tagged(_ context.Context, tag string) ([]string, error) {
	set, ok := s.tags.Load(tag)
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(set))
	var gone bool
	for k := range set {
		if s.live(k) {
			keys = append(keys, k)
		} else {
			gone = true
		}
	}
	if gone {
		s.prune(tag)
	}
	return keys, nil
}

func (s *SturdycStore) live(key string) bool {
	e, ok := s.client.Get(key)
	return ok && s.now().Before(e.expires)
}

// prune rechecks every key of tag under its lock, so a key tagged again
// after a fresh Set survives.
func (s *SturdycStore) prune(tag string) {
	s.tags.Compute(tag, func(old tagSet, loaded bool) (tagSet, bool) {
		if !loaded {
			return nil, true
		}
		next := make(tagSet, len(old))
		for k := range old {
			if s.live(k) {
				next[k] = struct{}{}
			}
		}
		return next, len(next) == 0
	})
}

// Untag removes keys from the set indexed by tag and drops the tag when
// it becomes empty.
func (s *SturdycStore) Untag(_ context.Context, tag string, keys ...string) error {
	s.tags.Compute(tag, func(old tagSet, loaded bool) (tagSet, bool) {
		if !loaded {
			return nil, true
		}
		next := make(tagSet, len(old))
		for k := range old {
			next[k] = struct{}{}
		}
		for _, k := range keys {
			delete(next, k)
		}
		return next, len(next) == 0
	})
	return nil
}

// Len reports the number of entries held, expired ones included.
func (s *SturdycStore) Len() int {
	return s.client.Size()
}

// Close is a no-op; sturdyc holds no external resources.
func (s *SturdycStore) Close() error {
	return nil
}
