package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/goliatone/go-library-records/internal/cacheinfra"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "memory default", mutate: func(*Config) {}},
		{name: "none ignores sizes", mutate: func(c *Config) { c.Backend = BackendNone; c.Capacity = 0 }},
		{name: "redis", mutate: func(c *Config) { c.Backend = BackendRedis }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "memcached" }, wantField: "Backend"},
		{name: "memory zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "redis without addr", mutate: func(c *Config) { c.Backend = BackendRedis; c.Redis.Addr = "" }, wantField: "Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var cfgErr *cacheinfra.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.wantField {
				t.Fatalf("expected ConfigError on %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestNewStore_Backends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		backend Backend
		check   func(Store) bool
	}{
		{name: "memory", backend: BackendMemory, check: func(s Store) bool { _, ok := s.(*cacheinfra.SturdycStore); return ok }},
		{name: "redis", backend: BackendRedis, check: func(s Store) bool { _, ok := s.(*cacheinfra.RedisStore); return ok }},
		{name: "none", backend: BackendNone, check: func(s Store) bool { _, ok := s.(NopStore); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = tt.backend
			cfg.Redis.Addr = mr.Addr()

			store, err := NewStore(ctx, cfg)
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			defer store.Close()

			if !tt.check(store) {
				t.Errorf("unexpected store type %T", store)
			}
		})
	}
}

func TestNewStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "memcached"
	if _, err := NewStore(context.Background(), cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestLayer_RedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.Redis.Addr = mr.Addr()

	layer, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer layer.Close()

	layer.Set(ctx, "students", []byte("[]"), layer.TTL(), "tag::students")
	if got, ok := layer.Get(ctx, "students"); !ok || string(got) != "[]" {
		t.Fatalf("expected hit, got %q ok=%v", got, ok)
	}

	layer.InvalidateTags(ctx, "tag::students")
	if _, ok := layer.Get(ctx, "students"); ok {
		t.Error("expected miss after tag invalidation")
	}

	mr.Close()
	if _, ok := layer.Get(ctx, "students"); ok {
		t.Error("expected unreachable backend to read as a miss")
	}
}
