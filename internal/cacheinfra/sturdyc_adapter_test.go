package cacheinfra

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.TTL != time.Hour {
		t.Errorf("expected TTL to be 1 hour, got %v", cfg.TTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid default config", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestEvictionIntervalBecomesOption(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.sturdycOptions()); got != 0 {
		t.Errorf("default config: %d options, want none", got)
	}

	cfg.EvictionInterval = time.Minute
	if got := len(cfg.sturdycOptions()); got != 1 {
		t.Errorf("with interval: %d options, want 1", got)
	}
}

func TestConfigErrorNamesField(t *testing.T) {
	err := &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	if want := "config error in field TTL: must be greater than 0"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func newTestSturdycStore(t *testing.T) *SturdycStore {
	t.Helper()
	s, err := NewSturdycStore(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSturdycStore: %v", err)
	}
	return s
}

func TestNewSturdycStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = -1

	s, err := NewSturdycStore(cfg)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if s != nil {
		t.Error("expected nil store on error")
	}
}

func TestSturdycStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSturdycStore(t)

	if _, ok, err := s.Get(ctx, "book::1"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "book::1", []byte(`{"title":"dune"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, "book::1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"title":"dune"}` {
		t.Errorf("unexpected value %q", got)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestSturdycStore_PerEntryExpiry(t *testing.T) {
	ctx := context.Background()
	s := newTestSturdycStore(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set(ctx, "short", []byte("a"), time.Second)
	s.Set(ctx, "long", []byte("b"), time.Minute)

	now = now.Add(2 * time.Second)

	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("expected short lived entry to expire")
	}
	if _, ok, _ := s.Get(ctx, "long"); !ok {
		t.Error("expected long lived entry to survive")
	}

	// ttl above the store TTL is capped
	s.Set(ctx, "capped", []byte("c"), 48*time.Hour)
	now = now.Add(time.Hour)
	if _, ok, _ := s.Get(ctx, "capped"); ok {
		t.Error("expected entry to be capped at the store TTL")
	}
}

func TestSturdycStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestSturdycStore(t)

	s.Set(ctx, "a", []byte("1"), 0)
	s.Set(ctx, "b", []byte("2"), 0)
	s.Set(ctx, "c", []byte("3"), 0)

	if err := s.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, key := range []string{"a", "b"} {
		if _, ok, _ := s.Get(ctx, key); ok {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if _, ok, _ := s.Get(ctx, "c"); !ok {
		t.Error("expected c to remain")
	}

	if err := s.Delete(ctx); err != nil {
		t.Errorf("empty delete returned %v", err)
	}
}

func TestSturdycStore_Tags(t *testing.T) {
	ctx := context.Background()
	s := newTestSturdycStore(t)

	for _, key := range []string{"books", "books::status::available", "book::1"} {
		s.Set(ctx, key, []byte("v"), 0)
	}
	s.Tag(ctx, "books", "books", "books::status::available")
	s.Tag(ctx, "books", "books")
	s.Tag(ctx, "book::1", "book::1")

	keys, err := s.Tagged(ctx, "books")
	if err != nil {
		t.Fatalf("Tagged: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "books" || keys[1] != "books::status::available" {
		t.Errorf("unexpected tagged keys %v", keys)
	}

	s.Untag(ctx, "books", "books")
	keys, _ = s.Tagged(ctx, "books")
	if len(keys) != 1 || keys[0] != "books::status::available" {
		t.Errorf("unexpected keys after untag %v", keys)
	}

	s.Untag(ctx, "books", "books::status::available")
	if _, ok := s.tags.Load("books"); ok {
		t.Error("expected empty tag to be dropped")
	}

	if keys, _ := s.Tagged(ctx, "unknown"); len(keys) != 0 {
		t.Errorf("expected no keys for unknown tag, got %v", keys)
	}
	if err := s.Untag(ctx, "unknown", "x"); err != nil {
		t.Errorf("untag of unknown tag returned %v", err)
	}
}

func TestSturdycStore_TaggedPrunesGoneKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestSturdycStore(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set(ctx, "book::1", []byte("a"), time.Second)
	s.Set(ctx, "book::2", []byte("b"), time.Minute)
	s.Set(ctx, "book::3", []byte("c"), time.Minute)
	s.Tag(ctx, "books", "book::1", "book::2", "book::3")

	now = now.Add(2 * time.Second)
	s.client.Delete("book::3")

	keys, err := s.Tagged(ctx, "books")
	if err != nil {
		t.Fatalf("Tagged: %v", err)
	}
	if len(keys) != 1 || keys[0] != "book::2" {
		t.Fatalf("expected only the live key, got %v", keys)
	}

	set, _ := s.tags.Load("books")
	if len(set) != 1 {
		t.Errorf("expected index pruned to one key, got %v", set)
	}

	now = now.Add(time.Hour)
	if keys, _ := s.Tagged(ctx, "books"); len(keys) != 0 {
		t.Errorf("expected no live keys, got %v", keys)
	}
	if _, ok := s.tags.Load("books"); ok {
		t.Error("expected fully pruned tag to be dropped")
	}
}
