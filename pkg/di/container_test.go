package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/goliatone/go-library-records/cache"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	config.Store.DSN = "file:" + filepath.Join(t.TempDir(), "library.db") + "?_busy_timeout=5000"
	config.Cache.Capacity = 1000
	config.Cache.NumShards = 8
	return config
}

func newTestContainer(t *testing.T, config Config) *Container {
	t.Helper()
	container, err := NewContainer(context.Background(), config)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { container.Close() })
	return container
}

func TestNewContainer(t *testing.T) {
	config := testConfig(t)
	config.Cache.TTL = 5 * time.Minute

	container := newTestContainer(t, config)

	if container.Store() == nil {
		t.Error("Container should have a non-nil store")
	}
	if container.Cache() == nil {
		t.Error("Container should have a non-nil cache layer")
	}
	if container.Manager() == nil {
		t.Error("Container should have a non-nil manager")
	}
	if container.Query() == nil {
		t.Error("Container should have a non-nil query facade")
	}
	if container.Logger() == nil {
		t.Error("Container should have a non-nil logger")
	}

	if got := container.Cache().TTL(); got != config.Cache.TTL {
		t.Errorf("Expected TTL %v, got %v", config.Cache.TTL, got)
	}
	if got := container.Config().Store.DSN; got != config.Store.DSN {
		t.Errorf("Expected DSN %q, got %q", config.Store.DSN, got)
	}

	version, err := container.Store().MigrationVersion(context.Background())
	if err != nil {
		t.Fatalf("MigrationVersion() failed: %v", err)
	}
	if version == 0 {
		t.Error("Expected migrations to be applied on open")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"empty dsn", func(c *Config) { c.Store.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t)
			tt.mutate(&config)
			if _, err := NewContainer(context.Background(), config); err == nil {
				t.Error("NewContainer() should fail with invalid config")
			}
		})
	}
}

func TestNewContainer_UnreachableRedis(t *testing.T) {
	config := testConfig(t)
	config.Cache.Backend = cache.BackendRedis
	config.Cache.Redis.Addr = "127.0.0.1:1"
	config.Cache.Redis.DialTimeout = 100 * time.Millisecond

	if _, err := NewContainer(context.Background(), config); err == nil {
		t.Error("NewContainer() should fail when redis is unreachable")
	}
}

func TestNewContainer_RedisBackend(t *testing.T) {
	srv := miniredis.RunT(t)
	config := testConfig(t)
	config.Cache.Backend = cache.BackendRedis
	config.Cache.Redis.Addr = srv.Addr()

	container := newTestContainer(t, config)
	ctx := context.Background()

	container.Cache().Set(ctx, "probe", []byte("ok"), time.Minute)
	if !srv.Exists("library::probe") {
		t.Error("Expected the cache layer to write to redis")
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newTestContainer(t, testConfig(t))

	if container.Store() != container.Store() {
		t.Error("Store() should return the same instance (singleton behavior)")
	}
	if container.Cache() != container.Cache() {
		t.Error("Cache() should return the same instance (singleton behavior)")
	}
	if container.Manager() != container.Manager() {
		t.Error("Manager() should return the same instance (singleton behavior)")
	}
	if container.Query() != container.Query() {
		t.Error("Query() should return the same instance (singleton behavior)")
	}
}

func TestContainerClose(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := container.Store().Ping(context.Background()); err == nil {
		t.Error("Expected the store to be closed")
	}
}
