// Package config loads the librarian configuration from a YAML file, an
// optional .env file and LIBRARY_* environment variables, in that order
// of precedence from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/store"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the application configuration.
type Config struct {
	Environment string         `yaml:"environment" env:"LIBRARY_ENV"`
	Database    DatabaseConfig `yaml:"database"`
	Cache       CacheConfig    `yaml:"cache"`
	Logging     LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"LIBRARY_DB_DRIVER"`
	DSN             string        `yaml:"dsn" env:"LIBRARY_DB_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"LIBRARY_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"LIBRARY_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"LIBRARY_DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"LIBRARY_DB_AUTO_MIGRATE"`
}

type CacheConfig struct {
	Backend            string        `yaml:"backend" env:"LIBRARY_CACHE_BACKEND"`
	TTL                time.Duration `yaml:"ttl" env:"LIBRARY_CACHE_TTL"`
	Capacity           int           `yaml:"capacity" env:"LIBRARY_CACHE_CAPACITY"`
	NumShards          int           `yaml:"num_shards" env:"LIBRARY_CACHE_NUM_SHARDS"`
	EvictionPercentage int           `yaml:"eviction_percentage" env:"LIBRARY_CACHE_EVICTION_PERCENTAGE"`
	EvictionInterval   time.Duration `yaml:"eviction_interval" env:"LIBRARY_CACHE_EVICTION_INTERVAL"`
	Redis              RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" env:"LIBRARY_REDIS_ADDR"`
	Username    string        `yaml:"username" env:"LIBRARY_REDIS_USERNAME"`
	Password    string        `yaml:"password" env:"LIBRARY_REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"LIBRARY_REDIS_DB"`
	Prefix      string        `yaml:"prefix" env:"LIBRARY_REDIS_PREFIX"`
	TLS         bool          `yaml:"tls" env:"LIBRARY_REDIS_TLS"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"LIBRARY_REDIS_DIAL_TIMEOUT"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LIBRARY_LOG_LEVEL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	db := store.DefaultConfig()
	c := cache.DefaultConfig()
	return &Config{
		Environment: EnvDevelopment,
		Database: DatabaseConfig{
			Driver:          string(db.Driver),
			DSN:             db.DSN,
			MaxOpenConns:    db.MaxOpenConns,
			MaxIdleConns:    db.MaxIdleConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
			AutoMigrate:     db.AutoMigrate,
		},
		Cache: CacheConfig{
			Backend:            string(c.Backend),
			TTL:                c.TTL,
			Capacity:           c.Capacity,
			NumShards:          c.NumShards,
			EvictionPercentage: c.EvictionPercentage,
			EvictionInterval:   c.EvictionInterval,
			Redis: RedisConfig{
				Addr:        c.Redis.Addr,
				Prefix:      c.Redis.Prefix,
				DialTimeout: c.Redis.DialTimeout,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path if it exists, then envFiles (missing ones are skipped)
// and the process environment, and validates the result. An empty path
// skips the YAML file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for _, file := range envFiles {
		// variables already set in the environment win over the file
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the application fields and the store and cache
// configurations derived from them.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Environment, validation.Required, validation.In(EnvDevelopment, EnvProduction, EnvTest)),
		validation.Field(&c.Logging),
	)
	if err != nil {
		return err
	}
	if err := c.Store().Validate(); err != nil {
		return err
	}
	return c.CacheLayer().Validate()
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// Store returns the record store configuration.
func (c *Config) Store() store.Config {
	return store.Config{
		Driver:          store.Driver(c.Database.Driver),
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		AutoMigrate:     c.Database.AutoMigrate,
	}
}

// CacheLayer returns the cache configuration.
func (c *Config) CacheLayer() cache.Config {
	return cache.Config{
		Backend:            cache.Backend(c.Cache.Backend),
		TTL:                c.Cache.TTL,
		Capacity:           c.Cache.Capacity,
		NumShards:          c.Cache.NumShards,
		EvictionPercentage: c.Cache.EvictionPercentage,
		EvictionInterval:   c.Cache.EvictionInterval,
		Redis: cache.RedisConfig{
			Addr:        c.Cache.Redis.Addr,
			Username:    c.Cache.Redis.Username,
			Password:    c.Cache.Redis.Password,
			DB:          c.Cache.Redis.DB,
			Prefix:      c.Cache.Redis.Prefix,
			TLS:         c.Cache.Redis.TLS,
			DialTimeout: c.Cache.Redis.DialTimeout,
		},
	}
}
