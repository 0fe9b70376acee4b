package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/consistency"
	"github.com/goliatone/go-library-records/query"
	"github.com/goliatone/go-library-records/store"
)

// Config groups the settings of every component the container builds.
type Config struct {
	Store store.Config
	Cache cache.Config
}

// DefaultConfig returns a SQLite store behind an in-process cache.
func DefaultConfig() Config {
	return Config{
		Store: store.DefaultConfig(),
		Cache: cache.DefaultConfig(),
	}
}

// Validate checks the store and cache configuration.
func (c Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// Option customises a Container.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	managers []consistency.Option
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithManagerOptions passes extra options to the consistency manager.
func WithManagerOptions(opts ...consistency.Option) Option {
	return func(o *options) {
		o.managers = append(o.managers, opts...)
	}
}

// Container owns the record store and cache handles and the manager and
// facade built on them. It manages singleton instances; Close releases
// both handles.
type Container struct {
	config  Config
	logger  *zap.Logger
	store   *store.Store
	cache   *cache.Layer
	manager *consistency.Manager
	query   *query.Facade
}

// NewContainer opens the store, connects the cache and wires the manager
// and facade to them.
func NewContainer(ctx context.Context, config Config, opts ...Option) (*Container, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, config.Store, store.WithLogger(o.logger.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	layer, err := cache.New(ctx, config.Cache, cache.WithLogger(o.logger.Named("cache")))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	managerOpts := append([]consistency.Option{consistency.WithLogger(o.logger.Named("consistency"))}, o.managers...)

	return &Container{
		config:  config,
		logger:  o.logger,
		store:   s,
		cache:   layer,
		manager: consistency.New(s, layer, managerOpts...),
		query:   query.New(s, layer),
	}, nil
}

// NewContainerWithDefaults creates a container using DefaultConfig.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, DefaultConfig(), opts...)
}

// Store returns the record store.
func (c *Container) Store() *store.Store { return c.store }

// Cache returns the cache layer.
func (c *Container) Cache() *cache.Layer { return c.cache }

// Manager returns the consistency manager, the only writer of
// cross-entity fields.
func (c *Container) Manager() *consistency.Manager { return c.manager }

// Query returns the read facade.
func (c *Container) Query() *query.Facade { return c.query }

// Logger returns the shared logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() Config { return c.config }

// Close releases the cache and the record store.
func (c *Container) Close() error {
	return errors.Join(c.cache.Close(), c.store.Close())
}
