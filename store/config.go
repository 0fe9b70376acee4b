package store

import (
	"fmt"
	"time"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config describes how to open the record store.
type Config struct {
	// Driver selects the SQL backend. Default: sqlite
	Driver Driver

	// DSN is passed to the driver as is. For SQLite it is a file URI whose
	// query carries pragmas such as _busy_timeout. Must not be empty.
	DSN string

	// MaxOpenConns caps open connections. SQLite always uses one
	// connection so writes are serialized. Zero means no limit.
	MaxOpenConns int

	// MaxIdleConns caps idle pooled connections. Zero keeps the
	// database/sql default.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this. Zero keeps
	// them forever.
	ConnMaxLifetime time.Duration

	// AutoMigrate applies pending migrations on Open. Default: true
	AutoMigrate bool
}

// DefaultConfig returns a file backed SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             "file:library.db?_busy_timeout=5000&_journal_mode=WAL",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}
}

// ConfigError reports an invalid store configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "store config error in field " + e.Field + ": " + e.Message
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return &ConfigError{Field: "Driver", Message: fmt.Sprintf("unsupported driver %q", c.Driver)}
	}
	if c.DSN == "" {
		return &ConfigError{Field: "DSN", Message: "must not be empty"}
	}
	if c.MaxOpenConns < 0 {
		return &ConfigError{Field: "MaxOpenConns", Message: "must be non-negative"}
	}
	if c.MaxIdleConns < 0 {
		return &ConfigError{Field: "MaxIdleConns", Message: "must be non-negative"}
	}
	if c.ConnMaxLifetime < 0 {
		return &ConfigError{Field: "ConnMaxLifetime", Message: "must be non-negative"}
	}
	return nil
}
