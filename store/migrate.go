package store

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps dialect, filesystem and logger in package globals
var gooseMu sync.Mutex

func (d Driver) gooseDialect() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// setupGoose points goose at the embedded migrations and the store's
// logger. Callers hold gooseMu.
func (s *Store) setupGoose() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(zap.NewStdLog(s.logger.Named("migrate")))
	if err := goose.SetDialect(s.driver.gooseDialect()); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := s.setupGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func (s *Store) MigrationVersion(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := s.setupGoose(); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, s.db.DB)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}
