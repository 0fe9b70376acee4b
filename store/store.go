package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/model"
)

// Store is the record store handle. It is safe for concurrent use.
type Store struct {
	db     *bun.DB
	driver Driver
	now    func() time.Time
	logger *zap.Logger

	clockMu sync.Mutex
	last    time.Time

	books    repository.Repository[*model.Book]
	students repository.Repository[*model.Student]
	teachers repository.Repository[*model.Teacher]
	borrows  repository.Repository[*model.Borrow]
	accounts repository.Repository[*model.Account]
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger that receives migration output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to the configured database, verifies the connection and
// applies migrations when cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, dialect, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, dialect)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	s := New(db, cfg.Driver, opts...)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func openSQL(cfg Config) (*sql.DB, schema.Dialect, error) {
	var (
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)

	switch cfg.Driver {
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", cfg.DSN)
		dialect = pgdialect.New()
	default:
		sqldb, err = sql.Open("sqlite3", cfg.DSN)
		dialect = sqlitedialect.New()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == DriverSQLite {
		// one writer at a time; the busy timeout covers the rest
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqldb.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return sqldb, dialect, nil
}

// New wraps an open bun database. The schema must already be migrated or
// Migrate must be called before use.
func New(db *bun.DB, driver Driver, opts ...Option) *Store {
	s := &Store{
		db:       db,
		driver:   driver,
		now:      time.Now,
		logger:   zap.NewNop(),
		books:    newBookRepository(db),
		students: newStudentRepository(db),
		teachers: newTeacherRepository(db),
		borrows:  newBorrowRepository(db),
		accounts: newAccountRepository(db),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying bun database.
func (s *Store) DB() *bun.DB { return s.db }

// Driver reports the SQL backend in use.
func (s *Store) Driver() Driver { return s.driver }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the database connection pool.
func (s *Store) Close() error { return s.db.Close() }

// timestamp returns a UTC time at microsecond precision that is strictly
// later than any previous value from this store. Roster and history order
// rely on it.
func (s *Store) timestamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}
