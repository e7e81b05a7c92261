// Package sqlstore implements the relational persistence layer behind the
// domain repositories, generating dialect-correct SQL for PostgreSQL, MySQL
// and SQLite through a single query builder.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"example.com/timetracking/internal/persistence/dialect"
)

// timeLayout is the canonical text representation for timestamps stored in
// date/time columns. Lexicographic order equals chronological order, which
// keeps range filters portable across all three backends.
const timeLayout = "2006-01-02 15:04:05"

// Store bundles the database handle with the dialect selected at startup.
type Store struct {
	db  *sql.DB
	d   dialect.Dialect
	log zerolog.Logger
}

// Open connects to the configured backend. An unsupported database type
// fails here, before any query is built.
func Open(dbType, dsn string, log zerolog.Logger) (*Store, error) {
	d, err := dialect.New(dbType)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.Name(), err)
	}
	return NewWithDB(db, d, log), nil
}

// NewWithDB wraps an existing handle; used by tests and by Open.
func NewWithDB(db *sql.DB, d dialect.Dialect, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		d:   d,
		log: log.With().Str("component", "sqlstore").Str("dialect", d.Name()).Logger(),
	}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() dialect.Dialect { return s.d }

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) (time.Time, error) { return time.Parse(timeLayout, v) }
