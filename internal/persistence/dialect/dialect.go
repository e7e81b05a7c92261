// Package dialect encapsulates the SQL syntax differences between the
// supported database backends. A Dialect is selected once at startup from
// configuration and injected into the persistence layer; queries are never
// re-branched per call.
package dialect

import (
	"fmt"
	"strings"
)

// Supported backend names, matching the TT_DB_TYPE configuration value.
const (
	PostgreSQL = "postgres"
	MySQL      = "mysql"
	SQLite     = "sqlite"
)

// Dialect produces backend-specific SQL fragments for parameter binding and
// time bucketing.
type Dialect interface {
	// Name returns the configured backend name.
	Name() string
	// DriverName returns the database/sql driver to open connections with.
	DriverName() string
	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string
	// ConcatDateTime returns an expression combining a date column and a
	// time column into one comparable timestamp.
	ConcatDateTime(dateCol, timeCol string) string
	// HourBucket returns an expression truncating a time column to its hour.
	HourBucket(timeCol string) string
	// UpsertClause returns the INSERT suffix that turns a primary-key
	// collision into an update of the listed columns.
	UpsertClause(keyCol string, updateCols []string) string
}

// New selects the dialect for the configured database type. An unsupported
// backend is a configuration error, never a silent fallback.
func New(name string) (Dialect, error) {
	switch name {
	case PostgreSQL:
		return postgresDialect{}, nil
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("cannot build activity query due to unsupported database type: %s", name)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return PostgreSQL }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) ConcatDateTime(dateCol, timeCol string) string {
	return fmt.Sprintf("concat(%s, ' ', %s)::timestamp", dateCol, timeCol)
}

func (postgresDialect) HourBucket(timeCol string) string {
	return fmt.Sprintf("(to_char(%s::time, 'HH24') || ':00')", timeCol)
}

func (postgresDialect) UpsertClause(keyCol string, updateCols []string) string {
	return onConflictClause(keyCol, updateCols)
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) ConcatDateTime(dateCol, timeCol string) string {
	return fmt.Sprintf("concat(%s, ' ', %s)", dateCol, timeCol)
}

func (mysqlDialect) HourBucket(timeCol string) string {
	return fmt.Sprintf("CONCAT(DATE_FORMAT(%s, '%%H'), ':00')", timeCol)
}

func (mysqlDialect) UpsertClause(_ string, updateCols []string) string {
	assignments := make([]string, len(updateCols))
	for i, col := range updateCols {
		assignments[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
	}
	return " ON DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) ConcatDateTime(dateCol, timeCol string) string {
	return fmt.Sprintf("datetime(%s || ' ' || %s)", dateCol, timeCol)
}

func (sqliteDialect) HourBucket(timeCol string) string {
	return fmt.Sprintf("time(%s)", timeCol)
}

func (sqliteDialect) UpsertClause(keyCol string, updateCols []string) string {
	return onConflictClause(keyCol, updateCols)
}

// onConflictClause renders the ON CONFLICT form shared by PostgreSQL and
// SQLite.
func onConflictClause(keyCol string, updateCols []string) string {
	assignments := make([]string, len(updateCols))
	for i, col := range updateCols {
		assignments[i] = fmt.Sprintf("%s = excluded.%s", col, col)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", keyCol, strings.Join(assignments, ", "))
}
