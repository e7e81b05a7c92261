package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"example.com/timetracking/internal/persistence/dialect"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// MigrateUp applies all pending schema migrations for the store's dialect.
// A database already at the latest version is not an error.
func (s *Store) MigrateUp() error {
	src, err := iofs.New(migrationFiles, "migrations/"+s.d.Name())
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	driver, err := migrationDriver(s.db, s.d)
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.d.Name(), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	s.log.Debug().Msg("schema migrations applied")
	return nil
}

func migrationDriver(db *sql.DB, d dialect.Dialect) (database.Driver, error) {
	switch d.Name() {
	case dialect.PostgreSQL:
		return migratepostgres.WithInstance(db, &migratepostgres.Config{})
	case dialect.MySQL:
		return migratemysql.WithInstance(db, &migratemysql.Config{})
	case dialect.SQLite:
		return migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("cannot build activity query due to unsupported database type: %s", d.Name())
	}
}
