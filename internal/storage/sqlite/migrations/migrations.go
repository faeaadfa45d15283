// Package migrations applies the embedded SQLite schema migrations on
// repository startup. The schema only moves forward: the run history must
// survive upgrades, so there is no programmatic rollback path.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/usbforge/usbforge/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Apply brings the run-history schema up to the latest embedded version.
// An already up-to-date database is not an error.
func Apply(db *sql.DB, logger log.Logger) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return fmt.Errorf("could not load embedded migrations: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Errorf("could not close migration source: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	logger.Debugf("Migrations applied successfully")
	return nil
}
