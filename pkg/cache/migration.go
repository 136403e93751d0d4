package cache

import (
	"database/sql"
	"embed"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migrationLogger struct {
	ectologger.Logger
}

func (l migrationLogger) Verbose() bool {
	return true
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.Debugf(format, v...)
}

// migrateSQLite brings the cache schema up to the latest embedded version.
// The migrate instance is not closed since that would close db.
func migrateSQLite(db *sql.DB, logger ectologger.Logger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to open cache migrations")
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create sqlite migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}
	m.Log = migrationLogger{Logger: logger}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("No new cache migrations to apply")
			return nil
		}
		version, dirty, _ := m.Version()
		return errors.Wrapf(err, "failed to migrate sqlite cache (version %d, dirty %t)", version, dirty)
	}

	version, _, _ := m.Version()
	logger.WithField("version", version).Info("Applied cache migrations")
	return nil
}
