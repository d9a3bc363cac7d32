package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationStatus describes where the schema marker stands relative to the
// embedded migrations.
type MigrationStatus struct {
	Version uint // 0 when no migration has been applied
	Dirty   bool
	Latest  uint
}

func (m MigrationStatus) Pending() bool { return m.Version < m.Latest }

// ApplyMigrations applies pending embedded migrations and then imports any
// pre-migration account tables.
//
// The schema_migrations marker decides which steps run. A dirty marker from
// an interrupted run is reset to the previous version first; sqlite runs
// each migration in a transaction, so the failed step left nothing behind.
func (m *Store) ApplyMigrations() error {
	instance, src, err := m.newMigrate()
	if err != nil {
		return err
	}

	if err := m.recoverDirty(instance, src); err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return m.importLegacy(context.Background())
}

// MigrationStatus reports the current and latest schema versions.
func (m *Store) MigrationStatus() (MigrationStatus, error) {
	instance, src, err := m.newMigrate()
	if err != nil {
		return MigrationStatus{}, err
	}

	var status MigrationStatus
	version, dirty, err := instance.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return MigrationStatus{}, err
	default:
		status.Version, status.Dirty = version, dirty
	}

	if status.Latest, err = latestVersion(src); err != nil {
		return MigrationStatus{}, err
	}
	return status, nil
}

// newMigrate wires golang-migrate to the store's handle. The returned
// instance must not be closed: that would close the shared *sql.DB.
func (m *Store) newMigrate() (*migrate.Migrate, source.Driver, error) {
	driver, err := sqlite.WithInstance(m.db.DB, &sqlite.Config{})
	if err != nil {
		return nil, nil, err
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, nil, err
	}

	instance, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, nil, err
	}
	return instance, src, nil
}

func (m *Store) recoverDirty(instance *migrate.Migrate, src source.Driver) error {
	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) || (err == nil && !dirty) {
		return nil
	}
	if err != nil {
		return err
	}

	target := migratedb.NilVersion
	prev, err := src.Prev(version)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("find version before dirty %d: %w", version, err)
	default:
		target = int(prev) // #nosec G115 - migration versions are small
	}

	m.logger.Warn("recovering dirty schema version",
		"dirty_version", version,
		"forced_version", target,
	)
	return instance.Force(target)
}

func latestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}
