package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/config"
	"github.com/diewo77/go-crm/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var errMissingTable = errors.New("missing table after migration")

var coreTables = []string{"users", "clients", "quotes", "quote_items", "business_cards"}

// Migrate brings the schema up to date. Versioned SQL files are used when
// useSQL is set and the driver is postgres; AutoMigrate otherwise.
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, useSQL bool) error {
	if useSQL && cfg.Driver == "postgres" {
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := gdb.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range coreTables {
		if !gdb.Migrator().HasTable(table) {
			return fmt.Errorf("%w: %s", errMissingTable, table)
		}
	}
	return nil
}

func runSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := m.Version()
	logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("sql migrations applied")
	return nil
}
