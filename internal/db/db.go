// Package db opens the gorm connection, applies migrations and seeds demo
// data.
package db

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-crm/internal/config"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// Open connects to the configured database. Postgres connections are retried
// to give the server time to start.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	var (
		gdb *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		gdb, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = Ping(gdb)
		}
		if err == nil || cfg.Driver != "postgres" {
			break
		}
		logrus.WithError(err).WithField("attempt", i).Warn("database not ready, retrying")
		time.Sleep(connectDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Driver == "postgres" {
		logrus.WithField("dsn", MaskDSN(cfg.DSN())).Info("database connected")
	} else {
		logrus.WithField("path", cfg.Path).Info("database connected")
	}
	return gdb, nil
}

// Ping checks that the database answers.
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "crm.db"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on"
}

var passwordPattern = regexp.MustCompile(`(password=)(\S+)`)

// MaskDSN hides the password of a key=value DSN for logging.
func MaskDSN(dsn string) string {
	return passwordPattern.ReplaceAllString(dsn, `${1}***`)
}
