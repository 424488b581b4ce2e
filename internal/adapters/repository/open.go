package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// Driver names returned by ParseURL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ParseURL splits a database url into a driver name and the DSN the driver
// expects. Postgres urls are passed through untouched; sqlite and mysql have
// their scheme stripped.
func ParseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "mysql://"):
		return DriverMySQL, strings.TrimPrefix(databaseURL, "mysql://"), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDriver)
		}
		return DriverSQLite, path, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, databaseURL)
}

func dialector(driver, dsn string) gorm.Dialector {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn)
	case DriverMySQL:
		return mysql.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// Open connects to the database named by databaseURL and returns a Store.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*GormStore, error) {
	o := options{slowThreshold: defaultSlowThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	var gl gormlogger.Interface = gormlogger.Discard
	if o.logger != nil {
		gl = newGormLogger(o.logger, o.slowThreshold)
	}

	db, err := gorm.Open(dialector(driver, dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive across calls and
		// avoids "database is locked" under concurrent writers.
		sqlDB.SetMaxOpenConns(1)
		if err := db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%w: enable foreign keys: %v", ErrOpen, err)
		}
	} else if o.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrOpen, err)
	}

	return &GormStore{db: db, driver: driver}, nil
}
