// Package db provides database connection and management functionality.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finance-tracker/ledgersync/config"
)

const driverSQLite = "sqlite"

// Database wraps a GORM database connection.
type Database struct {
	db   *gorm.DB
	name string
}

// NewRemoteConnection creates a connection to the remote PostgreSQL system of record.
// cfg.Driver selects pgx (default) or lib/pq ("postgres"). The "sqlite" driver
// treats cfg.URL as a file path and is meant for development and tests.
func NewRemoteConnection(cfg *config.RemoteDatabaseConfig) (*Database, error) {
	if cfg.Driver == driverSQLite {
		db, err := OpenSQLite(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open remote sqlite database: %w", err)
		}
		slog.Warn("Remote store is backed by sqlite", "path", cfg.URL)
		return &Database{db: db, name: "remote"}, nil
	}

	dialector, err := remoteDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	slog.Info("Remote database configured",
		"driver", cfg.Driver,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)

	return &Database{
		db:   db,
		name: "remote",
	}, nil
}

func remoteDialector(cfg *config.RemoteDatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "pgx":
		return postgres.Open(cfg.URL), nil
	case "postgres":
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.URL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported remote database driver %q", cfg.Driver)
	}
}

// DB returns the underlying GORM database instance.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// HealthCheck performs a health check on the database connection.
func (d *Database) HealthCheck(ctx context.Context) bool {
	sqlDB, err := d.db.DB()
	if err != nil {
		slog.Error("Failed to get sql.DB for health check", "database", d.name, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		slog.Error("Database health check failed", "database", d.name, "error", err)
		return false
	}

	return true
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for closing: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close %s database connection: %w", d.name, err)
	}

	slog.Info("Database connection closed", "database", d.name)
	return nil
}

// AutoMigrate runs GORM auto-migration for the given models.
func (d *Database) AutoMigrate(models ...interface{}) error {
	if err := d.db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run %s auto-migration: %w", d.name, err)
	}
	return nil
}
