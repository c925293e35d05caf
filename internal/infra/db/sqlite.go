package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finance-tracker/ledgersync/config"
)

// memoryPath opens a private in-memory database.
const memoryPath = ":memory:"

// NewLocalConnection opens the embedded SQLite database. SQLite allows a
// single writer, so the pool is pinned to one connection; that also keeps
// an in-memory database alive for the lifetime of the handle.
func NewLocalConnection(cfg *config.LocalDatabaseConfig) (*Database, error) {
	db, err := OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	slog.Info("Local database opened", "path", cfg.Path)

	return &Database{
		db:   db,
		name: "local",
	}, nil
}

// OpenSQLite opens a SQLite database at path with foreign keys enforced.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
