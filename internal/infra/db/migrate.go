package db

import (
	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

// MigrateLocal creates or updates the local tables.
func MigrateLocal(d *Database) error {
	return d.AutoMigrate(model.LocalModels()...)
}

// MigrateRemote creates or updates the remote tables and their natural-key
// unique indexes.
func MigrateRemote(d *Database) error {
	return d.AutoMigrate(model.RemoteModels()...)
}

// NewDatabase wraps an already opened GORM handle.
func NewDatabase(db *gorm.DB, name string) *Database {
	return &Database{
		db:   db,
		name: name,
	}
}
