package main

import (
	"log/slog"

	"github.com/finance-tracker/ledgersync/config"
	"github.com/finance-tracker/ledgersync/internal/infra/db"
)

// stores holds both database connections for the duration of a command.
type stores struct {
	local  *db.Database
	remote *db.Database
}

func openStores(cfg *config.Config) (*stores, error) {
	local, err := db.NewLocalConnection(&cfg.LocalDatabase)
	if err != nil {
		return nil, newExitError(exitFailure, "failed to open local database", err)
	}

	remote, err := db.NewRemoteConnection(&cfg.RemoteDatabase)
	if err != nil {
		local.Close()
		return nil, newExitError(exitFailure, "failed to open remote database", err)
	}

	return &stores{local: local, remote: remote}, nil
}

func (s *stores) close() {
	for _, d := range []*db.Database{s.local, s.remote} {
		if err := d.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}
}
