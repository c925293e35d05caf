package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finance-tracker/ledgersync/internal/infra/db"
)

type migrateOptions struct {
	*rootOptions
	LocalOnly bool
}

func newMigrateCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &migrateOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the local and remote tables",
		Long: `Create or update the local tables and the remote tables with their
natural-key unique indexes. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.LocalOnly, "local-only", false, "only migrate the local database")

	return cmd
}

func runMigrate(opts *migrateOptions, cmd *cobra.Command) error {
	cfg := opts.loadConfig()

	s, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	if err := db.MigrateLocal(s.local); err != nil {
		return newExitError(exitFailure, "local migration failed", err)
	}
	if !opts.LocalOnly {
		if err := db.MigrateRemote(s.remote); err != nil {
			return newExitError(exitFailure, "remote migration failed", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "migrations completed")
	return nil
}
