package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/infra/dependency"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/ledgersync/internal/integration/synclog"
)

type runOptions struct {
	*rootOptions
	OwnerID int64
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync for an owner",
		Long: `Run one sync for an owner and print the result.

Row-level problems are listed in the result and do not fail the command.
A fatal failure (remote unreachable, unknown owner, run already in progress)
or a store that cannot be opened exits with status 1. Usage errors exit
with status 2.

Example:
  syncctl run --owner 1
  syncctl run --owner 1 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.OwnerID, "owner", 0, "local owner id (required)")

	return cmd
}

func runSync(opts *runOptions, cmd *cobra.Command) error {
	if !cmd.Flags().Changed("owner") {
		return newExitError(exitCommandError, `required flag "owner" not set`, nil)
	}
	if opts.OwnerID <= 0 {
		return newExitError(exitCommandError, fmt.Sprintf("invalid owner id %d", opts.OwnerID), nil)
	}

	cfg := opts.loadConfig()
	ctx := cmd.Context()

	s, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer s.close()

	locker, closeLocker, err := dependency.NewRunLocker(ctx, cfg)
	if err != nil {
		return newExitError(exitFailure, "failed to initialize run lock", err)
	}
	defer closeLocker()

	audit := synclog.New(&cfg.SyncLog)
	defer audit.Close()

	inj := dependency.NewInjector(cfg, s.local, s.remote, locker, audit.Logger)

	output, runErr := inj.RunSync.Execute(ctx, remotesync.RunSyncInput{OwnerID: opts.OwnerID})
	if output != nil {
		if err := printResult(cmd.OutOrStdout(), opts.Format, dto.ToSyncResultResponse(output)); err != nil {
			return newExitError(exitFailure, "failed to write result", err)
		}
	}
	if runErr != nil {
		return newExitError(exitFailure, "sync failed", runErr)
	}
	return nil
}

func printResult(w io.Writer, format string, result dto.SyncResultResponse) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	status := "ok"
	if !result.Success {
		status = "failed"
	}
	fmt.Fprintf(w, "owner %d: %s (%s) in %dms\n", result.OwnerID, status, result.State, result.DurationMs)
	fmt.Fprintf(w, "  accounts:     %d synced, %d repaired\n", result.AccountsSynced, result.AccountsRepaired)
	fmt.Fprintf(w, "  categories:   %d synced, %d skipped, %d repaired\n", result.CategoriesSynced, result.CategoriesSkipped, result.CategoriesRepaired)
	fmt.Fprintf(w, "  transactions: %d synced, %d pending\n", result.TransactionsSynced, result.TransactionsPending)
	for _, r := range result.Repairs {
		fmt.Fprintf(w, "  repaired %s '%s': %d -> %d\n", r.Kind, r.Label, r.BeforeRemoteID, r.AfterRemoteID)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	_, err := fmt.Fprintln(w)
	return err
}
