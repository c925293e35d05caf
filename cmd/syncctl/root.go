package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finance-tracker/ledgersync/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	loadConfig func() *config.Config
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	return newRootCommandWithConfig(config.Load)
}

// newRootCommandWithConfig builds the command tree with a custom config source.
func newRootCommandWithConfig(loadConfig func() *config.Config) *cobra.Command {
	opts := &rootOptions{loadConfig: loadConfig}

	cmd := &cobra.Command{
		Use:   "syncctl",
		Short: "Push local finance data to the remote store",
		Long: `syncctl reconciles the local embedded database with the remote system of record.

Rows are pushed in dependency order (user, accounts, categories, transactions)
and matched by natural key, so running it repeatedly never duplicates data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return newExitError(exitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}

			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newExitError(exitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
