// Package syncworker runs sync for every local owner on a fixed interval.
package syncworker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

// Runner executes one sync run. *remotesync.RunSyncUseCase satisfies it.
type Runner interface {
	Execute(ctx context.Context, input remotesync.RunSyncInput) (*remotesync.RunSyncOutput, error)
}

// Worker visits owners one at a time; runs never overlap within a worker.
type Worker struct {
	runner       Runner
	owners       adapter.OwnerSource
	pollInterval time.Duration
}

// WorkerConfig holds configuration for the sync worker.
type WorkerConfig struct {
	PollInterval time.Duration
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 5 * time.Minute,
	}
}

// NewWorker creates a new sync worker.
func NewWorker(runner Runner, owners adapter.OwnerSource, config WorkerConfig) *Worker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWorkerConfig().PollInterval
	}
	return &Worker{
		runner:       runner,
		owners:       owners,
		pollInterval: config.PollInterval,
	}
}

// Start begins the worker loop. It blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Sync worker started", "poll_interval", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on start, then on ticker
	w.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sync worker shutting down")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// processBatch runs sync for every owner in turn.
func (w *Worker) processBatch(ctx context.Context) {
	ownerIDs, err := w.owners.ListOwnerIDs(ctx)
	if err != nil {
		slog.Error("Failed to list owners for sync", "error", err)
		return
	}

	slog.Debug("Processing sync batch", "owners", len(ownerIDs))

	for _, ownerID := range ownerIDs {
		select {
		case <-ctx.Done():
			return
		default:
			w.processOwner(ctx, ownerID)
		}
	}
}

// processOwner runs one sync and logs its outcome.
func (w *Worker) processOwner(ctx context.Context, ownerID int64) {
	logger := slog.With("owner_id", ownerID)

	output, err := w.runner.Execute(ctx, remotesync.RunSyncInput{OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, domainerror.ErrSyncInProgress) {
			logger.Debug("Sync already running for owner, skipping")
			return
		}
		logger.Error("Background sync failed", "error", err)
		return
	}

	result := output.SyncResult
	if len(result.Errors) > 0 {
		logger.Warn("Background sync finished with row errors",
			"errors", len(result.Errors),
			"transactions_pending", result.TransactionsPending,
		)
		return
	}

	logger.Info("Background sync finished",
		"accounts_synced", result.AccountsSynced,
		"categories_synced", result.CategoriesSynced,
		"transactions_synced", result.TransactionsSynced,
	)
}
