// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finance-tracker/ledgersync/config"
	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/infra/db"
	"github.com/finance-tracker/ledgersync/internal/infra/server/router"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/ledgersync/internal/integration/lock"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence"
	"github.com/finance-tracker/ledgersync/internal/integration/syncworker"
)

// Injector holds all application dependencies.
type Injector struct {
	Config         *config.Config
	LocalDB        *db.Database
	RemoteDB       *db.Database
	RunSync        *remotesync.RunSyncUseCase
	Router         *router.Router
	TriggerLimiter *middleware.RateLimiter
	// Worker is nil unless SYNC_WORKER_INTERVAL is set.
	Worker *syncworker.Worker
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(
	cfg *config.Config,
	localDB, remoteDB *db.Database,
	locker adapter.RunLocker,
	audit *slog.Logger,
) *Injector {
	// Create repositories
	localStore := persistence.NewLocalStore(localDB.DB())
	remoteStore := persistence.NewRemoteStore(remoteDB.DB())

	// Create sync use case
	runSyncUseCase := remotesync.NewRunSyncUseCase(
		localStore,
		remoteStore,
		locker,
		audit,
		remotesync.Config{
			MaxCategoryPasses: cfg.Sync.MaxCategoryPasses,
			Now:               time.Now,
		},
	)

	// Create controllers
	healthController := controller.NewHealthController(
		func() bool { return localDB.HealthCheck(context.Background()) },
		func() bool { return remoteDB.HealthCheck(context.Background()) },
	)
	syncController := controller.NewSyncController(runSyncUseCase)

	// Create middleware
	// Use higher rate limits for E2E/test environments to prevent flaky tests
	var triggerRateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		triggerRateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		triggerRateLimiter = middleware.NewRateLimiterWithConfig(cfg.Sync.TriggerLimit, cfg.Sync.TriggerWindow)
	}

	// Create router
	r := router.NewRouter(healthController, syncController, triggerRateLimiter)

	// Create background worker
	var worker *syncworker.Worker
	if cfg.Sync.WorkerInterval > 0 {
		worker = syncworker.NewWorker(
			runSyncUseCase,
			persistence.NewOwnerSource(localDB.DB()),
			syncworker.WorkerConfig{PollInterval: cfg.Sync.WorkerInterval},
		)
	}

	return &Injector{
		Config:         cfg,
		LocalDB:        localDB,
		RemoteDB:       remoteDB,
		RunSync:        runSyncUseCase,
		Router:         r,
		TriggerLimiter: triggerRateLimiter,
		Worker:         worker,
	}
}

// NewRunLocker returns the Redis run lock when Redis is configured and the
// in-process lock otherwise. The returned func closes the Redis client.
func NewRunLocker(ctx context.Context, cfg *config.Config) (adapter.RunLocker, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Info("Redis not configured, using in-process run lock")
		return lock.NewMemoryLocker(), func() {}, nil
	}

	client, err := lock.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("Using Redis run lock", "ttl", cfg.Sync.LockTTL)

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}
	return lock.NewRedisLocker(client, cfg.Sync.LockTTL), closeFn, nil
}
