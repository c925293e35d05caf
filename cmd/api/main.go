// Package main is the entry point for the sync trigger API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finance-tracker/ledgersync/config"
	"github.com/finance-tracker/ledgersync/internal/infra/db"
	"github.com/finance-tracker/ledgersync/internal/infra/dependency"
	"github.com/finance-tracker/ledgersync/internal/integration/synclog"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	slog.Info("Starting ledger sync API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Initialize database connections
	localDB, err := db.NewLocalConnection(&cfg.LocalDatabase)
	if err != nil {
		slog.Error("Local database connection failed", "error", err)
		os.Exit(1)
	}
	defer closeDatabase(localDB)

	remoteDB, err := db.NewRemoteConnection(&cfg.RemoteDatabase)
	if err != nil {
		slog.Error("Remote database connection failed", "error", err)
		os.Exit(1)
	}
	defer closeDatabase(remoteDB)

	// Run database migrations
	if err := db.MigrateLocal(localDB); err != nil {
		slog.Error("Failed to run local migrations", "error", err)
		os.Exit(1)
	}
	if err := db.MigrateRemote(remoteDB); err != nil {
		slog.Error("Failed to run remote migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed successfully")

	// Initialize run lock and audit log
	locker, closeLocker, err := dependency.NewRunLocker(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize run lock", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	audit := synclog.New(&cfg.SyncLog)
	defer audit.Close()

	// Wire dependencies and setup router
	inj := dependency.NewInjector(cfg, localDB, remoteDB, locker, audit.Logger)
	engine := inj.Router.Setup(cfg.Server.Environment)

	// Start background jobs
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go inj.TriggerLimiter.StartCleanup(bgCtx, cfg.Sync.TriggerWindow)
	if inj.Worker != nil {
		go inj.Worker.Start(bgCtx)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server exited properly")
}

func closeDatabase(d *db.Database) {
	if err := d.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}
}
