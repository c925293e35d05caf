package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/infra/db"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/ledgersync/internal/integration/lock"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

func newSyncController(t *testing.T) *controller.SyncController {
	t.Helper()

	local, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	remote, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := local.AutoMigrate(model.LocalModels()...); err != nil {
		t.Fatal(err)
	}
	if err := remote.AutoMigrate(model.RemoteModels()...); err != nil {
		t.Fatal(err)
	}

	useCase := remotesync.NewRunSyncUseCase(
		persistence.NewLocalStore(local),
		persistence.NewRemoteStore(remote),
		lock.NewMemoryLocker(),
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		remotesync.DefaultConfig(),
	)
	return controller.NewSyncController(useCase)
}

func serve(engine http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestRouter_Setup(t *testing.T) {
	up := func() bool { return true }

	t.Run("health only", func(t *testing.T) {
		engine := NewRouter(controller.NewHealthController(up, up), nil, nil).Setup("test")

		if code := serve(engine, http.MethodGet, "/health"); code != http.StatusOK {
			t.Errorf("expected 200, got %d", code)
		}
		if code := serve(engine, http.MethodPost, "/api/v1/owners/1/sync"); code != http.StatusNotFound {
			t.Errorf("expected the sync route to be absent, got %d", code)
		}
	})

	t.Run("sync trigger is rate limited per owner", func(t *testing.T) {
		limiter := middleware.NewRateLimiterWithConfig(1, time.Minute)
		engine := NewRouter(controller.NewHealthController(up, up), newSyncController(t), limiter).Setup("test")

		// Owner 1 does not exist locally, so the first trigger is a 404.
		if code := serve(engine, http.MethodPost, "/api/v1/owners/1/sync"); code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", code)
		}
		if code := serve(engine, http.MethodPost, "/api/v1/owners/1/sync"); code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", code)
		}
		if code := serve(engine, http.MethodPost, "/api/v1/owners/2/sync"); code != http.StatusNotFound {
			t.Errorf("expected another owner to pass the limiter, got %d", code)
		}
	})
}
