package remotesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// DefaultMaxCategoryPasses bounds the category pass loop when no limit is configured.
const DefaultMaxCategoryPasses = 5

// Config configures a RunSyncUseCase.
type Config struct {
	// MaxCategoryPasses bounds parent-before-child passes; deeper trees need more.
	MaxCategoryPasses int
	// Now stamps last_synced_at. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxCategoryPasses: DefaultMaxCategoryPasses,
		Now:               time.Now,
	}
}

// RunSyncInput represents the input for a sync run.
type RunSyncInput struct {
	OwnerID int64
}

// RunSyncOutput represents the aggregate result of a sync run.
type RunSyncOutput struct {
	valueobject.SyncResult
}

// RunSyncUseCase pushes one owner's unsynced local rows to the remote store
// in dependency order: user, accounts, categories, transactions.
type RunSyncUseCase struct {
	local    adapter.LocalStore
	remote   adapter.RemoteStore
	locker   adapter.RunLocker
	resolver *IdentityResolver
	repairer *MappingRepairer
	audit    *slog.Logger
	config   Config
}

// NewRunSyncUseCase creates a new RunSyncUseCase instance.
func NewRunSyncUseCase(
	local adapter.LocalStore,
	remote adapter.RemoteStore,
	locker adapter.RunLocker,
	audit *slog.Logger,
	config Config,
) *RunSyncUseCase {
	if config.MaxCategoryPasses <= 0 {
		config.MaxCategoryPasses = DefaultMaxCategoryPasses
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	resolver := NewIdentityResolver(remote, audit)

	return &RunSyncUseCase{
		local:    local,
		remote:   remote,
		locker:   locker,
		resolver: resolver,
		repairer: NewMappingRepairer(local, remote, resolver, audit),
		audit:    audit,
		config:   config,
	}
}

// run carries the mutable state of a single Execute call.
type run struct {
	ownerID      int64
	userRemoteID int64
	machine      *runMachine
	result       valueobject.SyncResult
	audit        *slog.Logger

	// Local ids whose remote mapping the repair pass could not restore.
	unresolvedAccounts   map[int64]bool
	unresolvedCategories map[int64]bool
}

// rowError records a row-scoped failure and keeps the phase going.
func (r *run) rowError(kind valueobject.EntityKind, label string, err error) {
	r.result.Errors = append(r.result.Errors, fmt.Sprintf("%s '%s': %v", kind, label, err))

	failure := classifyError(err)
	r.audit.Warn("row sync failed",
		"kind", kind,
		"label", label,
		"error", err,
		"code", rowErrorCode(err, failure),
		"failure_code", failure.Code,
		"retryable", failure.Retryable,
	)
}

func (r *run) addRepairs(report *RepairReport) {
	r.result.Repairs = append(r.result.Repairs, report.Repairs...)
	r.result.Errors = append(r.result.Errors, report.Errors...)
}

// Execute performs one sync run for the owner. It is idempotent and safe to
// call repeatedly, including after partial failure. Row-scoped failures are
// reported in the output's Errors while Success stays true; a fatal failure
// returns the output with Success=false together with the error.
func (uc *RunSyncUseCase) Execute(ctx context.Context, input RunSyncInput) (*RunSyncOutput, error) {
	r := &run{
		ownerID: input.OwnerID,
		machine: newRunMachine(),
		audit:   uc.audit.With("owner_id", input.OwnerID, "run_id", uuid.NewString()),
	}
	r.result.OwnerID = input.OwnerID
	r.result.StartedAt = uc.config.Now().UTC()

	release, err := uc.locker.Acquire(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, domainerror.ErrSyncInProgress) {
			return uc.fail(r, domainerror.NewSyncError(domainerror.ErrCodeSyncInProgress, "failed to acquire sync lock", err))
		}
		return uc.fail(r, domainerror.NewSyncError(domainerror.ErrCodeLockUnavailable, "run lock backend unavailable", err))
	}
	defer release()

	r.audit.Info("sync run started")

	if err := uc.remote.Ping(ctx); err != nil {
		return uc.fail(r, domainerror.NewSyncError(
			domainerror.ErrCodeRemoteUnavailable,
			"remote store unreachable",
			fmt.Errorf("%w: %v", domainerror.ErrRemoteUnavailable, err),
		))
	}

	if err := uc.ensureRemoteUser(ctx, r); err != nil {
		return uc.fail(r, err)
	}
	if err := uc.advance(r, valueobject.RunStateUserLinked); err != nil {
		return uc.fail(r, err)
	}

	if err := uc.syncAccounts(ctx, r); err != nil {
		return uc.fail(r, err)
	}
	report, err := uc.repairer.RepairAccounts(ctx, r.ownerID, r.userRemoteID)
	if err != nil {
		return uc.fail(r, err)
	}
	r.result.AccountsRepaired = len(report.Repairs)
	r.unresolvedAccounts = report.Unresolved
	r.addRepairs(report)
	if err := uc.advance(r, valueobject.RunStateAccountsDone); err != nil {
		return uc.fail(r, err)
	}

	if err := uc.syncCategories(ctx, r); err != nil {
		return uc.fail(r, err)
	}
	report, err = uc.repairer.RepairCategories(ctx, r.ownerID, r.userRemoteID)
	if err != nil {
		return uc.fail(r, err)
	}
	r.result.CategoriesRepaired = len(report.Repairs)
	r.unresolvedCategories = report.Unresolved
	r.addRepairs(report)
	if err := uc.advance(r, valueobject.RunStateCategoriesDone); err != nil {
		return uc.fail(r, err)
	}

	if err := uc.syncTransactions(ctx, r); err != nil {
		return uc.fail(r, err)
	}
	if err := uc.advance(r, valueobject.RunStateTransactionsDone); err != nil {
		return uc.fail(r, err)
	}

	if err := uc.advance(r, valueobject.RunStateComplete); err != nil {
		return uc.fail(r, err)
	}

	r.result.Success = true
	r.result.FinishedAt = uc.config.Now().UTC()

	r.audit.Info("sync run completed",
		"accounts_synced", r.result.AccountsSynced,
		"categories_synced", r.result.CategoriesSynced,
		"categories_skipped", r.result.CategoriesSkipped,
		"transactions_synced", r.result.TransactionsSynced,
		"transactions_pending", r.result.TransactionsPending,
		"repairs", len(r.result.Repairs),
		"errors", len(r.result.Errors),
	)

	return &RunSyncOutput{SyncResult: r.result}, nil
}

// advance moves the state machine and logs the phase boundary.
func (uc *RunSyncUseCase) advance(r *run, to valueobject.RunState) error {
	if err := r.machine.advance(to); err != nil {
		return err
	}
	r.result.State = to
	r.audit.Info("sync phase finished", "state", to, "errors_so_far", len(r.result.Errors))
	return nil
}

// fail aborts the run. Rows committed by earlier phases stay committed.
// Errors without a fatal code are wrapped so callers always see one.
func (uc *RunSyncUseCase) fail(r *run, err error) (*RunSyncOutput, error) {
	var syncErr *domainerror.SyncError
	if !errors.As(err, &syncErr) || !syncErr.IsFatal() {
		err = domainerror.NewSyncError(domainerror.ErrCodeRunAborted, "sync run aborted", err)
	}

	failedIn := r.machine.current()
	r.machine.fail()
	r.result.State = r.machine.current()
	r.result.Success = false
	r.result.Errors = append(r.result.Errors, err.Error())
	r.result.FinishedAt = uc.config.Now().UTC()

	r.audit.Error("sync run failed", "failed_in", failedIn, "error", err)

	return &RunSyncOutput{SyncResult: r.result}, err
}

// ensureRemoteUser links the local owner to a remote user. A cached remote
// id is trusted only after an existence check; a stale one is re-resolved.
func (uc *RunSyncUseCase) ensureRemoteUser(ctx context.Context, r *run) error {
	user, err := uc.local.GetUser(ctx, r.ownerID)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return domainerror.NewSyncError(domainerror.ErrCodeUserNotFound, fmt.Sprintf("local user %d not found", r.ownerID), err)
		}
		return domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to load local user", err)
	}

	cached, err := uc.local.GetUserRemoteID(ctx, r.ownerID)
	if err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to read cached remote user id", err)
	}

	if cached != nil {
		exists, err := uc.remote.ExistsByID(ctx, valueobject.EntityKindUser, *cached)
		if err != nil {
			return domainerror.NewSyncError(domainerror.ErrCodeUserLinkFailed, "failed to verify remote user", err)
		}
		if exists {
			r.userRemoteID = *cached
			r.result.UserRemoteID = cached
			return nil
		}
		r.audit.Warn("cached remote user id is dangling", "remote_id", *cached)
	}

	res, err := uc.resolver.ResolveOrCreate(ctx, entity.NewRemoteUser(user))
	if err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeUserLinkFailed, "failed to link remote user", err)
	}

	if err := uc.local.SetUserRemoteID(ctx, r.ownerID, res.RemoteID); err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeUserLinkFailed, "failed to cache remote user id", err)
	}

	if cached != nil {
		repair := valueobject.RepairRecord{
			Kind:           valueobject.EntityKindUser,
			LocalID:        user.ID,
			Label:          user.Email,
			BeforeRemoteID: *cached,
			AfterRemoteID:  res.RemoteID,
		}
		r.result.Repairs = append(r.result.Repairs, repair)
		r.audit.Info("mapping repaired",
			"kind", repair.Kind,
			"local_id", repair.LocalID,
			"label", repair.Label,
			"before_remote_id", repair.BeforeRemoteID,
			"after_remote_id", repair.AfterRemoteID,
		)
	}

	remoteID := res.RemoteID
	r.userRemoteID = remoteID
	r.result.UserRemoteID = &remoteID
	r.audit.Info("remote user linked", "remote_id", remoteID, "created", res.Created)
	return nil
}
