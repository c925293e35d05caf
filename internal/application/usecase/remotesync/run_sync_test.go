package remotesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// seedWallet builds one user with Cash Wallet, Salary > Bonus and a single
// transaction t-1 on Cash Wallet / Bonus.
func seedWallet(local *fakeLocalStore) (ownerID, walletID, salaryID, bonusID, txnID int64) {
	ownerID = local.addUser("a@x.io")
	walletID = local.addAccount(ownerID, "Cash Wallet", entity.AccountTypeCash)
	salaryID = local.addCategory(ownerID, nil, "Salary", entity.CategoryTypeIncome)
	bonusID = local.addCategory(ownerID, &salaryID, "Bonus", entity.CategoryTypeIncome)
	txnID = local.addTransaction(ownerID, "t-1", walletID, bonusID, 500, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	return
}

func TestRunSync_FirstRunPushesEverything(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID, walletID, salaryID, bonusID, txnID := seedWallet(local)

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !out.Success || out.State != valueobject.RunStateComplete {
		t.Fatalf("expected a successful COMPLETE run, got success=%v state=%s", out.Success, out.State)
	}
	if out.AccountsSynced != 1 || out.CategoriesSynced != 2 || out.TransactionsSynced != 1 {
		t.Errorf("expected counts 1/2/1, got %d/%d/%d", out.AccountsSynced, out.CategoriesSynced, out.TransactionsSynced)
	}
	if len(out.Errors) != 0 {
		t.Errorf("expected no errors, got %v", out.Errors)
	}
	if out.TransactionsPending != 0 {
		t.Errorf("expected nothing left pending, got %d", out.TransactionsPending)
	}

	order := remote.insertedLabels(valueobject.EntityKindCategory)
	if len(order) != 2 || order[0] != "Salary" || order[1] != "Bonus" {
		t.Errorf("expected Salary to be created before Bonus, got %v", order)
	}

	salaryRemote := *local.categories[salaryID].RemoteID
	bonus := remote.category(*local.categories[bonusID].RemoteID)
	if bonus.ParentRemoteID == nil || *bonus.ParentRemoteID != salaryRemote {
		t.Errorf("expected Bonus to point at Salary's remote id %d", salaryRemote)
	}

	txn := local.transactions[txnID]
	if txn.SyncStatus != entity.SyncStatusSynced || txn.RemoteID == nil {
		t.Fatalf("expected t-1 to be SYNCED with a remote id, got %s", txn.SyncStatus)
	}
	if txn.LastSyncedAt == nil || !txn.LastSyncedAt.Equal(fixedNow) {
		t.Errorf("expected last_synced_at %v, got %v", fixedNow, txn.LastSyncedAt)
	}

	rt := remote.rows[valueobject.EntityKindTransaction][*txn.RemoteID].(*entity.RemoteTransaction)
	if rt.AccountRemoteID != *local.accounts[walletID].RemoteID {
		t.Errorf("remote transaction references account %d, want %d", rt.AccountRemoteID, *local.accounts[walletID].RemoteID)
	}
	if rt.CategoryRemoteID != *local.categories[bonusID].RemoteID {
		t.Errorf("remote transaction references category %d, want %d", rt.CategoryRemoteID, *local.categories[bonusID].RemoteID)
	}
	if rt.OwnerRemoteID != *local.users[ownerID].RemoteID {
		t.Errorf("remote transaction owner %d, want %d", rt.OwnerRemoteID, *local.users[ownerID].RemoteID)
	}
}

func TestRunSync_SecondRunIsNoop(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID, _, _, _, _ := seedWallet(local)
	uc := newTestUseCase(local, remote, nil)

	if _, err := uc.Execute(context.Background(), RunSyncInput{OwnerID: ownerID}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	insertsAfterFirst := len(remote.inserted)

	out, err := uc.Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !out.Success {
		t.Fatal("expected second run to succeed")
	}
	if out.AccountsSynced != 0 || out.CategoriesSynced != 0 || out.TransactionsSynced != 0 {
		t.Errorf("expected counts 0/0/0, got %d/%d/%d", out.AccountsSynced, out.CategoriesSynced, out.TransactionsSynced)
	}
	if len(remote.inserted) != insertsAfterFirst {
		t.Errorf("second run inserted %d rows", len(remote.inserted)-insertsAfterFirst)
	}
	if len(out.Repairs) != 0 {
		t.Errorf("expected no repairs, got %v", out.Repairs)
	}
}

func TestRunSync_NaturalKeyDeduplication(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID := local.addUser("a@x.io")
	first := local.addAccount(ownerID, "Cash Wallet", entity.AccountTypeCash)
	second := local.addAccount(ownerID, "Cash Wallet ", entity.AccountTypeCash)

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.AccountsSynced != 2 {
		t.Errorf("expected both local accounts mapped, got %d", out.AccountsSynced)
	}
	if remote.count(valueobject.EntityKindAccount) != 1 {
		t.Errorf("expected one remote account, got %d", remote.count(valueobject.EntityKindAccount))
	}
	if *local.accounts[first].RemoteID != *local.accounts[second].RemoteID {
		t.Error("expected both local accounts to share the remote id")
	}
}

func TestRunSync_ReusesExistingRemoteUser(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID := local.addUser("a@x.io")
	existing := remote.put(&entity.RemoteUser{Email: "a@x.io"})

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.UserRemoteID == nil || *out.UserRemoteID != existing {
		t.Errorf("expected user remote id %d, got %v", existing, out.UserRemoteID)
	}
	if remote.count(valueobject.EntityKindUser) != 1 {
		t.Errorf("expected one remote user, got %d", remote.count(valueobject.EntityKindUser))
	}
}

func TestRunSync_RelinksStaleUserRemoteID(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID := local.addUser("a@x.io")
	local.users[ownerID].RemoteID = ptr(int64(999))

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *local.users[ownerID].RemoteID == 999 {
		t.Fatal("expected the dangling remote user id to be replaced")
	}
	if len(out.Repairs) != 1 || out.Repairs[0].Kind != valueobject.EntityKindUser || out.Repairs[0].BeforeRemoteID != 999 {
		t.Errorf("expected one user repair from 999, got %v", out.Repairs)
	}
}

func TestRunSync_FatalFailures(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(local *fakeLocalStore, remote *fakeRemoteStore, locker *fakeLocker) int64
		expectedErr  error
		expectedCode domainerror.SyncErrorCode
	}{
		{
			name: "remote unreachable",
			setup: func(local *fakeLocalStore, remote *fakeRemoteStore, _ *fakeLocker) int64 {
				remote.pingErr = errors.New("dial tcp: connection refused")
				return local.addUser("a@x.io")
			},
			expectedErr:  domainerror.ErrRemoteUnavailable,
			expectedCode: domainerror.ErrCodeRemoteUnavailable,
		},
		{
			name: "local user missing",
			setup: func(_ *fakeLocalStore, _ *fakeRemoteStore, _ *fakeLocker) int64 {
				return 42
			},
			expectedErr:  domainerror.ErrUserNotFound,
			expectedCode: domainerror.ErrCodeUserNotFound,
		},
		{
			name: "user insert fails",
			setup: func(local *fakeLocalStore, remote *fakeRemoteStore, _ *fakeLocker) int64 {
				remote.insertErr["a@x.io"] = errors.New("permission denied")
				return local.addUser("a@x.io")
			},
			expectedCode: domainerror.ErrCodeUserLinkFailed,
		},
		{
			name: "run already in progress",
			setup: func(local *fakeLocalStore, _ *fakeRemoteStore, locker *fakeLocker) int64 {
				locker.err = domainerror.ErrSyncInProgress
				return local.addUser("a@x.io")
			},
			expectedErr:  domainerror.ErrSyncInProgress,
			expectedCode: domainerror.ErrCodeSyncInProgress,
		},
		{
			name: "lock backend down",
			setup: func(local *fakeLocalStore, _ *fakeRemoteStore, locker *fakeLocker) int64 {
				locker.err = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
				return local.addUser("a@x.io")
			},
			expectedCode: domainerror.ErrCodeLockUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, remote, locker := newFakeLocalStore(), newFakeRemoteStore(), &fakeLocker{}
			ownerID := tt.setup(local, remote, locker)
			uc := NewRunSyncUseCase(local, remote, locker, discardLogger(), Config{Now: func() time.Time { return fixedNow }})

			out, err := uc.Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
			if err == nil {
				t.Fatal("expected a fatal error")
			}
			if out == nil {
				t.Fatal("expected a result even on failure")
			}
			if out.Success || out.State != valueobject.RunStateFailed {
				t.Errorf("expected success=false state=FAILED, got %v/%s", out.Success, out.State)
			}
			if len(out.Errors) == 0 {
				t.Error("expected the failure in Errors")
			}
			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected %v in chain, got %v", tt.expectedErr, err)
			}

			var syncErr *domainerror.SyncError
			if !errors.As(err, &syncErr) {
				t.Fatalf("expected *SyncError, got %T", err)
			}
			if syncErr.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, syncErr.Code)
			}
			if !syncErr.IsFatal() {
				t.Error("expected a fatal error code")
			}
			if len(remote.inserted) > 0 {
				t.Errorf("expected no remote writes, got %d", len(remote.inserted))
			}
		})
	}
}

func TestRunSync_ReleasesLock(t *testing.T) {
	local, remote, locker := newFakeLocalStore(), newFakeRemoteStore(), &fakeLocker{}
	ownerID := local.addUser("a@x.io")
	remote.pingErr = errors.New("timeout")
	uc := NewRunSyncUseCase(local, remote, locker, discardLogger(), DefaultConfig())

	_, _ = uc.Execute(context.Background(), RunSyncInput{OwnerID: ownerID})

	if locker.acquired != 1 || locker.released != 1 {
		t.Errorf("expected lock acquired and released once, got %d/%d", locker.acquired, locker.released)
	}
}

func TestRunSync_RowFailureDoesNotAbort(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID := local.addUser("a@x.io")
	local.addAccount(ownerID, "Broken", entity.AccountTypeBank)
	okID := local.addAccount(ownerID, "Savings", entity.AccountTypeBank)
	remote.insertErr["Broken"] = errors.New("connection reset by peer")

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("row failures must not be fatal: %v", err)
	}

	if !out.Success {
		t.Error("expected success with row errors")
	}
	if out.AccountsSynced != 1 || local.accounts[okID].RemoteID == nil {
		t.Errorf("expected Savings to sync, got %d", out.AccountsSynced)
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0], "account 'Broken'") {
		t.Errorf("expected one error naming Broken, got %v", out.Errors)
	}
}

func TestRunSync_InvalidAccountTypeIsRowError(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID := local.addUser("a@x.io")
	local.addAccount(ownerID, "Crypto", entity.AccountType("CRYPTO"))

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0], "account 'Crypto'") {
		t.Errorf("expected error for Crypto, got %v", out.Errors)
	}
	if remote.count(valueobject.EntityKindAccount) != 0 {
		t.Error("expected nothing inserted for an invalid account type")
	}
}

func TestRunSync_LocalListFailureKeepsEarlierPhases(t *testing.T) {
	local, remote := newFakeLocalStore(), newFakeRemoteStore()
	ownerID, walletID, _, _, _ := seedWallet(local)
	local.listCategoriesErr = errors.New("database is locked")

	out, err := newTestUseCase(local, remote, nil).Execute(context.Background(), RunSyncInput{OwnerID: ownerID})
	if err == nil {
		t.Fatal("expected a fatal error")
	}

	if out.State != valueobject.RunStateFailed || out.Success {
		t.Errorf("expected FAILED, got %s", out.State)
	}
	if out.AccountsSynced != 1 || local.accounts[walletID].RemoteID == nil {
		t.Error("accounts synced before the failure must stay committed")
	}
}

func TestRunSync_FailWrapsUncodedErrors(t *testing.T) {
	uc := newTestUseCase(newFakeLocalStore(), newFakeRemoteStore(), nil)

	tests := []struct {
		name         string
		err          error
		expectedCode domainerror.SyncErrorCode
	}{
		{
			name:         "state machine misuse",
			err:          fmt.Errorf("%w: START -> COMPLETE", domainerror.ErrInvalidStateTransition),
			expectedCode: domainerror.ErrCodeRunAborted,
		},
		{
			name:         "row code escaping a phase",
			err:          domainerror.NewSyncError(domainerror.ErrCodeLocalUpdateFailed, "update", nil),
			expectedCode: domainerror.ErrCodeRunAborted,
		},
		{
			name:         "fatal code kept",
			err:          domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "list", nil),
			expectedCode: domainerror.ErrCodeLocalStoreFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &run{machine: newRunMachine(), audit: discardLogger()}
			_, err := uc.fail(r, tt.err)

			var syncErr *domainerror.SyncError
			if !errors.As(err, &syncErr) {
				t.Fatalf("expected *SyncError, got %T", err)
			}
			if syncErr.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, syncErr.Code)
			}
			if !errors.Is(err, tt.err) {
				t.Error("expected the original error to stay in the chain")
			}
		})
	}
}
