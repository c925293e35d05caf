package remotesync

import (
	"context"
	"fmt"
	"strings"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// syncTransactions pushes PENDING transactions whose account and category are
// already mapped. Transactions with unmapped dependencies, or whose account or
// category mapping the repair pass could not restore, stay PENDING for a
// later run.
func (uc *RunSyncUseCase) syncTransactions(ctx context.Context, r *run) error {
	pending, err := uc.local.ListPendingTransactions(ctx, r.ownerID)
	if err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to list pending transactions", err)
	}

	deferred := 0
	for _, p := range pending {
		t := p.Transaction
		if r.unresolvedAccounts[t.AccountID] || r.unresolvedCategories[t.CategoryID] {
			deferred++
			r.audit.Info("transaction deferred to next run",
				"label", t.ClientUUID,
				"local_id", t.ID,
				"account_local_id", t.AccountID,
				"category_local_id", t.CategoryID,
				"code", domainerror.ErrCodeParentNotSynced,
			)
			continue
		}

		if err := uc.syncTransaction(ctx, r, p); err != nil {
			r.rowError(valueobject.EntityKindTransaction, p.Transaction.ClientUUID, err)
			continue
		}
		r.result.TransactionsSynced++
	}

	left, err := uc.local.CountPendingTransactions(ctx, r.ownerID)
	if err != nil {
		r.audit.Warn("failed to count pending transactions", "error", err)
	} else {
		r.result.TransactionsPending = left
	}

	r.audit.Info("transactions phase done",
		"candidates", len(pending),
		"deferred", deferred,
		"synced", r.result.TransactionsSynced,
		"still_pending", r.result.TransactionsPending,
	)
	return nil
}

func (uc *RunSyncUseCase) syncTransaction(ctx context.Context, r *run, p *entity.PendingTransaction) error {
	t := p.Transaction
	if strings.TrimSpace(t.ClientUUID) == "" {
		return fmt.Errorf("%w: empty client uuid", domainerror.ErrInvalidEntityType)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: transaction type %q", domainerror.ErrInvalidEntityType, t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", domainerror.ErrInvalidTransactionAmount, t.Amount.String())
	}

	res, err := uc.resolver.ResolveOrCreate(ctx, entity.NewRemoteTransaction(p, r.userRemoteID))
	if err != nil {
		return err
	}

	syncedAt := uc.config.Now().UTC()
	if err := uc.local.MarkTransactionSynced(ctx, t.ID, res.RemoteID, syncedAt); err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalUpdateFailed, "failed to mark transaction synced", err)
	}

	remoteID := res.RemoteID
	t.RemoteID = &remoteID
	t.SyncStatus = entity.SyncStatusSynced
	t.LastSyncedAt = &syncedAt
	return nil
}
