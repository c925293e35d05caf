package remotesync

import (
	"context"
	"fmt"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// syncAccounts resolves every unmapped account of the owner. Per-row
// failures are recorded and the phase continues.
func (uc *RunSyncUseCase) syncAccounts(ctx context.Context, r *run) error {
	accounts, err := uc.local.ListUnmappedAccounts(ctx, r.ownerID)
	if err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to list unmapped accounts", err)
	}

	for _, account := range accounts {
		if err := uc.syncAccount(ctx, r, account); err != nil {
			r.rowError(valueobject.EntityKindAccount, account.Name, err)
			continue
		}
		r.result.AccountsSynced++
	}

	r.audit.Info("accounts phase done", "candidates", len(accounts), "synced", r.result.AccountsSynced)
	return nil
}

func (uc *RunSyncUseCase) syncAccount(ctx context.Context, r *run, account *entity.Account) error {
	if !account.Type.IsValid() {
		return fmt.Errorf("%w: account type %q", domainerror.ErrInvalidEntityType, account.Type)
	}

	res, err := uc.resolver.ResolveOrCreate(ctx, entity.NewRemoteAccount(account, r.userRemoteID))
	if err != nil {
		return err
	}

	if err := uc.local.SetAccountRemoteID(ctx, account.ID, res.RemoteID); err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalUpdateFailed, "failed to store remote id", err)
	}

	remoteID := res.RemoteID
	account.RemoteID = &remoteID
	return nil
}
