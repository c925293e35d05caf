// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// LocalStore defines the local embedded database operations used by the sync engine.
// The engine only annotates rows; it never inserts or deletes them.
type LocalStore interface {
	// GetUser retrieves the local owner. Returns domainerror.ErrUserNotFound if absent.
	GetUser(ctx context.Context, ownerID int64) (*entity.User, error)

	// GetUserRemoteID returns the cached remote user id, or nil.
	GetUserRemoteID(ctx context.Context, ownerID int64) (*int64, error)

	// SetUserRemoteID caches the remote user id.
	SetUserRemoteID(ctx context.Context, ownerID, remoteID int64) error

	// ListUnmappedAccounts returns the owner's accounts without a remote id, by local id ascending.
	ListUnmappedAccounts(ctx context.Context, ownerID int64) ([]*entity.Account, error)

	// ListMappedAccounts returns the owner's accounts carrying a remote id, by local id ascending.
	ListMappedAccounts(ctx context.Context, ownerID int64) ([]*entity.Account, error)

	// SetAccountRemoteID persists an account's remote id.
	SetAccountRemoteID(ctx context.Context, localID, remoteID int64) error

	// ListCategoriesOrdered returns all of the owner's categories, roots first, then by local id.
	ListCategoriesOrdered(ctx context.Context, ownerID int64) ([]*entity.Category, error)

	// SetCategoryRemoteID persists a category's remote id.
	SetCategoryRemoteID(ctx context.Context, localID, remoteID int64) error

	// ListPendingTransactions returns PENDING transactions whose account and category
	// both carry remote ids, ordered by transaction date then local id.
	ListPendingTransactions(ctx context.Context, ownerID int64) ([]*entity.PendingTransaction, error)

	// CountPendingTransactions counts all PENDING transactions, mapped dependencies or not.
	CountPendingTransactions(ctx context.Context, ownerID int64) (int, error)

	// MarkTransactionSynced sets status SYNCED, the remote id and last_synced_at.
	MarkTransactionSynced(ctx context.Context, localID, remoteID int64, syncedAt time.Time) error
}

// OwnerSource lists the local owners a background sync visits.
type OwnerSource interface {
	// ListOwnerIDs returns every local owner id in ascending order.
	ListOwnerIDs(ctx context.Context) ([]int64, error)
}
