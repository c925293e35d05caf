// Package persistence implements the local and remote store adapters on top of GORM.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

// localStore implements the adapter.LocalStore interface over the embedded SQLite database.
type localStore struct {
	db *gorm.DB
}

// NewLocalStore creates a new local store instance.
func NewLocalStore(db *gorm.DB) adapter.LocalStore {
	return &localStore{
		db: db,
	}
}

// NewOwnerSource creates an owner source over the local database.
func NewOwnerSource(db *gorm.DB) adapter.OwnerSource {
	return &localStore{
		db: db,
	}
}

// ListOwnerIDs returns every local owner id in ascending order.
func (s *localStore) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.UserModel{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUser retrieves the local owner by id.
func (s *localStore) GetUser(ctx context.Context, ownerID int64) (*entity.User, error) {
	var userModel model.UserModel
	result := s.db.WithContext(ctx).Where("id = ?", ownerID).First(&userModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrUserNotFound
		}
		return nil, result.Error
	}
	return userModel.ToEntity(), nil
}

// GetUserRemoteID returns the cached remote user id, or nil when unmapped.
func (s *localStore) GetUserRemoteID(ctx context.Context, ownerID int64) (*int64, error) {
	user, err := s.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return user.RemoteID, nil
}

// SetUserRemoteID caches the remote user id.
func (s *localStore) SetUserRemoteID(ctx context.Context, ownerID, remoteID int64) error {
	result := s.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", ownerID).
		Update("remote_id", remoteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrUserNotFound
	}
	return nil
}

// ListUnmappedAccounts returns the owner's accounts without a remote id.
func (s *localStore) ListUnmappedAccounts(ctx context.Context, ownerID int64) ([]*entity.Account, error) {
	return s.listAccounts(ctx, "owner_id = ? AND remote_id IS NULL", ownerID)
}

// ListMappedAccounts returns the owner's accounts carrying a remote id.
func (s *localStore) ListMappedAccounts(ctx context.Context, ownerID int64) ([]*entity.Account, error) {
	return s.listAccounts(ctx, "owner_id = ? AND remote_id IS NOT NULL", ownerID)
}

func (s *localStore) listAccounts(ctx context.Context, query string, ownerID int64) ([]*entity.Account, error) {
	var accountModels []model.AccountModel
	result := s.db.WithContext(ctx).
		Where(query, ownerID).
		Order("id ASC").
		Find(&accountModels)
	if result.Error != nil {
		return nil, result.Error
	}

	accounts := make([]*entity.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToEntity()
	}
	return accounts, nil
}

// SetAccountRemoteID persists an account's remote id.
func (s *localStore) SetAccountRemoteID(ctx context.Context, localID, remoteID int64) error {
	return s.setRemoteID(ctx, &model.AccountModel{}, "account", localID, remoteID)
}

// ListCategoriesOrdered returns the owner's categories, roots first, then by id.
func (s *localStore) ListCategoriesOrdered(ctx context.Context, ownerID int64) ([]*entity.Category, error) {
	var categoryModels []model.CategoryModel
	result := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END, id ASC").
		Find(&categoryModels)
	if result.Error != nil {
		return nil, result.Error
	}

	categories := make([]*entity.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = categoryModels[i].ToEntity()
	}
	return categories, nil
}

// SetCategoryRemoteID persists a category's remote id.
func (s *localStore) SetCategoryRemoteID(ctx context.Context, localID, remoteID int64) error {
	return s.setRemoteID(ctx, &model.CategoryModel{}, "category", localID, remoteID)
}

func (s *localStore) setRemoteID(ctx context.Context, m interface{}, kind string, localID, remoteID int64) error {
	result := s.db.WithContext(ctx).
		Model(m).
		Where("id = ?", localID).
		Update("remote_id", remoteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("local %s %d not found", kind, localID)
	}
	return nil
}

// ListPendingTransactions returns PENDING transactions whose account and
// category are both mapped, ordered by transaction date then id.
func (s *localStore) ListPendingTransactions(ctx context.Context, ownerID int64) ([]*entity.PendingTransaction, error) {
	var transactionModels []model.TransactionModel
	result := s.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.owner_id = ? AND transactions.sync_status = ?", ownerID, string(entity.SyncStatusPending)).
		Where("accounts.remote_id IS NOT NULL AND categories.remote_id IS NOT NULL").
		Preload("Account").
		Preload("Category").
		Order("transactions.txn_date ASC, transactions.id ASC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}

	pending := make([]*entity.PendingTransaction, 0, len(transactionModels))
	for i := range transactionModels {
		tm := &transactionModels[i]
		if tm.Account == nil || tm.Account.RemoteID == nil || tm.Category == nil || tm.Category.RemoteID == nil {
			continue
		}
		pending = append(pending, &entity.PendingTransaction{
			Transaction:      tm.ToEntity(),
			AccountRemoteID:  *tm.Account.RemoteID,
			CategoryRemoteID: *tm.Category.RemoteID,
		})
	}
	return pending, nil
}

// CountPendingTransactions counts the owner's PENDING transactions.
func (s *localStore) CountPendingTransactions(ctx context.Context, ownerID int64) (int, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where("owner_id = ? AND sync_status = ?", ownerID, string(entity.SyncStatusPending)).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(count), nil
}

// MarkTransactionSynced sets status SYNCED, the remote id and last_synced_at.
func (s *localStore) MarkTransactionSynced(ctx context.Context, localID, remoteID int64, syncedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&model.TransactionModel{}).
		Where("id = ?", localID).
		Updates(map[string]interface{}{
			"sync_status":    string(entity.SyncStatusSynced),
			"remote_id":      remoteID,
			"last_synced_at": syncedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("local transaction %d not found", localID)
	}
	return nil
}
