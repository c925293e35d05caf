package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

// LocalSeeder writes rows into the local database the way the device app
// does. The sync engine itself never inserts local rows.
type LocalSeeder struct {
	db *gorm.DB
}

// NewLocalSeeder creates a new local seeder instance.
func NewLocalSeeder(db *gorm.DB) *LocalSeeder {
	return &LocalSeeder{
		db: db,
	}
}

// CreateUser inserts a local user and sets its generated id.
func (s *LocalSeeder) CreateUser(ctx context.Context, user *entity.User) error {
	userModel := model.UserFromEntity(user)
	if err := s.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return err
	}
	user.ID = userModel.ID
	return nil
}

// CreateAccount inserts a local account and sets its generated id.
func (s *LocalSeeder) CreateAccount(ctx context.Context, account *entity.Account) error {
	accountModel := model.AccountFromEntity(account)
	if err := s.db.WithContext(ctx).Create(accountModel).Error; err != nil {
		return err
	}
	account.ID = accountModel.ID
	return nil
}

// CreateCategory inserts a local category and sets its generated id.
func (s *LocalSeeder) CreateCategory(ctx context.Context, category *entity.Category) error {
	categoryModel := model.CategoryFromEntity(category)
	if err := s.db.WithContext(ctx).Create(categoryModel).Error; err != nil {
		return err
	}
	category.ID = categoryModel.ID
	return nil
}

// CreateTransaction inserts a local transaction and sets its generated id.
func (s *LocalSeeder) CreateTransaction(ctx context.Context, transaction *entity.Transaction) error {
	transactionModel := model.TransactionFromEntity(transaction)
	if err := s.db.WithContext(ctx).Create(transactionModel).Error; err != nil {
		return err
	}
	transaction.ID = transactionModel.ID
	return nil
}

// FindTransactionByClientUUID loads a local transaction by its client uuid.
func (s *LocalSeeder) FindTransactionByClientUUID(ctx context.Context, clientUUID string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	if err := s.db.WithContext(ctx).Where("client_uuid = ?", clientUUID).First(&transactionModel).Error; err != nil {
		return nil, err
	}
	return transactionModel.ToEntity(), nil
}
