package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// Remote tables live in the system of record. Each unique index covers
// exactly the natural-key columns the identity resolver queries by.

// RemoteUserModel represents the remote users table.
type RemoteUserModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex:idx_remote_users_natural_key;not null"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the RemoteUserModel.
func (RemoteUserModel) TableName() string {
	return "users"
}

// RemoteAccountModel represents the remote accounts table.
type RemoteAccountModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	OwnerID        int64           `gorm:"not null;uniqueIndex:idx_remote_accounts_natural_key,priority:1"`
	Name           string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_remote_accounts_natural_key,priority:2"`
	Type           string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_remote_accounts_natural_key,priority:3"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the RemoteAccountModel.
func (RemoteAccountModel) TableName() string {
	return "accounts"
}

// RemoteCategoryModel represents the remote categories table. ParentID has
// no foreign key so a parent can be re-created without touching children.
type RemoteCategoryModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OwnerID   int64     `gorm:"not null;uniqueIndex:idx_remote_categories_natural_key,priority:1"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_remote_categories_natural_key,priority:2"`
	Type      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_remote_categories_natural_key,priority:3"`
	ParentID  *int64    `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the RemoteCategoryModel.
func (RemoteCategoryModel) TableName() string {
	return "categories"
}

// RemoteTransactionModel represents the remote transactions table.
type RemoteTransactionModel struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	ClientUUID string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_remote_transactions_natural_key"`
	OwnerID    int64           `gorm:"not null;index"`
	AccountID  int64           `gorm:"not null;index"`
	CategoryID int64           `gorm:"not null;index"`
	Type       string          `gorm:"type:varchar(10);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TxnDate    time.Time       `gorm:"type:date;not null"`
	Note       *string         `gorm:"type:text"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for the RemoteTransactionModel.
func (RemoteTransactionModel) TableName() string {
	return "transactions"
}

// RemoteModels lists every remote table in migration order.
func RemoteModels() []interface{} {
	return []interface{}{
		&RemoteUserModel{},
		&RemoteAccountModel{},
		&RemoteCategoryModel{},
		&RemoteTransactionModel{},
	}
}

// RemoteUserFromRecord creates a RemoteUserModel from a remote user record.
func RemoteUserFromRecord(r *entity.RemoteUser) *RemoteUserModel {
	return &RemoteUserModel{
		Email:       r.Email,
		DisplayName: r.DisplayName,
	}
}

// RemoteAccountFromRecord creates a RemoteAccountModel from a remote account record.
func RemoteAccountFromRecord(r *entity.RemoteAccount) *RemoteAccountModel {
	return &RemoteAccountModel{
		OwnerID:        r.OwnerRemoteID,
		Name:           r.Name,
		Type:           string(r.Type),
		Currency:       r.Currency,
		OpeningBalance: r.OpeningBalance,
		Active:         r.Active,
	}
}

// RemoteCategoryFromRecord creates a RemoteCategoryModel from a remote category record.
func RemoteCategoryFromRecord(r *entity.RemoteCategory) *RemoteCategoryModel {
	return &RemoteCategoryModel{
		OwnerID:  r.OwnerRemoteID,
		Name:     r.Name,
		Type:     string(r.Type),
		ParentID: r.ParentRemoteID,
	}
}

// RemoteTransactionFromRecord creates a RemoteTransactionModel from a remote transaction record.
func RemoteTransactionFromRecord(r *entity.RemoteTransaction) *RemoteTransactionModel {
	return &RemoteTransactionModel{
		ClientUUID: r.ClientUUID,
		OwnerID:    r.OwnerRemoteID,
		AccountID:  r.AccountRemoteID,
		CategoryID: r.CategoryRemoteID,
		Type:       string(r.Type),
		Amount:     r.Amount,
		TxnDate:    r.TxnDate,
		Note:       r.Note,
	}
}
