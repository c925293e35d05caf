package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// TransactionModel represents the local transactions table.
type TransactionModel struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	ClientUUID   string          `gorm:"type:varchar(36);uniqueIndex;not null"`
	OwnerID      int64           `gorm:"not null;index"`
	AccountID    int64           `gorm:"not null;index"`
	CategoryID   int64           `gorm:"not null;index"`
	Type         string          `gorm:"type:varchar(10);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TxnDate      time.Time       `gorm:"type:date;not null;index"`
	Note         *string         `gorm:"type:text"`
	SyncStatus   string          `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	RemoteID     *int64          `gorm:"index"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
	LastSyncedAt *time.Time      `gorm:"type:timestamp"`

	// Relationships (not loaded by default, use Preload)
	Owner    *UserModel     `gorm:"foreignKey:OwnerID;references:ID"`
	Account  *AccountModel  `gorm:"foreignKey:AccountID;references:ID"`
	Category *CategoryModel `gorm:"foreignKey:CategoryID;references:ID"`
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity.
func (m *TransactionModel) ToEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:           m.ID,
		ClientUUID:   m.ClientUUID,
		OwnerID:      m.OwnerID,
		AccountID:    m.AccountID,
		CategoryID:   m.CategoryID,
		Type:         entity.TransactionType(m.Type),
		Amount:       m.Amount,
		TxnDate:      m.TxnDate,
		Note:         m.Note,
		SyncStatus:   entity.SyncStatus(m.SyncStatus),
		RemoteID:     m.RemoteID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		LastSyncedAt: m.LastSyncedAt,
	}
}

// TransactionFromEntity creates a TransactionModel from a domain Transaction entity.
func TransactionFromEntity(t *entity.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:           t.ID,
		ClientUUID:   t.ClientUUID,
		OwnerID:      t.OwnerID,
		AccountID:    t.AccountID,
		CategoryID:   t.CategoryID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		TxnDate:      t.TxnDate,
		Note:         t.Note,
		SyncStatus:   string(t.SyncStatus),
		RemoteID:     t.RemoteID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		LastSyncedAt: t.LastSyncedAt,
	}
}

// LocalModels lists every local table in migration order.
func LocalModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&AccountModel{},
		&CategoryModel{},
		&TransactionModel{},
	}
}
