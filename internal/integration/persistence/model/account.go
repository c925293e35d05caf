package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
)

// AccountModel represents the local accounts table.
type AccountModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	OwnerID        int64           `gorm:"not null;index"`
	RemoteID       *int64          `gorm:"index"`
	Name           string          `gorm:"type:varchar(100);not null"`
	Type           string          `gorm:"type:varchar(10);not null"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`

	Owner *UserModel `gorm:"foreignKey:OwnerID;references:ID"`
}

// TableName returns the table name for the AccountModel.
func (AccountModel) TableName() string {
	return "accounts"
}

// ToEntity converts an AccountModel to a domain Account entity.
func (m *AccountModel) ToEntity() *entity.Account {
	return &entity.Account{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		RemoteID:       m.RemoteID,
		Name:           m.Name,
		Type:           entity.AccountType(m.Type),
		Currency:       m.Currency,
		OpeningBalance: m.OpeningBalance,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// AccountFromEntity creates an AccountModel from a domain Account entity.
func AccountFromEntity(account *entity.Account) *AccountModel {
	return &AccountModel{
		ID:             account.ID,
		OwnerID:        account.OwnerID,
		RemoteID:       account.RemoteID,
		Name:           account.Name,
		Type:           string(account.Type),
		Currency:       account.Currency,
		OpeningBalance: account.OpeningBalance,
		Active:         account.Active,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}
