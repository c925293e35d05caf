package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the kind of money container.
type AccountType string

const (
	AccountTypeCash   AccountType = "CASH"
	AccountTypeBank   AccountType = "BANK"
	AccountTypeCard   AccountType = "CARD"
	AccountTypeMobile AccountType = "MOBILE"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCard, AccountTypeMobile:
		return true
	}
	return false
}

// Account is a locally stored account.
type Account struct {
	ID             int64
	OwnerID        int64
	RemoteID       *int64
	Name           string
	Type           AccountType
	Currency       string
	OpeningBalance decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a new, unmapped Account entity.
func NewAccount(ownerID int64, name string, accountType AccountType, currency string, openingBalance decimal.Decimal) *Account {
	now := time.Now().UTC()

	return &Account{
		OwnerID:        ownerID,
		Name:           name,
		Type:           accountType,
		Currency:       currency,
		OpeningBalance: openingBalance,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsMapped reports whether the account already carries a remote id.
func (a *Account) IsMapped() bool {
	return a.RemoteID != nil
}
