package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "INCOME"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// SyncStatus tracks a transaction's push state.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "PENDING"
	SyncStatusSynced   SyncStatus = "SYNCED"
	SyncStatusConflict SyncStatus = "CONFLICT"
)

// Transaction is a locally stored transaction. ClientUUID is generated on
// the device, never changes, and is the only idempotency key used remotely.
type Transaction struct {
	ID           int64
	ClientUUID   string
	OwnerID      int64
	AccountID    int64
	CategoryID   int64
	Type         TransactionType
	Amount       decimal.Decimal
	TxnDate      time.Time
	Note         *string
	SyncStatus   SyncStatus
	RemoteID     *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt *time.Time
}

// NewTransaction creates a new PENDING Transaction with a fresh client uuid.
func NewTransaction(
	ownerID, accountID, categoryID int64,
	transactionType TransactionType,
	amount decimal.Decimal,
	txnDate time.Time,
	note *string,
) *Transaction {
	now := time.Now().UTC()

	return &Transaction{
		ClientUUID: uuid.NewString(),
		OwnerID:    ownerID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       transactionType,
		Amount:     amount,
		TxnDate:    txnDate,
		Note:       note,
		SyncStatus: SyncStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// PendingTransaction is a PENDING transaction joined with the remote ids of
// its account and category, both of which are known to be mapped.
type PendingTransaction struct {
	Transaction      *Transaction
	AccountRemoteID  int64
	CategoryRemoteID int64
}
