package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// RemoteRecord is a row destined for the remote store. The identity
// resolver matches it by natural key before inserting.
type RemoteRecord interface {
	Kind() valueobject.EntityKind
	NaturalKey() valueobject.NaturalKey
	// Label is a human-identifiable name used in error and audit entries.
	Label() string
}

// RemoteUser mirrors User on the remote side.
type RemoteUser struct {
	Email       string
	DisplayName string
}

// NewRemoteUser builds the remote mirror of a local user.
func NewRemoteUser(u *User) *RemoteUser {
	return &RemoteUser{
		Email:       strings.TrimSpace(u.Email),
		DisplayName: strings.TrimSpace(u.DisplayName),
	}
}

func (r *RemoteUser) Kind() valueobject.EntityKind { return valueobject.EntityKindUser }

func (r *RemoteUser) NaturalKey() valueobject.NaturalKey {
	return valueobject.NewNaturalKey(valueobject.EntityKindUser,
		valueobject.KeyField{Column: "email", Value: r.Email},
	)
}

func (r *RemoteUser) Label() string { return r.Email }

// RemoteAccount mirrors Account on the remote side.
type RemoteAccount struct {
	OwnerRemoteID  int64
	Name           string
	Type           AccountType
	Currency       string
	OpeningBalance decimal.Decimal
	Active         bool
}

// NewRemoteAccount builds the remote mirror of a local account.
func NewRemoteAccount(a *Account, ownerRemoteID int64) *RemoteAccount {
	return &RemoteAccount{
		OwnerRemoteID:  ownerRemoteID,
		Name:           strings.TrimSpace(a.Name),
		Type:           a.Type,
		Currency:       strings.TrimSpace(a.Currency),
		OpeningBalance: a.OpeningBalance,
		Active:         a.Active,
	}
}

func (r *RemoteAccount) Kind() valueobject.EntityKind { return valueobject.EntityKindAccount }

func (r *RemoteAccount) NaturalKey() valueobject.NaturalKey {
	return valueobject.NewNaturalKey(valueobject.EntityKindAccount,
		valueobject.KeyField{Column: "owner_id", Value: r.OwnerRemoteID},
		valueobject.KeyField{Column: "name", Value: r.Name},
		valueobject.KeyField{Column: "type", Value: string(r.Type)},
	)
}

func (r *RemoteAccount) Label() string { return r.Name }

// RemoteCategory mirrors Category on the remote side, with the parent
// expressed as a remote id.
type RemoteCategory struct {
	OwnerRemoteID  int64
	ParentRemoteID *int64
	Name           string
	Type           CategoryType
}

// NewRemoteCategory builds the remote mirror of a local category.
func NewRemoteCategory(c *Category, ownerRemoteID int64, parentRemoteID *int64) *RemoteCategory {
	return &RemoteCategory{
		OwnerRemoteID:  ownerRemoteID,
		ParentRemoteID: parentRemoteID,
		Name:           strings.TrimSpace(c.Name),
		Type:           c.Type,
	}
}

func (r *RemoteCategory) Kind() valueobject.EntityKind { return valueobject.EntityKindCategory }

func (r *RemoteCategory) NaturalKey() valueobject.NaturalKey {
	return valueobject.NewNaturalKey(valueobject.EntityKindCategory,
		valueobject.KeyField{Column: "owner_id", Value: r.OwnerRemoteID},
		valueobject.KeyField{Column: "name", Value: r.Name},
		valueobject.KeyField{Column: "type", Value: string(r.Type)},
	)
}

func (r *RemoteCategory) Label() string { return r.Name }

// RemoteTransaction mirrors Transaction on the remote side.
type RemoteTransaction struct {
	ClientUUID       string
	OwnerRemoteID    int64
	AccountRemoteID  int64
	CategoryRemoteID int64
	Type             TransactionType
	Amount           decimal.Decimal
	TxnDate          time.Time
	Note             *string
}

// NewRemoteTransaction builds the remote mirror of a pending transaction.
func NewRemoteTransaction(p *PendingTransaction, ownerRemoteID int64) *RemoteTransaction {
	t := p.Transaction
	var note *string
	if t.Note != nil {
		trimmed := strings.TrimSpace(*t.Note)
		note = &trimmed
	}

	return &RemoteTransaction{
		ClientUUID:       strings.TrimSpace(t.ClientUUID),
		OwnerRemoteID:    ownerRemoteID,
		AccountRemoteID:  p.AccountRemoteID,
		CategoryRemoteID: p.CategoryRemoteID,
		Type:             t.Type,
		Amount:           t.Amount,
		TxnDate:          t.TxnDate,
		Note:             note,
	}
}

func (r *RemoteTransaction) Kind() valueobject.EntityKind { return valueobject.EntityKindTransaction }

func (r *RemoteTransaction) NaturalKey() valueobject.NaturalKey {
	return valueobject.NewNaturalKey(valueobject.EntityKindTransaction,
		valueobject.KeyField{Column: "client_uuid", Value: r.ClientUUID},
	)
}

func (r *RemoteTransaction) Label() string { return r.ClientUUID }
