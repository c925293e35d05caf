package remotesync

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

func remoteAccount(name string) *entity.RemoteAccount {
	return entity.NewRemoteAccount(entity.NewAccount(1, name, entity.AccountTypeCash, "USD", decimal.Zero), 10)
}

func TestIdentityResolver_CreatesMissingRow(t *testing.T) {
	remote := newFakeRemoteStore()
	resolver := NewIdentityResolver(remote, discardLogger())

	res, err := resolver.ResolveOrCreate(context.Background(), remoteAccount("Cash Wallet"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created {
		t.Error("expected the row to be created")
	}
	if remote.count(valueobject.EntityKindAccount) != 1 {
		t.Errorf("expected 1 remote account, got %d", remote.count(valueobject.EntityKindAccount))
	}
}

func TestIdentityResolver_ReusesExistingRow(t *testing.T) {
	remote := newFakeRemoteStore()
	existing := remote.put(remoteAccount("Cash Wallet"))
	resolver := NewIdentityResolver(remote, discardLogger())

	res, err := resolver.ResolveOrCreate(context.Background(), remoteAccount("  Cash Wallet "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created {
		t.Error("expected the existing row to be reused")
	}
	if res.RemoteID != existing {
		t.Errorf("expected remote id %d, got %d", existing, res.RemoteID)
	}
	if len(remote.inserted) != 0 {
		t.Errorf("expected no inserts, got %d", len(remote.inserted))
	}
}

func TestIdentityResolver_ConcurrentInsertUsesWinner(t *testing.T) {
	remote := newFakeRemoteStore()
	remote.raceOnInsert["Cash Wallet"] = true
	resolver := NewIdentityResolver(remote, discardLogger())

	res, err := resolver.ResolveOrCreate(context.Background(), remoteAccount("Cash Wallet"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Created {
		t.Error("expected the winner's row, not a new one")
	}
	if remote.count(valueobject.EntityKindAccount) != 1 {
		t.Errorf("expected exactly 1 remote account, got %d", remote.count(valueobject.EntityKindAccount))
	}
}

func TestIdentityResolver_ConflictWithoutWinner(t *testing.T) {
	remote := newFakeRemoteStore()
	remote.raceOnInsert["Cash Wallet"] = true
	remote.loseRace = true
	resolver := NewIdentityResolver(remote, discardLogger())

	_, err := resolver.ResolveOrCreate(context.Background(), remoteAccount("Cash Wallet"))
	if !errors.Is(err, domainerror.ErrRemoteRowMissing) {
		t.Fatalf("expected ErrRemoteRowMissing, got %v", err)
	}
}

func TestIdentityResolver_InsertFailure(t *testing.T) {
	remote := newFakeRemoteStore()
	boom := errors.New("connection reset by peer")
	remote.insertErr["Cash Wallet"] = boom
	resolver := NewIdentityResolver(remote, discardLogger())

	_, err := resolver.ResolveOrCreate(context.Background(), remoteAccount("Cash Wallet"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the insert error to be wrapped, got %v", err)
	}
}
