package remotesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

// Resolution is the outcome of resolving one record.
type Resolution struct {
	RemoteID int64
	Created  bool
}

// IdentityResolver maps a local entity to exactly one remote row. It always
// re-checks existence by natural key before inserting, so it is safe to call
// again after a crash or a partially applied run.
type IdentityResolver struct {
	remote adapter.RemoteStore
	audit  *slog.Logger
}

// NewIdentityResolver creates a new IdentityResolver instance.
func NewIdentityResolver(remote adapter.RemoteStore, audit *slog.Logger) *IdentityResolver {
	return &IdentityResolver{
		remote: remote,
		audit:  audit,
	}
}

// ResolveOrCreate returns the remote id matching record's natural key,
// inserting a new remote row when none exists. A duplicate-key error on
// insert means a concurrent writer won the race; the winner's id is used.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, record entity.RemoteRecord) (Resolution, error) {
	key := record.NaturalKey()

	existing, err := r.remote.FindByNaturalKey(ctx, key)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if existing != nil {
		return Resolution{RemoteID: *existing}, nil
	}

	id, err := r.remote.Insert(ctx, record)
	if err == nil {
		r.audit.Debug("remote row created", "kind", record.Kind(), "label", record.Label(), "remote_id", id)
		return Resolution{RemoteID: id, Created: true}, nil
	}
	if !errors.Is(err, domainerror.ErrDuplicateKey) {
		return Resolution{}, fmt.Errorf("failed to insert %s: %w", key, err)
	}

	winner, lookupErr := r.remote.FindByNaturalKey(ctx, key)
	if lookupErr != nil {
		return Resolution{}, fmt.Errorf("failed to re-query %s after insert conflict: %w", key, lookupErr)
	}
	if winner == nil {
		return Resolution{}, fmt.Errorf("%s: %w", key, domainerror.ErrRemoteRowMissing)
	}

	r.audit.Info("insert conflict resolved to existing row",
		"kind", record.Kind(),
		"label", record.Label(),
		"remote_id", *winner,
	)
	return Resolution{RemoteID: *winner}, nil
}
