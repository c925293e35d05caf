package adapter

import (
	"context"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// RemoteStore defines the remote system-of-record operations used by the sync engine.
type RemoteStore interface {
	// Ping verifies the remote connection is usable.
	Ping(ctx context.Context) error

	// FindByNaturalKey returns the remote id of the row matching key, or nil.
	FindByNaturalKey(ctx context.Context, key valueobject.NaturalKey) (*int64, error)

	// Insert creates a remote row and returns its generated id.
	// A unique-constraint violation is reported as domainerror.ErrDuplicateKey.
	Insert(ctx context.Context, record entity.RemoteRecord) (int64, error)

	// ExistsByID reports whether a row with the given primary key exists.
	ExistsByID(ctx context.Context, kind valueobject.EntityKind, id int64) (bool, error)

	// UpdateCategoryParent re-points an already matched remote category at a new parent.
	UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error
}
