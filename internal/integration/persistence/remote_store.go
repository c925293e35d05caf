package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// remoteStore implements the adapter.RemoteStore interface over the system of record.
type remoteStore struct {
	db *gorm.DB
}

// NewRemoteStore creates a new remote store instance.
func NewRemoteStore(db *gorm.DB) adapter.RemoteStore {
	return &remoteStore{
		db: db,
	}
}

// Ping verifies the remote connection is usable.
func (r *remoteStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// FindByNaturalKey returns the id of the row matching key, or nil.
func (r *remoteStore) FindByNaturalKey(ctx context.Context, key valueobject.NaturalKey) (*int64, error) {
	m, err := remoteModelFor(key.Kind)
	if err != nil {
		return nil, err
	}

	var ids []int64
	result := r.db.WithContext(ctx).
		Model(m).
		Where(key.Conditions()).
		Order("id ASC").
		Limit(1).
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

// Insert creates a remote row and returns its generated id.
func (r *remoteStore) Insert(ctx context.Context, record entity.RemoteRecord) (int64, error) {
	switch rec := record.(type) {
	case *entity.RemoteUser:
		m := model.RemoteUserFromRecord(rec)
		if err := r.create(ctx, m); err != nil {
			return 0, err
		}
		return m.ID, nil
	case *entity.RemoteAccount:
		m := model.RemoteAccountFromRecord(rec)
		if err := r.create(ctx, m); err != nil {
			return 0, err
		}
		return m.ID, nil
	case *entity.RemoteCategory:
		m := model.RemoteCategoryFromRecord(rec)
		if err := r.create(ctx, m); err != nil {
			return 0, err
		}
		return m.ID, nil
	case *entity.RemoteTransaction:
		m := model.RemoteTransactionFromRecord(rec)
		if err := r.create(ctx, m); err != nil {
			return 0, err
		}
		return m.ID, nil
	default:
		return 0, fmt.Errorf("%w: unsupported remote record %T", domainerror.ErrInvalidEntityType, record)
	}
}

func (r *remoteStore) create(ctx context.Context, m interface{}) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", domainerror.ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

// ExistsByID reports whether a row with the given id exists.
func (r *remoteStore) ExistsByID(ctx context.Context, kind valueobject.EntityKind, id int64) (bool, error) {
	m, err := remoteModelFor(kind)
	if err != nil {
		return false, err
	}

	var count int64
	result := r.db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// UpdateCategoryParent re-points a remote category at a new parent.
func (r *remoteStore) UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.RemoteCategoryModel{}).
		Where("id = ?", id).
		Update("parent_id", parentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, domainerror.ErrRemoteRowMissing)
	}
	return nil
}

func remoteModelFor(kind valueobject.EntityKind) (interface{}, error) {
	switch kind {
	case valueobject.EntityKindUser:
		return &model.RemoteUserModel{}, nil
	case valueobject.EntityKindAccount:
		return &model.RemoteAccountModel{}, nil
	case valueobject.EntityKindCategory:
		return &model.RemoteCategoryModel{}, nil
	case valueobject.EntityKindTransaction:
		return &model.RemoteTransactionModel{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown entity kind %q", domainerror.ErrInvalidEntityType, kind)
	}
}

// isDuplicateKeyError detects unique-constraint violations from every
// driver the remote store can run on: translated GORM errors, lib/pq, pgx
// and SQLite.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
