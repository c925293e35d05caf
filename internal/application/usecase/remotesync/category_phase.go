package remotesync

import (
	"context"
	"fmt"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// syncCategories resolves unmapped categories parents-first. Each pass
// attempts every pending category whose parent is already mapped; the rest
// wait for the next pass. A parent mapped by an earlier run is only used
// once its remote row is confirmed to exist. The loop ends when nothing is
// pending, a pass makes no progress, or MaxCategoryPasses is reached.
// Leftovers are reported as skipped and retried on the next run.
func (uc *RunSyncUseCase) syncCategories(ctx context.Context, r *run) error {
	categories, err := uc.local.ListCategoriesOrdered(ctx, r.ownerID)
	if err != nil {
		return domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to list categories", err)
	}

	byID := make(map[int64]*entity.Category, len(categories))
	remoteIDs := make(map[int64]int64, len(categories))
	var pending []*entity.Category

	for _, c := range categories {
		byID[c.ID] = c
		if c.RemoteID != nil {
			remoteIDs[c.ID] = *c.RemoteID
		} else {
			pending = append(pending, c)
		}
	}

	uc.dropDanglingParents(ctx, r, pending, remoteIDs)

	passes := 0
	for passes < uc.config.MaxCategoryPasses && len(pending) > 0 {
		passes++
		progress := 0
		var deferred []*entity.Category

		for _, c := range pending {
			var parentRemoteID *int64
			if c.ParentID != nil {
				if parent, ok := byID[*c.ParentID]; ok && parent.Type != c.Type {
					r.rowError(valueobject.EntityKindCategory, c.Name,
						fmt.Errorf("%w: %s under %s", domainerror.ErrParentTypeMismatch, c.Type, parent.Type))
					continue
				}

				id, ok := remoteIDs[*c.ParentID]
				if !ok {
					deferred = append(deferred, c)
					continue
				}
				parentRemoteID = &id
			}

			remoteID, err := uc.syncCategory(ctx, r, c, parentRemoteID)
			if err != nil {
				r.rowError(valueobject.EntityKindCategory, c.Name, err)
				continue
			}

			remoteIDs[c.ID] = remoteID
			r.result.CategoriesSynced++
			progress++
		}

		r.audit.Debug("category pass done", "pass", passes, "synced", progress, "deferred", len(deferred))

		pending = deferred
		if progress == 0 {
			break
		}
	}

	for _, c := range pending {
		r.result.CategoriesSkipped++
		r.result.Errors = append(r.result.Errors,
			fmt.Sprintf("%s '%s' skipped: %v", valueobject.EntityKindCategory, c.Name, domainerror.ErrParentNotSynced))
		r.audit.Info("category deferred to next run",
			"label", c.Name,
			"local_id", c.ID,
			"parent_local_id", *c.ParentID,
			"code", domainerror.ErrCodeParentNotSynced,
		)
	}

	r.audit.Info("categories phase done",
		"passes", passes,
		"synced", r.result.CategoriesSynced,
		"skipped", r.result.CategoriesSkipped,
	)
	return nil
}

// dropDanglingParents removes from remoteIDs every previously mapped parent
// of a pending category whose remote row is missing or cannot be checked.
// Their children are deferred and the repair pass restores the parent.
func (uc *RunSyncUseCase) dropDanglingParents(ctx context.Context, r *run, pending []*entity.Category, remoteIDs map[int64]int64) {
	checked := make(map[int64]bool)
	for _, c := range pending {
		if c.ParentID == nil || checked[*c.ParentID] {
			continue
		}
		parentID := *c.ParentID
		checked[parentID] = true

		remoteID, ok := remoteIDs[parentID]
		if !ok {
			continue
		}
		exists, err := uc.remote.ExistsByID(ctx, valueobject.EntityKindCategory, remoteID)
		if err != nil {
			r.audit.Warn("failed to verify parent category", "local_id", parentID, "remote_id", remoteID, "error", err)
			delete(remoteIDs, parentID)
			continue
		}
		if !exists {
			r.audit.Info("parent category mapping is dangling", "local_id", parentID, "remote_id", remoteID)
			delete(remoteIDs, parentID)
		}
	}
}

func (uc *RunSyncUseCase) syncCategory(ctx context.Context, r *run, c *entity.Category, parentRemoteID *int64) (int64, error) {
	if !c.Type.IsValid() {
		return 0, fmt.Errorf("%w: category type %q", domainerror.ErrInvalidEntityType, c.Type)
	}

	res, err := uc.resolver.ResolveOrCreate(ctx, entity.NewRemoteCategory(c, r.userRemoteID, parentRemoteID))
	if err != nil {
		return 0, err
	}

	if err := uc.local.SetCategoryRemoteID(ctx, c.ID, res.RemoteID); err != nil {
		return 0, domainerror.NewSyncError(domainerror.ErrCodeLocalUpdateFailed, "failed to store remote id", err)
	}

	remoteID := res.RemoteID
	c.RemoteID = &remoteID
	return remoteID, nil
}
