package remotesync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/finance-tracker/ledgersync/internal/application/adapter"
	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// RepairReport lists what a repair pass changed and what it could not fix.
type RepairReport struct {
	Repairs []valueobject.RepairRecord
	Errors  []string
	// Unresolved holds local ids whose cached remote id could not be
	// verified or restored. Nothing may reference them remotely this run.
	Unresolved map[int64]bool
}

func newRepairReport() *RepairReport {
	return &RepairReport{Unresolved: make(map[int64]bool)}
}

// MappingRepairer restores the invariant that every cached remote id points
// at an existing remote row. Dangling ids are re-resolved by natural key and,
// failing that, recreated.
type MappingRepairer struct {
	local    adapter.LocalStore
	remote   adapter.RemoteStore
	resolver *IdentityResolver
	audit    *slog.Logger
}

// NewMappingRepairer creates a new MappingRepairer instance.
func NewMappingRepairer(
	local adapter.LocalStore,
	remote adapter.RemoteStore,
	resolver *IdentityResolver,
	audit *slog.Logger,
) *MappingRepairer {
	return &MappingRepairer{
		local:    local,
		remote:   remote,
		resolver: resolver,
		audit:    audit,
	}
}

// RepairAccounts verifies every mapped account of the owner.
func (m *MappingRepairer) RepairAccounts(ctx context.Context, ownerID, ownerRemoteID int64) (*RepairReport, error) {
	accounts, err := m.local.ListMappedAccounts(ctx, ownerID)
	if err != nil {
		return nil, domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to list mapped accounts", err)
	}

	report := newRepairReport()
	for _, account := range accounts {
		before := *account.RemoteID

		exists, err := m.remote.ExistsByID(ctx, valueobject.EntityKindAccount, before)
		if err != nil {
			report.Unresolved[account.ID] = true
			m.repairError(report, ownerID, valueobject.EntityKindAccount, account.Name, err)
			continue
		}
		if exists {
			continue
		}

		res, err := m.resolver.ResolveOrCreate(ctx, entity.NewRemoteAccount(account, ownerRemoteID))
		if err != nil {
			report.Unresolved[account.ID] = true
			m.repairError(report, ownerID, valueobject.EntityKindAccount, account.Name, err)
			continue
		}
		if err := m.local.SetAccountRemoteID(ctx, account.ID, res.RemoteID); err != nil {
			report.Unresolved[account.ID] = true
			m.repairError(report, ownerID, valueobject.EntityKindAccount, account.Name, err)
			continue
		}

		after := res.RemoteID
		account.RemoteID = &after
		m.record(report, ownerID, valueobject.RepairRecord{
			Kind:           valueobject.EntityKindAccount,
			LocalID:        account.ID,
			Label:          account.Name,
			BeforeRemoteID: before,
			AfterRemoteID:  after,
		})
	}

	return report, nil
}

// RepairCategories verifies every mapped category of the owner. Dangling
// parents are repaired before their children, and children of a re-linked
// parent get their remote parent link re-pointed. A dangling child whose
// parent stays unresolved is left unresolved too, never re-created under a
// stale parent id.
func (m *MappingRepairer) RepairCategories(ctx context.Context, ownerID, ownerRemoteID int64) (*RepairReport, error) {
	categories, err := m.local.ListCategoriesOrdered(ctx, ownerID)
	if err != nil {
		return nil, domainerror.NewSyncError(domainerror.ErrCodeLocalStoreFailed, "failed to list categories", err)
	}

	byID := make(map[int64]*entity.Category, len(categories))
	current := make(map[int64]int64, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
		if c.RemoteID != nil {
			current[c.ID] = *c.RemoteID
		}
	}

	report := newRepairReport()
	var dangling []*entity.Category
	for _, c := range categories {
		if c.RemoteID == nil {
			continue
		}
		exists, err := m.remote.ExistsByID(ctx, valueobject.EntityKindCategory, *c.RemoteID)
		if err != nil {
			m.unresolveCategory(report, current, c.ID)
			m.repairError(report, ownerID, valueobject.EntityKindCategory, c.Name, err)
			continue
		}
		if !exists {
			dangling = append(dangling, c)
		}
	}
	if len(dangling) == 0 {
		return report, nil
	}

	sort.SliceStable(dangling, func(i, j int) bool {
		return categoryDepth(dangling[i], byID) < categoryDepth(dangling[j], byID)
	})

	relinked := make(map[int64]bool)
	for _, c := range dangling {
		before := *c.RemoteID

		var parentRemoteID *int64
		if c.ParentID != nil {
			if _, known := byID[*c.ParentID]; known {
				id, ok := current[*c.ParentID]
				if !ok {
					m.unresolveCategory(report, current, c.ID)
					m.repairError(report, ownerID, valueobject.EntityKindCategory, c.Name, domainerror.ErrParentNotSynced)
					continue
				}
				parentRemoteID = &id
			}
		}

		res, err := m.resolver.ResolveOrCreate(ctx, entity.NewRemoteCategory(c, ownerRemoteID, parentRemoteID))
		if err != nil {
			m.unresolveCategory(report, current, c.ID)
			m.repairError(report, ownerID, valueobject.EntityKindCategory, c.Name, err)
			continue
		}
		if err := m.local.SetCategoryRemoteID(ctx, c.ID, res.RemoteID); err != nil {
			m.unresolveCategory(report, current, c.ID)
			m.repairError(report, ownerID, valueobject.EntityKindCategory, c.Name, err)
			continue
		}

		after := res.RemoteID
		c.RemoteID = &after
		current[c.ID] = after
		relinked[c.ID] = true
		m.record(report, ownerID, valueobject.RepairRecord{
			Kind:           valueobject.EntityKindCategory,
			LocalID:        c.ID,
			Label:          c.Name,
			BeforeRemoteID: before,
			AfterRemoteID:  after,
		})
	}

	for _, c := range categories {
		if c.ParentID == nil || !relinked[*c.ParentID] {
			continue
		}
		childRemoteID, ok := current[c.ID]
		if !ok {
			continue
		}
		parentRemoteID := current[*c.ParentID]
		if err := m.remote.UpdateCategoryParent(ctx, childRemoteID, &parentRemoteID); err != nil {
			m.repairError(report, ownerID, valueobject.EntityKindCategory, c.Name,
				fmt.Errorf("failed to re-point parent link: %w", err))
			continue
		}
		m.audit.Info("category parent link re-pointed",
			"owner_id", ownerID,
			"label", c.Name,
			"remote_id", childRemoteID,
			"parent_remote_id", parentRemoteID,
		)
	}

	return report, nil
}

// unresolveCategory drops a category's remote id from the working set so no
// child is re-created under it.
func (m *MappingRepairer) unresolveCategory(report *RepairReport, current map[int64]int64, localID int64) {
	report.Unresolved[localID] = true
	delete(current, localID)
}

func (m *MappingRepairer) record(report *RepairReport, ownerID int64, repair valueobject.RepairRecord) {
	report.Repairs = append(report.Repairs, repair)
	m.audit.Info("mapping repaired",
		"owner_id", ownerID,
		"kind", repair.Kind,
		"local_id", repair.LocalID,
		"label", repair.Label,
		"before_remote_id", repair.BeforeRemoteID,
		"after_remote_id", repair.AfterRemoteID,
	)
}

func (m *MappingRepairer) repairError(report *RepairReport, ownerID int64, kind valueobject.EntityKind, label string, err error) {
	report.Errors = append(report.Errors, fmt.Sprintf("repair %s '%s': %v", kind, label, err))

	failure := classifyError(err)
	m.audit.Warn("mapping repair failed",
		"owner_id", ownerID,
		"kind", kind,
		"label", label,
		"error", err,
		"code", domainerror.ErrCodeRepairFailed,
		"failure_code", failure.Code,
		"retryable", failure.Retryable,
	)
}

// categoryDepth counts ancestors reachable through byID. The walk is bounded
// by the number of categories so a parent cycle cannot loop forever.
func categoryDepth(c *entity.Category, byID map[int64]*entity.Category) int {
	depth := 0
	for cur := c; cur.ParentID != nil && depth < len(byID); depth++ {
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		cur = parent
	}
	return depth
}
