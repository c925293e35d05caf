package valueobject

import "time"

// RunState is a state of the per-run sync state machine.
type RunState string

const (
	RunStateStart            RunState = "START"
	RunStateUserLinked       RunState = "USER_LINKED"
	RunStateAccountsDone     RunState = "ACCOUNTS_DONE"
	RunStateCategoriesDone   RunState = "CATEGORIES_DONE"
	RunStateTransactionsDone RunState = "TRANSACTIONS_DONE"
	RunStateComplete         RunState = "COMPLETE"
	RunStateFailed           RunState = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s RunState) IsTerminal() bool {
	return s == RunStateComplete || s == RunStateFailed
}

// RepairRecord describes one re-linked local row.
type RepairRecord struct {
	Kind           EntityKind
	LocalID        int64
	Label          string
	BeforeRemoteID int64
	AfterRemoteID  int64
}

// SyncResult is the aggregate outcome of one sync run.
type SyncResult struct {
	Success             bool
	State               RunState
	OwnerID             int64
	UserRemoteID        *int64
	AccountsSynced      int
	CategoriesSynced    int
	CategoriesSkipped   int
	TransactionsSynced  int
	TransactionsPending int
	AccountsRepaired    int
	CategoriesRepaired  int
	Errors              []string
	Repairs             []RepairRecord
	StartedAt           time.Time
	FinishedAt          time.Time
}
