package dto

import (
	"time"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// RepairResponse describes one re-linked local row.
type RepairResponse struct {
	Kind           string `json:"kind"`
	LocalID        int64  `json:"local_id"`
	Label          string `json:"label"`
	BeforeRemoteID int64  `json:"before_remote_id"`
	AfterRemoteID  int64  `json:"after_remote_id"`
}

// SyncResultResponse represents the outcome of a sync run in API responses.
type SyncResultResponse struct {
	Success             bool             `json:"success"`
	State               string           `json:"state"`
	OwnerID             int64            `json:"owner_id"`
	UserRemoteID        *int64           `json:"user_remote_id,omitempty"`
	AccountsSynced      int              `json:"accounts_synced"`
	CategoriesSynced    int              `json:"categories_synced"`
	CategoriesSkipped   int              `json:"categories_skipped"`
	TransactionsSynced  int              `json:"transactions_synced"`
	TransactionsPending int              `json:"transactions_pending"`
	AccountsRepaired    int              `json:"accounts_repaired"`
	CategoriesRepaired  int              `json:"categories_repaired"`
	Errors              []string         `json:"errors"`
	Repairs             []RepairResponse `json:"repairs"`
	StartedAt           time.Time        `json:"started_at"`
	FinishedAt          time.Time        `json:"finished_at"`
	DurationMs          int64            `json:"duration_ms"`
}

// ToSyncResultResponse converts a sync run output to a SyncResultResponse DTO.
func ToSyncResultResponse(output *remotesync.RunSyncOutput) SyncResultResponse {
	result := output.SyncResult

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	return SyncResultResponse{
		Success:             result.Success,
		State:               string(result.State),
		OwnerID:             result.OwnerID,
		UserRemoteID:        result.UserRemoteID,
		AccountsSynced:      result.AccountsSynced,
		CategoriesSynced:    result.CategoriesSynced,
		CategoriesSkipped:   result.CategoriesSkipped,
		TransactionsSynced:  result.TransactionsSynced,
		TransactionsPending: result.TransactionsPending,
		AccountsRepaired:    result.AccountsRepaired,
		CategoriesRepaired:  result.CategoriesRepaired,
		Errors:              errs,
		Repairs:             toRepairResponses(result.Repairs),
		StartedAt:           result.StartedAt,
		FinishedAt:          result.FinishedAt,
		DurationMs:          result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}
}

func toRepairResponses(repairs []valueobject.RepairRecord) []RepairResponse {
	responses := make([]RepairResponse, 0, len(repairs))
	for _, r := range repairs {
		responses = append(responses, RepairResponse{
			Kind:           string(r.Kind),
			LocalID:        r.LocalID,
			Label:          r.Label,
			BeforeRemoteID: r.BeforeRemoteID,
			AfterRemoteID:  r.AfterRemoteID,
		})
	}
	return responses
}

// SyncFailureResponse represents a failed sync run together with its partial result.
type SyncFailureResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Result *SyncResultResponse `json:"result,omitempty"`
}
