package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

func TestToSyncResultResponse(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	userRemoteID := int64(42)

	output := &remotesync.RunSyncOutput{SyncResult: valueobject.SyncResult{
		Success:            true,
		State:              valueobject.RunStateComplete,
		OwnerID:            7,
		UserRemoteID:       &userRemoteID,
		AccountsSynced:     1,
		CategoriesSynced:   2,
		TransactionsSynced: 3,
		AccountsRepaired:   1,
		Repairs: []valueobject.RepairRecord{
			{Kind: valueobject.EntityKindAccount, LocalID: 1, Label: "Cash", BeforeRemoteID: 5, AfterRemoteID: 9},
		},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}}

	resp := ToSyncResultResponse(output)

	if resp.State != "COMPLETE" || !resp.Success || resp.OwnerID != 7 {
		t.Errorf("unexpected header fields: %+v", resp)
	}
	if resp.DurationMs != 1500 {
		t.Errorf("expected 1500ms, got %d", resp.DurationMs)
	}
	if len(resp.Repairs) != 1 || resp.Repairs[0].Kind != "account" || resp.Repairs[0].AfterRemoteID != 9 {
		t.Errorf("unexpected repairs: %+v", resp.Repairs)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if errs, ok := decoded["errors"].([]any); !ok || len(errs) != 0 {
		t.Errorf("expected an empty errors array, got %v", decoded["errors"])
	}
	if decoded["user_remote_id"] != float64(42) {
		t.Errorf("expected user_remote_id 42, got %v", decoded["user_remote_id"])
	}
}
