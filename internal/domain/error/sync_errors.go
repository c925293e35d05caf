// Package error defines domain-specific errors for the sync engine.
package error

import "errors"

// Sync domain errors.
var (
	// ErrUserNotFound is returned when the local owner does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRemoteUnavailable is returned when the remote store cannot be reached.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrSyncInProgress is returned when another run holds the owner's lock.
	ErrSyncInProgress = errors.New("sync already in progress for owner")

	// ErrDuplicateKey is returned by the remote store when an insert hits a unique constraint.
	ErrDuplicateKey = errors.New("duplicate natural key")

	// ErrRemoteRowMissing is returned when a row is neither found nor created remotely.
	ErrRemoteRowMissing = errors.New("remote row missing after insert conflict")

	// ErrParentNotSynced is reported for categories whose parent never resolved.
	ErrParentNotSynced = errors.New("parent not synced")

	// ErrParentTypeMismatch is returned when a category's parent has a different type.
	ErrParentTypeMismatch = errors.New("parent category type mismatch")

	// ErrInvalidTransactionAmount is returned for negative amounts.
	ErrInvalidTransactionAmount = errors.New("invalid transaction amount")

	// ErrInvalidEntityType is returned when an account, category or transaction type is unknown.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidStateTransition is returned when the run state machine is driven out of order.
	ErrInvalidStateTransition = errors.New("invalid sync state transition")
)

// SyncErrorCode defines error codes for sync errors.
// Format: SYN-XXYYYY where XX is the severity class and YYYY the specific error.
type SyncErrorCode string

const (
	// Fatal, run-aborting (01XXXX)
	ErrCodeUserNotFound      SyncErrorCode = "SYN-010001"
	ErrCodeRemoteUnavailable SyncErrorCode = "SYN-010002"
	ErrCodeUserLinkFailed    SyncErrorCode = "SYN-010003"
	ErrCodeSyncInProgress    SyncErrorCode = "SYN-010004"
	ErrCodeLocalStoreFailed  SyncErrorCode = "SYN-010005"
	ErrCodeLockUnavailable   SyncErrorCode = "SYN-010006"
	ErrCodeRunAborted        SyncErrorCode = "SYN-010007"

	// Row-scoped, recoverable (02XXXX)
	ErrCodeResolveFailed     SyncErrorCode = "SYN-020001"
	ErrCodeLocalUpdateFailed SyncErrorCode = "SYN-020002"
	ErrCodeValidationFailed  SyncErrorCode = "SYN-020003"
	ErrCodeRepairFailed      SyncErrorCode = "SYN-020004"

	// Deferred, structural (03XXXX)
	ErrCodeParentNotSynced SyncErrorCode = "SYN-030001"

	// Trigger, request-level (04XXXX)
	ErrCodeInvalidOwnerID SyncErrorCode = "SYN-040001"
	ErrCodeRateLimited    SyncErrorCode = "SYN-040002"
)

// SyncError represents a sync error with code and message.
type SyncError struct {
	Code    SyncErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error aborts a run.
func (e *SyncError) IsFatal() bool {
	return len(e.Code) >= 6 && e.Code[4:6] == "01"
}

// NewSyncError creates a new SyncError with the given code and message.
func NewSyncError(code SyncErrorCode, message string, err error) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
