// Package remotesync contains the local-to-remote reconciliation use cases.
package remotesync

import (
	"context"
	"errors"
	"strings"

	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

// Failure codes attached to row-scoped audit entries.
const (
	FailureRemoteTimeout     = "REMOTE_TIMEOUT"
	FailureRemoteUnavailable = "REMOTE_UNAVAILABLE"
	FailureConstraint        = "REMOTE_CONSTRAINT"
	FailureValidation        = "VALIDATION"
	FailureUnknown           = "UNKNOWN"
)

// rowFailure classifies why a single row did not sync. Retryable failures are
// expected to succeed on a later run without local changes.
type rowFailure struct {
	Code      string
	Retryable bool
}

// classifyError maps a row error to a failure code and a retryable flag.
func classifyError(err error) rowFailure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return rowFailure{Code: FailureRemoteTimeout, Retryable: true}
	}

	if errors.Is(err, domainerror.ErrInvalidTransactionAmount) ||
		errors.Is(err, domainerror.ErrInvalidEntityType) ||
		errors.Is(err, domainerror.ErrParentTypeMismatch) {
		return rowFailure{Code: FailureValidation, Retryable: false}
	}

	if errors.Is(err, domainerror.ErrDuplicateKey) || errors.Is(err, domainerror.ErrRemoteRowMissing) {
		return rowFailure{Code: FailureConstraint, Retryable: true}
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dial") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "eof") {
		return rowFailure{Code: FailureRemoteUnavailable, Retryable: true}
	}

	if strings.Contains(errStr, "constraint") || strings.Contains(errStr, "violates") ||
		strings.Contains(errStr, "foreign key") || strings.Contains(errStr, "not null") {
		return rowFailure{Code: FailureConstraint, Retryable: false}
	}

	return rowFailure{Code: FailureUnknown, Retryable: true}
}

// rowErrorCode picks the SYN-02 code recorded for a row failure. A coded
// error keeps its own code.
func rowErrorCode(err error, failure rowFailure) domainerror.SyncErrorCode {
	var syncErr *domainerror.SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Code
	}
	if failure.Code == FailureValidation {
		return domainerror.ErrCodeValidationFailed
	}
	return domainerror.ErrCodeResolveFailed
}
