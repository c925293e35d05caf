package remotesync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode string
		expectRetry  bool
	}{
		// Timeout/cancellation errors
		{
			name:         "context deadline exceeded",
			err:          context.DeadlineExceeded,
			expectedCode: FailureRemoteTimeout,
			expectRetry:  true,
		},
		{
			name:         "wrapped context canceled",
			err:          fmt.Errorf("failed to insert: %w", context.Canceled),
			expectedCode: FailureRemoteTimeout,
			expectRetry:  true,
		},
		// Validation errors
		{
			name:         "negative amount",
			err:          fmt.Errorf("%w: -5 is negative", domainerror.ErrInvalidTransactionAmount),
			expectedCode: FailureValidation,
			expectRetry:  false,
		},
		{
			name:         "unknown entity type",
			err:          domainerror.ErrInvalidEntityType,
			expectedCode: FailureValidation,
			expectRetry:  false,
		},
		{
			name:         "parent type mismatch",
			err:          domainerror.ErrParentTypeMismatch,
			expectedCode: FailureValidation,
			expectRetry:  false,
		},
		// Uniqueness races
		{
			name:         "duplicate key",
			err:          domainerror.ErrDuplicateKey,
			expectedCode: FailureConstraint,
			expectRetry:  true,
		},
		{
			name:         "row vanished after conflict",
			err:          fmt.Errorf("transaction(client_uuid=t-1): %w", domainerror.ErrRemoteRowMissing),
			expectedCode: FailureConstraint,
			expectRetry:  true,
		},
		// Network errors
		{
			name:         "connection refused",
			err:          errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			expectedCode: FailureRemoteUnavailable,
			expectRetry:  true,
		},
		{
			name:         "unexpected eof",
			err:          errors.New("unexpected EOF"),
			expectedCode: FailureRemoteUnavailable,
			expectRetry:  true,
		},
		// Constraint errors
		{
			name:         "foreign key violation",
			err:          errors.New("insert violates foreign key constraint \"fk_account\""),
			expectedCode: FailureConstraint,
			expectRetry:  false,
		},
		{
			name:         "not null violation",
			err:          errors.New("null value in column \"name\" violates not null"),
			expectedCode: FailureConstraint,
			expectRetry:  false,
		},
		// Everything else
		{
			name:         "unknown error",
			err:          errors.New("something odd happened"),
			expectedCode: FailureUnknown,
			expectRetry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Code != tt.expectedCode {
				t.Errorf("classifyError() code = %s, want %s", got.Code, tt.expectedCode)
			}
			if got.Retryable != tt.expectRetry {
				t.Errorf("classifyError() retryable = %v, want %v", got.Retryable, tt.expectRetry)
			}
		})
	}
}

func TestRowErrorCode(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode domainerror.SyncErrorCode
	}{
		{
			name:         "negative amount",
			err:          fmt.Errorf("%w: -5 is negative", domainerror.ErrInvalidTransactionAmount),
			expectedCode: domainerror.ErrCodeValidationFailed,
		},
		{
			name:         "remote insert failure",
			err:          errors.New("failed to insert category: connection reset by peer"),
			expectedCode: domainerror.ErrCodeResolveFailed,
		},
		{
			name:         "coded local update failure",
			err:          domainerror.NewSyncError(domainerror.ErrCodeLocalUpdateFailed, "failed to store remote id", errors.New("disk full")),
			expectedCode: domainerror.ErrCodeLocalUpdateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rowErrorCode(tt.err, classifyError(tt.err)); got != tt.expectedCode {
				t.Errorf("expected %s, got %s", tt.expectedCode, got)
			}
		})
	}
}
