package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

// MemoryLocker is an in-process implementation of adapter.RunLocker, used
// when Redis is not configured.
type MemoryLocker struct {
	mu     sync.Mutex
	owners map[int64]string
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		owners: make(map[int64]string),
	}
}

// Acquire takes the owner's lock or returns domainerror.ErrSyncInProgress.
func (l *MemoryLocker) Acquire(_ context.Context, ownerID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.owners[ownerID]; held {
		return nil, domainerror.ErrSyncInProgress
	}

	token := uuid.NewString()
	l.owners[ownerID] = token

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.owners[ownerID] == token {
				delete(l.owners, ownerID)
			}
		})
	}, nil
}
