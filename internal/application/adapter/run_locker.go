package adapter

import "context"

// RunLocker serializes sync runs per owner.
type RunLocker interface {
	// Acquire takes the owner's lock. Returns domainerror.ErrSyncInProgress when held elsewhere.
	// The returned release func is safe to call once.
	Acquire(ctx context.Context, ownerID int64) (release func(), err error)
}
