package memory

import (
	"context"
	"sync"
)

// LockArbiter is the in-process buzz lock for single-instance deployments.
// TryAcquire is the compare-and-swap: the first caller against a released
// lock wins, everyone else sees the holder.
type LockArbiter struct {
	mu     sync.Mutex
	holder string
}

func NewLockArbiter() *LockArbiter {
	return &LockArbiter{}
}

func (a *LockArbiter) TryAcquire(_ context.Context, teamID string) (bool, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder != "" {
		return false, a.holder, nil
	}
	a.holder = teamID
	return true, teamID, nil
}

func (a *LockArbiter) Release(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.holder = ""
	return nil
}

// Holder reports the current lock owner, empty when released.
func (a *LockArbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}
