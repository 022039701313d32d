// Package locker provides per-key mutual exclusion for process instance updates.
package locker

import (
	"context"
	"errors"
)

var (
	ErrEmptyKey    = errors.New("lock key is empty")
	ErrLockNotHeld = errors.New("lock is not held")
)

// Unlock releases a lock obtained from Locker.Lock. Calling it more than once is a no-op.
type Unlock func()

// Locker serializes work on a key. Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// InstanceKey is the lock key guarding a process instance.
func InstanceKey(instanceID string) string {
	return "bizflow:instance:" + instanceID
}
