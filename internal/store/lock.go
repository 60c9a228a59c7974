package store

import (
	"github.com/gofrs/flock"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// StoreLock is an advisory exclusive lock on the store's .lock file. All
// mutating engine operations acquire it for the full duration of the
// logical operation; reads may proceed without it.
type StoreLock struct {
	fl *flock.Flock
}

// NewStoreLock returns a lock handle for the given layout's lock file. It
// does not acquire the lock.
func NewStoreLock(layout *Layout) *StoreLock {
	return &StoreLock{fl: flock.New(layout.LockFile())}
}

// Acquire blocks until the lock is held.
func (l *StoreLock) Acquire() error {
	if err := l.fl.Lock(); err != nil {
		return errs.Wrap(errs.ErrLockFailed, "acquiring store lock: %w", err)
	}
	return nil
}

// TryAcquire returns immediately: true if the lock was obtained, false if
// another process already holds it.
func (l *StoreLock) TryAcquire() (bool, error) {
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, errs.Wrap(errs.ErrLockFailed, "trying store lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call on a lock that was never acquired.
func (l *StoreLock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return errs.Wrap(errs.ErrIO, "releasing store lock: %w", err)
	}
	return nil
}
