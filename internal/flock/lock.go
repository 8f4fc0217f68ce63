package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/docsign/internal/constants"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// Lock is an exclusive advisory lock held on a dedicated lock file.
// A Lock is not safe for concurrent use; create one per acquisition.
type Lock struct {
	path     string
	interval time.Duration
	file     *os.File
}

// New creates a Lock for the given lock file path. The file is created on Acquire.
func New(path string) *Lock {
	return &Lock{path: path, interval: constants.LockRetryInterval}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire polls for the exclusive lock until it is held, the timeout elapses,
// or ctx is canceled. Timeout expiry returns ErrLockTimedOut.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // G304: path is built by the caller from a sanitized name
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}

		if err := Exclusive(f.Fd()); err == nil {
			l.file = f
			return nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return fmt.Errorf("%w after %v: %s", dserrors.ErrLockTimedOut, timeout, l.path)
		}

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release unlocks and closes the lock file. Releasing an unheld Lock is a no-op.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = Unlock(l.file.Fd())
	err := l.file.Close()
	l.file = nil
	return err
}
