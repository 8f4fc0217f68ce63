// Package flock provides cross-platform advisory file locks.
//
// Exclusive and Unlock are the raw non-blocking primitives. Lock wraps them
// with a lock file path, a timeout, and context cancellation, and is what the
// file key store uses to serialize create-if-absent across processes.
//
// Usage:
//
//	lock := flock.New(path + ".lock")
//	if err := lock.Acquire(ctx, 5*time.Second); err != nil {
//	    return err
//	}
//	defer func() { _ = lock.Release() }()
package flock
