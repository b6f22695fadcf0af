package board

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// SharedAnalog is an Analog handle that several consumers can hold at once. Consumers take the
// lock around each use; the underlying reader is never touched by two holders concurrently.
type SharedAnalog struct {
	Analog
	sem *semaphore.Weighted
}

// ShareAnalog wraps an analog in a SharedAnalog. Wrapping an existing SharedAnalog returns it
// unchanged so every holder shares the same lock.
func ShareAnalog(a Analog) *SharedAnalog {
	if shared, ok := a.(*SharedAnalog); ok {
		return shared
	}
	return &SharedAnalog{Analog: a, sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the handle is free or ctx is done. A done context always fails, even if the
// handle is free.
func (s *SharedAnalog) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sem.Acquire(ctx, 1)
}

// TryLock takes the handle if it is free.
func (s *SharedAnalog) TryLock() bool {
	return s.sem.TryAcquire(1)
}

// Unlock releases the handle. It panics if the handle is not locked.
func (s *SharedAnalog) Unlock() {
	s.sem.Release(1)
}

// LockError is returned by LockedRead when the handle could not be taken.
type LockError struct {
	Err error
}

func (e *LockError) Error() string {
	return "failed to lock analog: " + e.Err.Error()
}

// Unwrap returns the context error that stopped the lock.
func (e *LockError) Unwrap() error {
	return e.Err
}

// LockedRead takes the lock, reads one value and releases the lock. A failure to take the lock is
// a *LockError; read errors are returned as they are.
func (s *SharedAnalog) LockedRead(ctx context.Context, extra map[string]interface{}) (AnalogValue, error) {
	if err := s.Lock(ctx); err != nil {
		return AnalogValue{}, &LockError{Err: err}
	}
	defer s.Unlock()
	return s.Analog.Read(ctx, extra)
}
