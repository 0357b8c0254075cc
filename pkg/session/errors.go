package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPool means pool assembly produced no questions at all
	// (no bank entries, no custom cards, community unavailable).
	ErrEmptyPool = errors.New("question pool is empty")

	// ErrNoSession is returned by engine operations that require an
	// active session when none was begun or restored.
	ErrNoSession = errors.New("no active session")

	// ErrUnknownMode is returned for a mode outside the known pools.
	ErrUnknownMode = errors.New("unknown session mode")
)

// InvalidLevelError reports a level request outside [MinLevel, MaxLevel].
// A request for a valid-but-locked level is NOT an error; the switch is
// simply a silent no-op.
type InvalidLevelError struct {
	Level int
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("level %d out of range [%d, %d]", e.Level, MinLevel, MaxLevel)
}

// DegradedFetchWarning reports that the community card fetch failed and
// the pool was assembled from base+custom only. Recoverable: callers may
// toast or log it, but execution is not interrupted.
type DegradedFetchWarning struct {
	Err error
}

func (w *DegradedFetchWarning) Error() string {
	return fmt.Sprintf("community cards unavailable, pool degraded: %v", w.Err)
}

func (w *DegradedFetchWarning) Unwrap() error { return w.Err }

// PersistenceWriteError reports a failed store write. The in-memory
// session keeps working; callers decide whether to warn the user about
// the durability loss. The engine does not retry.
type PersistenceWriteError struct {
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("session state could not be saved: %v", e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }
