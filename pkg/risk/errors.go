package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyUserID is returned when a tracker or audit operation is
	// attempted without a user identifier.
	ErrEmptyUserID = errors.New("user id is required")

	// ErrNilEvent is returned when a nil crisis event is recorded.
	ErrNilEvent = errors.New("crisis event is nil")
)

// InvalidInputError reports input that violates the engine's typed contract,
// e.g. text containing invalid UTF-8.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// VocabularyError reports a vocabulary table that failed to load or parse.
type VocabularyError struct {
	Source string // file path or "embedded"
	Err    error
}

func (e *VocabularyError) Error() string {
	return fmt.Sprintf("vocabulary %s: %v", e.Source, e.Err)
}

func (e *VocabularyError) Unwrap() error { return e.Err }
