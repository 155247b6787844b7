package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across store implementations.
var (
	// ErrConversationNotFound is returned when an operation references an
	// unknown conversation id and auto-creation was not requested.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationArchived is returned when appending to an archived
	// conversation.
	ErrConversationArchived = errors.New("conversation is archived")
)

// PersistenceError wraps a failure of a backing store operation. Persistence
// failures are values, not control flow: callers retry at most once and then
// treat the failure as fatal for that single operation only.
type PersistenceError struct {
	Op  string // store operation, e.g. "append", "history"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err with the failing store operation.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
