package repo

import "fmt"

// ========================
// ERROR TAXONOMY
// ========================
//
// Every mutation surfaces one of these three error kinds, or the raw
// storage error (connection lost, disk full) untouched. The repo never
// retries and never logs; callers decide what to do with each kind.

// ValidationError means the caller's input violated a precondition
// (blank asset tag, no updatable field left). It is always raised
// before any write is attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError means a storage-level uniqueness constraint rejected the
// write, e.g. a duplicate asset tag on create. The underlying driver
// error is kept and exposed via Unwrap.
type ConflictError struct {
	Msg   string
	Cause error
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConflictError) Unwrap() error { return e.Cause }

// NotFoundError means a keyed update/retire/transition matched zero rows.
// It is raised strictly after the write was attempted.
type NotFoundError struct {
	Tag string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset %q not found", e.Tag)
}
