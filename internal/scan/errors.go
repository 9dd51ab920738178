package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when the submitting user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotFound is returned when a scan lookup finds nothing.
	ErrNotFound = errors.New("scan not found")

	// ErrConflict is returned by a Store when a concurrent transaction won a
	// race on the same aggregate row. The scan is retried.
	ErrConflict = errors.New("aggregation conflict")

	// ErrTransient is returned when conflicts persisted through every retry.
	ErrTransient = errors.New("scan could not be committed, try again")

	// ErrPersistence wraps any other failure after the transaction began.
	// Nothing from the scan is visible when it is returned.
	ErrPersistence = errors.New("scan persistence failed")
)

// ValidationError is returned for a malformed request. Nothing is
// persisted.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
