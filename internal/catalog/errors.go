package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced product, version or category is absent.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when the access policy refuses the operation.
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError reports a submitted value the caller has to correct.
type ValidationError struct {
	Field  string
	Reason string
	// Word is the banned word that triggered the error, if any.
	Word string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage failure during a write. The enclosing
// transaction has been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
