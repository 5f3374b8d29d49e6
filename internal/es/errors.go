package es

import (
	"errors"
	"fmt"
)

var (
	// ErrConcurrencyConflict is matched by every *ConcurrencyError.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrDuplicateEntity is returned when one batch names the same entity twice.
	ErrDuplicateEntity = errors.New("entity appears more than once in batch")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ConcurrencyError reports that an entity's durable version moved on since the
// caller read it. Callers should re-read the history and retry.
type ConcurrencyError struct {
	Entity   CanonicalEntityID
	Expected EntityVersion
	Actual   EntityVersion

	// Err is the underlying driver error when the conflict was detected by
	// the database rather than by the version check.
	Err error
}

func (e *ConcurrencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("concurrency conflict on %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("concurrency conflict on %s: expected %s, found %s", e.Entity, e.Expected, e.Actual)
}

func (e *ConcurrencyError) Is(target error) bool { return target == ErrConcurrencyConflict }

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// TypeMismatchError reports that the durable type of an entity differs from
// the type the caller asked for.
type TypeMismatchError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("entity %s has type %q, expected %q", e.ID, e.Actual, e.Expected)
}

// ValidationError reports a violated precondition on an input value or an
// aggregate's state. Nothing has been written when it is returned.
type ValidationError struct {
	Message string
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// IsConcurrencyConflict reports whether err is or wraps a concurrency conflict.
func IsConcurrencyConflict(err error) bool { return errors.Is(err, ErrConcurrencyConflict) }

// IsTypeMismatch reports whether err is or wraps a *TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
