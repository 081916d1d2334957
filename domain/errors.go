package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record matches both id and owner. Records
// owned by someone else are reported the same way as missing ones.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput marks requests rejected before any write.
var ErrInvalidInput = errors.New("invalid input")

// ErrConcurrencyConflict indicates that the underlying storage rejected an
// update because a newer version of the collection is already persisted.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return InvalidInputError{Field: field, Reason: reason}
}
