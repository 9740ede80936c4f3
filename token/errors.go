package token

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageFailure is matched by every backend error returned from a
	// Store. It is never returned for a token that simply does not exist.
	ErrStorageFailure = errors.New("token storage failure")

	// ErrIDCollision is returned when Create could not find an unused id.
	ErrIDCollision = errors.New("token id collision")
)

// StorageError wraps a backend error with the store operation that failed.
type StorageError struct {
	// Op is the store operation, e.g. "load", "create" or "delete".
	Op string

	// Err is the underlying backend error.
	Err error
}

// NewStorageError wraps err as a StorageError for op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

// Unwrap returns the backend error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrStorageFailure.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}
