package storage

import (
	"errors"

	"github.com/jon4hz/moodiary/internal/storage/driver"
)

var (
	// ErrDuplicateUsername is returned when registering a name that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrNotFound is returned when an addressed entry does not exist.
	ErrNotFound = driver.ErrNotFound
	// ErrValidationEmpty is returned when a required value is blank.
	ErrValidationEmpty = errors.New("value must not be empty")
	// ErrBackend wraps failures of the active backend.
	ErrBackend = errors.New("backend error")
)

// Error carries a localized message next to the sentinel it wraps.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
