// Package apperr defines the error taxonomy surfaced to clients.
// Services return these (wrapped or bare); controllers match them with
// errors.Is and map them to HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed        = errors.New("invalid login or password")
	ErrDuplicateIdentity = errors.New("username or email already registered")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnavailable       = errors.New("service unavailable")
)

// InvalidArgument wraps ErrInvalidArgument with a caller-facing reason.
func InvalidArgument(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, reason)
}

// Forbidden wraps ErrForbidden with a caller-facing reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Conflict wraps ErrConflict with a caller-facing reason.
func Conflict(reason string) error {
	return fmt.Errorf("%w: %s", ErrConflict, reason)
}
