// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services and repositories return *AppError values that wrap one of the
// sentinel errors below. Handlers use errors.Is against the sentinels to
// choose an HTTP status, and AppError.Message as the client-facing text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("Validation Error")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicate         = errors.New("duplicate")
	ErrEventInPast       = errors.New("event in past")
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrTxAborted marks a transaction the store refused to commit because a
	// concurrent writer held the lock. Callers may retry.
	ErrTxAborted = errors.New("transaction aborted")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-supplied (usually localised) message.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized covers bad credentials and missing/invalid session tokens.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Duplicate reports a uniqueness violation on field (email, username).
func Duplicate(field, message string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: message,
		Field:   field,
	}
}

func EventInPast(message string) *AppError {
	return &AppError{
		Err:     ErrEventInPast,
		Message: message,
	}
}

func AlreadyRegistered(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyRegistered,
		Message: message,
	}
}

// TxAborted wraps the store error that caused the abort so it stays visible
// in logs while the client only sees message.
func TxAborted(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTxAborted, cause),
		Message: message,
	}
}
