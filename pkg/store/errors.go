package store

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, backend-independent classification of a store
// failure. Callers branch on codes, never on driver error types; the
// backends are responsible for mapping their native errors onto these.
type ErrorCode string

const (
	// ErrCodeDuplicateKey maps unique-constraint violations (SQLSTATE 23505,
	// SurrealDB index conflicts).
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"
	// ErrCodeForeignKey maps referential-integrity violations (SQLSTATE 23503).
	ErrCodeForeignKey ErrorCode = "FOREIGN_KEY_VIOLATION"
	// ErrCodePermissionDenied maps insufficient-privilege errors (SQLSTATE 42501).
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeNotFound marks operations that require an existing row and did
	// not find one. Single-row lookups never return this; they return
	// (nil, nil) on a miss.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeNotImplemented marks operations the active backend does not
	// support. The router logs these loudly; they must never degrade into a
	// silent empty result.
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"
	// ErrCodeDatabase is the fallback classification for everything else.
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// Error is the taxonomy error returned by every store implementation.
// It wraps the backend's original error for logging while exposing only the
// stable code to callers.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so
// errors.Is(err, store.ErrNotImplemented) works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError builds a taxonomy error wrapping cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Sentinels for errors.Is checks against the taxonomy codes.
var (
	ErrDuplicateKey     = &Error{Code: ErrCodeDuplicateKey}
	ErrForeignKey       = &Error{Code: ErrCodeForeignKey}
	ErrPermissionDenied = &Error{Code: ErrCodePermissionDenied}
	ErrNotFound         = &Error{Code: ErrCodeNotFound}
	ErrNotImplemented   = &Error{Code: ErrCodeNotImplemented}
	ErrDatabase         = &Error{Code: ErrCodeDatabase}
)

// NotImplemented builds the typed error for an operation the active backend
// does not support.
func NotImplemented(op string) *Error {
	return &Error{Code: ErrCodeNotImplemented, Message: fmt.Sprintf("%s is not implemented by this backend", op)}
}

// CodeOf extracts the taxonomy code from err, or ErrCodeDatabase when err is
// not a store error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeDatabase
}
