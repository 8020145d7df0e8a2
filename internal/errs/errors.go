// Package errs provides the unified error type used across dbdesk.
//
// The database drivers, the service layer, the object store and the HTTP
// surface all report failures as *errs.Error. Callers branch on the kind
// through the Is* predicates and never need to import driver packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindTimeout, "statement timed out", err)
//
//	// At the boundary, check the kind:
//	if errs.IsNotConnected(err) {
//	    http.Error(w, err.Error(), http.StatusConflict)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing driver-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotConnected             // no live session
	ErrKindConnectionFailed         // cannot reach or authenticate to the server
	ErrKindStatementFailed          // server rejected the SQL
	ErrKindNotFound                 // introspection target absent
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindInvalidState             // operation not allowed in the current state
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindPermissionDenied         // access denied
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotConnected:
		return "not_connected"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindStatementFailed:
		return "statement_failed"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindInvalidState:
		return "invalid_state"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbdesk subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Label wraps cause with msg while keeping the kind already carried by the
// chain. Causes without a kind are reported as fallback.
func Label(msg string, cause error, fallback ErrKind) *Error {
	kind := KindOf(cause)
	if kind == ErrKindUnknown {
		kind = fallback
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotConnected reports whether err was caused by a missing session.
func IsNotConnected(err error) bool {
	return KindOf(err) == ErrKindNotConnected
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsStatementFailed reports whether the server rejected a statement.
func IsStatementFailed(err error) bool {
	return KindOf(err) == ErrKindStatementFailed
}

// IsNotFound reports whether err represents a missing catalog entry or object.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsInvalidState reports whether the operation was refused in the current state.
func IsInvalidState(err error) bool {
	return KindOf(err) == ErrKindInvalidState
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the outermost ErrKind from the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
