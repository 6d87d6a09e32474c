// Package apperror defines the error kinds surfaced by the service layer.
// Handlers never inspect repository errors directly; services translate
// them into an *Error whose Kind decides the HTTP status at the boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// Internal is an unexpected failure (storage, signing, ...).
	Internal Kind = iota
	// Validation is a malformed or out-of-range input.
	Validation
	// Authentication means the caller is not (or no longer) identified.
	Authentication
	// PermissionDenied means the caller is identified but not allowed.
	PermissionDenied
	// NotFound means the addressed resource does not exist.
	NotFound
	// Conflict means the request clashes with current state.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case PermissionDenied:
		return "permission_denied"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the application error type. Message is safe to show to
// clients; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // per-field messages for Validation
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind onto a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// E wraps err as an Internal error.
func E(message string, err error) *Error { return New(Internal, message, err) }

// Invalid creates a Validation error without field details.
func Invalid(message string) *Error { return New(Validation, message, nil) }

// Field creates a Validation error for a single field.
func Field(field, message string) *Error {
	return &Error{
		Kind:    Validation,
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

// Fields creates a Validation error carrying several field messages.
func Fields(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "validation failed", Fields: fields}
}

// Unauthenticated creates an Authentication error.
func Unauthenticated(message string) *Error { return New(Authentication, message, nil) }

// Forbidden creates a PermissionDenied error.
func Forbidden(message string) *Error { return New(PermissionDenied, message, nil) }

// Missing creates a NotFound error.
func Missing(message string) *Error { return New(NotFound, message, nil) }

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
