// Package apperrors defines the failure kinds surfaced by the auth and journal services
// and how the API layer maps them to HTTP statuses.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies a service-level failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified service error. Fields carries per-field messages for validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation error. field may be empty for whole-request failures.
func Validation(field, message string) *Error {
	e := &Error{Kind: KindValidation, Message: message}
	if field != "" {
		e.Fields = map[string]string{field: message}
	}
	return e
}

// ValidationFields returns a validation error carrying several field messages.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthenticated deliberately carries a generic message; the cause goes in err for logging only.
func Unauthenticated(message string, err error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps err to the status the API layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
