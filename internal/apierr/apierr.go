// Package apierr defines the error taxonomy shared by services and HTTP
// handlers, and the mapping from error kind to HTTP status.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error
type Kind uint

const (
	KindUnknown Kind = iota
	// KindValidation - bad or missing input (400)
	KindValidation
	// KindNotFound - row absent or not owned by the caller (404)
	KindNotFound
	// KindQuoteUnavailable - upstream quote fetch failed while blocking a write (400)
	KindQuoteUnavailable
	// KindUpstream - third-party API failure on a read-only proxy (500)
	KindUpstream
	// KindAuth - missing or invalid bearer token (401)
	KindAuth
)

// Error carries a user-facing message, a kind and an optional cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so callers can use errors.Is with sentinel values
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// StatusCode maps the error kind to an HTTP status
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindQuoteUnavailable:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error (400)
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound creates a not-found error (404)
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// QuoteUnavailable creates a quote-fetch failure that blocks a write (400)
func QuoteUnavailable(message string, err error) *Error {
	return &Error{Kind: KindQuoteUnavailable, Message: message, Err: err}
}

// Upstream creates a generic third-party failure (500)
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// Auth creates an authentication error (401)
func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// StatusFor returns the HTTP status for any error; non-taxonomy errors are
// treated as unexpected internal failures.
func StatusFor(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of any error, KindUnknown for non-taxonomy errors
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// MessageFor returns the user-facing message for any error. Unexpected
// internal errors are masked with a generic message so internals never leak
// to clients.
func MessageFor(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Internal server error"
}
