package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	// KindAuth covers bad credentials and expired or invalid tokens.
	KindAuth ErrorKind = "auth"
	// KindValidation covers requests rejected before reaching the network.
	KindValidation ErrorKind = "validation"
	// KindHTTP covers any other non-2xx response.
	KindHTTP ErrorKind = "http"
	// KindNetwork covers transport failures and timeouts.
	KindNetwork ErrorKind = "network"
	// KindNotFound covers operations on an id no longer present server-side.
	KindNotFound ErrorKind = "not_found"
)

// Error is the discriminated result every failed call resolves to. No call
// returns an untyped error past this boundary.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status, 0 for validation and network errors
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationError builds a validation failure for input rejected before
// any network call is made.
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNetworkError wraps a transport-level failure, timeouts included.
func NewNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

// NewHTTPError classifies a non-2xx response by status code.
func NewHTTPError(status int, message string) *Error {
	kind := KindHTTP
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// AsError extracts the typed error from an error chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is a typed error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}
