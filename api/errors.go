package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind string

const (
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	NotFound     Kind = "not_found"
	Invalid      Kind = "invalid"
	Network      Kind = "network"
	ServerError  Kind = "server_error"
)

// Error is returned by every Client method that fails.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	case e.Message != "":
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == Network || e.Kind == ServerError
}

// KindOf extracts the failure kind, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindOfStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status >= 500:
		return ServerError
	default:
		return Invalid
	}
}

func networkError(err error) *Error {
	return &Error{Kind: Network, err: err}
}
