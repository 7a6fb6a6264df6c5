package client

import (
	"fmt"

	"github.com/calder-io/resilient-client/pkg/scheduler"
)

// Sentinel errors shared with the scheduler: a task that exceeds its
// deadline fails with ErrTimeout, a cancelled task with ErrCancelled.
var (
	ErrTimeout   = scheduler.ErrTimeout
	ErrCancelled = scheduler.ErrCancelled
)

// NetworkError means the transport could not be reached at all: no HTTP
// status was produced.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a non-2xx response. The body is carried verbatim so
// callers can inspect structured error payloads.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ParseError means a payload could not be decoded into the expected type.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// SocketError is a connection-level failure of the persistent socket.
type SocketError struct {
	Err error
}

// Error implements the error interface.
func (e *SocketError) Error() string {
	return fmt.Sprintf("socket error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SocketError) Unwrap() error {
	return e.Err
}

// AuthErrorKind classifies authorization failures.
type AuthErrorKind string

const (
	// AuthUnauthorized is a 401-equivalent response.
	AuthUnauthorized AuthErrorKind = "unauthorized"

	// AuthRefreshFailed means the transparent refresh-and-retry also
	// failed authorization; the session has been cleared.
	AuthRefreshFailed AuthErrorKind = "refresh_failed"
)

// AuthError is an authorization failure.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth %s", e.Kind)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AuthError) Unwrap() error {
	return e.Err
}
