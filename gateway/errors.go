package gateway

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/edu-console/internal/errors"
)

const defaultAuthDetail = "invalid credentials"

// AuthenticationError is returned when the backend rejects login credentials.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Detail
}

func (e *AuthenticationError) UserMessage() string {
	return e.Detail
}

func (e *AuthenticationError) Unwrap() error {
	return apperrors.ErrInvalidCredentials
}

// APIError is any non-2xx response other than an authorization failure that
// the gateway resolves itself. Status is 0 when no response was received.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: API error %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: API error %d", e.Method, e.Path, e.Status)
}

func (e *APIError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Status == 0 {
		return "Could not reach the server"
	}
	return fmt.Sprintf("API Error: %d", e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because an attempt timed out.
func (e *APIError) Timeout() bool {
	return e.Status == 0 && apperrors.Is(e.Err, context.DeadlineExceeded)
}

// SessionExpiredError is returned when an authorization failure could not be
// recovered by refreshing. Both tokens have been discarded by the time it is
// returned.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause != nil {
		return "session expired: " + e.Cause.Error()
	}
	return "session expired"
}

func (e *SessionExpiredError) UserMessage() string {
	return "Your session has expired. Please log in again."
}

func (e *SessionExpiredError) Unwrap() []error {
	if e.Cause == nil {
		return []error{apperrors.ErrSessionExpired}
	}
	return []error{apperrors.ErrSessionExpired, e.Cause}
}

// sentinelFor maps a status to the shared error it should match.
func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	default:
		return apperrors.ErrRequestFailed
	}
}

func transportError(method, path string, err error) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Err:    fmt.Errorf("%w: %w", apperrors.ErrRequestFailed, err),
	}
}

func statusError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Detail: parseDetail(body),
		Err:    sentinelFor(status),
	}
}
