package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrNoRefreshToken     = errors.New("no refresh token on record")
	ErrRefreshRejected    = errors.New("refresh token rejected")

	// Transport errors
	ErrInvalidResponse = errors.New("invalid response from API")
	ErrRequestFailed   = errors.New("request failed")

	// Authorization errors
	ErrForbidden    = errors.New("forbidden")
	ErrUnknownRole  = errors.New("unknown role")
	ErrUnauthorized = errors.New("unauthorized")

	// Storage errors
	ErrStoreUnavailable = errors.New("token store unavailable")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// UserMessager is implemented by errors that carry a message fit for display.
type UserMessager interface {
	UserMessage() string
}

// Message returns a readable message for err, preferring the first error in the
// chain that implements UserMessager.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var um UserMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
