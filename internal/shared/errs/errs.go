// Package errs defines the error taxonomy shared by the domain packages.
// Domain errors wrap one of the sentinels below so that the HTTP boundary can
// map any error to a status with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with the given message that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation returns a formatted validation error.
func Validation(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a "<what> not found" error.
func NotFound(what string) error {
	return &kindError{kind: ErrNotFound, msg: what + " not found"}
}

// Conflict returns a formatted conflict error.
func Conflict(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Provider wraps a provider failure so it matches ErrProviderUnavailable
// while keeping the original cause reachable through errors.As.
func Provider(op string, cause error) error {
	return &providerError{op: op, cause: cause}
}

type providerError struct {
	op    string
	cause error
}

func (e *providerError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.cause)
}

func (e *providerError) Unwrap() []error {
	return []error{ErrProviderUnavailable, e.cause}
}

// Message returns the client-safe message for a classified error, and false
// for errors outside the taxonomy.
func Message(err error) (string, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg, true
	}
	var pe *providerError
	if errors.As(err, &pe) {
		return "bank data provider unavailable", true
	}
	return "", false
}
