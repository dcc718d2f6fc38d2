package services

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the HTTP layer maps each kind to one status code.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error is a classified failure with a message safe to show to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }
