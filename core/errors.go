package core

import "github.com/pkg/errors"

// Error kinds. Every domain error carries exactly one of them.
var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
)

// Error is a domain error: a Kind from the list above plus a human readable message.
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (err *Error) Error() string {
	if err.Message == "" {
		return err.Kind.Error()
	}
	return err.Message
}

// Is reports whether target is this error's kind, so errors.Is(err, core.ErrNotFound) works.
func (err *Error) Is(target error) bool {
	return err.Kind == target
}

// KindOf returns the kind of err, or nil if err is not a domain error.
func KindOf(err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return nil
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
