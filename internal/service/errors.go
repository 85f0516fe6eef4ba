package service

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; every *Error unwraps to one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// Client-facing messages.
const (
	msgEmailInUse         = "Email in use"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidToken       = "invalid or expired token"
	msgForbidden          = "Forbidden"
	msgNotFound           = "Not found"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// Error is a classified domain failure.
type Error struct {
	Kind   error
	Msg    string
	Fields []FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Message is the text safe to show to clients.
func (e *Error) Message() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func validationError(fields ...FieldError) error {
	return &Error{Kind: ErrValidation, Msg: "validation failed", Fields: fields}
}

func conflictError(msg string) error {
	return &Error{Kind: ErrConflict, Msg: msg}
}

func invalidCredentials() error {
	return &Error{Kind: ErrInvalidCredentials, Msg: msgInvalidCredentials}
}

func unauthenticated() error {
	return &Error{Kind: ErrUnauthenticated, Msg: msgInvalidToken}
}

func forbidden() error {
	return &Error{Kind: ErrForbidden, Msg: msgForbidden}
}

func notFound() error {
	return &Error{Kind: ErrNotFound, Msg: msgNotFound}
}
