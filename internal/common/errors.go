// Package common defines the error taxonomy shared by every layer of the
// CRM: sentinel errors matched with errors.Is, and Error, the single
// tagged failure value returned by services.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Access errors.
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidCredentials     = errors.New("invalid credentials")

	// Token codec errors. The access guard collapses both into
	// ErrAuthenticationRequired.
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// Persistence failures. Never shown to the operator verbatim.
	ErrStorage = errors.New("internal error")

	// Input errors.
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
)

// kinds lists the sentinels Error.Kind may hold, in matching order.
var kinds = []error{
	ErrAuthenticationRequired,
	ErrPermissionDenied,
	ErrInvalidCredentials,
	ErrExpiredToken,
	ErrInvalidToken,
	ErrStorage,
	ErrorNotFound,
	ErrAlreadyExists,
	ErrValidation,
}

// Error is a failure result: Kind is one of the sentinels above, Msg is the
// operator-facing detail and Err the underlying cause, if any.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind error, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Is reports whether target is the kind of e, so errors.Is(err, ErrX) works
// for both bare sentinels and tagged errors.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the taxonomy sentinel err belongs to, or nil when err is
// nil or foreign.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// UserMessage renders err for the operator. Storage and foreign errors
// never leak their internals.
func UserMessage(err error) string {
	kind := KindOf(err)
	switch kind {
	case nil, ErrStorage:
		return ErrStorage.Error()
	case ErrAuthenticationRequired, ErrExpiredToken, ErrInvalidToken:
		return "authentication required, please log in"
	case ErrInvalidCredentials:
		return "invalid email or password"
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return fmt.Sprintf("%s: %s", kind, e.Msg)
	}
	return kind.Error()
}
