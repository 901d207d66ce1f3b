package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("services: not found")
	// ErrForbidden indicates the caller may not act on the entity.
	ErrForbidden = errors.New("services: forbidden")
	// ErrEmailTaken indicates the email address is already registered.
	ErrEmailTaken = errors.New("services: email already registered")
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("services: invalid credentials")
	// ErrInvalidRefreshToken indicates the refresh token failed verification
	// or was revoked by a token version bump.
	ErrInvalidRefreshToken = errors.New("services: invalid refresh token")
	// ErrCounterUnavailable indicates the sequence store could not be reached.
	// Callers must fail the operation rather than substitute a value.
	ErrCounterUnavailable = errors.New("services: counter store unavailable")
	// ErrInvalidSequenceValue indicates a negative sequence was passed to the
	// invoice formatter.
	ErrInvalidSequenceValue = errors.New("services: invalid sequence value")
	// ErrMissingAddress indicates no shipping address could be resolved from
	// the request, the address book, or the profile.
	ErrMissingAddress = errors.New("services: no shipping address available")
	// ErrUnknownOrderStatus indicates a status outside the recognised set.
	ErrUnknownOrderStatus = errors.New("services: unknown order status")
)

// ValidationError accumulates every offending field of a request so callers
// can report them all at once.
type ValidationError struct {
	Fields []FieldError
}

// FieldError names a single invalid field.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records an offending field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ErrOrNil returns the error when any field was recorded.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
