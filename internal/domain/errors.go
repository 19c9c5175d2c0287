// Package domain holds the Mnemosyne entities, their validation rules and
// the error vocabulary shared by every layer. Nothing here knows about HTTP
// or SQL; adapters translate domain errors into their own status codes.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every typed error below unwraps to exactly one of these, so
// callers classify failures with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
)

// Failures with a fixed meaning across the service.
var (
	ErrAlreadyLiked        = &ConflictError{Entity: "like", Reason: "quote already liked"}
	ErrAlreadyFollowing    = &ConflictError{Entity: "follow", Reason: "already following this user"}
	ErrSelfFollow          = &ValidationError{Field: "userId", Message: "cannot follow yourself"}
	ErrAlreadyInCollection = &ConflictError{Entity: "collection", Reason: "quote already in collection"}
	ErrEmailTaken          = &ConflictError{Entity: "user", Reason: "email already registered"}
	ErrUsernameTaken       = &ConflictError{Entity: "user", Reason: "username already taken"}
	ErrNotLiked            = &NotFoundError{Entity: "like"}
	ErrNotFollowing        = &NotFoundError{Entity: "follow"}
	ErrInvalidCredentials  = &UnauthenticatedError{Reason: "invalid email or password"}
	ErrInvalidToken        = &UnauthenticatedError{Reason: "invalid or expired token"}
	ErrLikesPrivate        = &ForbiddenError{Operation: "view likes", Reason: "likes are private"}
)

// NotFoundError reports a missing entity, optionally by ID.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError reports that entity id does not exist.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a uniqueness or state clash on Entity.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Entity + " conflict: " + e.Reason
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError reports a clash on entity.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports rejected input. Field and Message hold the first
// problem; Fields lists all of them when several fields failed together.
// Value, when set, is the offending input.
type ValidationError struct {
	Field   string
	Message string
	Value   any
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder

	b.WriteString("validation failed")

	switch {
	case len(e.Fields) > 1:
		b.WriteString(": ")

		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString("; ")
			}

			b.WriteString(f.Field + ": " + f.Message)
		}
	case e.Field != "":
		b.WriteString(" for " + e.Field + ": " + e.Message)
	default:
		b.WriteString(": " + e.Message)
	}

	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FieldErrors lists every rejected field, or nil for a message-only error.
func (e *ValidationError) FieldErrors() []FieldError {
	switch {
	case len(e.Fields) > 0:
		return e.Fields
	case e.Field != "":
		return []FieldError{{Field: e.Field, Message: e.Message}}
	default:
		return nil
	}
}

// NewValidationError rejects a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue rejects a single field and records its value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// NewValidationErrors rejects several fields at once. With no fields it
// reports generic invalid input.
func NewValidationErrors(fields []FieldError) error {
	if len(fields) == 0 {
		return &ValidationError{Message: "invalid input"}
	}

	return &ValidationError{Field: fields[0].Field, Message: fields[0].Message, Fields: fields}
}

// ForbiddenError reports an authenticated caller that may not perform Operation.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	msg := fmt.Sprintf("operation %q forbidden", e.Operation)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError refuses operation for reason.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnauthenticatedError reports a missing or unverifiable caller identity.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}

	return e.Reason
}

func (e *UnauthenticatedError) Unwrap() error { return ErrUnauthenticated }

// NewUnauthenticatedError reports an authentication failure.
func NewUnauthenticatedError(reason string) error {
	return &UnauthenticatedError{Reason: reason}
}

// UnavailableError reports a dependency that could not serve the request.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("service %q unavailable", e.Service)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError reports that service could not be reached or used.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
func IsUnavailable(err error) bool     { return errors.Is(err, ErrUnavailable) }
