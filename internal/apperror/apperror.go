// Package apperror defines the domain errors shared by the service and
// handler layers. Services return these; handlers map them to HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UnauthorizedMessage is the only text shown for a failed guard, whether the
// visitor is anonymous or simply not allowed to touch the resource.
const UnauthorizedMessage = "Access unauthorized."

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

// DuplicateIdentity is returned when a username or email is already taken.
// Callers treat it as recoverable: the form is shown again with the message.
// Field is left empty because the store cannot tell which column collided.
func DuplicateIdentity() *AppError {
	return Conflict("", "Username or email already taken")
}

// Forbidden returns an AppError for an action the caller may never perform
// on this target (following or liking yourself). Unlike Unauthorized, the
// message is meant to be shown to the user as-is.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is the generic guard failure. It deliberately carries the
// same message for "not logged in" and "not yours".
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: UnauthorizedMessage,
	}
}

func InvalidCredentials(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: message,
		Field:   "password",
	}
}
