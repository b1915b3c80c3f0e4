package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("message", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("text", "text is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "DuplicateIdentity wraps ErrConflict",
			err:       DuplicateIdentity(),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized(),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("You can not follow yourself!"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading profile: %w", NotFound("user", "u1")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials does NOT match ErrValidation",
			err:       InvalidCredentials("Bad password"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("email", "Invalid email address."),
			wantMessage: "Invalid email address.",
		},
		{
			name:        "Unauthorized is generic",
			err:         Unauthorized(),
			wantMessage: "Access unauthorized.",
		},
		{
			name:        "DuplicateIdentity",
			err:         DuplicateIdentity(),
			wantMessage: "Username or email already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("message", "abc123")

	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestFieldIsCarried(t *testing.T) {
	if err := ValidationFailed("email", "invalid email format"); err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if err := InvalidCredentials("Bad password"); err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
}

func TestDuplicateIdentityNamesNoField(t *testing.T) {
	if err := DuplicateIdentity(); err.Field != "" {
		t.Errorf("Field = %q, want empty: the duplicate may be the email", err.Field)
	}
}
