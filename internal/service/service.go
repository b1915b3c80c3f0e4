// Package service contains the business rules of Warbler.
//
//	Handler (HTTP) → Service (validation, guards) → Repository (SQL/Redis)
//
// Every method that acts on behalf of someone takes the caller's identity as
// an explicit *auth.Identity parameter (nil for an anonymous visitor) and
// runs policy.Authorize before touching the store. Services know nothing
// about HTTP: they return apperror values and the handler layer maps them.
package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
)

// Validation limits.
const (
	MaxUsernameLength = 30
	MinPasswordLength = 6
	MaxMessageLength  = 140
)

// validateUsername trims and checks a username.
func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "Username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be %d characters or less", MaxUsernameLength))
	}
	return username, nil
}

// validateEmail accepts a bare RFC 5322 address. Display-name forms such as
// "Bob <bob@example.com>" are rejected.
func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "E-mail is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "Invalid e-mail address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	return nil
}

func validateMessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "Message text is required")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", apperror.ValidationFailed("text",
			fmt.Sprintf("Message must be %d characters or less", MaxMessageLength))
	}
	return text, nil
}

// orDefault returns fallback when s is blank.
func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
