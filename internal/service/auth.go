package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/policy"
	"github.com/sakif/warbler/internal/repository"
)

// DefaultSessionTTL is used when NewAuthService is given a zero ttl.
const DefaultSessionTTL = 7 * 24 * time.Hour

// BadPasswordMessage is shown when a profile edit carries the wrong
// current password.
const BadPasswordMessage = "Bad password"

// AuthService owns accounts and sessions: signup, login, logout, profile
// edits and account deletion.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionStore
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	ttl       time.Duration
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionStore,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		ttl:       ttl,
		logger:    logger,
	}
}

// SignupInput is the signup form.
type SignupInput struct {
	Username string
	Password string
	Email    string
	ImageURL string
}

// AuthResult bundles a logged-in user with the signed token for the
// session cookie.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Signup validates the form, hashes the password and creates the user.
// A taken username or email is returned as apperror.DuplicateIdentity and
// leaves the existing row untouched.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ImageURL:     orDefault(in.ImageURL, model.DefaultImageURL),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate returns the user when username and password match, and
// (nil, nil) when they do not. An unknown username and a wrong password
// are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}
	return user, nil
}

// Login starts a session for user and signs the cookie token for it.
func (s *AuthService) Login(ctx context.Context, user *model.User) (*AuthResult, error) {
	sess, err := s.sessions.CreateSession(ctx, user.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating session for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(user.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout revokes the caller's session. It is a no-op for anonymous callers.
func (s *AuthService) Logout(ctx context.Context, actor *auth.Identity) error {
	if actor == nil || actor.SessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, actor.SessionID); err != nil {
		return fmt.Errorf("service/auth: revoking session: %w", err)
	}
	s.logger.Info("user logged out", slog.String("userID", actor.UserID))
	return nil
}

// CurrentUser loads the caller's own record.
func (s *AuthService) CurrentUser(ctx context.Context, actor *auth.Identity) (*model.User, error) {
	if err := policy.Authorize(policy.EditProfile, actor, policy.Owner(actorID(actor))); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, actor.UserID)
}

// ProfileInput is the profile edit form. Password is the current password
// and must verify before anything changes.
type ProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Password       string
}

// UpdateProfile edits the caller's own profile. Blank image fields fall
// back to the defaults.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *auth.Identity, in ProfileInput) (*model.User, error) {
	user, err := s.CurrentUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredentials(BadPasswordMessage)
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}

	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}

	user.Username = username
	user.Email = email
	user.ImageURL = orDefault(in.ImageURL, model.DefaultImageURL)
	user.HeaderImageURL = orDefault(in.HeaderImageURL, model.DefaultHeaderImageURL)
	user.Bio = strings.TrimSpace(in.Bio)

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: updating user %s: %w", user.ID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

// DeleteAccount revokes every session of the caller and deletes the user.
// Messages, follows, likes and direct messages go with it.
func (s *AuthService) DeleteAccount(ctx context.Context, actor *auth.Identity) error {
	if err := policy.Authorize(policy.DeleteAccount, actor, policy.Owner(actorID(actor))); err != nil {
		return err
	}

	if err := s.sessions.DeleteUserSessions(ctx, actor.UserID); err != nil {
		return fmt.Errorf("service/auth: revoking sessions of %s: %w", actor.UserID, err)
	}
	if err := s.users.DeleteUser(ctx, actor.UserID); err != nil {
		return fmt.Errorf("service/auth: deleting user %s: %w", actor.UserID, err)
	}

	s.logger.Info("account deleted", slog.String("userID", actor.UserID))
	return nil
}
