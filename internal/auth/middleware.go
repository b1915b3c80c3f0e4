package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/repository"
)

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "warbler_session"

// contextKey is unexported so no other package can read or overwrite the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated user behind a request.
type Identity struct {
	UserID    string
	SessionID string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity resolved by LoadIdentity.
// ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext is IdentityFromContext for callers that only need the
// user id. It returns "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

// LoadIdentity resolves the session cookie into an Identity for every
// request. It never rejects a request: anonymous callers pass through and
// the guards in the service layer decide what they may do.
//
// A cookie is only trusted when its signature verifies AND its session
// record still exists. A cookie that fails either check is expired on the
// response so the browser stops sending it.
func LoadIdentity(tokens *TokenService, sessions repository.SessionStore, cookies CookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolve(r.Context(), tokens, sessions, cookie.Value)
			if err != nil {
				if !errors.Is(err, ErrTokenExpired) && !errors.Is(err, apperror.ErrNotFound) {
					logger.Warn("discarding session cookie", slog.String("error", err.Error()))
				}
				cookies.ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func resolve(ctx context.Context, tokens *TokenService, sessions repository.SessionStore, raw string) (Identity, error) {
	claims, err := tokens.Validate(raw)
	if err != nil {
		return Identity{}, err
	}

	sess, err := sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return Identity{}, err
	}
	if sess.UserID != claims.UserID {
		return Identity{}, errors.New("auth: session belongs to a different user")
	}

	return Identity{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// CookieConfig holds the attributes shared by every cookie the app sets.
// Secure should be true whenever the app is served over HTTPS.
type CookieConfig struct {
	Secure bool
}

// SetSession stores the signed token as an HttpOnly cookie expiring with
// the session.
func (c CookieConfig) SetSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession tells the browser to drop the session cookie.
func (c CookieConfig) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
