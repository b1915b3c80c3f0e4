package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

type csrfContextKey struct{}

// CSRFToken returns the token for the current visitor, to be echoed in
// forms. It is empty outside the CSRF middleware.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// CSRF implements the double-submit cookie pattern. Every visitor gets a
// random token cookie; every unsafe request must send the same value back
// in the csrf_token form field or the X-CSRF-Token header. A cross-site
// form can make the browser send the cookie but cannot read it, so it can
// not produce the matching field.
//
// Paths in exempt skip the check.
func CSRF(secure bool, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
				token = c.Value
			}

			if !isSafeMethod(r.Method) && !skip[r.URL.Path] {
				submitted := r.Header.Get(CSRFHeaderName)
				if submitted == "" {
					submitted = r.PostFormValue(CSRFFieldName)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) != 1 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte(`{"error":"forbidden","message":"CSRF token missing or invalid"}`))
					return
				}
			}

			if token == "" {
				token = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
