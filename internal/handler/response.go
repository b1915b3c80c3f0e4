package handler

// RESPONSE HELPERS:
// GET routes answer a JSON view model (the data a template would render).
// Successful POST routes answer 303 See Other so a browser reload never
// resubmits the form. Failures are mapped centrally by fail.
//
// ERROR MAPPING:
//
//	ErrValidation         → 400 {"error":"validation_error", "message", "field"}
//	ErrConflict           → 409 + danger flash
//	ErrUnauthorized       → 303 to "/" with "Access unauthorized."
//	ErrForbidden          → 303 to the handler's fallback with the error text
//	ErrNotFound           → 404
//	ErrInvalidCredentials → 401
//	anything else         → 500, details only in the log

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/middleware"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// View is the envelope of every GET response.
type View struct {
	Name          string  `json:"view"`
	CSRFToken     string  `json:"csrfToken"`
	CurrentUserID string  `json:"currentUserId,omitempty"`
	Flashes       []Flash `json:"flashes"`
	Data          any     `json:"data,omitempty"`
}

// base carries what every handler needs to write responses.
type base struct {
	cookies auth.CookieConfig
	logger  *slog.Logger
}

// render writes a view, consuming any pending flash messages.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	v := View{
		Name:          name,
		CSRFToken:     middleware.CSRFToken(r.Context()),
		CurrentUserID: auth.UserIDFromContext(r.Context()),
		Flashes:       consumeFlashes(w, r, b.cookies),
		Data:          data,
	}
	writeJSON(w, status, v)
}

// redirect answers 303 See Other to target.
func (b *base) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail maps err to a response. fallback is where ErrForbidden redirects.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		b.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		addFlash(w, r, b.cookies, FlashDanger, apperror.UnauthorizedMessage)
		b.redirect(w, r, "/")

	case errors.Is(err, apperror.ErrForbidden):
		addFlash(w, r, b.cookies, FlashDanger, appErr.Message)
		b.redirect(w, r, fallback)

	case errors.Is(err, apperror.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{"validation_error", appErr.Message, appErr.Field})

	case errors.Is(err, apperror.ErrConflict):
		addFlash(w, r, b.cookies, FlashDanger, appErr.Message)
		writeJSON(w, http.StatusConflict, ErrorResponse{"conflict", appErr.Message, appErr.Field})

	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: appErr.Message})

	case errors.Is(err, apperror.ErrInvalidCredentials):
		addFlash(w, r, b.cookies, FlashDanger, appErr.Message)
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{"invalid_credentials", appErr.Message, appErr.Field})

	default:
		b.logger.Error("unmapped application error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// writeJSON sets headers and status before encoding; nothing can change
// them once the body has started.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// identity returns the caller, or nil for an anonymous request.
func identity(r *http.Request) *auth.Identity {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
