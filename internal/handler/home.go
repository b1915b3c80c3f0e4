package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/service"
)

// Pinger is anything whose health can be checked, such as the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HomeHandler serves the timeline and the health check.
type HomeHandler struct {
	base
	messages *service.MessageService
	db       Pinger
}

func NewHomeHandler(messages *service.MessageService, db Pinger, cookies auth.CookieConfig, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		base:     base{cookies: cookies, logger: logger},
		messages: messages,
		db:       db,
	}
}

// HandleHome renders the timeline for a logged-in user and the landing
// page otherwise.
//
// HTTP: GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	timeline, err := h.messages.Timeline(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	if timeline == nil {
		h.render(w, r, http.StatusOK, "home_anon", nil)
		return
	}
	h.render(w, r, http.StatusOK, "home", timeline)
}

// HandleHealth reports liveness and whether the database answers.
//
// HTTP: GET /healthz
func (h *HomeHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check: database ping failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
