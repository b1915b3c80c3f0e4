package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/policy"
	"github.com/sakif/warbler/internal/service"
)

// MessageHandler serves message creation, display, deletion and likes.
type MessageHandler struct {
	base
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService, cookies auth.CookieConfig, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		base:     base{cookies: cookies, logger: logger},
		messages: messages,
	}
}

// HandleNewForm renders the compose form for a logged-in user.
//
// HTTP: GET /messages/new
func (h *MessageHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	actor := identity(r)
	if err := policy.Authorize(policy.CreateMessage, actor, policy.Owner(auth.UserIDFromContext(r.Context()))); err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "messages_new", nil)
}

// HandleCreate posts a message.
//
// HTTP: POST /messages/new (text)
func (h *MessageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "Malformed form body"), "/messages/new")
		return
	}

	msg, err := h.messages.Create(r.Context(), identity(r), r.PostForm.Get("text"))
	if err != nil {
		h.fail(w, r, err, "/messages/new")
		return
	}
	h.redirect(w, r, "/users/"+msg.UserID)
}

// HTTP: GET /messages/{id}
func (h *MessageHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "messages_show", msg)
}

// HandleDelete deletes a message owned by the caller.
//
// HTTP: POST /messages/{id}/delete
func (h *MessageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor := identity(r)
	if err := h.messages.Delete(r.Context(), actor, urlParam(r, "id")); err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.redirect(w, r, "/users/"+actor.UserID)
}

// HandleLike toggles the caller's like on a message.
//
// HTTP: POST /messages/{id}/like
func (h *MessageHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	if _, err := h.messages.ToggleLike(r.Context(), identity(r), urlParam(r, "id")); err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.redirect(w, r, "/")
}
