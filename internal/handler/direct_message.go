package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/service"
)

type DirectMessageHandler struct {
	base
	dms *service.DirectMessageService
}

func NewDirectMessageHandler(dms *service.DirectMessageService, cookies auth.CookieConfig, logger *slog.Logger) *DirectMessageHandler {
	return &DirectMessageHandler{
		base: base{cookies: cookies, logger: logger},
		dms:  dms,
	}
}

// HandleForm renders the recipient choices and the conversation.
//
// HTTP: GET /direct_message/new
func (h *DirectMessageHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.dms.Form(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "direct_message_new", form)
}

// HandleSend sends a direct message.
//
// HTTP: POST /direct_message/new (recipient, text)
func (h *DirectMessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "Malformed form body"), "/direct_message/new")
		return
	}

	_, err := h.dms.Send(r.Context(), identity(r), r.PostForm.Get("recipient"), r.PostForm.Get("text"))
	if err != nil {
		h.fail(w, r, err, "/direct_message/new")
		return
	}
	h.redirect(w, r, "/direct_message/new")
}
