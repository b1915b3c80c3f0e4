package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/service"
)

// UserHandler serves the user directory, profiles, the follow graph and
// likes pages, and the follow mutations.
type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, cookies auth.CookieConfig, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		base:  base{cookies: cookies, logger: logger},
		users: users,
	}
}

// HandleList lists users, optionally filtered by ?q=.
//
// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	users, err := h.users.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "users_index", map[string]any{
		"query": q,
		"users": users,
	})
}

// HandleShow renders a profile.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), identity(r), urlParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "users_show", profile)
}

// HTTP: GET /users/{id}/following
func (h *UserHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.Following(r.Context(), identity(r), urlParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "users_following", list)
}

// HTTP: GET /users/{id}/followers
func (h *UserHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.Followers(r.Context(), identity(r), urlParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "users_followers", list)
}

// HTTP: GET /users/{id}/likes
func (h *UserHandler) HandleLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.users.Likes(r.Context(), identity(r), urlParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "users_likes", likes)
}

// HandleFollow follows the user in the path.
//
// HTTP: POST /users/follow/{id}
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	actor := identity(r)
	if err := h.users.Follow(r.Context(), actor, urlParam(r, "id")); err != nil {
		h.fail(w, r, err, followingPath(actor))
		return
	}
	h.redirect(w, r, followingPath(actor))
}

// HandleStopFollowing removes the follow edge to the user in the path.
//
// HTTP: POST /users/stop-following/{id}
func (h *UserHandler) HandleStopFollowing(w http.ResponseWriter, r *http.Request) {
	actor := identity(r)
	if err := h.users.Unfollow(r.Context(), actor, urlParam(r, "id")); err != nil {
		h.fail(w, r, err, followingPath(actor))
		return
	}
	h.redirect(w, r, followingPath(actor))
}

func followingPath(actor *auth.Identity) string {
	if actor == nil {
		return "/"
	}
	return "/users/" + actor.UserID + "/following"
}
