package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/service"
)

// InvalidCredentialsMessage is the login failure text. It never says which
// of username or password was wrong.
const InvalidCredentialsMessage = "Invalid credentials."

// AuthHandler serves signup, login, logout and the account pages.
//
// ROUTES:
//   - GET/POST /signup
//   - GET/POST /login
//   - POST     /logout
//   - GET/POST /users/profile
//   - POST     /users/delete
type AuthHandler struct {
	base
	auth *service.AuthService
}

func NewAuthHandler(authService *service.AuthService, cookies auth.CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		base: base{cookies: cookies, logger: logger},
		auth: authService,
	}
}

// HandleSignupForm renders the empty signup form.
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", nil)
}

// HandleSignup creates the account and logs the new user in.
//
// HTTP: POST /signup (username, password, email, image_url)
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "Malformed form body"), "/signup")
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupInput{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Email:    r.PostForm.Get("email"),
		ImageURL: r.PostForm.Get("image_url"),
	})
	if err != nil {
		h.fail(w, r, err, "/signup")
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		h.fail(w, r, err, "/signup")
		return
	}
	h.redirect(w, r, "/")
}

// HandleLoginForm renders the empty login form.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", nil)
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /login (username, password)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "Malformed form body"), "/login")
		return
	}

	user, err := h.auth.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		h.fail(w, r, err, "/login")
		return
	}
	if user == nil {
		h.logger.Info("login failed", slog.String("username", r.PostForm.Get("username")))
		h.fail(w, r, apperror.InvalidCredentials(InvalidCredentialsMessage), "/login")
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		h.fail(w, r, err, "/login")
		return
	}
	addFlash(w, r, h.cookies, FlashSuccess, fmt.Sprintf("Hello, %s!", user.Username))
	h.redirect(w, r, "/")
}

// HandleLogout revokes the session and clears the cookie. It works for
// anonymous callers too, so it can always be retried.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), identity(r)); err != nil {
		h.logger.Error("logout: revoking session failed", slog.String("error", err.Error()))
	}
	h.cookies.ClearSession(w)
	addFlash(w, r, h.cookies, FlashSuccess, "Logged out")
	h.redirect(w, r, "/login")
}

// profileForm is the edit form populated with the current values.
type profileForm struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	ImageURL       string `json:"imageUrl"`
	HeaderImageURL string `json:"headerImageUrl"`
	Bio            string `json:"bio"`
}

// HandleProfileForm renders the caller's profile edit form.
//
// HTTP: GET /users/profile
func (h *AuthHandler) HandleProfileForm(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.render(w, r, http.StatusOK, "profile_edit", profileForm{
		Username:       user.Username,
		Email:          user.Email,
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            user.Bio,
	})
}

// HandleProfileUpdate saves the profile form. The current password is
// required.
//
// HTTP: POST /users/profile
func (h *AuthHandler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, apperror.ValidationFailed("form", "Malformed form body"), "/users/profile")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), identity(r), service.ProfileInput{
		Username:       r.PostForm.Get("username"),
		Email:          r.PostForm.Get("email"),
		ImageURL:       r.PostForm.Get("image_url"),
		HeaderImageURL: r.PostForm.Get("header_image_url"),
		Bio:            r.PostForm.Get("bio"),
		Password:       r.PostForm.Get("password"),
	})
	if err != nil {
		h.fail(w, r, err, "/users/profile")
		return
	}

	addFlash(w, r, h.cookies, FlashSuccess, fmt.Sprintf("%s updated", user.Username))
	h.redirect(w, r, "/users/"+user.ID)
}

// HandleDeleteAccount deletes the caller's account and everything it owns.
//
// HTTP: POST /users/delete
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteAccount(r.Context(), identity(r)); err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.cookies.ClearSession(w)
	h.redirect(w, r, "/signup")
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) error {
	res, err := h.auth.Login(r.Context(), user)
	if err != nil {
		return err
	}
	h.cookies.SetSession(w, res.Token, res.ExpiresAt)
	return nil
}
