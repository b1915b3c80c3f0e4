package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sakif/warbler/internal/auth"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

const flashCookieName = "flash"

// Flash is a one-shot message carried to the next page view.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// addFlash appends a message to the flash cookie. Messages queued earlier
// in the same response are kept.
func addFlash(w http.ResponseWriter, r *http.Request, cookies auth.CookieConfig, category, message string) {
	flashes := pendingFlashes(w, r)
	flashes = append(flashes, Flash{Category: category, Message: message})

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	setFlashCookie(w, cookies, base64.RawURLEncoding.EncodeToString(raw), 0)
}

// consumeFlashes returns the pending messages and clears the cookie.
func consumeFlashes(w http.ResponseWriter, r *http.Request, cookies auth.CookieConfig) []Flash {
	flashes := pendingFlashes(w, r)
	if len(flashes) > 0 {
		setFlashCookie(w, cookies, "", -1)
	}
	return flashes
}

// pendingFlashes reads flashes queued in this response, falling back to
// the request cookie.
func pendingFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	value := ""
	if c, err := r.Cookie(flashCookieName); err == nil {
		value = c.Value
	}
	for _, sc := range w.Header().Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(sc); err == nil && c.Name == flashCookieName {
			value = c.Value
		}
	}

	flashes := []Flash{}
	if value == "" {
		return flashes
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return flashes
	}
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return []Flash{}
	}
	return flashes
}

func setFlashCookie(w http.ResponseWriter, cookies auth.CookieConfig, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
