// Package model defines the data structures used throughout the application.
package model

import "time"

// Defaults applied when a user leaves an image field blank.
const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User represents a registered account.
//
// PasswordHash is a bcrypt hash and is never serialised. The plaintext
// password is never stored anywhere.
type User struct {
	ID             string    `json:"id"             db:"id"`
	Username       string    `json:"username"       db:"username"`
	Email          string    `json:"email"          db:"email"`
	PasswordHash   string    `json:"-"              db:"password_hash"`
	ImageURL       string    `json:"imageUrl"       db:"image_url"`
	HeaderImageURL string    `json:"headerImageUrl" db:"header_image_url"`
	Bio            string    `json:"bio"            db:"bio"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}

// Summary returns the public subset embedded in message listings.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL}
}

// UserSummary is the author information attached to messages.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

// UserStats holds the counters shown on a profile.
type UserStats struct {
	Messages  int `json:"messages"`
	Following int `json:"following"`
	Followers int `json:"followers"`
	Likes     int `json:"likes"`
}
