package model

import "time"

// Message is a short post owned by one user.
//
// Author is filled by listing queries that join the users table; it is the
// zero value when the message was loaded on its own.
type Message struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	UserID    string      `json:"userId"`
	Author    UserSummary `json:"author"`
}

// DirectMessage is an unthreaded note from one user to another. It shows up
// in the listings of both the sender and the recipient.
type DirectMessage struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	SenderID    string      `json:"senderId"`
	RecipientID string      `json:"recipientId"`
	CreatedAt   time.Time   `json:"createdAt"`
	Sender      UserSummary `json:"sender"`
	Recipient   UserSummary `json:"recipient"`
}

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
