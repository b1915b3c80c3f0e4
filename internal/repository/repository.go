// Package repository declares the persistence contracts used by the service
// layer. Implementations live in sub-packages (sqlstore, redisstore).
package repository

import (
	"context"
	"time"

	"github.com/sakif/warbler/internal/model"
)

// TimelineLimit is the fixed number of messages returned by feed and
// profile listings. There is no pagination beyond it.
const TimelineLimit = 100

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, search string) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	UserStats(ctx context.Context, id string) (*model.UserStats, error)
}

// FollowRepository manages the follows edge table. Both mutations are
// idempotent.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	ListFollowing(ctx context.Context, userID string) ([]model.User, error)
	ListFollowers(ctx context.Context, userID string) ([]model.User, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	ListMessagesByUser(ctx context.Context, userID string, limit int) ([]model.Message, error)
	// Timeline returns messages owned by userID or by anyone userID
	// follows, newest first.
	Timeline(ctx context.Context, userID string, limit int) ([]model.Message, error)
}

type LikeRepository interface {
	// ToggleLike removes the (user, message) edge if present and adds it
	// otherwise. It reports whether the message is liked afterwards.
	ToggleLike(ctx context.Context, userID, messageID string) (bool, error)
	ListLikedMessages(ctx context.Context, userID string) ([]model.Message, error)
}

type DirectMessageRepository interface {
	CreateDirectMessage(ctx context.Context, dm *model.DirectMessage) error
	// ListDirectMessages returns every direct message userID sent or
	// received, newest first.
	ListDirectMessages(ctx context.Context, userID string) ([]model.DirectMessage, error)
}

// SessionStore keeps the server-side session records. Get returns an
// apperror.ErrNotFound error for unknown or expired sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// Store is everything the services need from one database.
type Store interface {
	UserRepository
	FollowRepository
	MessageRepository
	LikeRepository
	DirectMessageRepository
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}
