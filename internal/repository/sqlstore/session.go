package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.SessionStore = (*DB)(nil)

// CreateSession stores a new session for userID. Session IDs are random
// UUIDs rather than xids, which are predictable.
func (db *DB) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	now := time.Now().UTC()
	s := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := db.exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: creating session for %s: %w", userID, err)
	}
	return s, nil
}

// GetSession returns a live session. Expired rows are deleted on sight.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := db.queryRow(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlstore: getting session: %w", err)
	}

	if s.Expired(time.Now()) {
		if err := db.DeleteSession(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("session", id)
	}
	return &s, nil
}

// DeleteSession is idempotent.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: deleting session: %w", err)
	}
	return nil
}

func (db *DB) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := db.exec(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlstore: deleting sessions of %s: %w", userID, err)
	}
	return nil
}
