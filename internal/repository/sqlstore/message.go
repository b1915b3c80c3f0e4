package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.MessageRepository = (*DB)(nil)

// messageSelect joins each message with its author so listings can show
// who wrote it without a second query.
const messageSelect = `SELECT m.id, m.text, m.created_at, m.user_id, u.username, u.image_url
	FROM messages m
	JOIN users u ON u.id = m.user_id`

func scanMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(
		&m.ID,
		&m.Text,
		&m.CreatedAt,
		&m.UserID,
		&m.Author.Username,
		&m.Author.ImageURL,
	); err != nil {
		return nil, err
	}
	m.Author.ID = m.UserID
	return &m, nil
}

// CreateMessage inserts msg. CreatedAt defaults to now; seeding and tests
// may preset it.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := db.exec(ctx,
		`INSERT INTO messages (id, text, created_at, user_id) VALUES (?, ?, ?, ?)`,
		msg.ID,
		msg.Text,
		msg.CreatedAt,
		msg.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting message for user %s: %w", msg.UserID, err)
	}
	return nil
}

func (db *DB) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	m, err := scanMessage(db.queryRow(ctx, messageSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlstore: getting message %s: %w", id, err)
	}
	return m, nil
}

// DeleteMessage removes a message and, by cascade, its likes.
func (db *DB) DeleteMessage(ctx context.Context, id string) error {
	res, err := db.exec(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting message %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting message %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("message", id)
	}
	return nil
}

func (db *DB) ListMessagesByUser(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	return db.listMessages(ctx, messageSelect+`
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`,
		userID, clampLimit(limit),
	)
}

func (db *DB) Timeline(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	return db.listMessages(ctx, messageSelect+`
		WHERE m.user_id = ?
		   OR m.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`,
		userID, userID, clampLimit(limit),
	)
}

func (db *DB) listMessages(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning message row: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating messages: %w", err)
	}
	return messages, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > repository.TimelineLimit {
		return repository.TimelineLimit
	}
	return limit
}
