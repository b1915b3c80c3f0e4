package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.DirectMessageRepository = (*DB)(nil)

func (db *DB) CreateDirectMessage(ctx context.Context, dm *model.DirectMessage) error {
	dm.ID = xid.New().String()
	if dm.CreatedAt.IsZero() {
		dm.CreatedAt = time.Now().UTC()
	}

	_, err := db.exec(ctx,
		`INSERT INTO direct_messages (id, text, sender_id, recipient_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		dm.ID,
		dm.Text,
		dm.SenderID,
		dm.RecipientID,
		dm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting direct message %s -> %s: %w", dm.SenderID, dm.RecipientID, err)
	}
	return nil
}

func (db *DB) ListDirectMessages(ctx context.Context, userID string) ([]model.DirectMessage, error) {
	rows, err := db.query(ctx,
		`SELECT d.id, d.text, d.sender_id, d.recipient_id, d.created_at,
		        s.username, s.image_url, r.username, r.image_url
		 FROM direct_messages d
		 JOIN users s ON s.id = d.sender_id
		 JOIN users r ON r.id = d.recipient_id
		 WHERE d.sender_id = ? OR d.recipient_id = ?
		 ORDER BY d.created_at DESC, d.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing direct messages for %s: %w", userID, err)
	}
	defer rows.Close()

	dms := make([]model.DirectMessage, 0)
	for rows.Next() {
		var d model.DirectMessage
		if err := rows.Scan(
			&d.ID, &d.Text, &d.SenderID, &d.RecipientID, &d.CreatedAt,
			&d.Sender.Username, &d.Sender.ImageURL,
			&d.Recipient.Username, &d.Recipient.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning direct message row: %w", err)
		}
		d.Sender.ID = d.SenderID
		d.Recipient.ID = d.RecipientID
		dms = append(dms, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating direct messages: %w", err)
	}
	return dms, nil
}
