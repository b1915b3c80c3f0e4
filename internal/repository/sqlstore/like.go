package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// ToggleLike flips membership of the (user, message) edge in one
// transaction. The primary key on the pair means a racing double toggle can
// never leave two rows behind.
func (db *DB) ToggleLike(ctx context.Context, userID, messageID string) (bool, error) {
	var liked bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			db.rebind(`DELETE FROM likes WHERE user_id = ? AND message_id = ?`),
			userID, messageID,
		)
		if err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n > 0 {
			liked = false
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			db.rebind(`INSERT INTO likes (user_id, message_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
			userID, messageID,
		); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("sqlstore: toggling like %s on %s: %w", userID, messageID, err)
	}
	return liked, nil
}

// ListLikedMessages returns the messages userID likes, newest first.
func (db *DB) ListLikedMessages(ctx context.Context, userID string) ([]model.Message, error) {
	return db.listMessages(ctx, messageSelect+`
		JOIN likes l ON l.message_id = m.id
		WHERE l.user_id = ?
		ORDER BY m.created_at DESC, m.id DESC`,
		userID,
	)
}
