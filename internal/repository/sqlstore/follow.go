package sqlstore

import (
	"context"
	"fmt"

	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// Follow adds the follower → followed edge. Following someone twice is a
// no-op.
func (db *DB) Follow(ctx context.Context, followerID, followedID string) error {
	_, err := db.exec(ctx,
		`INSERT INTO follows (follower_id, followed_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: %s following %s: %w", followerID, followedID, err)
	}
	return nil
}

// Unfollow removes the edge if it exists.
func (db *DB) Unfollow(ctx context.Context, followerID, followedID string) error {
	_, err := db.exec(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: %s unfollowing %s: %w", followerID, followedID, err)
	}
	return nil
}

func (db *DB) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int
	err := db.queryRow(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking follow %s -> %s: %w", followerID, followedID, err)
	}
	return n > 0, nil
}

// ListFollowing returns the users userID follows.
func (db *DB) ListFollowing(ctx context.Context, userID string) ([]model.User, error) {
	return db.listUsers(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.image_url, u.header_image_url, u.bio, u.created_at
		 FROM users u
		 JOIN follows f ON f.followed_id = u.id
		 WHERE f.follower_id = ?
		 ORDER BY u.username`,
		userID,
	)
}

// ListFollowers returns the users following userID.
func (db *DB) ListFollowers(ctx context.Context, userID string) ([]model.User, error) {
	return db.listUsers(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.image_url, u.header_image_url, u.bio, u.created_at
		 FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.followed_id = ?
		 ORDER BY u.username`,
		userID,
	)
}
