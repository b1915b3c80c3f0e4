package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, image_url, header_image_url, bio, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.ImageURL,
		&u.HeaderImageURL,
		&u.Bio,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user, generating its ID. A username or email that is
// already taken yields apperror.DuplicateIdentity and writes nothing.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.ImageURL == "" {
		user.ImageURL = model.DefaultImageURL
	}
	if user.HeaderImageURL == "" {
		user.HeaderImageURL = model.DefaultHeaderImageURL
	}

	_, err := db.exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ImageURL,
		user.HeaderImageURL,
		user.Bio,
		user.CreatedAt,
	)
	if err != nil {
		user.ID = ""
		if isUniqueViolation(err) {
			return apperror.DuplicateIdentity()
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}

	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlstore: getting user %q: %w", username, err)
	}
	return u, nil
}

// ListUsers returns all users, or those whose username contains search
// (case-insensitive), ordered by username. search is matched literally.
func (db *DB) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if search != "" {
		query += ` WHERE LOWER(username) LIKE LOWER(?) ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
	}
	query += ` ORDER BY username`

	return db.listUsers(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (db *DB) listUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser saves the editable profile fields and the password hash.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	res, err := db.exec(ctx,
		`UPDATE users
		 SET username = ?, email = ?, password_hash = ?, image_url = ?, header_image_url = ?, bio = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ImageURL,
		user.HeaderImageURL,
		user.Bio,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateIdentity()
		}
		return fmt.Errorf("sqlstore: updating user %s: %w", user.ID, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlstore: updating user %s: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// DeleteUser removes a user. Messages, edges, direct messages and sessions
// go with it through ON DELETE CASCADE.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %s: %w", id, err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (db *DB) UserStats(ctx context.Context, id string) (*model.UserStats, error) {
	var s model.UserStats
	err := db.queryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM messages WHERE user_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?),
			(SELECT COUNT(*) FROM follows WHERE followed_id = ?),
			(SELECT COUNT(*) FROM likes WHERE user_id = ?)`,
		id, id, id, id,
	).Scan(&s.Messages, &s.Following, &s.Followers, &s.Likes)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: counting stats for user %s: %w", id, err)
	}
	return &s, nil
}
