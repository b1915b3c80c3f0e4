// Package sqlstore implements the repository interfaces on top of
// database/sql. The same SQL runs on SQLite (modernc.org/sqlite, the
// default) and on Postgres (pgx stdlib driver) when DATABASE_URL is a
// postgres:// URL.
//
// Queries are written with ? placeholders; rebind rewrites them to $n for
// Postgres. Timestamps are always stored in UTC so that SQLite's textual
// ordering matches chronological ordering.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/warbler/internal/repository"
)

// Dialect selects the SQL flavour of the underlying connection.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// DialectFor picks the dialect and driver name for a DATABASE_URL value.
// Anything that is not a postgres URL is treated as a SQLite path
// (":memory:" included).
func DialectFor(dsn string) (Dialect, string, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, "pgx", dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	default:
		return DialectSQLite, "sqlite", dsn
	}
}

// Open connects to the database named by dsn and runs migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect, driver, source := DialectFor(dsn)

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening database: %w", err)
	}

	if dialect == DialectSQLite {
		// A single connection keeps ":memory:" databases alive for the life
		// of the pool and serialises writers the way SQLite wants anyway.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging database: %w", err)
	}

	if dialect == DialectSQLite {
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("sqlstore: %s: %w", pragma, err)
			}
		}
	}

	db := &DB{conn: conn, dialect: dialect}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

// New wraps an existing pool without migrating it. Tests use it with
// go-sqlmock.
func New(conn *sql.DB, dialect Dialect) *DB {
	return &DB{conn: conn, dialect: dialect}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Dialect reports which SQL flavour this store speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		username         TEXT NOT NULL UNIQUE,
		email            TEXT NOT NULL UNIQUE,
		password_hash    TEXT NOT NULL,
		image_url        TEXT NOT NULL DEFAULT '/static/images/default-pic.png',
		header_image_url TEXT NOT NULL DEFAULT '/static/images/warbler-hero.jpg',
		bio              TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages(user_id, created_at)`,
	// follows and likes are pure edge tables: the pair is the key.
	`CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followed_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (follower_id, followed_id),
		CHECK (follower_id <> followed_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_followed ON follows(followed_id)`,
	`CREATE TABLE IF NOT EXISTS likes (
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_message ON likes(message_id)`,
	`CREATE TABLE IF NOT EXISTS direct_messages (
		id           TEXT PRIMARY KEY,
		text         TEXT NOT NULL,
		sender_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_direct_messages_sender ON direct_messages(sender_id)`,
	`CREATE INDEX IF NOT EXISTS idx_direct_messages_recipient ON direct_messages(recipient_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
}

// migrate creates every table idempotently.
func (db *DB) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(query), args...)
}

// withTx runs fn inside a transaction, committing on success. With SQLite's
// single connection, fn must only use tx.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure on either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// rowsAffected returns the number of rows touched by res.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
