// Package redisstore keeps session records in Redis. It is used instead of
// the sessions table when REDIS_URL is configured.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

const (
	sessionPrefix     = "warbler:session:"
	userSessionPrefix = "warbler:user_sessions:"
)

// SessionStore stores each session as a hash under warbler:session:<id>
// with a TTL, and indexes them per user in a set so that an account
// deletion can revoke every session at once.
type SessionStore struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*SessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: pinging redis: %w", err)
	}
	return New(client), nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*model.Session, error) {
	if ttl <= 0 {
		return nil, apperror.ValidationFailed("ttl", "session lifetime must be positive")
	}

	now := time.Now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	key := sessionPrefix + sess.ID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", sess.UserID,
			"created_at", sess.CreatedAt.Format(time.RFC3339Nano),
			"expires_at", sess.ExpiresAt.Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, userSessionPrefix+userID, sess.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: creating session for %s: %w", userID, err)
	}
	return sess, nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: getting session: %w", err)
	}
	if len(fields) == 0 {
		return nil, apperror.NotFound("session", id)
	}

	sess := &model.Session{ID: id, UserID: fields["user_id"]}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("redisstore: corrupt session %s: %w", id, err)
	}
	if sess.ExpiresAt, err = time.Parse(time.RFC3339Nano, fields["expires_at"]); err != nil {
		return nil, fmt.Errorf("redisstore: corrupt session %s: %w", id, err)
	}

	// Redis expiry has second granularity; the stored deadline is exact.
	if sess.Expired(time.Now()) {
		if err := s.DeleteSession(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperror.NotFound("session", id)
	}
	return sess, nil
}

// DeleteSession is idempotent.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	key := sessionPrefix + id
	userID, err := s.client.HGet(ctx, key, "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: deleting session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if userID != "" {
			pipe.SRem(ctx, userSessionPrefix+userID, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: deleting session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteUserSessions(ctx context.Context, userID string) error {
	setKey := userSessionPrefix + userID
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redisstore: listing sessions of %s: %w", userID, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionPrefix+id)
	}
	keys = append(keys, setKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redisstore: deleting sessions of %s: %w", userID, err)
	}
	return nil
}
