package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/policy"
)

func TestCreateMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u, id := env.signup(t, "alice")

	m, err := env.messages.Create(ctx, id, "  hello world ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", m.Text)
	assert.Equal(t, u.ID, m.UserID)

	got, err := env.messages.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)

	_, err = env.messages.Create(ctx, nil, "anonymous")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = env.messages.Create(ctx, id, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDeleteMessage_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, owner := env.signup(t, "owner")
	_, other := env.signup(t, "other")
	m := env.post(t, owner, "mine")

	tests := []struct {
		name  string
		actor string
		id    string
	}{
		{"anonymous", "", m.ID},
		{"not the owner", "other", m.ID},
		{"missing message", "owner", "no-such-message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := owner
			switch tt.actor {
			case "":
				actor = nil
			case "other":
				actor = other
			}

			err := env.messages.Delete(ctx, actor, tt.id)
			require.ErrorIs(t, err, apperror.ErrUnauthorized)
			assert.Equal(t, apperror.UnauthorizedMessage, err.Error())

			// The record is still there.
			_, err = env.messages.Get(ctx, m.ID)
			assert.NoError(t, err)
		})
	}
}

func TestDeleteMessage_DisappearsFromTimelines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "alice")
	b, bID := env.signup(t, "bob")
	require.NoError(t, env.users.Follow(ctx, a, b.ID))
	m := env.post(t, bID, "soon gone")

	require.NoError(t, env.messages.Delete(ctx, bID, m.ID))

	for name, actor := range map[string]*auth.Identity{"alice": a, "bob": bID} {
		tl, err := env.messages.Timeline(ctx, actor)
		require.NoError(t, err)
		for _, got := range tl.Messages {
			assert.NotEqual(t, m.ID, got.ID, "%s still sees the deleted message", name)
		}
	}
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, author := env.signup(t, "author")
	_, fan := env.signup(t, "fan")
	m := env.post(t, author, "like me")

	liked, err := env.messages.ToggleLike(ctx, fan, m.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	tl, err := env.messages.Timeline(ctx, fan)
	require.NoError(t, err)
	assert.Equal(t, []string{m.ID}, tl.LikedIDs)

	liked, err = env.messages.ToggleLike(ctx, fan, m.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err := env.users.Likes(ctx, fan, fan.UserID)
	require.NoError(t, err)
	assert.Empty(t, likes.Messages)
}

func TestToggleLike_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, author := env.signup(t, "author")
	m := env.post(t, author, "mine")

	_, err := env.messages.ToggleLike(ctx, nil, m.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = env.messages.ToggleLike(ctx, author, m.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, policy.SelfLikeMessage, err.Error())

	_, err = env.messages.ToggleLike(ctx, author, "no-such-message")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	likes, _ := env.users.Likes(ctx, author, author.UserID)
	assert.Empty(t, likes.Messages)
}

func TestTimeline_FollowScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "alice")
	b, bID := env.signup(t, "bob")

	require.NoError(t, env.users.Follow(ctx, a, b.ID))
	hello := env.post(t, bID, "Hello")

	tl, err := env.messages.Timeline(ctx, a)
	require.NoError(t, err)
	require.Len(t, tl.Messages, 1)
	assert.Equal(t, hello.ID, tl.Messages[0].ID)
	assert.Equal(t, "bob", tl.Messages[0].Author.Username)

	require.NoError(t, env.users.Unfollow(ctx, a, b.ID))

	tl, err = env.messages.Timeline(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, tl.Messages)
}

func TestTimeline_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	tl, err := env.messages.Timeline(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, tl)
}
