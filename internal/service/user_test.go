package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/policy"
)

func TestFollow_Unfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "alice")
	b, _ := env.signup(t, "bob")

	require.NoError(t, env.users.Follow(ctx, a, b.ID))
	require.NoError(t, env.users.Follow(ctx, a, b.ID), "follow is idempotent")

	ok, err := env.users.IsFollowing(ctx, a.UserID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = env.users.IsFollowedBy(ctx, b.ID, a.UserID)
	assert.True(t, ok)

	following, err := env.users.Following(ctx, a, a.UserID)
	require.NoError(t, err)
	require.Len(t, following.Users, 1)
	assert.Equal(t, b.ID, following.Users[0].ID)

	require.NoError(t, env.users.Unfollow(ctx, a, b.ID))
	require.NoError(t, env.users.Unfollow(ctx, a, b.ID), "unfollow is idempotent")

	ok, _ = env.users.IsFollowing(ctx, a.UserID, b.ID)
	assert.False(t, ok)
}

func TestFollow_Self(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "narcissus")

	err := env.users.Follow(ctx, a, a.UserID)
	require.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, policy.SelfFollowMessage, err.Error())

	ok, _ := env.users.IsFollowing(ctx, a.UserID, a.UserID)
	assert.False(t, ok)
}

func TestFollow_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "alice")
	b, _ := env.signup(t, "bob")

	assert.ErrorIs(t, env.users.Follow(ctx, nil, b.ID), apperror.ErrUnauthorized)
	assert.ErrorIs(t, env.users.Unfollow(ctx, nil, b.ID), apperror.ErrUnauthorized)
	assert.ErrorIs(t, env.users.Follow(ctx, a, "no-such-user"), apperror.ErrNotFound)
}

func TestFollowGraphAndLikes_RequireLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b, _ := env.signup(t, "bob")

	_, err := env.users.Following(ctx, nil, b.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = env.users.Followers(ctx, nil, b.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = env.users.Likes(ctx, nil, b.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestFollowGraph_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, a := env.signup(t, "alice")

	_, err := env.users.Followers(context.Background(), a, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, a := env.signup(t, "alice")
	b, bID := env.signup(t, "bob")

	env.post(t, bID, "first")
	env.post(t, bID, "second")
	require.NoError(t, env.users.Follow(ctx, a, b.ID))

	p, err := env.users.Profile(ctx, a, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.User.Username)
	assert.Len(t, p.Messages, 2)
	assert.Equal(t, 2, p.Stats.Messages)
	assert.Equal(t, 1, p.Stats.Followers)
	assert.True(t, p.IsFollowing)
	assert.False(t, p.IsFollowedBy)

	// Bob looking at Alice sees the same edge from the other side.
	back, err := env.users.Profile(ctx, bID, a.UserID)
	require.NoError(t, err)
	assert.False(t, back.IsFollowing)
	assert.True(t, back.IsFollowedBy)

	anon, err := env.users.Profile(ctx, nil, b.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)

	_, err = env.users.Profile(ctx, nil, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestList_Search(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "robin")
	env.signup(t, "Robert")
	env.signup(t, "wren")

	users, err := env.users.List(context.Background(), "  rob ")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
