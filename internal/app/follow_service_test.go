package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

func TestFollowService_FollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.repos.SeedUser(t, "alice")
	bob := f.repos.SeedUser(t, "bob")

	require.NoError(t, f.follows.Follow(ctx, alice.ID, bob.ID))
	require.ErrorIs(t, f.follows.Follow(ctx, alice.ID, bob.ID), domain.ErrConflict)

	following, err := f.follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := f.follows.ListFollowers(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers.Total)
	require.Len(t, followers.Items, 1)
	assert.Equal(t, alice.ID, followers.Items[0].User.ID)

	list, err := f.follows.ListFollowing(ctx, alice.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "bob", list.Items[0].User.Username)

	require.NoError(t, f.follows.Unfollow(ctx, alice.ID, bob.ID))
	require.ErrorIs(t, f.follows.Unfollow(ctx, alice.ID, bob.ID), domain.ErrNotFound)

	following, err = f.follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowService_Follow_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.repos.SeedUser(t, "alice")

	err := f.follows.Follow(ctx, alice.ID, alice.ID)
	require.ErrorIs(t, err, domain.ErrSelfFollow)
	require.ErrorIs(t, err, domain.ErrValidation)

	require.ErrorIs(t, f.follows.Follow(ctx, alice.ID, "missing"), domain.ErrNotFound)

	_, err = f.follows.ListFollowers(ctx, "missing", domain.Page{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFollowService_IsFollowing_Anonymous(t *testing.T) {
	f := newFixture(t)
	bob := f.repos.SeedUser(t, "bob")

	following, err := f.follows.IsFollowing(context.Background(), "", bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}
