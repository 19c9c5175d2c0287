package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

func TestCollectionService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.repos.SeedUser(t, "alice")
	q := f.repos.SeedQuote(t, "Less is more.", "Mies van der Rohe")

	c, err := f.collections.CreateCollection(ctx, alice.ID, domain.CollectionDraft{
		Name:        " Favourites ",
		Description: "The good ones",
	})
	require.NoError(t, err)
	assert.Equal(t, "Favourites", c.Name)
	assert.Equal(t, alice.ID, c.UserID)

	c, err = f.collections.AddQuote(ctx, alice.ID, c.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.QuoteCount)

	_, err = f.collections.AddQuote(ctx, alice.ID, c.ID, q.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	members, err := f.collections.ListCollectionQuotes(ctx, alice.ID, c.ID, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), members.Total)
	require.Len(t, members.Items, 1)
	assert.Equal(t, q.ID, members.Items[0].ID)
	assert.False(t, members.Items[0].AddedAt.IsZero())

	c, err = f.collections.UpdateCollection(ctx, alice.ID, c.ID, domain.CollectionPatch{Name: ptr("Keepers")})
	require.NoError(t, err)
	assert.Equal(t, "Keepers", c.Name)
	assert.Equal(t, "The good ones", c.Description)

	list, err := f.collections.ListCollections(ctx, alice.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(1), list.Items[0].QuoteCount)

	require.NoError(t, f.collections.RemoveQuote(ctx, alice.ID, c.ID, q.ID))
	require.NoError(t, f.collections.RemoveQuote(ctx, alice.ID, c.ID, q.ID))

	got, err := f.collections.GetCollection(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, got.QuoteCount)

	require.NoError(t, f.collections.DeleteCollection(ctx, alice.ID, c.ID))

	_, err = f.collections.GetCollection(ctx, alice.ID, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	activities, err := f.repos.Activities.Recent(ctx, ports.ActivityQuery{UserID: alice.ID})
	require.NoError(t, err)

	types := make([]domain.ActivityType, 0, len(activities))
	for _, a := range activities {
		types = append(types, a.Type)
		assert.NotEmpty(t, a.Metadata["collectionName"])
	}

	assert.ElementsMatch(t, []domain.ActivityType{
		domain.ActivityCollectionCreate,
		domain.ActivityQuoteAdd,
		domain.ActivityCollectionUpdate,
	}, types)
}

func TestCollectionService_HiddenFromOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.repos.SeedUser(t, "alice")
	bob := f.repos.SeedUser(t, "bob")
	q := f.repos.SeedQuote(t, "Mine", "Alice")

	c, err := f.collections.CreateCollection(ctx, alice.ID, domain.CollectionDraft{Name: "Private"})
	require.NoError(t, err)

	_, err = f.collections.GetCollection(ctx, bob.ID, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.collections.UpdateCollection(ctx, bob.ID, c.ID, domain.CollectionPatch{Name: ptr("Stolen")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.collections.AddQuote(ctx, bob.ID, c.ID, q.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, f.collections.RemoveQuote(ctx, bob.ID, c.ID, q.ID), domain.ErrNotFound)
	require.ErrorIs(t, f.collections.DeleteCollection(ctx, bob.ID, c.ID), domain.ErrNotFound)

	list, err := f.collections.ListCollections(ctx, bob.ID, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestCollectionService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.repos.SeedUser(t, "alice")

	_, err := f.collections.CreateCollection(ctx, alice.ID, domain.CollectionDraft{Name: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)

	c, err := f.collections.CreateCollection(ctx, alice.ID, domain.CollectionDraft{Name: "Ok"})
	require.NoError(t, err)

	_, err = f.collections.UpdateCollection(ctx, alice.ID, c.ID, domain.CollectionPatch{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.collections.AddQuote(ctx, alice.ID, c.ID, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
