// Package testutil builds real, migrated sqlite stores for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/persistence/gormstore"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// Repos bundles every repository over one store.
type Repos struct {
	Store       *gormstore.Store
	Users       *gormstore.UserRepository
	Quotes      *gormstore.QuoteRepository
	Likes       *gormstore.LikeRepository
	Collections *gormstore.CollectionRepository
	Follows     *gormstore.FollowRepository
	Activities  *gormstore.ActivityRepository
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteDSN returns a file DSN under dir with the pragmas the store expects.
func SQLiteDSN(dir string) string {
	return "file:" + filepath.Join(dir, "mnemosyne_test.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// OpenStore opens and migrates a sqlite store in dir.
func OpenStore(ctx context.Context, dir string) (*gormstore.Store, error) {
	logger := DiscardLogger()

	store, err := gormstore.Open(gormstore.Config{
		Driver:       gormstore.DriverSQLite,
		DSN:          SQLiteDSN(dir),
		MaxOpenConns: 1,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, gormstore.MigrateUp, logger); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

// NewRepos returns repositories over a fresh store that is closed with the test.
func NewRepos(t testing.TB) *Repos {
	t.Helper()

	store, err := OpenStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return ReposFor(store)
}

// ReposFor wraps an open store.
func ReposFor(store *gormstore.Store) *Repos {
	return &Repos{
		Store:       store,
		Users:       gormstore.NewUserRepository(store),
		Quotes:      gormstore.NewQuoteRepository(store),
		Likes:       gormstore.NewLikeRepository(store),
		Collections: gormstore.NewCollectionRepository(store),
		Follows:     gormstore.NewFollowRepository(store),
		Activities:  gormstore.NewActivityRepository(store),
	}
}

// SeedUser stores a user with a placeholder password hash.
func (r *Repos) SeedUser(t testing.TB, username string) *domain.User {
	t.Helper()

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Username:     username,
		DisplayName:  username,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, r.Users.Create(context.Background(), u))

	return u
}

// SeedQuote stores a public quote.
func (r *Repos) SeedQuote(t testing.TB, text, author string) *domain.Quote {
	t.Helper()

	at := time.Now().UTC()
	q := &domain.Quote{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		Tags:      []string{},
		IsPublic:  true,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, r.Quotes.Create(context.Background(), q))

	return q
}
