package app

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/cache"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/security"
	"github.com/jsamuelsen/mnemosyne/internal/mocks"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
	"github.com/jsamuelsen/mnemosyne/internal/testutil"
)

// fixture wires every service over a fresh sqlite store.
type fixture struct {
	repos   *testutil.Repos
	flags   *flags.Static
	source  *mocks.MockQuoteSource
	revoked *cache.MemoryRevocationStore
	tokens  *security.JWTIssuer

	quotes      *QuoteService
	activity    *ActivityService
	likes       *LikeService
	collections *CollectionService
	follows     *FollowService
	categories  *CategoryService
	auth        *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos := testutil.NewRepos(t)
	logger := testutil.DiscardLogger()

	recorder, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "access-secret-for-app-tests-0123456789",
		RefreshSecret: "refresh-secret-for-app-tests-0123456789",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "mnemosyne",
	})
	require.NoError(t, err)

	f := &fixture{
		repos:   repos,
		flags:   flags.NewStatic(map[string]any{ports.FlagQuoteImport: true}),
		source:  mocks.NewMockQuoteSource(t),
		revoked: cache.NewMemoryRevocationStore(),
		tokens:  tokens,
	}

	svc := NewServices(Dependencies{
		Transactor:  repos.Store,
		Users:       repos.Users,
		Quotes:      repos.Quotes,
		Likes:       repos.Likes,
		Collections: repos.Collections,
		Follows:     repos.Follows,
		Activities:  repos.Activities,
		Tokens:      tokens,
		Passwords:   security.NewBcryptHasher(4),
		Revocations: f.revoked,
		Source:      f.source,
		Flags:       f.flags,
		Metrics:     recorder,
		Logger:      logger,
	})

	f.quotes = svc.Quotes
	f.activity = svc.Activity
	f.likes = svc.Likes
	f.collections = svc.Collections
	f.follows = svc.Follows
	f.categories = svc.Categories
	f.auth = svc.Auth

	return f
}

func ptr[T any](v T) *T {
	return &v
}
