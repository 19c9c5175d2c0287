package app

import (
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// Dependencies are the adapters every application service is built from.
type Dependencies struct {
	Transactor  ports.Transactor
	Users       ports.UserRepository
	Quotes      ports.QuoteRepository
	Likes       ports.LikeRepository
	Collections ports.CollectionRepository
	Follows     ports.FollowRepository
	Activities  ports.ActivityRepository

	Tokens      ports.TokenIssuer
	Passwords   ports.PasswordHasher
	Revocations ports.TokenRevocationStore

	// Source is the upstream quote provider. Nil disables quote import.
	Source ports.QuoteSource

	Flags   ports.FeatureFlags
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Services holds one instance of every application service.
type Services struct {
	Quotes      *QuoteService
	Likes       *LikeService
	Collections *CollectionService
	Follows     *FollowService
	Activity    *ActivityService
	Categories  *CategoryService
	Auth        *AuthService
}

// NewServices builds every service over the same dependencies.
// Panics if a required dependency is missing.
func NewServices(d Dependencies) *Services {
	activity := NewActivityService(ActivityServiceConfig{
		Activities:  d.Activities,
		Users:       d.Users,
		Quotes:      d.Quotes,
		Collections: d.Collections,
		Flags:       d.Flags,
		Metrics:     d.Metrics,
		Logger:      d.Logger,
	})

	return &Services{
		Activity: activity,
		Quotes: NewQuoteService(QuoteServiceConfig{
			Quotes:     d.Quotes,
			Likes:      d.Likes,
			Transactor: d.Transactor,
			Source:     d.Source,
			Flags:      d.Flags,
			Metrics:    d.Metrics,
			Logger:     d.Logger,
		}),
		Likes: NewLikeService(LikeServiceConfig{
			Quotes:     d.Quotes,
			Likes:      d.Likes,
			Users:      d.Users,
			Transactor: d.Transactor,
			Activities: activity,
			Metrics:    d.Metrics,
			Logger:     d.Logger,
		}),
		Collections: NewCollectionService(CollectionServiceConfig{
			Collections: d.Collections,
			Quotes:      d.Quotes,
			Likes:       d.Likes,
			Transactor:  d.Transactor,
			Activities:  activity,
			Logger:      d.Logger,
		}),
		Follows: NewFollowService(FollowServiceConfig{
			Follows: d.Follows,
			Users:   d.Users,
			Metrics: d.Metrics,
			Logger:  d.Logger,
		}),
		Categories: NewCategoryService(d.Quotes),
		Auth: NewAuthService(AuthServiceConfig{
			Users:       d.Users,
			Follows:     d.Follows,
			Tokens:      d.Tokens,
			Passwords:   d.Passwords,
			Revocations: d.Revocations,
			Metrics:     d.Metrics,
			Logger:      d.Logger,
		}),
	}
}
