package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/cache"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients/acl"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/persistence/gormstore"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/security"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// loadConfig loads and validates the profile's configuration (fail fast).
func loadConfig(profile string) (*config.Config, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	return logger
}

// openStore connects to the database. When migrate is set, pending
// migrations are applied before returning.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*gormstore.Store, error) {
	store, err := gormstore.Open(gormstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		SlowThreshold:   cfg.Database.SlowThreshold,
		TraceSQL:        cfg.Database.TraceSQL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if migrate {
		if err := store.Migrate(ctx, gormstore.MigrateUp, logger); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	}

	return store, nil
}

// quoteSource builds the upstream quote provider client.
func quoteSource(cfg *config.Config, logger *slog.Logger) (*acl.QuoteClient, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return acl.NewQuoteClient(acl.QuoteClientConfig{
		Client: httpClient,
		Logger: logger,
	}), nil
}

// sharedState is the short-lived state behind logout and rate limiting.
type sharedState struct {
	revocations ports.TokenRevocationStore

	// limiter is nil when rate limiting is disabled.
	limiter ports.RateLimiter

	// redis is nil when the in-memory stores are used.
	redis *cache.Redis
}

func (s *sharedState) Close() error {
	if s.redis == nil {
		return nil
	}

	return s.redis.Close()
}

// newSharedState uses Redis when enabled and in-memory stores otherwise.
func newSharedState(ctx context.Context, cfg *config.Config) (*sharedState, error) {
	state := &sharedState{}

	if cfg.Redis.Enabled {
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}

		state.redis = r
		state.revocations = cache.NewRedisRevocationStore(r)

		if cfg.RateLimit.Enabled {
			state.limiter = cache.NewRedisRateLimiter(r, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}

		return state, nil
	}

	state.revocations = cache.NewMemoryRevocationStore()

	if cfg.RateLimit.Enabled {
		state.limiter = cache.NewMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	return state, nil
}

// serviceDeps collects what app.NewServices needs besides the store.
type serviceDeps struct {
	tokens      ports.TokenIssuer
	revocations ports.TokenRevocationStore
	source      ports.QuoteSource
	flags       *flags.Static
	metrics     *metrics.Recorder
	logger      *slog.Logger
}

func newTokenIssuer(cfg *config.Config) (*security.JWTIssuer, error) {
	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token issuer: %w", err)
	}

	return tokens, nil
}

func newServices(cfg *config.Config, store *gormstore.Store, d serviceDeps) *app.Services {
	return app.NewServices(app.Dependencies{
		Transactor:  store,
		Users:       gormstore.NewUserRepository(store),
		Quotes:      gormstore.NewQuoteRepository(store),
		Likes:       gormstore.NewLikeRepository(store),
		Collections: gormstore.NewCollectionRepository(store),
		Follows:     gormstore.NewFollowRepository(store),
		Activities:  gormstore.NewActivityRepository(store),
		Tokens:      d.tokens,
		Passwords:   security.NewBcryptHasher(cfg.Auth.BcryptCost),
		Revocations: d.revocations,
		Source:      d.source,
		Flags:       d.flags,
		Metrics:     d.metrics,
		Logger:      d.logger,
	})
}
