package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/handlers"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/platform/telemetry"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	// 1. Load and validate configuration
	cfg, err := loadConfig(opts.profile)
	if err != nil {
		return err
	}

	// 2. Initialize logging
	logger := newLogger(cfg)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("profile", opts.profile),
	)

	// 3. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if shutdownErr := telProvider.Shutdown(flushCtx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 4. Open the database
	store, err := openStore(ctx, cfg, logger, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer store.Close()

	// 5. Shared state for logout and rate limiting
	state, err := newSharedState(ctx, cfg)
	if err != nil {
		return err
	}
	defer state.Close()

	// 6. Health registry
	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(store); err != nil {
		return fmt.Errorf("registering database health check: %w", err)
	}

	if state.redis != nil {
		if err := healthRegistry.Register(state.redis); err != nil {
			return fmt.Errorf("registering redis health check: %w", err)
		}
	}

	// 7. Upstream quote provider (ACL pattern)
	source, err := quoteSource(cfg, logger)
	if err != nil {
		return err
	}

	if err := healthRegistry.Register(source); err != nil {
		return fmt.Errorf("registering quote client health check: %w", err)
	}

	// 8. Application services
	recorder, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	tokens, err := newTokenIssuer(cfg)
	if err != nil {
		return err
	}

	services := newServices(cfg, store, serviceDeps{
		tokens:      tokens,
		revocations: state.revocations,
		source:      source,
		flags:       flags.NewStatic(cfg.Features),
		metrics:     recorder,
		logger:      logger,
	})

	// 9. Handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)

	// 10. HTTP server and router
	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AppConfig:     &cfg.App,
		CORS:          cfg.CORS,
		Tokens:        tokens,
		RateLimiter:   state.limiter,
		Metrics:       recorder,
		HealthHandler: healthHandler,
		Handlers: http.Handlers{
			Auth:        handlers.NewAuthHandler(services.Auth, cfg.Auth.Cookie, cfg.Auth.RefreshTTL),
			Users:       handlers.NewUserHandler(services.Auth, services.Likes),
			Quotes:      handlers.NewQuoteHandler(services.Quotes, services.Likes),
			Collections: handlers.NewCollectionHandler(services.Collections),
			Follows:     handlers.NewFollowHandler(services.Follows),
			Activity:    handlers.NewActivityHandler(services.Activity),
			Categories:  handlers.NewCategoryHandler(services.Categories),
		},
		Timeout:      http.DefaultRequestTimeout,
		ExposeErrors: cfg.ExposeErrors(),
	})

	// 11. Serve until SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
