package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/dto"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/handlers"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/platform/telemetry"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// DefaultRequestTimeout bounds every /api request.
const DefaultRequestTimeout = 30 * time.Second

// Handlers groups the API handlers mounted under /api. Nil handlers are
// skipped, so tests can mount a subset.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Quotes      *handlers.QuoteHandler
	Collections *handlers.CollectionHandler
	Follows     *handlers.FollowHandler
	Activity    *handlers.ActivityHandler
	Categories  *handlers.CategoryHandler
}

type routeGroup interface {
	RegisterRoutes(rg *gin.RouterGroup, g handlers.Guards)
}

func (h Handlers) groups() []routeGroup {
	var out []routeGroup

	add := func(present bool, g routeGroup) {
		if present {
			out = append(out, g)
		}
	}

	add(h.Auth != nil, h.Auth)
	add(h.Users != nil, h.Users)
	add(h.Quotes != nil, h.Quotes)
	add(h.Collections != nil, h.Collections)
	add(h.Follows != nil, h.Follows)
	add(h.Activity != nil, h.Activity)
	add(h.Categories != nil, h.Categories)

	return out
}

// RouterConfig wires the engine to its handlers and guards.
type RouterConfig struct {
	Logger    *slog.Logger
	AppConfig *config.AppConfig

	// CORS lists the browser origins allowed to call the API.
	CORS config.CORSConfig

	Tokens ports.TokenIssuer

	// RateLimiter limits credential endpoints. Nil disables limiting.
	RateLimiter ports.RateLimiter
	Metrics     *metrics.Recorder

	HealthHandler *handlers.HealthHandler
	Handlers      Handlers

	// Timeout applies to /api only; probes are never cut short.
	Timeout time.Duration

	// ExposeErrors includes internal error text in 500 responses.
	ExposeErrors bool
}

// SetupRouter installs the engine-wide middleware chain, the /-/ probes and
// the /api routes.
//
// The chain runs recovery first so later middleware can rely on a logger in
// the request context. Request and correlation IDs precede tracing so spans
// and log lines carry them. CORS sits on the engine rather than the /api
// group so preflight requests reach it through NoRoute and NoMethod.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	dto.ExposeInternalErrors(cfg.ExposeErrors)

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(NoRoute)
	engine.NoMethod(NoMethod)

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
		middleware.CORS(cfg.CORS),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterProbes(engine)
	}

	api := engine.Group("/api")
	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	guards := handlers.Guards{
		Required:  middleware.RequireAuth(cfg.Tokens),
		Optional:  middleware.OptionalAuth(cfg.Tokens),
		RateLimit: middleware.RateLimit(cfg.RateLimiter, cfg.Metrics, "auth"),
	}

	for _, g := range cfg.Handlers.groups() {
		g.RegisterRoutes(api, guards)
	}
}
