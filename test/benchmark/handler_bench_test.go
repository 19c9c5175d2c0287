package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/cache"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	apihttp "github.com/jsamuelsen/mnemosyne/internal/adapters/http"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/handlers"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/security"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
	"github.com/jsamuelsen/mnemosyne/internal/testutil"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type staticCheck string

func (s staticCheck) Name() string              { return string(s) }
func (staticCheck) Check(context.Context) error { return nil }

// BenchmarkProbes measures the /-/ endpoints polled by the orchestrator.
func BenchmarkProbes(b *testing.B) {
	registry := ports.NewHealthRegistry()
	for _, name := range []string{"database", "redis"} {
		if err := registry.Register(staticCheck(name)); err != nil {
			b.Fatal(err)
		}
	}

	engine := gin.New()
	handlers.NewHealthHandler(registry, handlers.NewBuildInfo("1.0.0", "abc123", "2026-01-01T00:00:00Z")).
		RegisterProbes(engine)

	for _, path := range []string{"/-/live", "/-/ready", "/-/build"} {
		b.Run(path, func(b *testing.B) {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)

			b.ReportAllocs()

			for b.Loop() {
				engine.ServeHTTP(httptest.NewRecorder(), req)
			}
		})
	}
}

// BenchmarkMiddlewareChain covers the middleware every request passes
// through before reaching a handler.
func BenchmarkMiddlewareChain(b *testing.B) {
	logger := testutil.DiscardLogger()

	engine := gin.New()
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Logging(logger),
	)
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)

	b.ReportAllocs()

	for b.Loop() {
		engine.ServeHTTP(httptest.NewRecorder(), req)
	}
}

// quoteBench is the quote API over a seeded sqlite database.
type quoteBench struct {
	engine *gin.Engine
	token  string
	quote  string
}

func setupQuoteBench(b *testing.B, quotes int) *quoteBench {
	b.Helper()

	repos := testutil.NewRepos(b)
	logger := testutil.DiscardLogger()

	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "bench-access-secret-0123456789abcdefghij",
		RefreshSecret: "bench-refresh-secret-0123456789abcdefghij",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "mnemosyne",
	})
	if err != nil {
		b.Fatal(err)
	}

	services := app.NewServices(app.Dependencies{
		Transactor:  repos.Store,
		Users:       repos.Users,
		Quotes:      repos.Quotes,
		Likes:       repos.Likes,
		Collections: repos.Collections,
		Follows:     repos.Follows,
		Activities:  repos.Activities,
		Tokens:      tokens,
		Passwords:   security.NewBcryptHasher(4),
		Revocations: cache.NewMemoryRevocationStore(),
		Flags:       flags.NewStatic(nil),
		Logger:      logger,
	})

	user := repos.SeedUser(b, "bench")

	var last *domain.Quote
	for i := range quotes {
		last = repos.SeedQuote(b, fmt.Sprintf("Benchmark quote %d", i), "Bench Author")
	}

	if _, err := services.Likes.Like(context.Background(), user.ID, last.ID); err != nil {
		b.Fatal(err)
	}

	access, err := tokens.Issue(user, ports.AccessToken)
	if err != nil {
		b.Fatal(err)
	}

	engine := gin.New()
	apihttp.SetupRouter(engine, apihttp.RouterConfig{
		Logger:    logger,
		AppConfig: &config.AppConfig{Name: "mnemosyne", Version: "bench", Environment: "test"},
		Tokens:    tokens,
		Handlers: apihttp.Handlers{
			Quotes: handlers.NewQuoteHandler(services.Quotes, services.Likes),
		},
		Timeout: apihttp.DefaultRequestTimeout,
	})

	return &quoteBench{engine: engine, token: access.Value, quote: last.ID}
}

func (qb *quoteBench) run(b *testing.B, req *http.Request) {
	b.Helper()

	b.ReportAllocs()

	for b.Loop() {
		w := httptest.NewRecorder()
		qb.engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
		}
	}
}

// BenchmarkListQuotes measures an anonymous page of quotes with like counts.
func BenchmarkListQuotes(b *testing.B) {
	qb := setupQuoteBench(b, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/quotes?limit=20", http.NoBody)

	qb.run(b, req)
}

// BenchmarkListQuotes_Search measures a filtered, sorted listing.
func BenchmarkListQuotes_Search(b *testing.B) {
	qb := setupQuoteBench(b, 100)
	req := httptest.NewRequest(http.MethodGet, "/api/quotes?search=quote+4&sortBy=text&order=asc", http.NoBody)

	qb.run(b, req)
}

// BenchmarkGetQuote_Authenticated includes token verification and the
// viewer's like lookup.
func BenchmarkGetQuote_Authenticated(b *testing.B) {
	qb := setupQuoteBench(b, 10)
	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+qb.quote, http.NoBody)
	req.Header.Set("Authorization", "Bearer "+qb.token)

	qb.run(b, req)
}
