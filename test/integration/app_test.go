//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/cache"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients/acl"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	apihttp "github.com/jsamuelsen/mnemosyne/internal/adapters/http"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/handlers"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/security"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
	"github.com/jsamuelsen/mnemosyne/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp is the fully wired API over a fresh sqlite database.
type testApp struct {
	Server   *httptest.Server
	Repos    *testutil.Repos
	Services *app.Services
}

type appOptions struct {
	// source is the upstream quote provider. Nil disables import.
	source ports.QuoteSource
	flags  map[string]any
}

// newApp migrates a database under dir and serves the API over it.
func newApp(ctx context.Context, dir string, opts appOptions) (*testApp, error) {
	store, err := testutil.OpenStore(ctx, dir)
	if err != nil {
		return nil, err
	}

	repos := testutil.ReposFor(store)
	logger := testutil.DiscardLogger()

	tokens, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  "integration-access-secret-0123456789abcdef",
		RefreshSecret: "integration-refresh-secret-0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "mnemosyne",
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	services := app.NewServices(app.Dependencies{
		Transactor:  store,
		Users:       repos.Users,
		Quotes:      repos.Quotes,
		Likes:       repos.Likes,
		Collections: repos.Collections,
		Follows:     repos.Follows,
		Activities:  repos.Activities,
		Tokens:      tokens,
		Passwords:   security.NewBcryptHasher(4),
		Revocations: cache.NewMemoryRevocationStore(),
		Source:      opts.source,
		Flags:       flags.NewStatic(opts.flags),
		Logger:      logger,
	})

	registry := ports.NewHealthRegistry()
	if err := registry.Register(store); err != nil {
		_ = store.Close()
		return nil, err
	}

	cookie := config.CookieConfig{Name: "refreshToken", Path: "/api/auth"}

	engine := gin.New()
	apihttp.SetupRouter(engine, apihttp.RouterConfig{
		Logger:        logger,
		AppConfig:     &config.AppConfig{Name: "mnemosyne", Version: "integration", Environment: "test"},
		Tokens:        tokens,
		HealthHandler: handlers.NewHealthHandler(registry, handlers.NewBuildInfo("integration", "none", "")),
		Handlers: apihttp.Handlers{
			Auth:        handlers.NewAuthHandler(services.Auth, cookie, 24*time.Hour),
			Users:       handlers.NewUserHandler(services.Auth, services.Likes),
			Quotes:      handlers.NewQuoteHandler(services.Quotes, services.Likes),
			Collections: handlers.NewCollectionHandler(services.Collections),
			Follows:     handlers.NewFollowHandler(services.Follows),
			Activity:    handlers.NewActivityHandler(services.Activity),
			Categories:  handlers.NewCategoryHandler(services.Categories),
		},
		Timeout:      apihttp.DefaultRequestTimeout,
		ExposeErrors: true,
	})

	return &testApp{
		Server:   httptest.NewServer(engine),
		Repos:    repos,
		Services: services,
	}, nil
}

func (a *testApp) Close() {
	a.Server.Close()
	_ = a.Repos.Store.Close()
}

// providerQuote is a quote in the upstream provider's wire format.
type providerQuote struct {
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

var providerCatalog = []providerQuote{
	{Content: "The only true wisdom is in knowing you know nothing.", Author: "Socrates", Tags: []string{"Wisdom"}},
	{Content: "Be the change that you wish to see in the world.", Author: "Mahatma Gandhi", Tags: []string{"Inspiration"}},
	{Content: "Well done is better than well said.", Author: "Benjamin Franklin", Tags: []string{"Motivation", "Success"}},
	{Content: "Stay hungry, stay foolish.", Author: "", Tags: nil},
	{Content: "Imagination is more important than knowledge.", Author: "Albert Einstein", Tags: []string{"Science"}},
}

// fakeProvider serves /quotes/random from providerCatalog. The first
// failFirst requests answer with failStatus.
type fakeProvider struct {
	*httptest.Server

	calls      atomic.Int32
	failFirst  atomic.Int32
	failStatus int
	lastHeader atomic.Value
}

func newFakeProvider(failFirst int32, failStatus int) *fakeProvider {
	p := &fakeProvider{failStatus: failStatus}
	p.failFirst.Store(failFirst)

	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := p.calls.Add(1)
		p.lastHeader.Store(r.Header.Clone())

		if n <= p.failFirst.Load() {
			w.WriteHeader(p.failStatus)
			return
		}

		if r.URL.Path != "/quotes/random" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(providerCatalog[:min(limit, len(providerCatalog))])
	}))

	return p
}

func (p *fakeProvider) header() http.Header {
	h, _ := p.lastHeader.Load().(http.Header)
	return h
}

// newQuoteClient builds the provider adapter with fast retries.
func newQuoteClient(baseURL string, maxAttempts, maxFailures int) (*acl.QuoteClient, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: acl.QuoteServiceName,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     maxAttempts,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   maxFailures,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		Logger: testutil.DiscardLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return acl.NewQuoteClient(acl.QuoteClientConfig{Client: client, Logger: testutil.DiscardLogger()}), nil
}
