//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

func startApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	a, err := newApp(context.Background(), t.TempDir(), opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func TestImport_EndToEnd(t *testing.T) {
	provider := newFakeProvider(0, 0)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 1, 5)
	require.NoError(t, err)

	a := startApp(t, appOptions{source: source})
	user := a.Repos.SeedUser(t, "importer")
	ctx := context.Background()

	res, err := a.Services.Quotes.ImportQuotes(ctx, user.ID, len(providerCatalog))
	require.NoError(t, err)

	assert.Equal(t, len(providerCatalog), res.Requested)
	assert.Equal(t, len(providerCatalog)-1, res.Received, "quote without an author is dropped")
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Quotes, len(providerCatalog)-1)

	byAuthor := make(map[string]domain.Quote, len(res.Quotes))
	for _, q := range res.Quotes {
		byAuthor[q.Author] = q
	}

	assert.Equal(t, "wisdom", byAuthor["Socrates"].Category)
	assert.Equal(t, "motivation", byAuthor["Benjamin Franklin"].Category, "first known tag wins")
	assert.Equal(t, []string{"Science"}, byAuthor["Albert Einstein"].Tags)

	stored, err := a.Services.Quotes.ListQuotes(ctx, user.ID, app.QuoteQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, len(providerCatalog)-1, stored.Total)

	t.Run("reimport skips known quotes", func(t *testing.T) {
		again, err := a.Services.Quotes.ImportQuotes(ctx, user.ID, len(providerCatalog))
		require.NoError(t, err)

		assert.Empty(t, again.Quotes)
		assert.Equal(t, len(providerCatalog)-1, again.Skipped)

		stored, err := a.Services.Quotes.ListQuotes(ctx, user.ID, app.QuoteQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, len(providerCatalog)-1, stored.Total)
	})
}

func TestImport_RetriesTransientFailures(t *testing.T) {
	provider := newFakeProvider(2, http.StatusServiceUnavailable)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 3, 5)
	require.NoError(t, err)

	drafts, err := source.RandomQuotes(context.Background(), 2)
	require.NoError(t, err)

	assert.Len(t, drafts, 2)
	assert.EqualValues(t, 3, provider.calls.Load())
}

func TestImport_GivesUpAfterMaxAttempts(t *testing.T) {
	provider := newFakeProvider(100, http.StatusBadGateway)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 3, 5)
	require.NoError(t, err)

	_, err = source.RandomQuotes(context.Background(), 2)
	require.Error(t, err)

	assert.True(t, domain.IsUnavailable(err))
	assert.EqualValues(t, 3, provider.calls.Load())
}

func TestImport_CircuitOpens(t *testing.T) {
	provider := newFakeProvider(100, http.StatusInternalServerError)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 1, 2)
	require.NoError(t, err)

	ctx := context.Background()

	for range 2 {
		_, err := source.RandomQuotes(ctx, 1)
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	}

	require.EqualValues(t, 2, provider.calls.Load())
	assert.Equal(t, clients.StateOpen, source.Client().CircuitState())

	_, err = source.RandomQuotes(ctx, 1)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.EqualValues(t, 2, provider.calls.Load(), "open circuit must not reach the provider")

	t.Run("health check reports the open circuit", func(t *testing.T) {
		assert.Error(t, source.Check(ctx))
	})

	t.Run("recovers after the timeout", func(t *testing.T) {
		provider.failFirst.Store(0)

		require.Eventually(t, func() bool {
			_, err := source.RandomQuotes(ctx, 1)
			return err == nil
		}, 2*time.Second, 50*time.Millisecond)

		assert.Equal(t, clients.StateClosed, source.Client().CircuitState())
	})
}

func TestImport_PropagatesRequestIDs(t *testing.T) {
	provider := newFakeProvider(0, 0)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 1, 5)
	require.NoError(t, err)

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	_, err = source.RandomQuotes(ctx, 1)
	require.NoError(t, err)

	h := provider.header()
	require.NotNil(t, h)
	assert.Equal(t, "req-123", h.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-456", h.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "application/json", h.Get("Accept"))
}

func TestImport_ThroughAPI(t *testing.T) {
	provider := newFakeProvider(0, 0)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 1, 5)
	require.NoError(t, err)

	a := startApp(t, appOptions{source: source})
	token := registerOverHTTP(t, a, "api_importer")

	req, err := http.NewRequest(http.MethodPost, a.Server.URL+"/api/quotes/import", strings.NewReader(`{"count":3}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(middleware.HeaderRequestID, "api-import-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Requested int `json:"requested"`
			Imported  int `json:"imported"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Data.Requested)
	assert.Equal(t, 3, body.Data.Imported)
	assert.Equal(t, "api-import-1", provider.header().Get(middleware.HeaderRequestID))
}

func TestImport_ProviderDownThroughAPI(t *testing.T) {
	provider := newFakeProvider(100, http.StatusServiceUnavailable)
	defer provider.Close()

	source, err := newQuoteClient(provider.URL, 1, 5)
	require.NoError(t, err)

	a := startApp(t, appOptions{source: source})
	token := registerOverHTTP(t, a, "unlucky")

	req, err := http.NewRequest(http.MethodPost, a.Server.URL+"/api/quotes/import", strings.NewReader(`{"count":3}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// registerOverHTTP creates an account and returns its access token.
func registerOverHTTP(t *testing.T, a *testApp, username string) string {
	t.Helper()

	body := `{"email":"` + username + `@example.com","password":"password123","username":"` + username + `"}`

	resp, err := http.Post(a.Server.URL+"/api/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Data.AccessToken)

	return out.Data.AccessToken
}
