package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
)

const (
	// QuoteServiceName names the provider in health checks and errors.
	QuoteServiceName = "quote-service"

	// MaxRandomQuotes is the largest batch the provider serves in one call.
	MaxRandomQuotes = 50

	randomQuotesPath = "/quotes/random"
)

// QuoteClientConfig configures the quote provider adapter.
type QuoteClientConfig struct {
	// Client must have its BaseURL set to the provider, e.g. https://api.quotable.io.
	Client *clients.Client

	Logger *slog.Logger
}

// QuoteClient fetches quotes from the quotable API for import.
type QuoteClient struct {
	api    upstream
	logger *slog.Logger
}

// NewQuoteClient creates the adapter. It panics without a Client.
func NewQuoteClient(cfg QuoteClientConfig) *QuoteClient {
	if cfg.Client == nil {
		panic("QuoteClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteClient{
		api:    upstream{client: cfg.Client, service: QuoteServiceName},
		logger: logger,
	}
}

// quotableQuote is the provider's wire shape.
type quotableQuote struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// RandomQuotes fetches up to count random quotes, at most MaxRandomQuotes.
// Entries without text or author are dropped.
func (c *QuoteClient) RandomQuotes(ctx context.Context, count int) ([]domain.QuoteDraft, error) {
	if count <= 0 {
		return nil, domain.NewValidationErrorWithValue("count", "must be positive", count)
	}

	count = min(count, MaxRandomQuotes)

	c.logger.Log(ctx, logging.LevelTrace, "requesting random quotes",
		slog.String("path", randomQuotesPath),
		slog.Int("limit", count))

	body, err := c.api.fetch(ctx, randomQuotesPath, url.Values{"limit": {strconv.Itoa(count)}}, "fetch random quotes")
	if err != nil {
		return nil, err
	}

	received, err := decode[[]quotableQuote](body, c.api.service)
	if err != nil {
		return nil, err
	}

	drafts := make([]domain.QuoteDraft, 0, len(received))
	for i := range received {
		if d, ok := toDraft(&received[i]); ok {
			drafts = append(drafts, d)
		}
	}

	c.logger.DebugContext(ctx, "fetched random quotes",
		slog.Int("received", len(received)),
		slog.Int("skipped", len(received)-len(drafts)))

	return drafts, nil
}

// toDraft maps a provider quote to a draft. The first tag naming a known
// category becomes the category.
func toDraft(q *quotableQuote) (domain.QuoteDraft, bool) {
	if strings.TrimSpace(q.Content) == "" || strings.TrimSpace(q.Author) == "" {
		return domain.QuoteDraft{}, false
	}

	d := domain.QuoteDraft{
		Text:   q.Content,
		Author: q.Author,
		Tags:   append([]string(nil), q.Tags...),
	}

	for _, tag := range q.Tags {
		if category, ok := domain.FindCategory(tag); ok {
			d.Category = category.ID
			break
		}
	}

	return d, true
}

// Name implements ports.HealthChecker.
func (c *QuoteClient) Name() string {
	return QuoteServiceName
}

// Check fetches a single quote.
func (c *QuoteClient) Check(ctx context.Context) error {
	body, err := c.api.fetch(ctx, randomQuotesPath, url.Values{"limit": {"1"}}, "health check")
	if err != nil {
		return fmt.Errorf("quote provider: %w", err)
	}

	return body.Close()
}

// Optional reports that the provider only degrades readiness.
func (c *QuoteClient) Optional() bool {
	return true
}
