package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// MaxImportCount bounds a single quote import.
const MaxImportCount = 50

// QuoteQuery selects a page of quotes.
type QuoteQuery struct {
	Filter domain.QuoteFilter
	Sort   domain.QuoteSort
	Page   domain.Page

	// LikedByMe restricts the listing to quotes the caller likes.
	LikedByMe bool
}

// ImportResult reports the outcome of a quote import.
type ImportResult struct {
	Requested int
	Received  int
	Skipped   int
	Quotes    []domain.Quote
}

// QuoteService serves quote reads, writes and imports.
type QuoteService struct {
	quotes   ports.QuoteRepository
	likes    ports.LikeRepository
	tx       ports.Transactor
	source   ports.QuoteSource
	flags    ports.FeatureFlags
	executor *Executor
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// QuoteServiceConfig contains the dependencies of the quote service.
// Source and Metrics are optional.
type QuoteServiceConfig struct {
	Quotes     ports.QuoteRepository
	Likes      ports.LikeRepository
	Transactor ports.Transactor
	Source     ports.QuoteSource
	Flags      ports.FeatureFlags
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// NewQuoteService creates the quote service.
// Panics if a required repository is missing.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Quotes == nil || cfg.Likes == nil || cfg.Transactor == nil || cfg.Flags == nil {
		panic("QuoteService: Quotes, Likes, Transactor and Flags are required")
	}

	logger := loggerOrDefault(cfg.Logger)

	return &QuoteService{
		quotes:   cfg.Quotes,
		likes:    cfg.Likes,
		tx:       cfg.Transactor,
		source:   cfg.Source,
		flags:    cfg.Flags,
		executor: NewExecutor(logger),
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// ListQuotes returns one page of quotes enriched for viewerID.
func (s *QuoteService) ListQuotes(ctx context.Context, viewerID string, q QuoteQuery) (domain.PageResult[domain.QuoteView], error) {
	if q.LikedByMe {
		if viewerID == "" {
			return domain.PageResult[domain.QuoteView]{}, domain.NewUnauthenticatedError("authentication required to filter by likes")
		}

		q.Filter.LikedBy = viewerID
	}

	if q.Sort.Field == "" {
		q.Sort.Field = domain.SortByCreatedAt
	}

	if !q.Sort.Field.Valid() {
		return domain.PageResult[domain.QuoteView]{}, domain.NewValidationErrorWithValue("sortBy", "sortBy must be one of createdAt, updatedAt, author, text", q.Sort.Field)
	}

	page := domain.NewPage(q.Page.Number, q.Page.Limit)

	quotes, total, err := s.quotes.List(ctx, q.Filter, q.Sort, page)
	if err != nil {
		return domain.PageResult[domain.QuoteView]{}, fmt.Errorf("listing quotes: %w", err)
	}

	views, err := viewQuotes(ctx, s.likes, viewerID, quotes)
	if err != nil {
		return domain.PageResult[domain.QuoteView]{}, fmt.Errorf("loading likes: %w", err)
	}

	return domain.PageResult[domain.QuoteView]{Items: views, Total: total, Page: page}, nil
}

// GetQuote returns a single quote enriched for viewerID.
func (s *QuoteService) GetQuote(ctx context.Context, viewerID, id string) (*domain.QuoteView, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return viewQuote(ctx, s.likes, viewerID, q)
}

// GetRandomQuote picks a quote uniformly at random.
func (s *QuoteService) GetRandomQuote(ctx context.Context, viewerID string) (*domain.QuoteView, error) {
	n, err := s.quotes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting quotes: %w", err)
	}

	if n == 0 {
		return nil, domain.NewNotFoundError("quote", "")
	}

	q, err := s.quotes.GetAt(ctx, rand.Int64N(n)) //nolint:gosec // selection, not security
	if err != nil {
		return nil, err
	}

	return viewQuote(ctx, s.likes, viewerID, q)
}

// CreateQuote stores a new quote.
func (s *QuoteService) CreateQuote(ctx context.Context, userID string, draft domain.QuoteDraft) (*domain.QuoteView, error) {
	draft.Normalize()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	q := draft.Quote(newID(), now())
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote created",
		slog.String("quote_id", q.ID),
		slog.String("created_by", userID),
	)

	return &domain.QuoteView{Quote: *q}, nil
}

// UpdateQuote applies a partial update.
func (s *QuoteService) UpdateQuote(ctx context.Context, userID, id string, patch domain.QuotePatch) (*domain.QuoteView, error) {
	patch.Normalize()

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(q, now())

	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "quote updated",
		slog.String("quote_id", q.ID),
		slog.String("updated_by", userID),
	)

	return viewQuote(ctx, s.likes, userID, q)
}

// DeleteQuote removes a quote with its likes and collection memberships.
func (s *QuoteService) DeleteQuote(ctx context.Context, userID, id string) error {
	if err := s.quotes.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "quote deleted",
		slog.String("quote_id", id),
		slog.String("deleted_by", userID),
	)

	return nil
}

type importRequest struct {
	userID string
	count  int
}

// ImportQuotes pulls random quotes from the upstream provider and stores the
// ones that are valid and not already known.
func (s *QuoteService) ImportQuotes(ctx context.Context, userID string, count int) (*ImportResult, error) {
	var received, skipped int

	op := Operation[importRequest, []domain.QuoteDraft, []*domain.Quote, *ImportResult]{
		Name: "import_quotes",

		Validate: func(ctx context.Context, in importRequest) error {
			if !s.flags.IsEnabled(ctx, ports.FlagQuoteImport, true) {
				return domain.NewForbiddenError("import quotes", "quote import is disabled")
			}

			if s.source == nil {
				return domain.NewUnavailableError("quote-service", "no quote provider configured")
			}

			if in.count < 1 || in.count > MaxImportCount {
				return domain.NewValidationErrorWithValue("count", "count must be between 1 and 50", in.count)
			}

			return nil
		},

		Perform: func(ctx context.Context, in importRequest) ([]domain.QuoteDraft, error) {
			return s.source.RandomQuotes(ctx, in.count)
		},

		Verify: func(ctx context.Context, _ importRequest, drafts []domain.QuoteDraft) ([]*domain.Quote, error) {
			received = len(drafts)
			accepted, err := s.acceptDrafts(ctx, drafts)
			skipped = received - len(accepted)

			return accepted, err
		},

		Archive: func(ctx context.Context, _ importRequest, quotes []*domain.Quote) error {
			return s.tx.WithinTx(ctx, func(ctx context.Context) error {
				for _, q := range quotes {
					if err := s.quotes.Create(ctx, q); err != nil {
						return err
					}
				}

				return nil
			})
		},

		Respond: func(ctx context.Context, in importRequest, quotes []*domain.Quote) (*ImportResult, error) {
			s.metrics.QuotesImported(len(quotes), skipped)
			s.logger.InfoContext(ctx, "quotes imported",
				slog.String("imported_by", in.userID),
				slog.Int("stored", len(quotes)),
				slog.Int("skipped", skipped),
			)

			stored := make([]domain.Quote, len(quotes))
			for i, q := range quotes {
				stored[i] = *q
			}

			return &ImportResult{Requested: in.count, Received: received, Skipped: skipped, Quotes: stored}, nil
		},
	}

	return Execute(ctx, s.executor, op, importRequest{userID: userID, count: count})
}

// acceptDrafts keeps drafts that validate and are neither repeated in the
// batch nor already stored. Text and author are compared ignoring case.
func (s *QuoteService) acceptDrafts(ctx context.Context, drafts []domain.QuoteDraft) ([]*domain.Quote, error) {
	seen := make(map[string]struct{}, len(drafts))
	accepted := make([]*domain.Quote, 0, len(drafts))
	at := now()

	for i := range drafts {
		d := drafts[i]
		d.Normalize()

		if err := d.Validate(); err != nil {
			s.logger.DebugContext(ctx, "dropping invalid imported quote", slog.Any("error", err))
			continue
		}

		key := strings.ToLower(d.Text) + "\x00" + strings.ToLower(d.Author)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		exists, err := s.quotes.ExistsByTextAndAuthor(ctx, d.Text, d.Author)
		if err != nil {
			return nil, fmt.Errorf("checking duplicate quote: %w", err)
		}

		if exists {
			continue
		}

		accepted = append(accepted, d.Quote(newID(), at))
	}

	return accepted, nil
}
