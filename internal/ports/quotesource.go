package ports

import (
	"context"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// QuoteSource fetches quotes from an upstream provider for import.
// Returned drafts are untrusted and must be normalised and validated.
// Returns domain.ErrUnavailable if the provider is unreachable.
type QuoteSource interface {
	RandomQuotes(ctx context.Context, count int) ([]domain.QuoteDraft, error)
}
