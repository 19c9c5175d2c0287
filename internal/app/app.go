// Package app contains the application services. Each service orchestrates
// one area of the API through the ports and returns domain types and errors.
// Services hold no request state; handlers pass the caller's user id explicitly,
// with an empty id meaning an anonymous caller.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

func now() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}

	return logger
}

// viewQuotes attaches like counts and the viewer's like state to quotes.
func viewQuotes(
	ctx context.Context,
	likes ports.LikeRepository,
	viewerID string,
	quotes []domain.Quote,
) ([]domain.QuoteView, error) {
	views := make([]domain.QuoteView, len(quotes))
	if len(quotes) == 0 {
		return views, nil
	}

	ids := make([]string, len(quotes))
	for i := range quotes {
		ids[i] = quotes[i].ID
	}

	counts, liked, err := Parallel2(ctx,
		func(ctx context.Context) (map[string]int64, error) {
			return likes.CountByQuote(ctx, ids)
		},
		func(ctx context.Context) (map[string]bool, error) {
			if viewerID == "" {
				return nil, nil
			}

			return likes.LikedBy(ctx, viewerID, ids)
		},
	)
	if err != nil {
		return nil, err
	}

	for i := range quotes {
		views[i] = domain.QuoteView{
			Quote:         quotes[i],
			LikeCount:     counts[quotes[i].ID],
			IsLikedByUser: liked[quotes[i].ID],
		}
	}

	return views, nil
}

func viewQuote(ctx context.Context, likes ports.LikeRepository, viewerID string, q *domain.Quote) (*domain.QuoteView, error) {
	views, err := viewQuotes(ctx, likes, viewerID, []domain.Quote{*q})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}
