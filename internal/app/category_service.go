package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// CategoryCount is a taxonomy entry with the number of quotes filed under it.
type CategoryCount struct {
	domain.Category

	QuoteCount int64
}

// CategoryService serves the quote taxonomy.
type CategoryService struct {
	quotes ports.QuoteRepository
}

// NewCategoryService creates the category service.
func NewCategoryService(quotes ports.QuoteRepository) *CategoryService {
	return &CategoryService{quotes: quotes}
}

// ListCategories returns every category in display order.
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	counts, err := s.quotes.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting quotes by category: %w", err)
	}

	categories := domain.Categories()
	out := make([]CategoryCount, len(categories))

	for i, c := range categories {
		out[i] = CategoryCount{Category: c, QuoteCount: counts[strings.ToLower(c.ID)]}
	}

	return out, nil
}

// GetCategory returns one category. Ids are matched ignoring case.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*CategoryCount, error) {
	c, ok := domain.FindCategory(id)
	if !ok {
		return nil, domain.NewNotFoundError("category", id)
	}

	counts, err := s.quotes.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting quotes by category: %w", err)
	}

	return &CategoryCount{Category: c, QuoteCount: counts[strings.ToLower(c.ID)]}, nil
}
