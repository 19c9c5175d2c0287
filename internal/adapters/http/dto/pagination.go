package dto

import "github.com/jsamuelsen/mnemosyne/internal/domain"

// PageQuery represents page-number pagination parameters from the request.
type PageQuery struct {
	// Page is 1-indexed; zero selects the first page.
	Page int `form:"page" json:"page" validate:"omitempty,gte=1"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// ToPage applies defaults and returns the domain page.
func (q PageQuery) ToPage() domain.Page {
	return domain.NewPage(q.Page, q.Limit)
}

// Pagination describes the page returned alongside a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination builds the pagination block for a page of results.
func NewPagination[T any](r domain.PageResult[T]) Pagination {
	return Pagination{
		Page:       r.Page.Number,
		Limit:      r.Page.Limit,
		Total:      r.Total,
		TotalPages: r.TotalPages(),
	}
}

// MapItems converts every item of a page with fn. The result is never nil.
func MapItems[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, len(items))
	for i := range items {
		out[i] = fn(&items[i])
	}

	return out
}
