package domain

import "math"

// Paging limits. MaxPage keeps Offset within int for any valid limit.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MaxPage      = math.MaxInt / MaxLimit
)

// Page selects a 1-indexed window of a listing.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit into range, substituting defaults for zero values.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = DefaultPage
	}

	if number > MaxPage {
		number = MaxPage
	}

	if limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Page{Number: number, Limit: limit}
}

// Offset returns the number of rows to skip, saturating at math.MaxInt.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}

	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}

	return (p.Number - 1) * p.Limit
}

// PageResult is one page of a listing together with the listing's size.
type PageResult[T any] struct {
	Items []T
	Total int64
	Page  Page
}

// TotalPages returns ceil(Total / Limit).
func (r PageResult[T]) TotalPages() int {
	if r.Page.Limit <= 0 || r.Total == 0 {
		return 0
	}

	return int((r.Total + int64(r.Page.Limit) - 1) / int64(r.Page.Limit))
}
