package dto

import (
	"strings"
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// QuoteResponse is the API representation of a quote.
type QuoteResponse struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags"`
	Source        string    `json:"source,omitempty"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LikeCount     int64     `json:"likeCount"`
	IsLikedByUser bool      `json:"isLikedByUser"`
}

// NewQuoteResponse converts a quote view to its API representation.
func NewQuoteResponse(v *domain.QuoteView) QuoteResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	return QuoteResponse{
		ID:            v.ID,
		Text:          v.Text,
		Author:        v.Author,
		Category:      v.Category,
		Tags:          tags,
		Source:        v.Source,
		IsPublic:      v.IsPublic,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		LikeCount:     v.LikeCount,
		IsLikedByUser: v.IsLikedByUser,
	}
}

// ListQuotesQuery holds the filters, sort and page of GET /quotes.
type ListQuotesQuery struct {
	PageQuery

	Category  string   `form:"category" json:"category"`
	Author    string   `form:"author" json:"author"`
	Tags      []string `form:"tags" json:"tags"`
	Search    string   `form:"search" json:"search"`
	IsPublic  *bool    `form:"isPublic" json:"isPublic"`
	LikedByMe bool     `form:"likedByMe" json:"likedByMe"`
	SortBy    string   `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=createdAt updatedAt author text"`
	Order     string   `form:"order" json:"order" validate:"omitempty,oneof=asc desc"`
}

// ToQuery converts the query to the service's quote query.
// Tags may be repeated or comma-separated.
func (q *ListQuotesQuery) ToQuery() app.QuoteQuery {
	var tags []string

	for _, t := range q.Tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
	}

	return app.QuoteQuery{
		Filter: domain.QuoteFilter{
			Category: strings.TrimSpace(q.Category),
			Author:   strings.TrimSpace(q.Author),
			Tags:     tags,
			Search:   strings.TrimSpace(q.Search),
			IsPublic: q.IsPublic,
		},
		Sort: domain.QuoteSort{
			Field: domain.QuoteSortField(q.SortBy),
			Asc:   q.Order == "asc",
		},
		Page:      q.ToPage(),
		LikedByMe: q.LikedByMe,
	}
}

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string   `json:"text"`
	Author   string   `json:"author"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Source   string   `json:"source"`
	IsPublic *bool    `json:"isPublic"`
}

// ToDraft converts the request to a quote draft.
func (r *CreateQuoteRequest) ToDraft() domain.QuoteDraft {
	return domain.QuoteDraft{
		Text:     r.Text,
		Author:   r.Author,
		Category: r.Category,
		Tags:     r.Tags,
		Source:   r.Source,
		IsPublic: r.IsPublic,
	}
}

// UpdateQuoteRequest is the body of PUT /quotes/:id. Omitted fields are unchanged.
type UpdateQuoteRequest struct {
	Text     *string   `json:"text"`
	Author   *string   `json:"author"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Source   *string   `json:"source"`
	IsPublic *bool     `json:"isPublic"`
}

// ToPatch converts the request to a quote patch.
func (r *UpdateQuoteRequest) ToPatch() domain.QuotePatch {
	return domain.QuotePatch{
		Text:     r.Text,
		Author:   r.Author,
		Category: r.Category,
		Tags:     r.Tags,
		Source:   r.Source,
		IsPublic: r.IsPublic,
	}
}

// LikeStatusResponse reports a quote's like state after a like or unlike.
type LikeStatusResponse struct {
	QuoteID   string `json:"quoteId"`
	LikeCount int64  `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
}

// NewLikeStatusResponse converts a like status.
func NewLikeStatusResponse(s *app.LikeStatus) LikeStatusResponse {
	return LikeStatusResponse{QuoteID: s.QuoteID, LikeCount: s.LikeCount, IsLiked: s.IsLiked}
}

// ImportQuotesRequest is the body of POST /quotes/import.
type ImportQuotesRequest struct {
	Count int `json:"count"`
}

// ImportQuotesResponse reports the outcome of a quote import.
type ImportQuotesResponse struct {
	Requested int             `json:"requested"`
	Received  int             `json:"received"`
	Imported  int             `json:"imported"`
	Skipped   int             `json:"skipped"`
	Quotes    []QuoteResponse `json:"quotes"`
}

// NewImportQuotesResponse converts an import result. Imported quotes have no likes yet.
func NewImportQuotesResponse(r *app.ImportResult) ImportQuotesResponse {
	quotes := MapItems(r.Quotes, func(q *domain.Quote) QuoteResponse {
		return NewQuoteResponse(&domain.QuoteView{Quote: *q})
	})

	return ImportQuotesResponse{
		Requested: r.Requested,
		Received:  r.Received,
		Imported:  len(r.Quotes),
		Skipped:   r.Skipped,
		Quotes:    quotes,
	}
}
