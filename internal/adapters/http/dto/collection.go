package dto

import (
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// CollectionResponse is the API representation of a collection.
type CollectionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	QuoteCount  int64     `json:"quoteCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewCollectionResponse converts a collection.
func NewCollectionResponse(c *domain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		QuoteCount:  c.QuoteCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CollectionQuoteResponse is a member quote and when it was added.
type CollectionQuoteResponse struct {
	QuoteResponse

	AddedAt time.Time `json:"addedAt"`
}

// NewCollectionQuoteResponse converts a collection member.
func NewCollectionQuoteResponse(cq *domain.CollectionQuote) CollectionQuoteResponse {
	return CollectionQuoteResponse{
		QuoteResponse: NewQuoteResponse(&cq.QuoteView),
		AddedAt:       cq.AddedAt,
	}
}

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToDraft converts the request to a collection draft.
func (r *CreateCollectionRequest) ToDraft() domain.CollectionDraft {
	return domain.CollectionDraft{Name: r.Name, Description: r.Description}
}

// UpdateCollectionRequest is the body of PATCH /collections/:id.
type UpdateCollectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ToPatch converts the request to a collection patch.
func (r *UpdateCollectionRequest) ToPatch() domain.CollectionPatch {
	return domain.CollectionPatch{Name: r.Name, Description: r.Description}
}

// AddCollectionQuoteRequest is the body of POST /collections/:id/quotes.
type AddCollectionQuoteRequest struct {
	QuoteID string `json:"quoteId" validate:"required,notempty"`
}
