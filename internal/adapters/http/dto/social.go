package dto

import (
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// FollowEntryResponse is one row of a followers or following list.
type FollowEntryResponse struct {
	UserSummaryResponse

	FollowedAt time.Time `json:"followedAt"`
}

// NewFollowEntryResponse converts a follow entry.
func NewFollowEntryResponse(e *domain.FollowEntry) FollowEntryResponse {
	return FollowEntryResponse{
		UserSummaryResponse: NewUserSummaryResponse(e.User),
		FollowedAt:          e.FollowedAt,
	}
}

// FollowStatusResponse answers GET /follows/check/:userId.
type FollowStatusResponse struct {
	IsFollowing bool `json:"isFollowing"`
}

// FeedQuery holds the limit of a feed request. Zero selects the default.
type FeedQuery struct {
	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// QuoteSummaryResponse is the part of a quote embedded in feed items.
type QuoteSummaryResponse struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// CollectionSummaryResponse is the part of a collection embedded in feed items.
type CollectionSummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FeedItemResponse is an activity with the entities it references.
// References that no longer exist are omitted.
type FeedItemResponse struct {
	ID           string                     `json:"id"`
	UserID       string                     `json:"userId"`
	ActivityType domain.ActivityType        `json:"activityType"`
	QuoteID      string                     `json:"quoteId,omitempty"`
	CollectionID string                     `json:"collectionId,omitempty"`
	Metadata     map[string]any             `json:"metadata,omitempty"`
	CreatedAt    time.Time                  `json:"createdAt"`
	User         *UserSummaryResponse       `json:"user,omitempty"`
	Quote        *QuoteSummaryResponse      `json:"quote,omitempty"`
	Collection   *CollectionSummaryResponse `json:"collection,omitempty"`
}

// NewFeedItemResponse converts a feed item.
func NewFeedItemResponse(item *domain.FeedItem) FeedItemResponse {
	resp := FeedItemResponse{
		ID:           item.ID,
		UserID:       item.UserID,
		ActivityType: item.Type,
		QuoteID:      item.QuoteID,
		CollectionID: item.CollectionID,
		Metadata:     item.Metadata,
		CreatedAt:    item.CreatedAt,
	}

	if item.User != nil {
		u := NewUserSummaryResponse(*item.User)
		resp.User = &u
	}

	if item.Quote != nil {
		resp.Quote = &QuoteSummaryResponse{ID: item.Quote.ID, Text: item.Quote.Text, Author: item.Quote.Author}
	}

	if item.Collection != nil {
		resp.Collection = &CollectionSummaryResponse{ID: item.Collection.ID, Name: item.Collection.Name}
	}

	return resp
}

// CategoryResponse is a taxonomy entry with its quote count.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	QuoteCount  int64  `json:"quoteCount"`
}

// NewCategoryResponse converts a category count.
func NewCategoryResponse(c *app.CategoryCount) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		QuoteCount:  c.QuoteCount,
	}
}
