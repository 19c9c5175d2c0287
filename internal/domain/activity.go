package domain

import "time"

// ActivityType identifies the user action an Activity records.
type ActivityType string

// Recorded activity types.
const (
	ActivityLike             ActivityType = "like"
	ActivityCollectionCreate ActivityType = "collectionCreate"
	ActivityCollectionUpdate ActivityType = "collectionUpdate"
	ActivityQuoteAdd         ActivityType = "quoteAdd"
)

// Feed limits.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// Activity is an append-only record of a user action.
// QuoteID and CollectionID are empty when the action does not reference one.
type Activity struct {
	ID           string
	UserID       string
	Type         ActivityType
	QuoteID      string
	CollectionID string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// QuoteSummary is the part of a quote shown in feeds.
type QuoteSummary struct {
	ID     string
	Text   string
	Author string
}

// CollectionSummary is the part of a collection shown in feeds.
type CollectionSummary struct {
	ID   string
	Name string
}

// FeedItem is an activity enriched with whatever it references that still exists.
type FeedItem struct {
	Activity

	User       *UserSummary
	Quote      *QuoteSummary
	Collection *CollectionSummary
}
