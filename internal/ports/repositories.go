package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// Transactor runs a function inside a storage transaction.
// Repositories called with the ctx passed to fn take part in the transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuoteRepository persists quotes.
type QuoteRepository interface {
	// Create stores a new quote.
	Create(ctx context.Context, q *domain.Quote) error

	// Get returns domain.ErrNotFound if the quote does not exist.
	Get(ctx context.Context, id string) (*domain.Quote, error)

	// GetMany returns the quotes that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Quote, error)

	// Update overwrites the mutable fields of an existing quote.
	Update(ctx context.Context, q *domain.Quote) error

	// Delete removes a quote together with its likes and collection memberships.
	// Returns domain.ErrNotFound if the quote does not exist.
	Delete(ctx context.Context, id string) error

	// List returns one page of quotes matching filter and the number of matches.
	List(ctx context.Context, filter domain.QuoteFilter, sort domain.QuoteSort, page domain.Page) ([]domain.Quote, int64, error)

	// Count returns the number of stored quotes.
	Count(ctx context.Context) (int64, error)

	// GetAt returns the quote at offset in a stable order.
	GetAt(ctx context.Context, offset int64) (*domain.Quote, error)

	// ExistsByTextAndAuthor reports whether an identical quote is stored, ignoring case.
	ExistsByTextAndAuthor(ctx context.Context, text, author string) (bool, error)

	// CountByCategory returns quote counts keyed by lower-cased category.
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

// LikeRepository persists quote likes.
type LikeRepository interface {
	// Add stores a like. Returns domain.ErrConflict if the user already likes the quote.
	Add(ctx context.Context, userID, quoteID string, at time.Time) error

	// Remove deletes a like and reports whether one existed.
	Remove(ctx context.Context, userID, quoteID string) (bool, error)

	// CountByQuote returns like counts keyed by quote id. Quotes without likes are absent.
	CountByQuote(ctx context.Context, quoteIDs []string) (map[string]int64, error)

	// LikedBy returns the subset of quoteIDs the user likes.
	LikedBy(ctx context.Context, userID string, quoteIDs []string) (map[string]bool, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create stores a new user. Returns domain.ErrEmailTaken or
	// domain.ErrUsernameTaken when a unique field is already used.
	Create(ctx context.Context, u *domain.User) error

	// Get returns domain.ErrNotFound if the user does not exist.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail returns domain.ErrNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetMany returns the users that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error)

	// Update overwrites the profile fields of an existing user.
	Update(ctx context.Context, u *domain.User) error

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// CollectionRepository persists collections and their memberships.
type CollectionRepository interface {
	Create(ctx context.Context, c *domain.Collection) error

	// Get returns the collection with its QuoteCount, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Collection, error)

	// GetMany returns the collections that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*domain.Collection, error)

	// ListByOwner returns one page of the user's collections, newest first.
	ListByOwner(ctx context.Context, userID string, page domain.Page) ([]domain.Collection, int64, error)

	Update(ctx context.Context, c *domain.Collection) error

	// Delete removes a collection and its memberships.
	Delete(ctx context.Context, id string) error

	// AddQuote stores a membership. Returns domain.ErrConflict on duplicates.
	AddQuote(ctx context.Context, collectionID, quoteID string, at time.Time) error

	// RemoveQuote deletes a membership if present.
	RemoveQuote(ctx context.Context, collectionID, quoteID string) error

	// ListQuotes returns one page of member quotes, most recently added first.
	ListQuotes(ctx context.Context, collectionID string, page domain.Page) ([]domain.CollectionQuote, int64, error)
}

// FollowRepository persists the follow graph.
type FollowRepository interface {
	// Add stores a follow. Returns domain.ErrConflict on duplicates.
	Add(ctx context.Context, f domain.Follow) error

	// Remove deletes a follow and reports whether one existed.
	Remove(ctx context.Context, followerID, followingID string) (bool, error)

	Exists(ctx context.Context, followerID, followingID string) (bool, error)

	// ListFollowers returns the users following userID, newest first.
	ListFollowers(ctx context.Context, userID string, page domain.Page) ([]domain.FollowEntry, int64, error)

	// ListFollowing returns the users userID follows, newest first.
	ListFollowing(ctx context.Context, userID string, page domain.Page) ([]domain.FollowEntry, int64, error)

	// Counts returns how many users follow userID and how many userID follows.
	Counts(ctx context.Context, userID string) (followers, following int64, err error)
}

// ActivityQuery selects feed entries.
type ActivityQuery struct {
	// UserID restricts the feed to one actor.
	UserID string

	// FollowedBy restricts the feed to actors followed by this user.
	FollowedBy string

	// ViewerID is exempt from like privacy; likes of other actors with
	// private likes are excluded.
	ViewerID string

	Limit int
}

// ActivityRepository persists the append-only activity log.
type ActivityRepository interface {
	Append(ctx context.Context, a *domain.Activity) error

	// Recent returns matching activities, newest first.
	Recent(ctx context.Context, q ActivityQuery) ([]domain.Activity, error)
}
