package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// CollectionService manages user-owned collections.
// Collections of other users are reported as not found.
type CollectionService struct {
	collections ports.CollectionRepository
	quotes      ports.QuoteRepository
	likes       ports.LikeRepository
	tx          ports.Transactor
	activities  *ActivityService
	logger      *slog.Logger
}

// CollectionServiceConfig contains the dependencies of the collection service.
type CollectionServiceConfig struct {
	Collections ports.CollectionRepository
	Quotes      ports.QuoteRepository
	Likes       ports.LikeRepository
	Transactor  ports.Transactor
	Activities  *ActivityService
	Logger      *slog.Logger
}

// NewCollectionService creates the collection service.
func NewCollectionService(cfg CollectionServiceConfig) *CollectionService {
	if cfg.Collections == nil || cfg.Quotes == nil || cfg.Likes == nil || cfg.Transactor == nil || cfg.Activities == nil {
		panic("CollectionService: repositories, Transactor and Activities are required")
	}

	return &CollectionService{
		collections: cfg.Collections,
		quotes:      cfg.Quotes,
		likes:       cfg.Likes,
		tx:          cfg.Transactor,
		activities:  cfg.Activities,
		logger:      loggerOrDefault(cfg.Logger),
	}
}

// ListCollections returns one page of userID's collections, newest first.
func (s *CollectionService) ListCollections(
	ctx context.Context,
	userID string,
	page domain.Page,
) (domain.PageResult[domain.Collection], error) {
	page = domain.NewPage(page.Number, page.Limit)

	items, total, err := s.collections.ListByOwner(ctx, userID, page)
	if err != nil {
		return domain.PageResult[domain.Collection]{}, fmt.Errorf("listing collections: %w", err)
	}

	return domain.PageResult[domain.Collection]{Items: items, Total: total, Page: page}, nil
}

// CreateCollection creates a collection owned by userID.
func (s *CollectionService) CreateCollection(ctx context.Context, userID string, draft domain.CollectionDraft) (*domain.Collection, error) {
	draft.Normalize()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	at := now()
	c := &domain.Collection{
		ID:          newID(),
		Name:        draft.Name,
		Description: draft.Description,
		UserID:      userID,
		CreatedAt:   at,
		UpdatedAt:   at,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.collections.Create(ctx, c); err != nil {
			return err
		}

		return s.activities.Record(ctx, &domain.Activity{
			UserID:       userID,
			Type:         domain.ActivityCollectionCreate,
			CollectionID: c.ID,
			Metadata:     map[string]any{"collectionName": c.Name},
			CreatedAt:    at,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return c, nil
}

// GetCollection returns a collection owned by userID.
func (s *CollectionService) GetCollection(ctx context.Context, userID, id string) (*domain.Collection, error) {
	return s.owned(ctx, userID, id)
}

// UpdateCollection applies a partial update to a collection owned by userID.
func (s *CollectionService) UpdateCollection(
	ctx context.Context,
	userID, id string,
	patch domain.CollectionPatch,
) (*domain.Collection, error) {
	patch.Normalize()

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	at := now()
	patch.Apply(c, at)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.collections.Update(ctx, c); err != nil {
			return err
		}

		return s.activities.Record(ctx, &domain.Activity{
			UserID:       userID,
			Type:         domain.ActivityCollectionUpdate,
			CollectionID: c.ID,
			Metadata:     map[string]any{"collectionName": c.Name},
			CreatedAt:    at,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("updating collection: %w", err)
	}

	return c, nil
}

// DeleteCollection removes a collection owned by userID and its memberships.
func (s *CollectionService) DeleteCollection(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	return s.collections.Delete(ctx, id)
}

// ListCollectionQuotes returns one page of member quotes, most recently added first.
func (s *CollectionService) ListCollectionQuotes(
	ctx context.Context,
	userID, id string,
	page domain.Page,
) (domain.PageResult[domain.CollectionQuote], error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return domain.PageResult[domain.CollectionQuote]{}, err
	}

	page = domain.NewPage(page.Number, page.Limit)

	items, total, err := s.collections.ListQuotes(ctx, id, page)
	if err != nil {
		return domain.PageResult[domain.CollectionQuote]{}, fmt.Errorf("listing collection quotes: %w", err)
	}

	quotes := make([]domain.Quote, len(items))
	for i := range items {
		quotes[i] = items[i].Quote
	}

	views, err := viewQuotes(ctx, s.likes, userID, quotes)
	if err != nil {
		return domain.PageResult[domain.CollectionQuote]{}, fmt.Errorf("loading likes: %w", err)
	}

	for i := range items {
		items[i].QuoteView = views[i]
	}

	return domain.PageResult[domain.CollectionQuote]{Items: items, Total: total, Page: page}, nil
}

// AddQuote adds quoteID to a collection owned by userID.
func (s *CollectionService) AddQuote(ctx context.Context, userID, id, quoteID string) (*domain.Collection, error) {
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.quotes.Get(ctx, quoteID); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		at := now()
		if err := s.collections.AddQuote(ctx, id, quoteID, at); err != nil {
			return err
		}

		return s.activities.Record(ctx, &domain.Activity{
			UserID:       userID,
			Type:         domain.ActivityQuoteAdd,
			QuoteID:      quoteID,
			CollectionID: id,
			Metadata:     map[string]any{"collectionName": c.Name},
			CreatedAt:    at,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.collections.Get(ctx, id)
}

// RemoveQuote removes quoteID from a collection owned by userID.
// Removing a quote that is not a member succeeds.
func (s *CollectionService) RemoveQuote(ctx context.Context, userID, id, quoteID string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.collections.RemoveQuote(ctx, id, quoteID); err != nil {
		return fmt.Errorf("removing quote from collection: %w", err)
	}

	return nil
}

// owned loads a collection and hides it from everyone but its owner.
func (s *CollectionService) owned(ctx context.Context, userID, id string) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.UserID != userID {
		return nil, domain.NewNotFoundError("collection", id)
	}

	return c, nil
}
