package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// ActivityService appends to and reads from the activity log.
type ActivityService struct {
	activities  ports.ActivityRepository
	users       ports.UserRepository
	quotes      ports.QuoteRepository
	collections ports.CollectionRepository
	flags       ports.FeatureFlags
	metrics     *metrics.Recorder
	logger      *slog.Logger
}

// ActivityServiceConfig contains the dependencies of the activity service.
type ActivityServiceConfig struct {
	Activities  ports.ActivityRepository
	Users       ports.UserRepository
	Quotes      ports.QuoteRepository
	Collections ports.CollectionRepository
	Flags       ports.FeatureFlags
	Metrics     *metrics.Recorder
	Logger      *slog.Logger
}

// NewActivityService creates the activity service.
func NewActivityService(cfg ActivityServiceConfig) *ActivityService {
	if cfg.Activities == nil || cfg.Users == nil || cfg.Quotes == nil || cfg.Collections == nil || cfg.Flags == nil {
		panic("ActivityService: repositories and Flags are required")
	}

	return &ActivityService{
		activities:  cfg.Activities,
		users:       cfg.Users,
		quotes:      cfg.Quotes,
		collections: cfg.Collections,
		flags:       cfg.Flags,
		metrics:     cfg.Metrics,
		logger:      loggerOrDefault(cfg.Logger),
	}
}

// Record appends an activity. ID and CreatedAt are assigned when empty.
// Called with a transaction context, the append joins that transaction.
func (s *ActivityService) Record(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = newID()
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}

	if err := s.activities.Append(ctx, a); err != nil {
		return fmt.Errorf("recording %s activity: %w", a.Type, err)
	}

	s.metrics.ActivityRecorded(string(a.Type))

	return nil
}

// GlobalFeed returns the most recent activities of all users.
func (s *ActivityService) GlobalFeed(ctx context.Context, viewerID string, limit int) ([]domain.FeedItem, error) {
	return s.feed(ctx, viewerID, ports.ActivityQuery{}, limit)
}

// UserFeed returns the most recent activities of userID.
func (s *ActivityService) UserFeed(ctx context.Context, viewerID, userID string, limit int) ([]domain.FeedItem, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	return s.feed(ctx, viewerID, ports.ActivityQuery{UserID: userID}, limit)
}

// MyFeed returns the caller's own activities.
func (s *ActivityService) MyFeed(ctx context.Context, userID string, limit int) ([]domain.FeedItem, error) {
	return s.UserFeed(ctx, userID, userID, limit)
}

// FollowingFeed returns the activities of the users viewerID follows.
func (s *ActivityService) FollowingFeed(ctx context.Context, viewerID string, limit int) ([]domain.FeedItem, error) {
	return s.feed(ctx, viewerID, ports.ActivityQuery{FollowedBy: viewerID}, limit)
}

func (s *ActivityService) feed(ctx context.Context, viewerID string, q ports.ActivityQuery, limit int) ([]domain.FeedItem, error) {
	limit, err := s.resolveLimit(ctx, limit)
	if err != nil {
		return nil, err
	}

	q.ViewerID = viewerID
	q.Limit = limit

	activities, err := s.activities.Recent(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reading activities: %w", err)
	}

	return s.enrich(ctx, viewerID, activities)
}

// resolveLimit applies the flag-controlled default to a zero limit.
func (s *ActivityService) resolveLimit(ctx context.Context, limit int) (int, error) {
	if limit == 0 {
		limit = s.flags.GetInt(ctx, ports.FlagFeedDefaultLimit, domain.DefaultFeedLimit)
		limit = max(1, min(limit, domain.MaxFeedLimit))
	}

	if limit < 1 || limit > domain.MaxFeedLimit {
		return 0, domain.NewValidationErrorWithValue("limit", "limit must be between 1 and 100", limit)
	}

	return limit, nil
}

// enrich loads actors, quotes and collections in parallel. References that no
// longer exist are left empty; likes the viewer may not see are dropped.
func (s *ActivityService) enrich(ctx context.Context, viewerID string, activities []domain.Activity) ([]domain.FeedItem, error) {
	if len(activities) == 0 {
		return []domain.FeedItem{}, nil
	}

	var userIDs, quoteIDs, collectionIDs []string

	for _, a := range activities {
		userIDs = append(userIDs, a.UserID)

		if a.QuoteID != "" {
			quoteIDs = append(quoteIDs, a.QuoteID)
		}

		if a.CollectionID != "" {
			collectionIDs = append(collectionIDs, a.CollectionID)
		}
	}

	users, quotes, collections, err := Parallel3(ctx,
		func(ctx context.Context) (map[string]*domain.User, error) {
			return s.users.GetMany(ctx, userIDs)
		},
		func(ctx context.Context) (map[string]*domain.Quote, error) {
			return s.quotes.GetMany(ctx, quoteIDs)
		},
		func(ctx context.Context) (map[string]*domain.Collection, error) {
			return s.collections.GetMany(ctx, collectionIDs)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("enriching feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(activities))

	for _, a := range activities {
		actor := users[a.UserID]
		if a.Type == domain.ActivityLike && actor != nil && !domain.CanViewLikes(viewerID, actor) {
			continue
		}

		item := domain.FeedItem{Activity: a}

		if actor != nil {
			summary := actor.Summary()
			item.User = &summary
		}

		if q, ok := quotes[a.QuoteID]; ok {
			item.Quote = &domain.QuoteSummary{ID: q.ID, Text: q.Text, Author: q.Author}
		}

		if c, ok := collections[a.CollectionID]; ok {
			item.Collection = &domain.CollectionSummary{ID: c.ID, Name: c.Name}
		}

		items = append(items, item)
	}

	return items, nil
}
