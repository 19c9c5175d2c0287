package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// FollowService manages the follow graph.
type FollowService struct {
	follows ports.FollowRepository
	users   ports.UserRepository
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// FollowServiceConfig contains the dependencies of the follow service.
type FollowServiceConfig struct {
	Follows ports.FollowRepository
	Users   ports.UserRepository
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// NewFollowService creates the follow service.
func NewFollowService(cfg FollowServiceConfig) *FollowService {
	if cfg.Follows == nil || cfg.Users == nil {
		panic("FollowService: Follows and Users are required")
	}

	return &FollowService{
		follows: cfg.Follows,
		users:   cfg.Users,
		metrics: cfg.Metrics,
		logger:  loggerOrDefault(cfg.Logger),
	}
}

// Follow makes followerID follow targetID.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return domain.ErrSelfFollow
	}

	if _, err := s.users.Get(ctx, targetID); err != nil {
		return err
	}

	err := s.follows.Add(ctx, domain.Follow{FollowerID: followerID, FollowingID: targetID, CreatedAt: now()})
	if err != nil {
		return err
	}

	s.metrics.UserFollowed(true)

	return nil
}

// Unfollow removes the follow of targetID by followerID.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID string) error {
	removed, err := s.follows.Remove(ctx, followerID, targetID)
	if err != nil {
		return fmt.Errorf("removing follow: %w", err)
	}

	if !removed {
		return domain.ErrNotFollowing
	}

	s.metrics.UserFollowed(false)

	return nil
}

// ListFollowers returns the users following userID, most recent first.
func (s *FollowService) ListFollowers(ctx context.Context, userID string, page domain.Page) (domain.PageResult[domain.FollowEntry], error) {
	return s.list(ctx, userID, page, s.follows.ListFollowers)
}

// ListFollowing returns the users userID follows, most recent first.
func (s *FollowService) ListFollowing(ctx context.Context, userID string, page domain.Page) (domain.PageResult[domain.FollowEntry], error) {
	return s.list(ctx, userID, page, s.follows.ListFollowing)
}

func (s *FollowService) list(
	ctx context.Context,
	userID string,
	page domain.Page,
	fetch func(context.Context, string, domain.Page) ([]domain.FollowEntry, int64, error),
) (domain.PageResult[domain.FollowEntry], error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return domain.PageResult[domain.FollowEntry]{}, err
	}

	page = domain.NewPage(page.Number, page.Limit)

	items, total, err := fetch(ctx, userID, page)
	if err != nil {
		return domain.PageResult[domain.FollowEntry]{}, fmt.Errorf("listing follows: %w", err)
	}

	return domain.PageResult[domain.FollowEntry]{Items: items, Total: total, Page: page}, nil
}

// IsFollowing reports whether viewerID follows targetID.
// Anonymous viewers follow nobody.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, targetID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}

	return s.follows.Exists(ctx, viewerID, targetID)
}
