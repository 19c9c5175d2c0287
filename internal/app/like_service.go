package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// LikeStatus is a quote's like state after a like or unlike.
type LikeStatus struct {
	QuoteID   string
	LikeCount int64
	IsLiked   bool
}

// LikeService manages quote likes.
type LikeService struct {
	quotes     ports.QuoteRepository
	likes      ports.LikeRepository
	users      ports.UserRepository
	tx         ports.Transactor
	activities *ActivityService
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

// LikeServiceConfig contains the dependencies of the like service.
type LikeServiceConfig struct {
	Quotes     ports.QuoteRepository
	Likes      ports.LikeRepository
	Users      ports.UserRepository
	Transactor ports.Transactor
	Activities *ActivityService
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// NewLikeService creates the like service.
func NewLikeService(cfg LikeServiceConfig) *LikeService {
	if cfg.Quotes == nil || cfg.Likes == nil || cfg.Users == nil || cfg.Transactor == nil || cfg.Activities == nil {
		panic("LikeService: repositories, Transactor and Activities are required")
	}

	return &LikeService{
		quotes:     cfg.Quotes,
		likes:      cfg.Likes,
		users:      cfg.Users,
		tx:         cfg.Transactor,
		activities: cfg.Activities,
		metrics:    cfg.Metrics,
		logger:     loggerOrDefault(cfg.Logger),
	}
}

// Like records that userID likes quoteID and appends a like activity.
func (s *LikeService) Like(ctx context.Context, userID, quoteID string) (*LikeStatus, error) {
	if _, err := s.quotes.Get(ctx, quoteID); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		at := now()
		if err := s.likes.Add(ctx, userID, quoteID, at); err != nil {
			return err
		}

		return s.activities.Record(ctx, &domain.Activity{
			UserID:    userID,
			Type:      domain.ActivityLike,
			QuoteID:   quoteID,
			CreatedAt: at,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.QuoteLiked(true)

	return s.status(ctx, quoteID, true)
}

// Unlike removes userID's like of quoteID. No activity is recorded.
func (s *LikeService) Unlike(ctx context.Context, userID, quoteID string) (*LikeStatus, error) {
	if _, err := s.quotes.Get(ctx, quoteID); err != nil {
		return nil, err
	}

	removed, err := s.likes.Remove(ctx, userID, quoteID)
	if err != nil {
		return nil, fmt.Errorf("removing like: %w", err)
	}

	if !removed {
		return nil, domain.ErrNotLiked
	}

	s.metrics.QuoteLiked(false)

	return s.status(ctx, quoteID, false)
}

func (s *LikeService) status(ctx context.Context, quoteID string, liked bool) (*LikeStatus, error) {
	counts, err := s.likes.CountByQuote(ctx, []string{quoteID})
	if err != nil {
		return nil, fmt.Errorf("counting likes: %w", err)
	}

	return &LikeStatus{QuoteID: quoteID, LikeCount: counts[quoteID], IsLiked: liked}, nil
}

// ListUserLikes returns the quotes ownerID likes, newest quotes first.
// Returns domain.ErrLikesPrivate when the owner hides likes from viewerID.
func (s *LikeService) ListUserLikes(
	ctx context.Context,
	viewerID, ownerID string,
	page domain.Page,
) (domain.PageResult[domain.QuoteView], error) {
	owner, err := s.users.Get(ctx, ownerID)
	if err != nil {
		return domain.PageResult[domain.QuoteView]{}, err
	}

	if !domain.CanViewLikes(viewerID, owner) {
		return domain.PageResult[domain.QuoteView]{}, domain.ErrLikesPrivate
	}

	page = domain.NewPage(page.Number, page.Limit)

	quotes, total, err := s.quotes.List(ctx,
		domain.QuoteFilter{LikedBy: ownerID},
		domain.QuoteSort{Field: domain.SortByCreatedAt},
		page,
	)
	if err != nil {
		return domain.PageResult[domain.QuoteView]{}, fmt.Errorf("listing liked quotes: %w", err)
	}

	views, err := viewQuotes(ctx, s.likes, viewerID, quotes)
	if err != nil {
		return domain.PageResult[domain.QuoteView]{}, fmt.Errorf("loading likes: %w", err)
	}

	return domain.PageResult[domain.QuoteView]{Items: views, Total: total, Page: page}, nil
}
