package gormstore

import (
	"context"
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// LikeRepository implements ports.LikeRepository.
type LikeRepository struct {
	store *Store
}

var _ ports.LikeRepository = (*LikeRepository)(nil)

// NewLikeRepository creates a like repository.
func NewLikeRepository(store *Store) *LikeRepository {
	return &LikeRepository{store: store}
}

// Add implements ports.LikeRepository.
func (r *LikeRepository) Add(ctx context.Context, userID, quoteID string, at time.Time) error {
	err := r.store.conn(ctx).Create(&QuoteLikeModel{UserID: userID, QuoteID: quoteID, CreatedAt: at.UTC()}).Error
	if isUniqueViolation(err) {
		return domain.ErrAlreadyLiked
	}

	return err
}

// Remove implements ports.LikeRepository.
func (r *LikeRepository) Remove(ctx context.Context, userID, quoteID string) (bool, error) {
	res := r.store.conn(ctx).Where("user_id = ? AND quote_id = ?", userID, quoteID).Delete(&QuoteLikeModel{})

	return res.RowsAffected > 0, res.Error
}

// CountByQuote implements ports.LikeRepository.
func (r *LikeRepository) CountByQuote(ctx context.Context, quoteIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(quoteIDs))
	if len(quoteIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		QuoteID string
		N       int64
	}

	err := r.store.conn(ctx).Model(&QuoteLikeModel{}).
		Select("quote_id, COUNT(*) AS n").
		Where("quote_id IN ?", quoteIDs).
		Group("quote_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.QuoteID] = row.N
	}

	return out, nil
}

// LikedBy implements ports.LikeRepository.
func (r *LikeRepository) LikedBy(ctx context.Context, userID string, quoteIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" || len(quoteIDs) == 0 {
		return out, nil
	}

	var ids []string

	err := r.store.conn(ctx).Model(&QuoteLikeModel{}).
		Where("user_id = ? AND quote_id IN ?", userID, quoteIDs).
		Pluck("quote_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		out[id] = true
	}

	return out, nil
}
