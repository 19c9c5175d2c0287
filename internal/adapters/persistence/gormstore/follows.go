package gormstore

import (
	"context"
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// FollowRepository implements ports.FollowRepository.
type FollowRepository struct {
	store *Store
}

var _ ports.FollowRepository = (*FollowRepository)(nil)

// NewFollowRepository creates a follow repository.
func NewFollowRepository(store *Store) *FollowRepository {
	return &FollowRepository{store: store}
}

// Add implements ports.FollowRepository.
func (r *FollowRepository) Add(ctx context.Context, f domain.Follow) error {
	err := r.store.conn(ctx).Create(&FollowModel{
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		CreatedAt:   f.CreatedAt.UTC(),
	}).Error
	if isUniqueViolation(err) {
		return domain.ErrAlreadyFollowing
	}

	return err
}

// Remove implements ports.FollowRepository.
func (r *FollowRepository) Remove(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.store.conn(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&FollowModel{})

	return res.RowsAffected > 0, res.Error
}

// Exists implements ports.FollowRepository.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int64

	err := r.store.conn(ctx).Model(&FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error

	return n > 0, err
}

// ListFollowers implements ports.FollowRepository.
func (r *FollowRepository) ListFollowers(
	ctx context.Context,
	userID string,
	page domain.Page,
) ([]domain.FollowEntry, int64, error) {
	return r.list(ctx, "following_id", "follower_id", userID, page)
}

// ListFollowing implements ports.FollowRepository.
func (r *FollowRepository) ListFollowing(
	ctx context.Context,
	userID string,
	page domain.Page,
) ([]domain.FollowEntry, int64, error) {
	return r.list(ctx, "follower_id", "following_id", userID, page)
}

type followRow struct {
	ID          string
	Username    string
	DisplayName string
	FollowedAt  time.Time
}

// list pages through follows where matchColumn = userID, joining the user on
// the other side of the edge.
func (r *FollowRepository) list(
	ctx context.Context,
	matchColumn, userColumn, userID string,
	page domain.Page,
) ([]domain.FollowEntry, int64, error) {
	var total int64
	if err := r.store.conn(ctx).Model(&FollowModel{}).Where(matchColumn+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []followRow

	err := r.store.conn(ctx).Table("follows").
		Select("users.id, users.username, users.display_name, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = follows."+userColumn).
		Where("follows."+matchColumn+" = ?", userID).
		Order("follows.created_at DESC").
		Order("users.id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.FollowEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.FollowEntry{
			User: domain.UserSummary{
				ID:          row.ID,
				Username:    row.Username,
				DisplayName: row.DisplayName,
			},
			FollowedAt: row.FollowedAt.UTC(),
		})
	}

	return out, total, nil
}

// Counts implements ports.FollowRepository.
func (r *FollowRepository) Counts(ctx context.Context, userID string) (int64, int64, error) {
	var followers, following int64

	if err := r.store.conn(ctx).Model(&FollowModel{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}

	if err := r.store.conn(ctx).Model(&FollowModel{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}

	return followers, following, nil
}
