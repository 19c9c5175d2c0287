package gormstore

import (
	"context"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// ActivityRepository implements ports.ActivityRepository.
type ActivityRepository struct {
	store *Store
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository creates an activity repository.
func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{store: store}
}

// Append implements ports.ActivityRepository.
func (r *ActivityRepository) Append(ctx context.Context, a *domain.Activity) error {
	return translateError(r.store.conn(ctx).Create(activityToModel(a)).Error, "activity", a.ID)
}

// Recent implements ports.ActivityRepository. Like entries of actors with
// private likes are excluded unless the actor is the viewer.
func (r *ActivityRepository) Recent(ctx context.Context, q ports.ActivityQuery) ([]domain.Activity, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultFeedLimit
	}

	db := r.store.conn(ctx).Model(&ActivityModel{})

	if q.UserID != "" {
		db = db.Where("activities.user_id = ?", q.UserID)
	}

	if q.FollowedBy != "" {
		db = db.Where("activities.user_id IN (SELECT following_id FROM follows WHERE follower_id = ?)", q.FollowedBy)
	}

	db = db.Where(
		"NOT (activities.activity_type = ? AND activities.user_id <> ? AND EXISTS "+
			"(SELECT 1 FROM users u WHERE u.id = activities.user_id AND u.likes_private = ?))",
		string(domain.ActivityLike), q.ViewerID, true,
	)

	var rows []ActivityModel

	err := db.Order("activities.created_at DESC").
		Order("activities.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}

	return out, nil
}
