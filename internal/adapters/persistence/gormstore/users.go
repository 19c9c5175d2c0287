package gormstore

import (
	"context"
	"strings"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	store *Store
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a user repository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create implements ports.UserRepository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.store.conn(ctx).Create(userToModel(u)).Error
	if err == nil {
		return nil
	}

	if isUniqueViolation(err) {
		if violatedColumn(err, "email", "username") == "username" {
			return domain.ErrUsernameTaken
		}

		return domain.ErrEmailTaken
	}

	return err
}

// Get implements ports.UserRepository.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var m UserModel
	if err := r.store.conn(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, translateError(err, "user", id)
	}

	return m.toDomain(), nil
}

// GetByEmail implements ports.UserRepository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m UserModel
	if err := r.store.conn(ctx).Where("email = ?", strings.ToLower(email)).Take(&m).Error; err != nil {
		return nil, translateError(err, "user", "")
	}

	return m.toDomain(), nil
}

// GetMany implements ports.UserRepository.
func (r *UserRepository) GetMany(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []UserModel
	if err := r.store.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		out[rows[i].ID] = rows[i].toDomain()
	}

	return out, nil
}

// Update implements ports.UserRepository.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	res := r.store.conn(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"display_name":  u.DisplayName,
		"bio":           u.Bio,
		"avatar_url":    u.AvatarURL,
		"likes_private": u.LikesPrivate,
	})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("user", u.ID)
	}

	return nil
}

// ExistsByEmail implements ports.UserRepository.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", strings.ToLower(email))
}

// ExistsByUsername implements ports.UserRepository. Usernames compare
// case-insensitively.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "LOWER(username) = ?", strings.ToLower(username))
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var n int64
	err := r.store.conn(ctx).Model(&UserModel{}).Where(query, arg).Limit(1).Count(&n).Error

	return n > 0, err
}
