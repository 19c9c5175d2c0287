package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// CollectionRepository implements ports.CollectionRepository.
type CollectionRepository struct {
	store *Store
}

var _ ports.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository creates a collection repository.
func NewCollectionRepository(store *Store) *CollectionRepository {
	return &CollectionRepository{store: store}
}

const collectionColumns = "collections.*, " +
	"(SELECT COUNT(*) FROM collection_quotes cq WHERE cq.collection_id = collections.id) AS quote_count"

func (r *CollectionRepository) withCount(ctx context.Context) *gorm.DB {
	return r.store.conn(ctx).Model(&CollectionModel{}).Select(collectionColumns)
}

// Create implements ports.CollectionRepository.
func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	return translateError(r.store.conn(ctx).Create(collectionToModel(c)).Error, "collection", c.ID)
}

// Get implements ports.CollectionRepository.
func (r *CollectionRepository) Get(ctx context.Context, id string) (*domain.Collection, error) {
	var m CollectionModel
	if err := r.withCount(ctx).Where("collections.id = ?", id).Take(&m).Error; err != nil {
		return nil, translateError(err, "collection", id)
	}

	c := m.toDomain()

	return &c, nil
}

// GetMany implements ports.CollectionRepository.
func (r *CollectionRepository) GetMany(ctx context.Context, ids []string) (map[string]*domain.Collection, error) {
	out := make(map[string]*domain.Collection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []CollectionModel
	if err := r.store.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		c := rows[i].toDomain()
		out[c.ID] = &c
	}

	return out, nil
}

// ListByOwner implements ports.CollectionRepository.
func (r *CollectionRepository) ListByOwner(
	ctx context.Context,
	userID string,
	page domain.Page,
) ([]domain.Collection, int64, error) {
	var total int64
	if err := r.store.conn(ctx).Model(&CollectionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []CollectionModel

	err := r.withCount(ctx).
		Where("collections.user_id = ?", userID).
		Order("collections.created_at DESC").
		Order("collections.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Collection, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}

	return out, total, nil
}

// Update implements ports.CollectionRepository.
func (r *CollectionRepository) Update(ctx context.Context, c *domain.Collection) error {
	res := r.store.conn(ctx).Model(&CollectionModel{}).Where("id = ?", c.ID).Updates(map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"updated_at":  c.UpdatedAt.UTC(),
	})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("collection", c.ID)
	}

	return nil
}

// Delete implements ports.CollectionRepository.
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	return r.store.WithinTx(ctx, func(ctx context.Context) error {
		db := r.store.conn(ctx)

		if err := db.Where("collection_id = ?", id).Delete(&CollectionQuoteModel{}).Error; err != nil {
			return err
		}

		res := db.Where("id = ?", id).Delete(&CollectionModel{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return domain.NewNotFoundError("collection", id)
		}

		return nil
	})
}

// AddQuote implements ports.CollectionRepository.
func (r *CollectionRepository) AddQuote(ctx context.Context, collectionID, quoteID string, at time.Time) error {
	err := r.store.conn(ctx).Create(&CollectionQuoteModel{
		CollectionID: collectionID,
		QuoteID:      quoteID,
		AddedAt:      at.UTC(),
	}).Error
	if isUniqueViolation(err) {
		return domain.ErrAlreadyInCollection
	}

	return err
}

// RemoveQuote implements ports.CollectionRepository.
func (r *CollectionRepository) RemoveQuote(ctx context.Context, collectionID, quoteID string) error {
	return r.store.conn(ctx).
		Where("collection_id = ? AND quote_id = ?", collectionID, quoteID).
		Delete(&CollectionQuoteModel{}).Error
}

type collectionQuoteRow struct {
	QuoteModel `gorm:"embedded"`

	AddedAt time.Time
}

// ListQuotes implements ports.CollectionRepository.
func (r *CollectionRepository) ListQuotes(
	ctx context.Context,
	collectionID string,
	page domain.Page,
) ([]domain.CollectionQuote, int64, error) {
	var total int64

	err := r.store.conn(ctx).Model(&CollectionQuoteModel{}).
		Joins("JOIN quotes ON quotes.id = collection_quotes.quote_id").
		Where("collection_quotes.collection_id = ?", collectionID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []collectionQuoteRow

	err = r.store.conn(ctx).Table("collection_quotes").
		Select("quotes.*, collection_quotes.added_at").
		Joins("JOIN quotes ON quotes.id = collection_quotes.quote_id").
		Where("collection_quotes.collection_id = ?", collectionID).
		Order("collection_quotes.added_at DESC").
		Order("quotes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.CollectionQuote, 0, len(rows))
	for i := range rows {
		out = append(out, domain.CollectionQuote{
			QuoteView: domain.QuoteView{Quote: rows[i].QuoteModel.toDomain()},
			AddedAt:   rows[i].AddedAt.UTC(),
		})
	}

	return out, total, nil
}
