package gormstore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// QuoteRepository implements ports.QuoteRepository.
type QuoteRepository struct {
	store *Store
}

var _ ports.QuoteRepository = (*QuoteRepository)(nil)

// NewQuoteRepository creates a quote repository.
func NewQuoteRepository(store *Store) *QuoteRepository {
	return &QuoteRepository{store: store}
}

var quoteSortColumns = map[domain.QuoteSortField]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortByAuthor:    "author_key",
	domain.SortByText:      "text_key",
}

// Create implements ports.QuoteRepository.
func (r *QuoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	return translateError(r.store.conn(ctx).Create(quoteToModel(q)).Error, "quote", q.ID)
}

// Get implements ports.QuoteRepository.
func (r *QuoteRepository) Get(ctx context.Context, id string) (*domain.Quote, error) {
	var m QuoteModel
	if err := r.store.conn(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, translateError(err, "quote", id)
	}

	q := m.toDomain()

	return &q, nil
}

// GetMany implements ports.QuoteRepository.
func (r *QuoteRepository) GetMany(ctx context.Context, ids []string) (map[string]*domain.Quote, error) {
	out := make(map[string]*domain.Quote, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []QuoteModel
	if err := r.store.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		q := rows[i].toDomain()
		out[q.ID] = &q
	}

	return out, nil
}

// Update implements ports.QuoteRepository.
func (r *QuoteRepository) Update(ctx context.Context, q *domain.Quote) error {
	m := quoteToModel(q)

	res := r.store.conn(ctx).Model(&QuoteModel{}).Where("id = ?", q.ID).Updates(map[string]any{
		"text":         m.Text,
		"author":       m.Author,
		"category":     m.Category,
		"tags":         m.Tags,
		"source":       m.Source,
		"is_public":    m.IsPublic,
		"text_key":     m.TextKey,
		"author_key":   m.AuthorKey,
		"category_key": m.CategoryKey,
		"tag_keys":     m.TagKeys,
		"updated_at":   m.UpdatedAt,
	})
	if res.Error != nil {
		return translateError(res.Error, "quote", q.ID)
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("quote", q.ID)
	}

	return nil
}

// Delete implements ports.QuoteRepository.
func (r *QuoteRepository) Delete(ctx context.Context, id string) error {
	return r.store.WithinTx(ctx, func(ctx context.Context) error {
		db := r.store.conn(ctx)

		if err := db.Where("quote_id = ?", id).Delete(&QuoteLikeModel{}).Error; err != nil {
			return err
		}

		if err := db.Where("quote_id = ?", id).Delete(&CollectionQuoteModel{}).Error; err != nil {
			return err
		}

		res := db.Where("id = ?", id).Delete(&QuoteModel{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return domain.NewNotFoundError("quote", id)
		}

		return nil
	})
}

// List implements ports.QuoteRepository.
func (r *QuoteRepository) List(
	ctx context.Context,
	filter domain.QuoteFilter,
	sort domain.QuoteSort,
	page domain.Page,
) ([]domain.Quote, int64, error) {
	var total int64
	if err := applyQuoteFilter(r.store.conn(ctx).Model(&QuoteModel{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := quoteSortColumns[sort.Field]
	if !ok {
		column = quoteSortColumns[domain.SortByCreatedAt]
	}

	direction := " DESC"
	if sort.Asc {
		direction = " ASC"
	}

	var rows []QuoteModel

	err := applyQuoteFilter(r.store.conn(ctx).Model(&QuoteModel{}), filter).
		Order(column + direction).
		Order("id" + direction).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	quotes := make([]domain.Quote, 0, len(rows))
	for i := range rows {
		quotes = append(quotes, rows[i].toDomain())
	}

	return quotes, total, nil
}

// applyQuoteFilter adds the filter's conditions. Text matching is a
// case-insensitive substring match on the folded key columns; tags match if
// any single stored tag contains the requested tag.
func applyQuoteFilter(db *gorm.DB, f domain.QuoteFilter) *gorm.DB {
	if f.Category != "" {
		db = db.Where("category_key = ?", foldKey(f.Category))
	}

	if f.Author != "" {
		db = db.Where("author_key LIKE ? ESCAPE '!'", containsPattern(f.Author))
	}

	if len(f.Tags) > 0 {
		clauses := make([]string, 0, len(f.Tags))
		args := make([]any, 0, len(f.Tags))

		for _, tag := range f.Tags {
			clauses = append(clauses, "tag_keys LIKE ? ESCAPE '!'")
			args = append(args, containsPattern(tag))
		}

		db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	if f.Search != "" {
		pattern := containsPattern(f.Search)
		db = db.Where(
			"(text_key LIKE ? ESCAPE '!' OR author_key LIKE ? ESCAPE '!' OR tag_keys LIKE ? ESCAPE '!')",
			pattern, pattern, pattern,
		)
	}

	if f.IsPublic != nil {
		db = db.Where("is_public = ?", *f.IsPublic)
	}

	if f.LikedBy != "" {
		db = db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&QuoteLikeModel{}).Select("quote_id").Where("user_id = ?", f.LikedBy))
	}

	return db
}

// Count implements ports.QuoteRepository.
func (r *QuoteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.conn(ctx).Model(&QuoteModel{}).Count(&n).Error

	return n, err
}

// GetAt implements ports.QuoteRepository.
func (r *QuoteRepository) GetAt(ctx context.Context, offset int64) (*domain.Quote, error) {
	var m QuoteModel

	err := r.store.conn(ctx).Order("id").Offset(int(offset)).Limit(1).Take(&m).Error
	if err != nil {
		return nil, translateError(err, "quote", "")
	}

	q := m.toDomain()

	return &q, nil
}

// ExistsByTextAndAuthor implements ports.QuoteRepository.
func (r *QuoteRepository) ExistsByTextAndAuthor(ctx context.Context, text, author string) (bool, error) {
	var n int64

	err := r.store.conn(ctx).Model(&QuoteModel{}).
		Where("text_key = ? AND author_key = ?", foldKey(text), foldKey(author)).
		Limit(1).
		Count(&n).Error

	return n > 0, err
}

// CountByCategory implements ports.QuoteRepository.
func (r *QuoteRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string
		N        int64
	}

	err := r.store.conn(ctx).Model(&QuoteModel{}).
		Select("category_key AS category, COUNT(*) AS n").
		Where("category_key <> ''").
		Group("category_key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.N
	}

	return out, nil
}
