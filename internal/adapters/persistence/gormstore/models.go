package gormstore

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// UserModel is the users row.
type UserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:254;not null;uniqueIndex:uq_users_email"`
	PasswordHash string `gorm:"size:255;not null"`
	Username     string `gorm:"size:30;not null;uniqueIndex:uq_users_username"`
	DisplayName  string `gorm:"size:100;not null"`
	Bio          string `gorm:"size:500;not null"`
	AvatarURL    string `gorm:"column:avatar_url;size:2048;not null"`
	LikesPrivate bool   `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName implements gorm's tabler.
func (UserModel) TableName() string { return "users" }

// QuoteModel is the quotes row. The *Key columns hold case-folded copies
// of the searchable fields; filters and sorts use them so matching does not
// depend on the database's notion of case.
type QuoteModel struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Text        string         `gorm:"type:text;not null"`
	Author      string         `gorm:"size:200;not null"`
	Category    string         `gorm:"size:100;not null"`
	Tags        datatypes.JSON `gorm:"type:text;not null"`
	Source      string         `gorm:"size:500;not null"`
	IsPublic    bool           `gorm:"not null"`
	TextKey     string         `gorm:"type:text;not null"`
	AuthorKey   string         `gorm:"size:200;not null"`
	CategoryKey string         `gorm:"size:100;not null;index:idx_quotes_category_key"`
	TagKeys     string         `gorm:"type:text;not null"`
	CreatedAt   time.Time      `gorm:"index:idx_quotes_created_at"`
	UpdatedAt   time.Time
}

// TableName implements gorm's tabler.
func (QuoteModel) TableName() string { return "quotes" }

// QuoteLikeModel is the quote_likes row.
type QuoteLikeModel struct {
	UserID    string `gorm:"primaryKey;size:36"`
	QuoteID   string `gorm:"primaryKey;size:36;index:idx_quote_likes_quote_id"`
	CreatedAt time.Time
}

// TableName implements gorm's tabler.
func (QuoteLikeModel) TableName() string { return "quote_likes" }

// CollectionModel is the collections row. QuoteCount is only populated by
// queries that select it.
type CollectionModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:500;not null"`
	UserID      string `gorm:"size:36;not null;index:idx_collections_user_id"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	QuoteCount int64 `gorm:"->;-:migration"`
}

// TableName implements gorm's tabler.
func (CollectionModel) TableName() string { return "collections" }

// CollectionQuoteModel is the collection_quotes row.
type CollectionQuoteModel struct {
	CollectionID string `gorm:"primaryKey;size:36"`
	QuoteID      string `gorm:"primaryKey;size:36;index:idx_collection_quotes_quote_id"`
	AddedAt      time.Time
}

// TableName implements gorm's tabler.
func (CollectionQuoteModel) TableName() string { return "collection_quotes" }

// FollowModel is the follows row.
type FollowModel struct {
	FollowerID  string `gorm:"primaryKey;size:36"`
	FollowingID string `gorm:"primaryKey;size:36;index:idx_follows_following_id"`
	CreatedAt   time.Time
}

// TableName implements gorm's tabler.
func (FollowModel) TableName() string { return "follows" }

// ActivityModel is the activities row. Quote and collection references are
// kept after the referenced row is deleted.
type ActivityModel struct {
	ID           string         `gorm:"primaryKey;size:36"`
	UserID       string         `gorm:"size:36;not null"`
	Type         string         `gorm:"column:activity_type;size:32;not null"`
	QuoteID      *string        `gorm:"size:36"`
	CollectionID *string        `gorm:"size:36"`
	Metadata     datatypes.JSON `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"index:idx_activities_created_at"`
}

// TableName implements gorm's tabler.
func (ActivityModel) TableName() string { return "activities" }

func userToModel(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		LikesPrivate: u.LikesPrivate,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func (m *UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Username:     m.Username,
		DisplayName:  m.DisplayName,
		Bio:          m.Bio,
		AvatarURL:    m.AvatarURL,
		LikesPrivate: m.LikesPrivate,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func quoteToModel(q *domain.Quote) *QuoteModel {
	return &QuoteModel{
		ID:          q.ID,
		Text:        q.Text,
		Author:      q.Author,
		Category:    q.Category,
		Tags:        encodeTags(q.Tags),
		Source:      q.Source,
		IsPublic:    q.IsPublic,
		TextKey:     foldKey(q.Text),
		AuthorKey:   foldKey(q.Author),
		CategoryKey: foldKey(q.Category),
		TagKeys:     tagKeys(q.Tags),
		CreatedAt:   q.CreatedAt.UTC(),
		UpdatedAt:   q.UpdatedAt.UTC(),
	}
}

// tagSeparator joins folded tags in TagKeys. Folding replaces it inside
// tags and search terms, so a substring match never spans two tags.
const tagSeparator = "\n"

// foldKey lower-cases s with Unicode rules.
func foldKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, tagSeparator, " "))
}

func tagKeys(tags []string) string {
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = foldKey(t)
	}

	return strings.Join(keys, tagSeparator)
}

func (m *QuoteModel) toDomain() domain.Quote {
	return domain.Quote{
		ID:        m.ID,
		Text:      m.Text,
		Author:    m.Author,
		Category:  m.Category,
		Tags:      decodeTags(m.Tags),
		Source:    m.Source,
		IsPublic:  m.IsPublic,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func collectionToModel(c *domain.Collection) *CollectionModel {
	return &CollectionModel{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (m *CollectionModel) toDomain() domain.Collection {
	return domain.Collection{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		UserID:      m.UserID,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		QuoteCount:  m.QuoteCount,
	}
}

func activityToModel(a *domain.Activity) *ActivityModel {
	m := &ActivityModel{
		ID:           a.ID,
		UserID:       a.UserID,
		Type:         string(a.Type),
		QuoteID:      optional(a.QuoteID),
		CollectionID: optional(a.CollectionID),
		CreatedAt:    a.CreatedAt.UTC(),
	}

	if len(a.Metadata) > 0 {
		if raw, err := json.Marshal(a.Metadata); err == nil {
			m.Metadata = datatypes.JSON(raw)
		}
	}

	return m
}

func (m *ActivityModel) toDomain() domain.Activity {
	a := domain.Activity{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      domain.ActivityType(m.Type),
		CreatedAt: m.CreatedAt.UTC(),
	}

	if m.QuoteID != nil {
		a.QuoteID = *m.QuoteID
	}

	if m.CollectionID != nil {
		a.CollectionID = *m.CollectionID
	}

	if len(m.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(m.Metadata, &meta); err == nil && len(meta) > 0 {
			a.Metadata = meta
		}
	}

	return a
}

// encodeTags stores tags as a JSON array. HTML escaping is disabled so tag
// filters can match the stored text literally.
func encodeTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(tags); err != nil {
		return datatypes.JSON("[]")
	}

	return datatypes.JSON(bytes.TrimSpace(buf.Bytes()))
}

func decodeTags(raw datatypes.JSON) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}

	if err := json.Unmarshal(raw, &tags); err != nil || tags == nil {
		return []string{}
	}

	return tags
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
