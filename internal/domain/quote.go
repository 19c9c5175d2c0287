package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Quote field limits, in characters.
const (
	MaxQuoteTextLength     = 2000
	MaxQuoteAuthorLength   = 200
	MaxQuoteCategoryLength = 100
	MaxQuoteSourceLength   = 500
	MaxQuoteTags           = 20
	MaxQuoteTagLength      = 50
)

// Quote represents a quotation with its author.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier for this quote.
	ID string

	// Text is the quotation itself.
	Text string

	// Author is who said or wrote the quote.
	Author string

	// Category is an optional free-form category, usually one of the taxonomy ids.
	Category string

	// Tags are themes associated with the quote.
	Tags []string

	// Source is an optional book, speech or URL the quote comes from.
	Source string

	IsPublic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuoteView is a quote enriched with per-request like information.
type QuoteView struct {
	Quote

	LikeCount     int64
	IsLikedByUser bool
}

// QuoteDraft carries the fields of a quote to be created.
type QuoteDraft struct {
	Text     string
	Author   string
	Category string
	Tags     []string
	Source   string
	IsPublic *bool
}

// Normalize trims every string field and drops blank tags.
func (d *QuoteDraft) Normalize() {
	d.Text = strings.TrimSpace(d.Text)
	d.Author = strings.TrimSpace(d.Author)
	d.Category = strings.TrimSpace(d.Category)
	d.Source = strings.TrimSpace(d.Source)
	d.Tags = NormalizeTags(d.Tags)
}

// Validate checks the draft against the quote field limits.
// Call Normalize first.
func (d *QuoteDraft) Validate() error {
	var fields []FieldError

	fields = requireLength(fields, "text", d.Text, MaxQuoteTextLength)
	fields = requireLength(fields, "author", d.Author, MaxQuoteAuthorLength)
	fields = maxLength(fields, "category", d.Category, MaxQuoteCategoryLength)
	fields = maxLength(fields, "source", d.Source, MaxQuoteSourceLength)
	fields = validateTags(fields, d.Tags)

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// Quote builds the entity described by the draft.
func (d *QuoteDraft) Quote(id string, now time.Time) *Quote {
	isPublic := true
	if d.IsPublic != nil {
		isPublic = *d.IsPublic
	}

	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Quote{
		ID:        id,
		Text:      d.Text,
		Author:    d.Author,
		Category:  d.Category,
		Tags:      tags,
		Source:    d.Source,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// QuotePatch carries a partial quote update. Nil fields are left unchanged.
type QuotePatch struct {
	Text     *string
	Author   *string
	Category *string
	Tags     *[]string
	Source   *string
	IsPublic *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *QuotePatch) IsEmpty() bool {
	return p.Text == nil && p.Author == nil && p.Category == nil &&
		p.Tags == nil && p.Source == nil && p.IsPublic == nil
}

// Normalize trims every supplied string field and drops blank tags.
func (p *QuotePatch) Normalize() {
	trimPtr(p.Text)
	trimPtr(p.Author)
	trimPtr(p.Category)
	trimPtr(p.Source)

	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
}

// Validate checks the supplied fields against the quote field limits.
func (p *QuotePatch) Validate() error {
	if p.IsEmpty() {
		return NewValidationError("body", "at least one field must be provided")
	}

	var fields []FieldError

	if p.Text != nil {
		fields = requireLength(fields, "text", *p.Text, MaxQuoteTextLength)
	}

	if p.Author != nil {
		fields = requireLength(fields, "author", *p.Author, MaxQuoteAuthorLength)
	}

	if p.Category != nil {
		fields = maxLength(fields, "category", *p.Category, MaxQuoteCategoryLength)
	}

	if p.Source != nil {
		fields = maxLength(fields, "source", *p.Source, MaxQuoteSourceLength)
	}

	if p.Tags != nil {
		fields = validateTags(fields, *p.Tags)
	}

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// Apply writes the supplied fields onto q.
func (p *QuotePatch) Apply(q *Quote, now time.Time) {
	if p.Text != nil {
		q.Text = *p.Text
	}

	if p.Author != nil {
		q.Author = *p.Author
	}

	if p.Category != nil {
		q.Category = *p.Category
	}

	if p.Tags != nil {
		q.Tags = *p.Tags
	}

	if p.Source != nil {
		q.Source = *p.Source
	}

	if p.IsPublic != nil {
		q.IsPublic = *p.IsPublic
	}

	q.UpdatedAt = now
}

// NormalizeTags trims tags and drops empty ones. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))

	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}

	return out
}

// QuoteSortField names a column quotes may be ordered by.
type QuoteSortField string

// Sortable quote fields.
const (
	SortByCreatedAt QuoteSortField = "createdAt"
	SortByUpdatedAt QuoteSortField = "updatedAt"
	SortByAuthor    QuoteSortField = "author"
	SortByText      QuoteSortField = "text"
)

// Valid reports whether f is a known sort field.
func (f QuoteSortField) Valid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByAuthor, SortByText:
		return true
	default:
		return false
	}
}

// QuoteSort orders a quote listing. The zero value sorts newest first.
type QuoteSort struct {
	Field QuoteSortField
	Asc   bool
}

// QuoteFilter narrows a quote listing. Zero-valued fields do not filter.
type QuoteFilter struct {
	Category string
	Author   string
	Tags     []string
	Search   string
	IsPublic *bool

	// LikedBy restricts results to quotes liked by this user id.
	LikedBy string
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func requireLength(fields []FieldError, name, value string, maxLen int) []FieldError {
	if value == "" {
		return append(fields, FieldError{Field: name, Message: name + " is required"})
	}

	return maxLength(fields, name, value, maxLen)
}

func maxLength(fields []FieldError, name, value string, maxLen int) []FieldError {
	if utf8.RuneCountInString(value) > maxLen {
		return append(fields, FieldError{
			Field:   name,
			Message: name + " must be at most " + strconv.Itoa(maxLen) + " characters",
		})
	}

	return fields
}

func validateTags(fields []FieldError, tags []string) []FieldError {
	if len(tags) > MaxQuoteTags {
		return append(fields, FieldError{
			Field:   "tags",
			Message: "at most " + strconv.Itoa(MaxQuoteTags) + " tags are allowed",
		})
	}

	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxQuoteTagLength {
			return append(fields, FieldError{
				Field:   "tags",
				Message: "each tag must be at most " + strconv.Itoa(MaxQuoteTagLength) + " characters",
			})
		}
	}

	return fields
}
