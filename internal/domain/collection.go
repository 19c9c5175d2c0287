package domain

import (
	"time"
)

// Collection field limits, in characters.
const (
	MaxCollectionNameLength        = 100
	MaxCollectionDescriptionLength = 500
)

// Collection is a user-owned named grouping of quotes.
type Collection struct {
	ID          string
	Name        string
	Description string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// QuoteCount is derived on read.
	QuoteCount int64
}

// CollectionQuote is a quote that belongs to a collection.
type CollectionQuote struct {
	QuoteView

	AddedAt time.Time
}

// CollectionDraft carries the fields of a collection to be created.
type CollectionDraft struct {
	Name        string
	Description string
}

// Normalize trims every string field.
func (d *CollectionDraft) Normalize() {
	trimPtr(&d.Name)
	trimPtr(&d.Description)
}

// Validate checks the draft against the collection field limits.
func (d *CollectionDraft) Validate() error {
	var fields []FieldError

	fields = requireLength(fields, "name", d.Name, MaxCollectionNameLength)
	fields = maxLength(fields, "description", d.Description, MaxCollectionDescriptionLength)

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// CollectionPatch carries a partial collection update.
type CollectionPatch struct {
	Name        *string
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *CollectionPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil
}

// Normalize trims every supplied string field.
func (p *CollectionPatch) Normalize() {
	trimPtr(p.Name)
	trimPtr(p.Description)
}

// Validate checks the supplied fields.
func (p *CollectionPatch) Validate() error {
	if p.IsEmpty() {
		return NewValidationError("body", "at least one field must be provided")
	}

	var fields []FieldError

	if p.Name != nil {
		fields = requireLength(fields, "name", *p.Name, MaxCollectionNameLength)
	}

	if p.Description != nil {
		fields = maxLength(fields, "description", *p.Description, MaxCollectionDescriptionLength)
	}

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// Apply writes the supplied fields onto c.
func (p *CollectionPatch) Apply(c *Collection, now time.Time) {
	if p.Name != nil {
		c.Name = *p.Name
	}

	if p.Description != nil {
		c.Description = *p.Description
	}

	c.UpdatedAt = now
}
