package domain

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User field limits.
const (
	MaxEmailLength       = 254
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MaxDisplayNameLength = 100
	MaxBioLength         = 500
	MaxAvatarURLLength   = 2048
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Username     string
	DisplayName  string
	Bio          string
	AvatarURL    string

	// LikesPrivate hides the user's likes from everyone but the user.
	LikesPrivate bool

	CreatedAt time.Time
}

// Summary returns the public identity fields of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

// UserSummary is the public identity embedded in feeds and follow lists.
type UserSummary struct {
	ID          string
	Username    string
	DisplayName string
}

// Profile is a user together with their follow counts.
type Profile struct {
	User

	FollowersCount int64
	FollowingCount int64
}

// Registration carries a sign-up request.
type Registration struct {
	Email        string
	Password     string
	Username     string
	DisplayName  string
	LikesPrivate bool
}

// Normalize trims identity fields and lower-cases the email.
// The password is left untouched.
func (r *Registration) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

// Validate checks the registration fields.
func (r *Registration) Validate() error {
	var fields []FieldError

	fields = validateEmail(fields, r.Email)

	switch n := utf8.RuneCountInString(r.Password); {
	case n < MinPasswordLength:
		fields = append(fields, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	case n > MaxPasswordLength:
		fields = append(fields, FieldError{Field: "password", Message: "password must be at most 128 characters"})
	}

	switch n := len(r.Username); {
	case n < MinUsernameLength || n > MaxUsernameLength:
		fields = append(fields, FieldError{Field: "username", Message: "username must be between 3 and 30 characters"})
	case !usernamePattern.MatchString(r.Username):
		fields = append(fields, FieldError{Field: "username", Message: "username may only contain letters, digits and underscores"})
	}

	fields = maxLength(fields, "displayName", r.DisplayName, MaxDisplayNameLength)

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// ProfileUpdate carries a partial profile change. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName  *string
	Bio          *string
	AvatarURL    *string
	LikesPrivate *bool
}

// IsEmpty reports whether the update changes nothing.
func (p *ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.AvatarURL == nil && p.LikesPrivate == nil
}

// Normalize trims every supplied string field.
func (p *ProfileUpdate) Normalize() {
	trimPtr(p.DisplayName)
	trimPtr(p.Bio)
	trimPtr(p.AvatarURL)
}

// Validate checks the supplied profile fields.
func (p *ProfileUpdate) Validate() error {
	if p.IsEmpty() {
		return NewValidationError("body", "at least one field must be provided")
	}

	var fields []FieldError

	if p.DisplayName != nil {
		fields = maxLength(fields, "displayName", *p.DisplayName, MaxDisplayNameLength)
	}

	if p.Bio != nil {
		fields = maxLength(fields, "bio", *p.Bio, MaxBioLength)
	}

	if p.AvatarURL != nil && *p.AvatarURL != "" {
		u, err := url.Parse(*p.AvatarURL)
		switch {
		case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
			fields = append(fields, FieldError{Field: "avatarUrl", Message: "avatarUrl must be a valid http(s) URL"})
		case len(*p.AvatarURL) > MaxAvatarURLLength:
			fields = maxLength(fields, "avatarUrl", *p.AvatarURL, MaxAvatarURLLength)
		}
	}

	if len(fields) > 0 {
		return NewValidationErrors(fields)
	}

	return nil
}

// Apply writes the supplied fields onto u.
func (p *ProfileUpdate) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}

	if p.Bio != nil {
		u.Bio = *p.Bio
	}

	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}

	if p.LikesPrivate != nil {
		u.LikesPrivate = *p.LikesPrivate
	}
}

func validateEmail(fields []FieldError, email string) []FieldError {
	if email == "" {
		return append(fields, FieldError{Field: "email", Message: "email is required"})
	}

	if len(email) > MaxEmailLength {
		return append(fields, FieldError{Field: "email", Message: "email must be at most 254 characters"})
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return append(fields, FieldError{Field: "email", Message: "email must be a valid email address"})
	}

	return fields
}
