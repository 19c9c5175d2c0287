package dto

import (
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/app"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	LikesPrivate bool   `json:"likesPrivate"`
}

// ToRegistration converts the request to a domain registration.
func (r *RegisterRequest) ToRegistration() domain.Registration {
	return domain.Registration{
		Email:        r.Email,
		Password:     r.Password,
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		LikesPrivate: r.LikesPrivate,
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserSummaryResponse is the public identity of a user.
type UserSummaryResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// NewUserSummaryResponse converts a user summary.
func NewUserSummaryResponse(s domain.UserSummary) UserSummaryResponse {
	return UserSummaryResponse{ID: s.ID, Username: s.Username, DisplayName: s.DisplayName}
}

// ProfileResponse is a user profile. Email is only present on the caller's own profile.
type ProfileResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email,omitempty"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatarUrl"`
	LikesPrivate   bool      `json:"likesPrivate"`
	CreatedAt      time.Time `json:"createdAt"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
}

// NewPublicProfileResponse converts a profile for viewing by anyone.
func NewPublicProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:             p.ID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		LikesPrivate:   p.LikesPrivate,
		CreatedAt:      p.CreatedAt,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
	}
}

// NewOwnProfileResponse converts the caller's own profile.
func NewOwnProfileResponse(p *domain.Profile) ProfileResponse {
	resp := NewPublicProfileResponse(p)
	resp.Email = p.Email

	return resp
}

// UpdateProfileRequest is the body of PATCH /users/me. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	DisplayName  *string `json:"displayName"`
	Bio          *string `json:"bio"`
	AvatarURL    *string `json:"avatarUrl"`
	LikesPrivate *bool   `json:"likesPrivate"`
}

// ToUpdate converts the request to a profile update.
func (r *UpdateProfileRequest) ToUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		DisplayName:  r.DisplayName,
		Bio:          r.Bio,
		AvatarURL:    r.AvatarURL,
		LikesPrivate: r.LikesPrivate,
	}
}

// AuthResponse is returned by register and login.
// The refresh token travels in a cookie only.
type AuthResponse struct {
	User        ProfileResponse `json:"user"`
	AccessToken string          `json:"accessToken"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// NewAuthResponse converts a session. A fresh session has no follows yet.
func NewAuthResponse(s *app.Session) AuthResponse {
	return AuthResponse{
		User:        NewOwnProfileResponse(&domain.Profile{User: *s.User}),
		AccessToken: s.AccessToken.Value,
		ExpiresAt:   s.AccessToken.ExpiresAt,
	}
}

// RefreshResponse is returned by POST /auth/refresh.
type RefreshResponse struct {
	User        UserSummaryResponse `json:"user"`
	AccessToken string              `json:"accessToken"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}
