package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/metrics"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// Session is the result of a successful registration or login.
type Session struct {
	User         *domain.User
	AccessToken  ports.IssuedToken
	RefreshToken ports.IssuedToken
}

// AuthService manages accounts and tokens.
type AuthService struct {
	users       ports.UserRepository
	follows     ports.FollowRepository
	tokens      ports.TokenIssuer
	passwords   ports.PasswordHasher
	revocations ports.TokenRevocationStore
	metrics     *metrics.Recorder
	logger      *slog.Logger

	// dummyHash is compared against on unknown emails so both login
	// failures take the same time.
	dummyHash func() (string, error)
}

// AuthServiceConfig contains the dependencies of the auth service.
type AuthServiceConfig struct {
	Users       ports.UserRepository
	Follows     ports.FollowRepository
	Tokens      ports.TokenIssuer
	Passwords   ports.PasswordHasher
	Revocations ports.TokenRevocationStore
	Metrics     *metrics.Recorder
	Logger      *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Users == nil || cfg.Follows == nil || cfg.Tokens == nil || cfg.Passwords == nil || cfg.Revocations == nil {
		panic("AuthService: all dependencies except Metrics and Logger are required")
	}

	passwords := cfg.Passwords

	return &AuthService{
		users:       cfg.Users,
		follows:     cfg.Follows,
		tokens:      cfg.Tokens,
		passwords:   passwords,
		revocations: cfg.Revocations,
		metrics:     cfg.Metrics,
		logger:      loggerOrDefault(cfg.Logger),
		dummyHash: sync.OnceValues(func() (string, error) {
			return passwords.Hash("mnemosyne-timing-equaliser")
		}),
	}
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*Session, error) {
	reg.Normalize()

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	if taken, err := s.users.ExistsByEmail(ctx, reg.Email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	if taken, err := s.users.ExistsByUsername(ctx, reg.Username); err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.passwords.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		ID:           newID(),
		Email:        reg.Email,
		PasswordHash: hash,
		Username:     reg.Username,
		DisplayName:  reg.DisplayName,
		LikesPrivate: reg.LikesPrivate,
		CreatedAt:    now(),
	}

	// A concurrent registration can still win the race; Create reports it.
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.metrics.UserRegistered()
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", u.ID))

	return s.session(u)
}

// Login verifies credentials and signs the user in.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !domain.IsNotFound(err) {
			return nil, fmt.Errorf("loading user: %w", err)
		}

		if hash, hashErr := s.dummyHash(); hashErr == nil {
			_ = s.passwords.Compare(hash, password)
		}

		s.metrics.LoginAttempted(false)

		return nil, domain.ErrInvalidCredentials
	}

	if err := s.passwords.Compare(u.PasswordHash, password); err != nil {
		s.metrics.LoginAttempted(false)

		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("comparing password: %w", err)
	}

	s.metrics.LoginAttempted(true)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", u.ID))

	return s.session(u)
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	access, err := s.tokens.Issue(u, ports.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	refresh, err := s.tokens.Issue(u, ports.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	return &Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (ports.IssuedToken, *domain.User, error) {
	if refreshToken == "" {
		return ports.IssuedToken{}, nil, domain.ErrInvalidToken
	}

	claims, err := s.tokens.Parse(refreshToken, ports.RefreshToken)
	if err != nil {
		return ports.IssuedToken{}, nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return ports.IssuedToken{}, nil, fmt.Errorf("checking token revocation: %w", err)
	}

	if revoked {
		return ports.IssuedToken{}, nil, domain.ErrInvalidToken
	}

	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return ports.IssuedToken{}, nil, domain.ErrInvalidToken
		}

		return ports.IssuedToken{}, nil, fmt.Errorf("loading user: %w", err)
	}

	access, err := s.tokens.Issue(u, ports.AccessToken)
	if err != nil {
		return ports.IssuedToken{}, nil, fmt.Errorf("issuing access token: %w", err)
	}

	return access, u, nil
}

// Logout revokes the refresh token until it expires. It never fails:
// invalid tokens need no revocation and store errors are only logged.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.tokens.Parse(refreshToken, ports.RefreshToken)
	if err != nil {
		return
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh token",
			slog.String("user_id", claims.UserID),
			slog.Any("error", err),
		)

		return
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", claims.UserID))
}

// Me returns the caller's own profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.GetUserProfile(ctx, userID)
}

// GetUserProfile returns a user with follow counts. Callers decide which
// fields to expose.
func (s *AuthService) GetUserProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.profile(ctx, u)
}

// UpdateProfile applies a partial update to the caller's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	update.Normalize()

	if err := update.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	update.Apply(u)

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return s.profile(ctx, u)
}

func (s *AuthService) profile(ctx context.Context, u *domain.User) (*domain.Profile, error) {
	followers, following, err := s.follows.Counts(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("counting follows: %w", err)
	}

	return &domain.Profile{User: *u, FollowersCount: followers, FollowingCount: following}, nil
}
