package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

// Token kinds.
const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims are the verified contents of a token.
type TokenClaims struct {
	UserID    string
	Username  string
	TokenID   string
	Kind      TokenKind
	ExpiresAt time.Time
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	Issue(user *domain.User, kind TokenKind) (IssuedToken, error)

	// Parse verifies signature, expiry and kind.
	// Returns domain.ErrInvalidToken for any token that fails verification.
	Parse(token string, kind TokenKind) (*TokenClaims, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare returns domain.ErrInvalidCredentials when password does not match hash.
	Compare(hash, password string) error
}

// TokenRevocationStore records refresh tokens revoked by logout.
type TokenRevocationStore interface {
	// Revoke marks tokenID revoked until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	// Allow records one request for key and reports whether it fits the budget.
	// retryAfter is how long until the window resets when the request is refused.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
