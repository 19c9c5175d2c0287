// Package security implements token signing and password hashing.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// ErrEmptySecret is returned by NewJWTIssuer when a signing secret is missing.
var ErrEmptySecret = errors.New("token signing secret is empty")

// JWTConfig configures the token issuer.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// JWTIssuer signs HS256 tokens. Access and refresh tokens use separate
// secrets so one can never be accepted as the other.
type JWTIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

var _ ports.TokenIssuer = (*JWTIssuer)(nil)

type claims struct {
	Username string          `json:"username"`
	Kind     ports.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// NewJWTIssuer creates a token issuer.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrEmptySecret
	}

	return &JWTIssuer{cfg: cfg, now: time.Now}, nil
}

// Issue implements ports.TokenIssuer.
func (j *JWTIssuer) Issue(user *domain.User, kind ports.TokenKind) (ports.IssuedToken, error) {
	secret, ttl, err := j.params(kind)
	if err != nil {
		return ports.IssuedToken{}, err
	}

	now := j.now().UTC()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    j.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return ports.IssuedToken{}, fmt.Errorf("signing %s token: %w", kind, err)
	}

	return ports.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse implements ports.TokenIssuer.
func (j *JWTIssuer) Parse(token string, kind ports.TokenKind) (*ports.TokenClaims, error) {
	secret, _, err := j.params(kind)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.cfg.Issuer))
	}

	var c claims

	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	if c.Kind != kind || c.Subject == "" || c.ExpiresAt == nil {
		return nil, domain.ErrInvalidToken
	}

	return &ports.TokenClaims{
		UserID:    c.Subject,
		Username:  c.Username,
		TokenID:   c.ID,
		Kind:      c.Kind,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (j *JWTIssuer) params(kind ports.TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case ports.AccessToken:
		return []byte(j.cfg.AccessSecret), j.cfg.AccessTTL, nil
	case ports.RefreshToken:
		return []byte(j.cfg.RefreshSecret), j.cfg.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
