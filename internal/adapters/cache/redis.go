// Package cache holds the short-lived shared state behind logout and rate
// limiting. Redis backs it in shared deployments; the in-memory variants
// serve single-instance and local runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

const keyPrefix = "mnemosyne:"

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis wraps a client shared by the Redis-backed stores.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Name implements ports.HealthChecker.
func (r *Redis) Name() string {
	return "redis"
}

// Check implements ports.HealthChecker.
func (r *Redis) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// RedisRevocationStore implements ports.TokenRevocationStore. Entries expire
// with the token they revoke.
type RedisRevocationStore struct {
	redis *Redis
	now   func() time.Time
}

var _ ports.TokenRevocationStore = (*RedisRevocationStore)(nil)

// NewRedisRevocationStore creates a revocation store.
func NewRedisRevocationStore(r *Redis) *RedisRevocationStore {
	return &RedisRevocationStore{redis: r, now: time.Now}
}

// Revoke implements ports.TokenRevocationStore.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	return s.redis.client.Set(ctx, keyPrefix+"revoked:"+tokenID, "1", ttl).Err()
}

// IsRevoked implements ports.TokenRevocationStore.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.redis.client.Get(ctx, keyPrefix+"revoked:"+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
}

// allowScript counts a request in the current window and returns the count
// and the milliseconds left in the window.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if tonumber(current) == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisRateLimiter implements ports.RateLimiter with fixed windows.
type RedisRateLimiter struct {
	redis  *Redis
	limit  int
	window time.Duration
}

var _ ports.RateLimiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter allows limit requests per key per window.
func NewRedisRateLimiter(r *Redis, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{redis: r, limit: limit, window: window}
}

// Allow implements ports.RateLimiter.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := allowScript.Run(ctx, l.redis.client, []string{keyPrefix + "ratelimit:" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit check: %w", err)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count <= int64(l.limit) {
		return true, 0, nil
	}

	if ttl < 0 {
		ttl = l.window
	}

	return false, ttl, nil
}
