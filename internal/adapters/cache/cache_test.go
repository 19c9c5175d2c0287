package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	t.Cleanup(func() { _ = r.Close() })

	return r, mr
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestRedis_Health(t *testing.T) {
	r, mr := newTestRedis(t)

	assert.Equal(t, "redis", r.Name())
	require.NoError(t, r.Check(context.Background()))

	mr.Close()
	assert.Error(t, r.Check(context.Background()))
}

func TestRedisRevocationStore(t *testing.T) {
	r, mr := newTestRedis(t)
	store := NewRedisRevocationStore(r)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore_AlreadyExpired(t *testing.T) {
	r, mr := newTestRedis(t)
	store := NewRedisRevocationStore(r)

	require.NoError(t, store.Revoke(context.Background(), "jti-old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(keyPrefix+"revoked:jti-old"))
}

func TestRedisRevocationStore_Error(t *testing.T) {
	r, mr := newTestRedis(t)
	store := NewRedisRevocationStore(r)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti")
	require.Error(t, err)
}

func TestRedisRateLimiter(t *testing.T) {
	r, mr := newTestRedis(t)
	limiter := NewRedisRateLimiter(r, 2, time.Minute)
	ctx := context.Background()

	for range 2 {
		ok, _, err := limiter.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retryAfter, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)

	ok, _, err = limiter.Allow(ctx, "ip:2")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, _, err = limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisRateLimiter(NewRedisFromClient(client), 1, time.Minute)

	ok, _, err := limiter.Allow(context.Background(), "ip:1")
	require.Error(t, err)
	assert.True(t, ok)
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "jti-old", now.Add(-time.Minute)))

	revoked, _ := store.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "jti-old")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)

	revoked, _ = store.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter(3, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		ok, _, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retryAfter, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retryAfter, "one token returns every window/limit")

	ok, _, err = limiter.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok, "keys have separate buckets")

	now = now.Add(20 * time.Second)

	ok, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "denied requests do not bank tokens")

	now = now.Add(time.Minute)

	for range 3 {
		ok, _, err = limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok, "bucket refills to its burst")
	}
}
