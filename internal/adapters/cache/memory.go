package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jsamuelsen/mnemosyne/internal/ports"
)

// sweepEvery bounds how many writes pass between expiry sweeps.
const sweepEvery = 256

// MemoryRevocationStore implements ports.TokenRevocationStore in process.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	writes  int
	now     func() time.Time
}

var _ ports.TokenRevocationStore = (*MemoryRevocationStore)(nil)

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke implements ports.TokenRevocationStore.
func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !expiresAt.After(now) {
		return nil
	}

	s.revoked[tokenID] = expiresAt

	s.writes++
	if s.writes%sweepEvery == 0 {
		for id, exp := range s.revoked {
			if !exp.After(now) {
				delete(s.revoked, id)
			}
		}
	}

	return nil
}

// IsRevoked implements ports.TokenRevocationStore.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[tokenID]

	return ok && exp.After(s.now()), nil
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter implements ports.RateLimiter with a token bucket per key.
// A key gets limit requests in a burst and regains them evenly over window.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	calls   int
	now     func() time.Time
}

var _ ports.RateLimiter = (*MemoryRateLimiter)(nil)

// NewMemoryRateLimiter allows limit requests per key per window.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow implements ports.RateLimiter. A denied request does not consume a
// token; retryAfter is the wait until the next one.
func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.calls++
	if l.calls%sweepEvery == 0 {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.window {
				delete(l.buckets, k)
			}
		}
	}

	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(max(l.limit, 1)))
		b = &bucket{limiter: rate.NewLimiter(every, l.limit)}
		l.buckets[key] = b
	}

	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.window, nil
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}

	return true, 0, nil
}
