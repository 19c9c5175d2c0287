package clients

import (
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

// Breaker states.
const (
	// StateClosed lets every request through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects requests until the cool-down has elapsed.
	StateOpen
	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open a closed breaker.
	MaxFailures int

	// Timeout is the cool-down before an open breaker admits a probe.
	Timeout time.Duration

	// HalfOpenLimit bounds concurrent probes and is also the number of
	// successful probes needed to close again.
	HalfOpenLimit int
}

// CircuitBreaker stops calls to an upstream that keeps failing.
//
//	closed    --MaxFailures in a row--> open
//	open      --Timeout elapsed-------> half-open
//	half-open --HalfOpenLimit ok------> closed
//	half-open --any failure-----------> open
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          sync.RWMutex
	state       State
	streak      int // failures while closed, successes while half-open
	probes      int // probes in flight while half-open
	lastFailure time.Time
	listener    func(from, to State)

	clock func() time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, clock: time.Now}
}

// OnStateChange registers fn to be called, asynchronously, after each transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.listener = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may be sent now. Every allowed request
// must be followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock().Sub(cb.lastFailure) < cb.cfg.Timeout {
			return false
		}

		cb.moveTo(StateHalfOpen)
		cb.probes = 1

		return true
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenLimit {
			return false
		}

		cb.probes++

		return true
	}

	return false
}

// RecordSuccess reports a request that reached the upstream and got an answer.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.streak = 0
	case StateHalfOpen:
		cb.probes--
		cb.streak++

		if cb.streak >= cb.cfg.HalfOpenLimit {
			cb.moveTo(StateClosed)
		}
	}
}

// RecordFailure reports a request that failed after all retries.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.clock()

	switch cb.state {
	case StateClosed:
		cb.streak++

		if cb.streak >= cb.cfg.MaxFailures {
			cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		cb.moveTo(StateOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.state
}

// moveTo switches state and resets the streak. cb.mu must be held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	cb.streak = 0

	if to != StateHalfOpen {
		cb.probes = 0
	}

	if fn := cb.listener; fn != nil {
		go fn(from, to)
	}
}
