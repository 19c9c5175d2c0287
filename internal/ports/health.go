package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateChecker is returned when a second checker is registered under a taken name.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// DefaultCheckTimeout bounds a single health check when the caller's context has no deadline.
const DefaultCheckTimeout = 2 * time.Second

// HealthChecker is a dependency that can report its health: the database
// store, the redis cache when enabled and the upstream quote provider.
type HealthChecker interface {
	// Name identifies the dependency in readiness output.
	Name() string

	// Check returns nil when the dependency is usable.
	Check(ctx context.Context) error
}

// OptionalChecker is implemented by checkers whose failure degrades the
// service without making it unready, such as the upstream quote provider.
type OptionalChecker interface {
	HealthChecker

	Optional() bool
}

// HealthRegistry collects checkers at startup and runs them on demand.
type HealthRegistry interface {
	Register(checker HealthChecker) error
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the state of one dependency or of the whole service.
type HealthStatus string

// Health states, from best to worst.
const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

var severity = map[HealthStatus]int{
	HealthStatusHealthy:   0,
	HealthStatusDegraded:  1,
	HealthStatusUnhealthy: 2,
}

// worse returns the more severe of a and b.
func worse(a, b HealthStatus) HealthStatus {
	if severity[b] > severity[a] {
		return b
	}

	return a
}

// HealthResult is the outcome of a CheckAll run.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CheckRegistry is the HealthRegistry used by the service. It is safe for concurrent use.
type CheckRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
}

var _ HealthRegistry = (*CheckRegistry)(nil)

// NewHealthRegistry returns an empty registry.
func NewHealthRegistry() *CheckRegistry {
	return &CheckRegistry{}
}

// Register adds checker. Names must be unique.
func (r *CheckRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if slices.ContainsFunc(r.checkers, func(c HealthChecker) bool { return c.Name() == name }) {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every checker concurrently. A failing optional checker
// degrades the result; any other failure makes it unhealthy.
func (r *CheckRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = runCheck(ctx, c)
			return nil
		})
	}

	_ = g.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	for i, c := range checkers {
		out.Checks[c.Name()] = results[i]
		out.Status = worse(out.Status, results[i].Status)
	}

	return out
}

func runCheck(ctx context.Context, c HealthChecker) *CheckResult {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, DefaultCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.Check(ctx)
	res := &CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}

	if err != nil {
		res.Message = err.Error()
		res.Status = HealthStatusUnhealthy

		if o, ok := c.(OptionalChecker); ok && o.Optional() {
			res.Status = HealthStatusDegraded
		}
	}

	return res
}
