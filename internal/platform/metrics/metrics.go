// Package metrics registers the service's Prometheus business counters.
// HTTP and client latency are recorded through OpenTelemetry by the
// telemetry package; the counters here describe what users do.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mnemosyne"

// Recorder holds the business counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	likes         *prometheus.CounterVec
	follows       *prometheus.CounterVec
	activities    *prometheus.CounterVec
	imports       *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_registrations_total",
			Help:      "Accounts created.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_likes_total",
			Help:      "Like state changes by action.",
		}, []string{"action"}),
		follows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follows_total",
			Help:      "Follow graph changes by action.",
		}, []string{"action"}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_total",
			Help:      "Activities appended to the feed log by type.",
		}, []string{"type"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_imports_total",
			Help:      "Quotes received from the upstream provider by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests refused by the rate limiter by route.",
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{
		r.registrations, r.logins, r.likes, r.follows, r.activities, r.imports, r.rateLimited,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// UserRegistered counts a new account.
func (r *Recorder) UserRegistered() {
	if r == nil {
		return
	}

	r.registrations.Inc()
}

// LoginAttempted counts a login by outcome.
func (r *Recorder) LoginAttempted(success bool) {
	if r == nil {
		return
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}

	r.logins.WithLabelValues(outcome).Inc()
}

// QuoteLiked counts a like ("like") or an unlike ("unlike").
func (r *Recorder) QuoteLiked(liked bool) {
	if r == nil {
		return
	}

	r.likes.WithLabelValues(action(liked, "like", "unlike")).Inc()
}

// UserFollowed counts a follow or an unfollow.
func (r *Recorder) UserFollowed(followed bool) {
	if r == nil {
		return
	}

	r.follows.WithLabelValues(action(followed, "follow", "unfollow")).Inc()
}

// ActivityRecorded counts an appended activity.
func (r *Recorder) ActivityRecorded(activityType string) {
	if r == nil {
		return
	}

	r.activities.WithLabelValues(activityType).Inc()
}

// QuotesImported counts the outcome of one import run.
func (r *Recorder) QuotesImported(stored, skipped int) {
	if r == nil {
		return
	}

	r.imports.WithLabelValues("stored").Add(float64(stored))
	r.imports.WithLabelValues("skipped").Add(float64(skipped))
}

// RequestRateLimited counts a refused request.
func (r *Recorder) RequestRateLimited(route string) {
	if r == nil {
		return
	}

	r.rateLimited.WithLabelValues(route).Inc()
}

func action(ok bool, yes, no string) string {
	if ok {
		return yes
	}

	return no
}
