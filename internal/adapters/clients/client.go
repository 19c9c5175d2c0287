package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/mnemosyne/internal/adapters/clients"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "mnemosyne"

	// drainLimit caps how much of a discarded body is read so the
	// connection can be reused.
	drainLimit = 4 << 10
)

// Config configures a client for one upstream service.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://api.quotable.io".
	BaseURL string

	// ServiceName identifies the upstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	// UserAgent is sent with every request. Defaults to "mnemosyne".
	UserAgent string

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc, when set, decorates every attempt including retries.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client is a read-oriented HTTP client for upstream quote providers. Calls
// are retried with exponential backoff, guarded by a circuit breaker, traced
// as client spans and counted in upstream metrics.
type Client struct {
	http    *http.Client
	cfg     Config
	baseURL string
	logger  *slog.Logger
	breaker *CircuitBreaker
	tracer  trace.Tracer
	metrics *upstreamInstruments
}

type upstreamInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New creates a client. cfg is copied; zero values get defaults.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	c.Retry.MaxAttempts = max(c.Retry.MaxAttempts, 1)

	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("upstream", c.ServiceName))

	instruments, err := newUpstreamInstruments(otel.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   c.Circuit.MaxFailures,
		Timeout:       c.Circuit.Timeout,
		HalfOpenLimit: c.Circuit.HalfOpenLimit,
	})
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	})

	return &Client{
		http:    &http.Client{Timeout: c.Timeout, Transport: newTransport(c.Transport)},
		cfg:     c,
		baseURL: strings.TrimSuffix(c.BaseURL, "/"),
		logger:  logger,
		breaker: breaker,
		tracer:  otel.Tracer(instrumentationName),
		metrics: instruments,
	}, nil
}

func newUpstreamInstruments(meter metric.Meter) (*upstreamInstruments, error) {
	duration, err := meter.Float64Histogram("mnemosyne.upstream.request.duration",
		metric.WithDescription("Duration of upstream HTTP calls including retries."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requests, err := meter.Int64Counter("mnemosyne.upstream.request.total",
		metric.WithDescription("Upstream HTTP calls by result."))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &upstreamInstruments{duration: duration, requests: requests}, nil
}

func newTransport(tc config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if tc.MaxIdleConns > 0 {
		t.MaxIdleConns = tc.MaxIdleConns
	}

	if tc.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = tc.MaxIdleConnsPerHost
	}

	if tc.IdleConnTimeout > 0 {
		t.IdleConnTimeout = tc.IdleConnTimeout
	}

	return t
}

// Get issues a GET for path relative to the base URL. query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do sends req through the circuit breaker and retry loop. Responses below
// 500 other than 429 are returned to the caller as-is; only bodiless
// requests are safe to retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("upstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.observe(ctx, req.Method, 0, start, "circuit_open")
		logger.WarnContext(ctx, "upstream call rejected, circuit open")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
			attribute.String("peer.service", c.cfg.ServiceName),
		))
	defer span.End()

	policy := &hintedBackOff{next: c.exponential()}

	var attempts int

	resp, err := backoff.Retry(ctx, func() (*http.Response, error) {
		attempts++
		c.prepare(ctx, req)

		return c.attempt(ctx, req, policy)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.Retry.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.DebugContext(ctx, "retrying upstream call",
				slog.Int("attempt", attempts+1),
				slog.Duration("backoff", wait),
				slog.Any("error", err))
		}),
	)

	span.SetAttributes(attribute.Int("http.resend_count", attempts-1))

	if err != nil {
		c.breaker.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, 0, start, "error")
		logger.ErrorContext(ctx, "upstream call failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))

		if ctx.Err() == nil && attempts >= c.cfg.Retry.MaxAttempts && isRetryable(err) {
			return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
		}

		return nil, fmt.Errorf("calling %s: %w", c.cfg.ServiceName, err)
	}

	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.observe(ctx, req.Method, resp.StatusCode, start, strconv.Itoa(resp.StatusCode/100)+"xx")
	logger.DebugContext(ctx, "upstream call completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)))

	return resp, nil
}

// attempt performs one round trip. Transient failures come back as plain
// errors so the retry loop tries again; anything else is permanent.
func (c *Client) attempt(ctx context.Context, req *http.Request, policy *hintedBackOff) (*http.Response, error) {
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() == nil && isRetryable(err) {
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	policy.hint = min(parseRetryAfter(resp.Header.Get("Retry-After")), c.cfg.Retry.MaxInterval)

	_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
	_ = resp.Body.Close()

	return nil, &StatusError{Code: resp.StatusCode}
}

// prepare sets the headers every attempt carries: content negotiation,
// request identity, trace context and upstream credentials.
func (c *Client) prepare(ctx context.Context, req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) exponential() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.Retry.InitialInterval,
		RandomizationFactor: c.cfg.Retry.JitterFactor,
		Multiplier:          c.cfg.Retry.Multiplier,
		MaxInterval:         c.cfg.Retry.MaxInterval,
	}
}

// CircuitState reports the breaker state for health checks.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

// ServiceName returns the upstream name.
func (c *Client) ServiceName() string {
	return c.cfg.ServiceName
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

func (c *Client) observe(ctx context.Context, method string, status int, start time.Time, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.metrics.duration.Record(ctx, time.Since(start).Seconds(), set)
	c.metrics.requests.Add(ctx, 1, set)
}

// hintedBackOff follows an exponential schedule but waits at least as long
// as the upstream's last Retry-After hint.
type hintedBackOff struct {
	next backoff.BackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	d := b.next.NextBackOff()
	if d == backoff.Stop {
		return d
	}

	d = max(d, b.hint)
	b.hint = 0

	return d
}

func (b *hintedBackOff) Reset() {
	b.next.Reset()
	b.hint = 0
}

// parseRetryAfter reads the delay-seconds form of Retry-After. HTTP dates
// and invalid values yield zero.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}

	return time.Duration(secs) * time.Second
}

// isRetryable reports whether err is transient: a retryable upstream
// status, a network timeout or a failed dial. Attempt timeouts count as
// transient; callers check their own context before retrying.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
