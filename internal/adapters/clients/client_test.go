package clients

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/http/middleware"
	"github.com/jsamuelsen/mnemosyne/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "quotable",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

// upstream serves statuses in order, repeating the last one, and counts hits.
func upstream(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(hits.Add(1))
		w.WriteHeader(statuses[min(n, len(statuses))-1])
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func newClient(t *testing.T, cfg *Config) *Client {
	t.Helper()

	c, err := New(cfg)
	require.NoError(t, err)

	return c
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	require.NoError(t, resp.Body.Close())
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testConfig("")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")

	cfg = testConfig("https://api.quotable.io/")
	cfg.Timeout = 0
	cfg.Retry.MaxAttempts = 0

	c := newClient(t, cfg)
	assert.Equal(t, "https://api.quotable.io", c.baseURL)
	assert.Equal(t, defaultTimeout, c.http.Timeout)
	assert.Equal(t, 1, c.cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultUserAgent, c.cfg.UserAgent)
	assert.Zero(t, cfg.Retry.MaxAttempts, "caller config is not modified")
}

func TestNew_AppliesTransportConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.Transport = config.TransportConfig{
		MaxIdleConns:        7,
		MaxIdleConnsPerHost: 3,
		IdleConnTimeout:     15 * time.Second,
	}

	transport, ok := newClient(t, cfg).http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	assert.Equal(t, 3, transport.MaxIdleConnsPerHost)
	assert.Equal(t, 15*time.Second, transport.IdleConnTimeout)
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name        string
		statuses    []int
		maxAttempts int
		wantStatus  int
		wantHits    int32
		wantErr     error
	}{
		{"success first try", []int{200}, 3, 200, 1, nil},
		{"recovers after server errors", []int{500, 502, 200}, 3, 200, 3, nil},
		{"recovers after 429", []int{429, 200}, 3, 200, 2, nil},
		{"client error is returned", []int{400}, 3, 400, 1, nil},
		{"not found is returned", []int{404}, 3, 404, 1, nil},
		{"gives up after max attempts", []int{503}, 3, 0, 3, ErrMaxRetriesExceeded},
		{"single attempt", []int{500, 200}, 1, 0, 1, ErrMaxRetriesExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := upstream(t, tt.statuses...)

			cfg := testConfig(srv.URL)
			cfg.Retry.MaxAttempts = tt.maxAttempts

			resp, err := newClient(t, cfg).Get(context.Background(), "/quotes/random", nil)
			assert.Equal(t, tt.wantHits, hits.Load())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.statuses[min(int(tt.wantHits), len(tt.statuses))-1], se.Code)

				return
			}

			require.NoError(t, err)
			defer closeBody(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestClient_RetryAfterIsCappedByMaxInterval(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	start := time.Now()

	resp, err := newClient(t, testConfig(srv.URL)).Get(context.Background(), "/", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, int32(2), hits.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.UserAgent = "mnemosyne-test"
	cfg.AuthFunc = func(r *http.Request) { r.Header.Set("Authorization", "Bearer upstream-key") }

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	resp, err := newClient(t, cfg).Get(ctx, "/quotes", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, "req-123", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-456", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "mnemosyne-test", got.Get("User-Agent"))
	assert.Equal(t, "Bearer upstream-key", got.Get("Authorization"))
}

func TestClient_AuthFuncRunsOnEveryAttempt(t *testing.T) {
	srv, hits := upstream(t, http.StatusServiceUnavailable, http.StatusOK)

	var calls atomic.Int32

	cfg := testConfig(srv.URL)
	cfg.AuthFunc = func(r *http.Request) {
		calls.Add(1)
		r.Header.Set("Authorization", "Bearer upstream-key")
	}

	resp, err := newClient(t, cfg).Get(context.Background(), "/", nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CircuitBreaker(t *testing.T) {
	srv, hits := upstream(t, http.StatusServiceUnavailable)

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2

	c := newClient(t, cfg)

	_, err := c.Get(context.Background(), "/", nil)
	require.Error(t, err)
	assert.Equal(t, StateClosed, c.CircuitState())

	_, err = c.Get(context.Background(), "/", nil)
	require.Error(t, err)
	assert.Equal(t, StateOpen, c.CircuitState())

	before := hits.Load()

	_, err = c.Get(context.Background(), "/", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, hits.Load(), "open circuit does not reach the upstream")
}

func TestClient_SlowUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Run("attempt timeout", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.Timeout = 30 * time.Millisecond
		cfg.Retry.MaxAttempts = 1

		_, err := newClient(t, cfg).Get(context.Background(), "/", nil)
		require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	})

	t.Run("caller deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err := newClient(t, testConfig(srv.URL)).Get(ctx, "/", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMaxRetriesExceeded, "cancellation is not retried")
	})
}

func TestClient_BuildURL(t *testing.T) {
	c := newClient(t, testConfig("https://api.quotable.io/"))

	assert.Equal(t, "https://api.quotable.io/quotes", c.buildURL("/quotes", nil))
	assert.Equal(t, "https://api.quotable.io/quotes", c.buildURL("quotes", nil))
	assert.Equal(t, "https://api.quotable.io/quotes/random?limit=5",
		c.buildURL("/quotes/random", url.Values{"limit": {"5"}}))
}

func TestHintedBackOff(t *testing.T) {
	b := &hintedBackOff{next: backoff.NewConstantBackOff(10 * time.Millisecond)}

	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())

	b.hint = time.Second
	assert.Equal(t, time.Second, b.NextBackOff(), "hint wins when longer")
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff(), "hint is used once")

	b.hint = time.Millisecond
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff(), "schedule wins when longer")

	b.hint = time.Second
	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())

	stopped := &hintedBackOff{next: &backoff.StopBackOff{}, hint: time.Second}
	assert.Equal(t, backoff.Stop, stopped.NextBackOff())
}

func TestParseRetryAfter(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"2":                             2 * time.Second,
		" 5 ":                           5 * time.Second,
		"":                              0,
		"-1":                            0,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	} {
		assert.Equal(t, want, parseRetryAfter(in), "Retry-After %q", in)
	}
}

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"attempt deadline", context.DeadlineExceeded, true},
		{"upstream status", &StatusError{Code: http.StatusBadGateway}, true},
		{"network timeout", fakeNetError{timeout: true}, true},
		{"other network error", fakeNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestStatusError(t *testing.T) {
	assert.Equal(t, "upstream status 503 Service Unavailable", (&StatusError{Code: 503}).Error())
}
