package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
)

// HeaderTraceID carries the request's trace ID back to the client.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests gin could not route, keeping the
// route attribute bounded.
const unmatchedRoute = "unmatched"

type serverInstruments struct {
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newServerInstruments(meter metric.Meter) (*serverInstruments, error) {
	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP server requests."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &serverInstruments{duration: duration, inFlight: inFlight}, nil
}

// TracingMiddleware starts a server span per request with otelgin.
// Operational /-/ endpoints are not traced.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/-/")
	}))
}

// Middleware records request metrics and exposes the active trace ID in
// the X-Trace-ID header and the request logger. Mount it after
// TracingMiddleware.
func Middleware() gin.HandlerFunc {
	instruments, err := newServerInstruments(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if id := TraceID(ctx); id != "" {
			c.Header(HeaderTraceID, id)
			ctx = logging.WithTraceID(ctx, id)
			c.Request = c.Request.WithContext(ctx)
		}

		if instruments == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		base := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		instruments.inFlight.Add(ctx, 1, base)
		start := time.Now()

		c.Next()

		instruments.inFlight.Add(ctx, -1, base)
		instruments.duration.Record(ctx, time.Since(start).Seconds(), base,
			metric.WithAttributes(attribute.Int("http.response.status_code", c.Writer.Status())))
	}
}
