// Package middleware contains the gin middleware of the HTTP adapter.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
)

// Tracing headers. Both are echoed on every response.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Gin context keys.
const (
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
)

// maxIDLength bounds caller supplied IDs; longer values are replaced.
const maxIDLength = 128

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// tracedID describes one of the identifiers carried from header to context.
type tracedID struct {
	header  string
	ginKey  string
	ctxKey  idKey
	logWith func(context.Context, string) context.Context
}

var (
	requestID = tracedID{
		header:  HeaderRequestID,
		ginKey:  ContextKeyRequestID,
		ctxKey:  requestIDKey,
		logWith: logging.WithRequestID,
	}
	correlationID = tracedID{
		header:  HeaderCorrelationID,
		ginKey:  ContextKeyCorrelationID,
		ctxKey:  correlationIDKey,
		logWith: logging.WithCorrelationID,
	}
)

// RequestID returns middleware that accepts or assigns an X-Request-ID.
// The ID is stored on the gin context, the request context and the request logger.
func RequestID() gin.HandlerFunc { return requestID.middleware() }

// CorrelationID returns middleware that accepts or assigns an X-Correlation-ID.
// Unlike the request ID it is expected to be forwarded unchanged by upstream callers.
func CorrelationID() gin.HandlerFunc { return correlationID.middleware() }

func (t tracedID) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if !acceptableID(id) {
			id = uuid.NewString()
		}

		c.Set(t.ginKey, id)
		c.Header(t.header, id)

		ctx := context.WithValue(c.Request.Context(), t.ctxKey, id)
		c.Request = c.Request.WithContext(t.logWith(ctx, id))

		c.Next()
	}
}

func (t tracedID) fromGin(c *gin.Context) string {
	return c.GetString(t.ginKey)
}

func (t tracedID) fromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(t.ctxKey).(string)

	return id
}

// acceptableID reports whether a caller supplied ID can be echoed back as is.
func acceptableID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string { return requestID.fromGin(c) }

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string { return correlationID.fromGin(c) }

// RequestIDFromContext returns the request ID carried by ctx, or "".
// Outbound clients use it to forward the ID.
func RequestIDFromContext(ctx context.Context) string { return requestID.fromContext(ctx) }

// CorrelationIDFromContext returns the correlation ID carried by ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string { return correlationID.fromContext(ctx) }

// ContextWithRequestID returns a copy of ctx carrying id as the request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns a copy of ctx carrying id as the correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}
