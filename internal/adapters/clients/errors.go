// Package clients provides the HTTP client used for upstream providers.
package clients

import (
	"errors"
	"net/http"
	"strconv"
)

// Transport-level failures. Adapters translate them to domain errors.
var (
	// ErrCircuitOpen is returned without contacting the upstream while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is a retryable upstream response: any 5xx or 429.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "upstream status " + strconv.Itoa(e.Code) + " " + http.StatusText(e.Code)
}
