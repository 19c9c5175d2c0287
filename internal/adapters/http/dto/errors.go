// Package dto provides Data Transfer Objects for HTTP request/response handling.
// Every response, success or failure, is wrapped in the Response envelope.
package dto

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
)

// Error codes for machine-readable error identification.
const (
	// ErrorCodeNotFound indicates the requested resource was not found.
	ErrorCodeNotFound = "NOT_FOUND"

	// ErrorCodeConflict indicates a duplicate like, follow, membership or account.
	ErrorCodeConflict = "CONFLICT"

	// ErrorCodeValidation indicates request validation failed.
	ErrorCodeValidation = "VALIDATION_ERROR"

	// ErrorCodeForbidden indicates the operation is not permitted.
	ErrorCodeForbidden = "FORBIDDEN"

	// ErrorCodeUnauthorized indicates authentication is missing or invalid.
	ErrorCodeUnauthorized = "UNAUTHORIZED"

	// ErrorCodeUnavailable indicates a dependency is unavailable.
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"

	// ErrorCodeInternal indicates an internal server error.
	ErrorCodeInternal = "INTERNAL_ERROR"

	// ErrorCodeTimeout indicates the request timed out.
	ErrorCodeTimeout = "TIMEOUT"

	// ErrorCodeBadRequest indicates the request was malformed.
	ErrorCodeBadRequest = "BAD_REQUEST"

	// ErrorCodeRateLimited indicates the caller exceeded the request budget.
	ErrorCodeRateLimited = "RATE_LIMITED"
)

// MessageValidationFailed is the error text of every validation failure.
const MessageValidationFailed = "Validation failed"

const internalErrorMessage = "an internal error occurred"

var exposeInternalErrors atomic.Bool

// ExposeInternalErrors controls whether 500 responses carry the underlying
// error text. Enable it only outside production.
func ExposeInternalErrors(expose bool) {
	exposeInternalErrors.Store(expose)
}

// FieldDetail describes one rejected input field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewErrorResponse creates a failure envelope with the given code and message.
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Success: false,
		Error:   message,
		Code:    code,
	}
}

// NewValidationResponse creates a 400 envelope listing the failing fields.
func NewValidationResponse(details []FieldDetail) *Response {
	resp := NewErrorResponse(ErrorCodeValidation, MessageValidationFailed)
	resp.Details = details

	return resp
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict, ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps an error to a status code and failure envelope.
// Duplicates are reported as 400, and unknown errors as 500 with a generic message.
func MapDomainError(err error) (int, *Response) {
	var code, message string

	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, NewValidationResponse(validationDetails(err))
	case domain.IsNotFound(err):
		code, message = ErrorCodeNotFound, err.Error()
	case domain.IsConflict(err):
		code, message = ErrorCodeConflict, err.Error()
	case domain.IsUnauthenticated(err):
		code, message = ErrorCodeUnauthorized, err.Error()
	case domain.IsForbidden(err):
		code, message = ErrorCodeForbidden, err.Error()
	case domain.IsUnavailable(err):
		code, message = ErrorCodeUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		code, message = ErrorCodeTimeout, "request timed out"
	default:
		code, message = ErrorCodeInternal, internalErrorMessage
		if exposeInternalErrors.Load() {
			message = err.Error()
		}
	}

	return HTTPStatusFromCode(code), NewErrorResponse(code, message)
}

func validationDetails(err error) []FieldDetail {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}

	fields := verr.FieldErrors()
	if len(fields) == 0 {
		return []FieldDetail{{Field: "body", Message: verr.Message}}
	}

	details := make([]FieldDetail, len(fields))
	for i, f := range fields {
		details[i] = FieldDetail{Field: f.Field, Message: f.Message}
	}

	return details
}

// HandleError writes the failure envelope for err.
// Internal errors are logged with the request's logger.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// AbortWithError aborts the request chain and writes the failure envelope for err.
func AbortWithError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	c.AbortWithStatusJSON(status, resp)
}

// AbortWithCode aborts the request chain with a specific error code.
func AbortWithCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message)
	resp.TraceID = GetTraceID(c)

	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// AbortRateLimited aborts with 429 and a Retry-After header in whole seconds.
func AbortRateLimited(c *gin.Context, retryAfter time.Duration) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	c.Header("Retry-After", strconv.Itoa(secs))
	AbortWithCode(c, ErrorCodeRateLimited, "too many requests, try again later")
}

// GetTraceID returns the OpenTelemetry trace ID of the request, or "".
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
