package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/clients"
	"github.com/jsamuelsen/mnemosyne/internal/domain"
)

// maxProblemBytes bounds how much of an error body is inspected.
const maxProblemBytes = 64 << 10

// upstream issues requests to one provider and reports every failure as a
// domain error naming that provider.
type upstream struct {
	client  *clients.Client
	service string
}

// fetch GETs path and returns the body of a 2xx response for the caller
// to close.
func (u upstream) fetch(ctx context.Context, path string, query url.Values, op string) (io.ReadCloser, error) {
	resp, err := u.client.Get(ctx, path, query)
	if err != nil {
		return nil, u.transportFailure(op, err)
	}

	if resp.StatusCode < http.StatusMultipleChoices {
		return resp.Body, nil
	}

	defer func() { _ = resp.Body.Close() }()

	return nil, u.statusFailure(op, path, resp.StatusCode, readProblem(resp.Body))
}

func (u upstream) transportFailure(op string, err error) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(u.service, "circuit breaker open during "+op)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(u.service, "max retries exceeded during "+op)
	default:
		return domain.NewUnavailableError(u.service, fmt.Sprintf("%s failed: %v", op, err))
	}
}

// statusFailure classifies a non-2xx response. Only a missing resource or
// a rejected request is the caller's concern; everything else means the
// provider cannot serve us right now.
func (u upstream) statusFailure(op, path string, status int, p *problem) error {
	msg := fmt.Sprintf("%s failed with status %d", op, status)
	if p != nil {
		msg = p.text()
	}

	switch status {
	case http.StatusNotFound:
		return domain.NewNotFoundError(u.service, path)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if fields := p.fieldErrors(); len(fields) > 0 {
			return domain.NewValidationErrors(fields)
		}

		return domain.NewValidationError("", msg)
	case http.StatusTooManyRequests:
		return domain.NewUnavailableError(u.service, "rate limit exceeded")
	default:
		return domain.NewUnavailableError(u.service, msg)
	}
}

// decode reads a JSON body into T and closes it. A payload that does not
// decode means the provider is misbehaving.
func decode[T any](body io.ReadCloser, service string) (T, error) {
	defer func() { _ = body.Close() }()

	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		return v, domain.NewUnavailableError(service, "decoding response: "+err.Error())
	}

	return v, nil
}

// problem is an upstream error body. quotable answers with
// {statusCode, statusMessage}; other providers nest {error: {...}} or send
// a bare {message}.
type problem struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"message"`
	Error         struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// readProblem decodes an error body, or returns nil when it carries no message.
func readProblem(r io.Reader) *problem {
	var p problem
	if err := json.NewDecoder(io.LimitReader(r, maxProblemBytes)).Decode(&p); err != nil {
		return nil
	}

	if p.text() == "" {
		return nil
	}

	return &p
}

func (p *problem) text() string {
	for _, s := range []string{p.StatusMessage, p.Error.Message, p.Message} {
		if s != "" {
			return s
		}
	}

	return ""
}

// fieldErrors returns the per-field details sorted by field name.
func (p *problem) fieldErrors() []domain.FieldError {
	if p == nil || len(p.Error.Details) == 0 {
		return nil
	}

	fields := make([]domain.FieldError, 0, len(p.Error.Details))
	for _, name := range slices.Sorted(maps.Keys(p.Error.Details)) {
		fields = append(fields, domain.FieldError{Field: name, Message: p.Error.Details[name]})
	}

	return fields
}
