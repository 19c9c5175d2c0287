package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/mnemosyne/internal/platform/logging"
	"github.com/jsamuelsen/mnemosyne/internal/platform/telemetry"
)

// Operations that touch an external system run in five stages:
//
//	validate  check input and preconditions, nothing has happened yet
//	perform   call the external system
//	verify    turn what came back into state we are willing to keep
//	archive   persist the verified state
//	respond   shape the result for the caller
//
// Nothing is written before verify succeeds, so a misbehaving upstream
// cannot leave partial rows behind.

// Stage names one step of an Operation.
type Stage string

// Operation stages, in execution order.
const (
	StageValidate Stage = "validate"
	StagePerform  Stage = "perform"
	StageVerify   Stage = "verify"
	StageArchive  Stage = "archive"
	StageRespond  Stage = "respond"
)

// StageError reports the stage an operation stopped in.
type StageError struct {
	Operation string
	Stage     Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}

	return "", false
}

// Executor runs Operations and logs their progress.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation holds the stage functions for input I, performed result P,
// verified state V and output O. Nil stages are skipped.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, in I) error
	Perform  func(ctx context.Context, in I) (P, error)
	Verify   func(ctx context.Context, in I, performed P) (V, error)
	Archive  func(ctx context.Context, in I, verified V) error
	Respond  func(ctx context.Context, in I, verified V) (O, error)
}

// Execute runs op's stages in order and stops at the first failure.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], in I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
	)

	logger, ok := logging.Lookup(ctx)
	if !ok {
		logger = exec.logger
	}

	ctx, span := telemetry.StartSpan(ctx, "operation "+op.Name, attribute.String("operation", op.Name))
	defer span.End()

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(stage Stage, err error) (O, error) {
		level := slog.LevelError
		if stage == StageValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "operation stopped",
			slog.String("stage", string(stage)),
			slog.Any("error", err))

		span.SetAttributes(attribute.String("operation.stage", string(stage)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))

		return zero, &StageError{Operation: op.Name, Stage: stage, Err: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, in); err != nil {
			return fail(StageValidate, err)
		}
	}

	if op.Perform != nil {
		var err error
		if performed, err = op.Perform(ctx, in); err != nil {
			return fail(StagePerform, err)
		}

		span.AddEvent("performed")
		logger.DebugContext(ctx, "operation performed")
	}

	if op.Verify != nil {
		var err error
		if verified, err = op.Verify(ctx, in, performed); err != nil {
			return fail(StageVerify, err)
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, in, verified); err != nil {
			return fail(StageArchive, err)
		}

		span.AddEvent("archived")
		logger.DebugContext(ctx, "operation archived")
	}

	out := zero
	if op.Respond != nil {
		var err error
		if out, err = op.Respond(ctx, in, verified); err != nil {
			return fail(StageRespond, err)
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}
