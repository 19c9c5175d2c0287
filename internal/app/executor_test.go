package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jsamuelsen/mnemosyne/internal/domain"
	"github.com/jsamuelsen/mnemosyne/internal/testutil"
)

// recordingOp builds an operation that appends each stage it runs to trail
// and fails in failAt.
func recordingOp(trail *[]Stage, failAt Stage, err error) Operation[int, int, int, string] {
	step := func(s Stage) error {
		*trail = append(*trail, s)
		if s == failAt {
			return err
		}

		return nil
	}

	return Operation[int, int, int, string]{
		Name: "double",
		Validate: func(context.Context, int) error {
			return step(StageValidate)
		},
		Perform: func(_ context.Context, in int) (int, error) {
			return in * 2, step(StagePerform)
		},
		Verify: func(_ context.Context, _ int, performed int) (int, error) {
			return performed + 1, step(StageVerify)
		},
		Archive: func(context.Context, int, int) error {
			return step(StageArchive)
		},
		Respond: func(_ context.Context, _ int, verified int) (string, error) {
			if err := step(StageRespond); err != nil {
				return "", err
			}

			return "result", nil
		},
	}
}

func TestExecute_RunsStagesInOrder(t *testing.T) {
	var trail []Stage

	out, err := Execute(context.Background(), NewExecutor(testutil.DiscardLogger()), recordingOp(&trail, "", nil), 3)
	require.NoError(t, err)

	assert.Equal(t, "result", out)
	assert.Equal(t, []Stage{StageValidate, StagePerform, StageVerify, StageArchive, StageRespond}, trail)
}

func TestExecute_StopsAtFailedStage(t *testing.T) {
	cause := domain.NewUnavailableError("quote-service", "down")

	for _, stage := range []Stage{StageValidate, StagePerform, StageVerify, StageArchive, StageRespond} {
		t.Run(string(stage), func(t *testing.T) {
			var trail []Stage

			_, err := Execute(context.Background(), NewExecutor(nil), recordingOp(&trail, stage, cause), 1)
			require.Error(t, err)

			got, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, stage, got)
			assert.Equal(t, stage, trail[len(trail)-1], "no stage runs after a failure")
			assert.True(t, domain.IsUnavailable(err), "domain error stays reachable")
			assert.Contains(t, err.Error(), "double: "+string(stage))
		})
	}
}

func TestExecute_SkipsNilStages(t *testing.T) {
	archived := false

	out, err := Execute(context.Background(), NewExecutor(nil), Operation[string, int, int, int]{
		Name: "sparse",
		Archive: func(context.Context, string, int) error {
			archived = true
			return nil
		},
	}, "in")
	require.NoError(t, err)

	assert.Zero(t, out)
	assert.True(t, archived)
}

func TestFailedStage_PlainError(t *testing.T) {
	_, ok := FailedStage(errors.New("plain"))
	assert.False(t, ok)
}

func TestExecute_RecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var trail []Stage

	_, err := Execute(context.Background(), NewExecutor(nil), recordingOp(&trail, "", nil), 1)
	require.NoError(t, err)

	_, err = Execute(context.Background(), NewExecutor(nil), recordingOp(&trail, StageVerify, errors.New("bad payload")), 1)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "operation double", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 2, "performed and archived")

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "verify", spans[1].Status().Description)
}
