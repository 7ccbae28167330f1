package reservy

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	inner := &minTool{name: "list_reservations", execute: func(context.Context, []byte) ([]byte, error) {
		return []byte(`{"total_count":0}`), nil
	}}
	out, err := WithLogging(logger)(inner).Execute(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_count":0}`, string(out))
	logs := buf.String()
	assert.Contains(t, logs, `"message":"tool start"`)
	assert.Contains(t, logs, `"message":"tool end"`)
	assert.Contains(t, logs, `"tool":"list_reservations"`)
}

func TestWithLogging_ErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rejecting := &minTool{name: "invite", execute: func(context.Context, []byte) ([]byte, error) {
		return nil, NotFound("Reservation NOPE not found")
	}}
	_, err := WithLogging(logger)(rejecting).Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Reservation NOPE not found")

	buf.Reset()
	failing := &minTool{name: "search", execute: func(context.Context, []byte) ([]byte, error) {
		return nil, &SystemError{Err: errors.New("sqlite: database is locked")}
	}}
	_, err = WithLogging(logger)(failing).Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "database is locked")
}

func TestWithTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("reservy-test")

	ok := WithTracing(tracer)(&minTool{name: "list_reservations"})
	_, err := ok.Execute(context.Background(), []byte(`{}`))
	require.NoError(t, err)

	rejected := WithTracing(tracer)(&minTool{name: "generate_calendar_invite", execute: func(context.Context, []byte) ([]byte, error) {
		return nil, NotFound("Reservation %s not found", "ABC")
	}})
	_, err = rejected.Execute(context.Background(), nil)
	require.Error(t, err)

	broken := WithTracing(tracer)(&minTool{name: "make_reservation", execute: func(context.Context, []byte) ([]byte, error) {
		return nil, &SystemError{Err: errors.New("sqlite: disk full")}
	}})
	_, err = broken.Execute(context.Background(), nil)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "tool list_reservations", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("tool.name", "list_reservations"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("tool.result_bytes", 2))

	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("tool.rejected", "Reservation ABC not found"))

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	require.Len(t, spans[2].Events(), 1)
	assert.Equal(t, "exception", spans[2].Events()[0].Name)
}

func TestWithRecovery(t *testing.T) {
	inner := &minTool{name: "panic_me", execute: func(context.Context, []byte) ([]byte, error) {
		panic("nil store")
	}}
	res, err := WithRecovery()(inner).Execute(context.Background(), nil)
	assert.Nil(t, res)
	var se *SystemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Err.Error(), "nil store")
}

func TestMiddleware_PreservesMetadata(t *testing.T) {
	tool, err := newBookingTool(WithReadOnly(), WithTags("booking"))
	require.NoError(t, err)
	wrapped := WithRecovery()(WithLogging(zerolog.Nop())(tool))
	meta, ok := wrapped.(ToolMetadata)
	require.True(t, ok)
	assert.True(t, meta.ReadOnly())
	assert.Equal(t, []string{"booking"}, meta.Tags())
	assert.NotNil(t, meta.OutputSchema())
	assert.Equal(t, tool.Parameters()["type"], wrapped.Parameters()["type"])
}

func TestRegistry_Use(t *testing.T) {
	var order []string
	mark := func(label string) Middleware {
		return func(next Tool) Tool {
			return &minTool{name: next.Name(), execute: func(ctx context.Context, args []byte) ([]byte, error) {
				order = append(order, label)
				return next.Execute(ctx, args)
			}}
		}
	}
	reg := NewRegistry()
	reg.Register(&minTool{name: "first"})
	reg.Use(mark("outer"), mark("inner"))
	reg.Register(&minTool{name: "second"})

	reg.Execute(context.Background(), ToolCall{ID: "1", ToolName: "first"})
	reg.Execute(context.Background(), ToolCall{ID: "2", ToolName: "second"})
	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)

	// Use replaces the chain instead of stacking on top of it.
	order = nil
	reg.Use(mark("only"))
	reg.Execute(context.Background(), ToolCall{ID: "3", ToolName: "first"})
	assert.Equal(t, []string{"only"}, order)
}
