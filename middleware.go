package reservy

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps a Tool with cross-cutting behavior (tracing, logging, recovery).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs start, end, duration, and errors.
// Client errors log at warn since they are expected outcomes (unknown id, bad date).
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next Tool) Tool {
		return &loggingTool{toolBase: toolBase{next: next}, logger: logger}
	}
}

// WithTracing returns a middleware that runs each execution in a span named
// "tool <name>". Only system errors set the span status to Error.
func WithTracing(tracer trace.Tracer) Middleware {
	return func(next Tool) Tool {
		return &tracingTool{toolBase: toolBase{next: next}, tracer: tracer}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// toolBase delegates Tool and ToolMetadata to the wrapped Tool.
type toolBase struct{ next Tool }

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }

func (b *toolBase) Timeout() time.Duration {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (b *toolBase) Tags() []string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

func (b *toolBase) ReadOnly() bool {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.ReadOnly()
	}
	return false
}

func (b *toolBase) OutputSchema() map[string]any {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.OutputSchema()
	}
	return nil
}

type loggingTool struct {
	toolBase
	logger zerolog.Logger
}

func (m *loggingTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	name := m.next.Name()
	m.logger.Debug().Str("tool", name).Msg("tool start")
	start := time.Now()
	res, err := m.next.Execute(ctx, args)
	dur := time.Since(start)
	switch {
	case err == nil:
		m.logger.Info().Str("tool", name).Dur("duration", dur).Msg("tool end")
	case IsClientError(err):
		m.logger.Warn().Str("tool", name).Dur("duration", dur).Str("reason", ErrorMessage(err)).Msg("tool rejected")
	default:
		m.logger.Error().Str("tool", name).Dur("duration", dur).Err(unwrapSystem(err)).Msg("tool error")
	}
	return res, err
}

// unwrapSystem exposes the cause of a SystemError to the server log only.
func unwrapSystem(err error) error {
	var se *SystemError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}
	return err
}

type tracingTool struct {
	toolBase
	tracer trace.Tracer
}

func (m *tracingTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	name := m.next.Name()
	ctx, span := m.tracer.Start(ctx, "tool "+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.Int("tool.args_bytes", len(args)),
	))
	defer span.End()

	res, err := m.next.Execute(ctx, args)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("tool.result_bytes", len(res)))
	case IsClientError(err):
		span.SetAttributes(attribute.String("tool.rejected", ErrorMessage(err)))
	default:
		span.RecordError(unwrapSystem(err))
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

type recoveryTool struct{ toolBase }

func (r *recoveryTool) Execute(ctx context.Context, args []byte) (res []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Execute(ctx, args)
}

// Use replaces the middleware chain and rewraps every registered tool from its raw
// form (first middleware is outermost). Later registrations get the same chain.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		t := raw
		for i := len(middlewares) - 1; i >= 0; i-- {
			t = middlewares[i](t)
		}
		r.tools[name] = t
	}
}
