package logging

import (
	"context"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter writes every finished span as one debug log event.
type SpanExporter struct {
	log zerolog.Logger
}

func NewSpanExporter(log zerolog.Logger) *SpanExporter {
	return &SpanExporter{log: log}
}

func (e *SpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		ev := e.log.Debug().
			Str("span", s.Name()).
			Str("trace_id", s.SpanContext().TraceID().String()).
			Str("span_id", s.SpanContext().SpanID().String()).
			Dur("duration", s.EndTime().Sub(s.StartTime())).
			Str("status", s.Status().Code.String())
		for _, kv := range s.Attributes() {
			ev = ev.Str(string(kv.Key), kv.Value.Emit())
		}
		ev.Msg("span")
	}
	return nil
}

func (e *SpanExporter) Shutdown(context.Context) error { return nil }

// NewTracerProvider exports spans synchronously to log. Shut it down on exit.
func NewTracerProvider(log zerolog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewSpanExporter(log)))
}
