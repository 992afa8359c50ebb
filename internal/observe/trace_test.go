package observe

import (
	"context"
	"log/slog"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestTracerProvider returns a TracerProvider with an in-memory exporter
// for inspecting recorded spans.
func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

func TestStartSpan_RecordsSpan(t *testing.T) {
	tp, exp := newTestTracerProvider(t)

	ctx, span := tp.Tracer(tracerName).Start(context.Background(), "intent.resolve")
	_ = ctx
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "intent.resolve" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "intent.resolve")
	}
}

func TestLogger_WithoutSpanReturnsBase(t *testing.T) {
	base := slog.Default()
	if l := Logger(context.Background(), base); l != base {
		t.Error("Logger without a span did not return the base logger")
	}
	if l := Logger(context.Background(), nil); l == nil {
		t.Fatal("Logger(nil base) returned nil")
	}
}

func TestLogger_WithSpanAddsTraceAttrs(t *testing.T) {
	tp, _ := newTestTracerProvider(t)

	ctx, span := tp.Tracer(tracerName).Start(context.Background(), "test-span")
	defer span.End()

	base := slog.Default()
	l := Logger(ctx, base)
	if l == nil {
		t.Fatal("Logger returned nil")
	}
	// The enriched logger must be a distinct instance carrying attributes.
	if l == base {
		t.Error("Logger(ctx with span) returned the base logger unchanged")
	}
}
