// Package observe provides application-wide observability primitives for
// vozctl: OpenTelemetry metrics, tracing, and structured logging helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all vozctl metrics.
const meterName = "github.com/grizzdank/vozctl"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ResolutionDuration tracks end-to-end intent resolution latency.
	// Use with attribute.String("source", ...) — "fast_path", "slm", or
	// "fallback".
	ResolutionDuration metric.Float64Histogram

	// EscalationDuration tracks remote disambiguation round-trip latency,
	// recorded only when an escalation request was actually sent.
	EscalationDuration metric.Float64Histogram

	// Utterances counts resolved utterances. Use with attributes:
	//   attribute.String("source", ...), attribute.String("mode", ...)
	Utterances metric.Int64Counter

	// Escalations counts remote disambiguation attempts. Use with attribute:
	//   attribute.String("status", ...) — "resolved", "miss", "error", "timeout"
	Escalations metric.Int64Counter

	// ActionFailures counts individual action handler failures during
	// execution. Failures are isolated per action, so this can exceed the
	// number of failed utterances.
	ActionFailures metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The fast
// path resolves in microseconds and escalation in hundreds of milliseconds,
// so the buckets are skewed low.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
	0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ResolutionDuration, err = m.Float64Histogram("vozctl.resolution.duration",
		metric.WithDescription("End-to-end intent resolution latency by source tier."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EscalationDuration, err = m.Float64Histogram("vozctl.escalation.duration",
		metric.WithDescription("Remote disambiguation round-trip latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("vozctl.utterances",
		metric.WithDescription("Total resolved utterances by source tier and engine mode."),
	); err != nil {
		return nil, err
	}
	if met.Escalations, err = m.Int64Counter("vozctl.escalations",
		metric.WithDescription("Total remote disambiguation attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.ActionFailures, err = m.Int64Counter("vozctl.action.failures",
		metric.WithDescription("Total individual action handler failures."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordResolution is a convenience method that records one resolved
// utterance: the latency histogram sample and the utterance counter
// increment, both tagged with the source tier and engine mode.
func (m *Metrics) RecordResolution(ctx context.Context, source, mode string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("mode", mode),
	)
	m.ResolutionDuration.Record(ctx, seconds, attrs)
	m.Utterances.Add(ctx, 1, attrs)
}

// RecordEscalation is a convenience method that records one remote
// disambiguation attempt with the given status.
func (m *Metrics) RecordEscalation(ctx context.Context, status string, seconds float64) {
	m.Escalations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if seconds > 0 {
		m.EscalationDuration.Record(ctx, seconds,
			metric.WithAttributes(attribute.String("status", status)))
	}
}
