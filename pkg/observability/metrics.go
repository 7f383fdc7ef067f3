package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName scopes this service's tracers and meters.
const InstrumentationName = "casino-simulator/backend"

// Metrics holds the instruments recorded by the session service.
type Metrics struct {
	completions       metric.Int64Counter
	completionLatency metric.Float64Histogram
	sessionsCreated   metric.Int64Counter
}

// NewMetrics registers instruments on the global meter provider. Before
// SetupMetrics runs that provider is a no-op.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(InstrumentationName)

	completions, err := meter.Int64Counter("casino.ai.completions",
		metric.WithDescription("AI completion calls by outcome"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("casino.ai.completion.duration",
		metric.WithDescription("AI completion call latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	created, err := meter.Int64Counter("casino.sessions.created",
		metric.WithDescription("Game sessions created implicitly by a prompt"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		completions:       completions,
		completionLatency: latency,
		sessionsCreated:   created,
	}, nil
}

// RecordCompletion records one provider call.
func (m *Metrics) RecordCompletion(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.completions.Add(ctx, 1, attrs)
	m.completionLatency.Record(ctx, elapsed.Seconds(), attrs)
}

// SessionCreated counts an implicit session creation.
func (m *Metrics) SessionCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsCreated.Add(ctx, 1)
}
