package observer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	ctxrun "ctxrun"
)

// otelMetrics implements ctxrun.Metrics against a set of Instruments.
type otelMetrics struct {
	inst *Instruments
}

// NewMetrics returns a ctxrun.Metrics backed by inst. Call observer.Init()
// first to obtain inst from a configured OTEL MeterProvider.
func NewMetrics(inst *Instruments) ctxrun.Metrics {
	return &otelMetrics{inst: inst}
}

func (m *otelMetrics) TickCompleted(ctx context.Context, outcome string, durationMs float64) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.inst.TickCount.Add(ctx, 1, attrs)
	m.inst.TickDuration.Record(ctx, durationMs, attrs)
}

func (m *otelMetrics) ToolDispatched(ctx context.Context, kind string, durationMs float64) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.inst.DispatchCount.Add(ctx, 1, attrs)
	m.inst.DispatchDuration.Record(ctx, durationMs, attrs)
}

func (m *otelMetrics) ToolExitCode(ctx context.Context, code int) {
	m.inst.ToolExitCode.Record(ctx, int64(code))
}

func (m *otelMetrics) SSEBytes(ctx context.Context, n int64) {
	m.inst.SSEBytesReceived.Add(ctx, n)
}

var _ ctxrun.Metrics = (*otelMetrics)(nil)
