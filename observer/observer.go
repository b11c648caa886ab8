// Package observer provides OTEL-based observability for ctxrun's tick
// loop and tool dispatcher.
//
// It configures trace, metric, and log providers with OTLP HTTP exporters
// and exposes the counters ctxrun's engine and dispatcher record against.
// Export to any OTEL-compatible backend by setting standard OTEL env vars
// (OTEL_EXPORTER_OTLP_ENDPOINT and friends).
package observer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "ctxrun/observer"

// Instruments holds the OTEL instruments ctxrun's engine and dispatcher
// record against.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger otellog.Logger

	// TickCount counts completed Tick calls, tagged by outcome (ended,
	// max_iterations, error).
	TickCount metric.Int64Counter
	// TickDuration is the wall-clock time of a full Tick call.
	TickDuration metric.Float64Histogram

	// DispatchCount counts Dispatch calls, tagged by kind (sub_context,
	// shell, shell_detached, doc_read).
	DispatchCount metric.Int64Counter
	// DispatchDuration is the wall-clock time of one Dispatch call.
	DispatchDuration metric.Float64Histogram
	// ToolExitCode records the exit code of completed (non-detached) shell
	// tool invocations.
	ToolExitCode metric.Int64Histogram

	// SSEBytesReceived counts the payload bytes of decoded SSE data events.
	SSEBytesReceived metric.Int64Counter
}

// Init sets up OTEL trace, metric, and log providers with OTLP HTTP exporters.
// Configuration comes from standard OTEL env vars (OTEL_EXPORTER_OTLP_ENDPOINT, etc.).
// Returns a shutdown function that must be called on application exit.
func Init(ctx context.Context) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("ctxrun")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logExp, err := otlploghttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	inst, err := newInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
			lp.Shutdown(ctx),
		)
	}

	return inst, shutdown, nil
}

func newInstruments() (*Instruments, error) {
	tracer := otel.Tracer(scopeName)
	meter := otel.Meter(scopeName)
	logger := global.GetLoggerProvider().Logger(scopeName)

	tickCount, err := meter.Int64Counter("ctxrun.tick.count",
		metric.WithDescription("Completed Tick calls"),
		metric.WithUnit("{tick}"))
	if err != nil {
		return nil, err
	}

	tickDuration, err := meter.Float64Histogram("ctxrun.tick.duration",
		metric.WithDescription("Tick call duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	dispatchCount, err := meter.Int64Counter("ctxrun.dispatch.count",
		metric.WithDescription("Tool dispatch count"),
		metric.WithUnit("{dispatch}"))
	if err != nil {
		return nil, err
	}

	dispatchDuration, err := meter.Float64Histogram("ctxrun.dispatch.duration",
		metric.WithDescription("Tool dispatch duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	toolExitCode, err := meter.Int64Histogram("ctxrun.tool.exit_code",
		metric.WithDescription("Shell tool exit codes"),
		metric.WithUnit("{code}"))
	if err != nil {
		return nil, err
	}

	sseBytes, err := meter.Int64Counter("ctxrun.sse.bytes_received",
		metric.WithDescription("Bytes read from streaming response bodies"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:           tracer,
		Meter:            meter,
		Logger:           logger,
		TickCount:        tickCount,
		TickDuration:     tickDuration,
		DispatchCount:    dispatchCount,
		DispatchDuration: dispatchDuration,
		ToolExitCode:     toolExitCode,
		SSEBytesReceived: sseBytes,
	}, nil
}
