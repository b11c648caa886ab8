package ctxrun

import "context"

// Metrics records counters and durations for the tick loop and dispatcher.
// The observer package provides an OTEL-backed implementation; when Ctx.Metrics
// is nil, recording is skipped.
type Metrics interface {
	// TickCompleted records one finished Tick call, outcome one of
	// "ended", "max_iterations", or "error".
	TickCompleted(ctx context.Context, outcome string, durationMs float64)
	// ToolDispatched records one finished Dispatch call, kind one of
	// "sub_context", "shell", "shell_detached", or "doc_read".
	ToolDispatched(ctx context.Context, kind string, durationMs float64)
	// ToolExitCode records a completed (non-detached) shell tool's exit code.
	ToolExitCode(ctx context.Context, code int)
	// SSEBytes records the payload size in bytes of one decoded SSE data
	// event.
	SSEBytes(ctx context.Context, n int64)
}
