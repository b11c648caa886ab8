package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for ctxrun's tick/dispatch spans and metrics.
var (
	AttrModel     = attribute.Key("ctxrun.model")
	AttrIteration = attribute.Key("ctxrun.tick.iteration")
	AttrEnded     = attribute.Key("ctxrun.tick.ended")

	AttrToolName     = attribute.Key("ctxrun.tool.name")
	AttrToolKind     = attribute.Key("ctxrun.tool.kind")
	AttrToolExitCode = attribute.Key("ctxrun.tool.exit_code")

	AttrSSEBytes = attribute.Key("ctxrun.sse.bytes")
)
