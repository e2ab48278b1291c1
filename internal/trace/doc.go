// Package trace records what the phon engine is doing: lexing, parsing,
// compiling and running scripts, loading modules and collecting cycles.
//
//	phon run --trace=- --trace-level=phase script.phon
//	phon check --trace=check.chrome.json --trace-level=detail scripts/
//
// Tracers:
//
//   - Nop drops everything.
//   - StreamTracer writes each event as it happens (text, NDJSON or the
//     chrome://tracing event format).
//   - RingTracer keeps the last N events in memory. DumpRing prints them
//     after a failed command.
//   - MultiTracer fans out to several tracers.
//
// Levels select scopes: phase keeps command and phase spans, detail adds
// module loads and cache events, debug adds runtime events such as
// collector cycles. The error level records phase spans into a ring only,
// so they surface when something goes wrong and cost no output otherwise.
//
// The tracer and the current span travel in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartSpan(ctx, trace.ScopePhase, "parse")
//	defer span.End(path)
//
// Spans started from goroutines of a parallel batch carry a lane (see
// WithLane) so their events can be told apart.
package trace
