package trace

import "context"

type ctxKey struct{}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches t to ctx. A nil t attaches Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext identifies the innermost open span and the lane it runs on.
type SpanContext struct {
	SpanID uint64
	Lane   uint32
}

type spanCtxKey struct{}

// CurrentSpan returns the span context carried by ctx; the zero value means
// no span is open.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches sc to ctx.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// WithLane returns a context whose spans are recorded on lane. The current
// span, if any, stays the parent.
func WithLane(ctx context.Context, lane uint32) context.Context {
	sc := CurrentSpan(ctx)
	sc.Lane = lane
	return WithSpanContext(ctx, sc)
}
