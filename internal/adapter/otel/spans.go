package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "karuna"

// StartCacheFillSpan starts a span around producing a value for a missed key.
func StartCacheFillSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "cache.fill",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
}

// StartLLMSpan starts a span for a generative model call.
func StartLLMSpan(ctx context.Context, model string, turns int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("llm.turns", turns),
		),
	)
}
