// Copyright © 2024 The ELPS authors

package bindtrace

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/sharpbind/syntax"
)

const (
	// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context key.
	ContextOpenTelemetryTracerKey = "otelParentTracer"
)

// OpenTelemetryAnnotator records binder phases as OpenTelemetry spans
// under a parent context.
type OpenTelemetryAnnotator struct {
	tracer
}

// NewOpenTelemetryAnnotator returns an annotator whose spans are children
// of parent.
func NewOpenTelemetryAnnotator(parent context.Context, opts ...Option) (*OpenTelemetryAnnotator, error) {
	if parent == nil {
		return nil, errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	p := &OpenTelemetryAnnotator{}
	p.init(parent, opts...)
	return p, nil
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = "sharpbind"
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

// Start implements binder.Tracer.
func (p *OpenTelemetryAnnotator) Start(kind, label string, loc syntax.Location) func() {
	if p.skipSpan(kind, label) {
		return func() {}
	}
	name := p.labeler(kind, label)
	return p.push(func(parent context.Context) (context.Context, func()) {
		ctx, span := contextTracer(parent).Start(parent, name)
		span.SetAttributes(codeAttributes(kind, label, loc)...)
		return ctx, func() { span.End() }
	})
}

func codeAttributes(kind, label string, loc syntax.Location) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.CodeNamespace(kind),
		semconv.CodeFunction(label),
	}
	if loc.IsValid() {
		attrs = append(attrs,
			semconv.CodeColumn(loc.Col),
			semconv.CodeFilepath(loc.File),
			semconv.CodeLineNumber(loc.Line),
		)
	}
	return attrs
}
