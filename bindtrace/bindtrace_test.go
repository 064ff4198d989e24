// Copyright © 2024 The ELPS authors

package bindtrace_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bindtest"
	"github.com/luthersystems/sharpbind/bindtrace"
)

const fixture = `
assembly: trace
usings: [System, System.Collections.Generic, System.Linq]
globals:
  - "IEnumerable<int> xs"
  - "static int G(int x)"
  - "static int G(string s)"
`

const query = `from x in xs where x > 0 select G(x)`

func newExporter(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func TestOpenTelemetryAnnotator(t *testing.T) {
	exporter := newExporter(t)
	ann, err := bindtrace.NewOpenTelemetryAnnotator(context.Background())
	require.NoError(t, err)
	env := bindtest.NewEnvOptions(t, binder.Options{Tracer: ann}, fixture)
	res := env.Bind(query)
	require.False(t, res.Diagnostics.HasErrors())

	spans := exporter.GetSpans()
	require.GreaterOrEqual(t, len(spans), 4, "bind, query and resolve spans")
	// Spans are exported as they end, so the top-level bind is last.
	root := spans[len(spans)-1]
	assert.True(t, strings.HasPrefix(root.Name, "bind "), root.Name)
	for _, s := range spans[:len(spans)-1] {
		assert.True(t, s.Parent.IsValid(), "%s has a parent", s.Name)
		assert.Equal(t, root.SpanContext.TraceID(), s.SpanContext.TraceID(), s.Name)
	}
}

func TestOpenTelemetryAnnotatorKinds(t *testing.T) {
	exporter := newExporter(t)
	ann, err := bindtrace.NewOpenTelemetryAnnotator(context.Background(),
		bindtrace.WithKinds(bindtrace.KindQuery),
		bindtrace.WithLabeler(func(kind, label string) string { return "q:" + label }))
	require.NoError(t, err)
	env := bindtest.NewEnvOptions(t, binder.Options{Tracer: ann}, fixture)
	env.Bind(query)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "q:where")
	assert.Contains(t, names, "q:select")
	for _, name := range names {
		assert.True(t, strings.HasPrefix(name, "q:"), name)
	}
}

func TestNilParent(t *testing.T) {
	//nolint:staticcheck
	_, err := bindtrace.NewOpenTelemetryAnnotator(nil)
	assert.Error(t, err)
	//nolint:staticcheck
	_, err = bindtrace.NewOpenCensusAnnotator(nil)
	assert.Error(t, err)
}

type recordingExporter struct {
	mu    sync.Mutex
	spans []*octrace.SpanData
}

func (e *recordingExporter) ExportSpan(sd *octrace.SpanData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spans = append(e.spans, sd)
}

func TestOpenCensusAnnotator(t *testing.T) {
	octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
	exporter := new(recordingExporter)
	octrace.RegisterExporter(exporter)
	t.Cleanup(func() { octrace.UnregisterExporter(exporter) })

	ann, err := bindtrace.NewOpenCensusAnnotator(context.Background())
	require.NoError(t, err)
	env := bindtest.NewEnvOptions(t, binder.Options{Tracer: ann}, fixture)
	env.Bind(query)

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	require.NotEmpty(t, exporter.spans)
	root := exporter.spans[len(exporter.spans)-1]
	assert.True(t, strings.HasPrefix(root.Name, "bind "), root.Name)
	require.NotEmpty(t, root.Annotations)
	assert.Equal(t, "source", root.Annotations[0].Message)
	assert.Equal(t, "bind", root.Annotations[0].Attributes["kind"])
}

func TestPprofAnnotator(t *testing.T) {
	ann := bindtrace.NewPprofAnnotator(context.Background())
	defer ann.Complete()
	env := bindtest.NewEnvOptions(t, binder.Options{Tracer: ann}, fixture)
	res := env.Bind(query)
	assert.False(t, res.Diagnostics.HasErrors())
}
