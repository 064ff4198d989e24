// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bindtrace"
)

// newTracer returns the binder tracer selected by kind and a function that
// ends the root span and flushes what was recorded.  Spans are summarized
// on w; a pprof trace writes a labeled CPU profile to out.
func newTracer(kind, out string, w io.Writer) (binder.Tracer, func(), error) {
	switch kind {
	case "", "none":
		return nil, func() {}, nil
	case "otel":
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanWriter{w: w}))
		otel.SetTracerProvider(tp)
		ctx, root := tp.Tracer("sharpbind").Start(context.Background(), "sharpbind")
		t, err := bindtrace.NewOpenTelemetryAnnotator(ctx)
		if err != nil {
			return nil, nil, err
		}
		return t, func() {
			root.End()
			if err := tp.Shutdown(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, "trace:", err)
			}
		}, nil
	case "opencensus":
		exp := censusWriter{w: w}
		octrace.RegisterExporter(exp)
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		ctx, root := octrace.StartSpan(context.Background(), "sharpbind")
		t, err := bindtrace.NewOpenCensusAnnotator(ctx)
		if err != nil {
			return nil, nil, err
		}
		return t, func() {
			root.End()
			octrace.UnregisterExporter(exp)
		}, nil
	case "pprof":
		f, err := os.Create(out) //nolint:gosec // CLI tool writes a user-specified file
		if err != nil {
			return nil, nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		t := bindtrace.NewPprofAnnotator(context.Background())
		return t, func() {
			t.Complete()
			pprof.StopCPUProfile()
			if err := f.Close(); err != nil {
				fmt.Fprintln(os.Stderr, "trace:", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown trace kind %q", kind)
}

// spanWriter exports OpenTelemetry spans as one summary line each.
type spanWriter struct {
	w io.Writer
}

func (e spanWriter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		if _, err := fmt.Fprintf(e.w, "trace: %-48s %v\n", s.Name(), s.EndTime().Sub(s.StartTime())); err != nil {
			return err
		}
	}
	return nil
}

func (spanWriter) Shutdown(context.Context) error { return nil }

// censusWriter exports OpenCensus spans as one summary line each.
type censusWriter struct {
	w io.Writer
}

func (e censusWriter) ExportSpan(s *octrace.SpanData) {
	fmt.Fprintf(e.w, "trace: %-48s %v\n", s.Name, s.EndTime.Sub(s.StartTime)) //nolint:errcheck // best-effort trace output
}
