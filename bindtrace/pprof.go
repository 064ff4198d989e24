// Copyright © 2024 The ELPS authors

package bindtrace

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/sharpbind/syntax"
)

// PprofAnnotator labels the binding goroutine with the innermost binder
// phase so that CPU profiles taken while binding attribute samples to
// phases.  It does not start profiling.
type PprofAnnotator struct {
	tracer
}

func NewPprofAnnotator(parent context.Context, opts ...Option) *PprofAnnotator {
	if parent == nil {
		parent = context.Background()
	}
	p := &PprofAnnotator{}
	p.init(parent, opts...)
	return p
}

// Start implements binder.Tracer.
func (p *PprofAnnotator) Start(kind, label string, loc syntax.Location) func() {
	if p.skipSpan(kind, label) {
		return func() {}
	}
	name := p.labeler(kind, label)
	return p.push(func(parent context.Context) (context.Context, func()) {
		ctx := pprof.WithLabels(parent, pprof.Labels("phase", kind, "label", name))
		pprof.SetGoroutineLabels(ctx)
		return ctx, func() { pprof.SetGoroutineLabels(parent) }
	})
}

// Complete clears the labels of the calling goroutine.
func (p *PprofAnnotator) Complete() {
	pprof.SetGoroutineLabels(context.Background())
}
