// Copyright © 2024 The ELPS authors

package bindtrace

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/luthersystems/sharpbind/syntax"
)

// OpenCensusAnnotator records binder phases as OpenCensus spans.
type OpenCensusAnnotator struct {
	tracer
}

func NewOpenCensusAnnotator(parent context.Context, opts ...Option) (*OpenCensusAnnotator, error) {
	if parent == nil {
		return nil, errors.New("we can only append spans to a context that is linked to opencensus")
	}
	p := &OpenCensusAnnotator{}
	p.init(parent, opts...)
	return p, nil
}

// Start implements binder.Tracer.
func (p *OpenCensusAnnotator) Start(kind, label string, loc syntax.Location) func() {
	if p.skipSpan(kind, label) {
		return func() {}
	}
	name := p.labeler(kind, label)
	return p.push(func(parent context.Context) (context.Context, func()) {
		ctx, span := trace.StartSpan(parent, name)
		return ctx, func() {
			file, line, _ := sourceOf(loc)
			span.Annotate([]trace.Attribute{
				trace.StringAttribute("kind", kind),
				trace.StringAttribute("file", file),
				trace.Int64Attribute("line", int64(line)),
			}, "source")
			span.End()
		}
	})
}
