// Copyright © 2024 The ELPS authors

// Package bindtrace provides binder.Tracer implementations that export
// binder phases as spans or profiler labels.
package bindtrace

import (
	"context"
	"fmt"
	"sync"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/syntax"
)

// Span kinds started by the binder.
const (
	KindBind     = "bind"
	KindScript   = "script"
	KindQuery    = "query"
	KindResolve  = "resolve"
)

// SkipFilter reports whether a span of the given kind and label should be
// dropped.
type SkipFilter func(kind, label string) bool

// Labeler returns the name of a span.
type Labeler func(kind, label string) string

type Option func(*tracer)

// WithSkipFilter sets the filter for spans.
func WithSkipFilter(skip SkipFilter) Option {
	return func(t *tracer) {
		t.skip = skip
	}
}

// WithKinds traces only spans of the named kinds.
func WithKinds(kinds ...string) Option {
	keep := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}
	return WithSkipFilter(func(kind, _ string) bool { return !keep[kind] })
}

// WithLabeler sets the function naming spans.
func WithLabeler(fn Labeler) Option {
	return func(t *tracer) {
		t.labeler = fn
	}
}

// MaxLabel is the length past which default span names are truncated.
const MaxLabel = 64

func defaultLabeler(kind, label string) string {
	if len(label) > MaxLabel {
		label = label[:MaxLabel-3] + "..."
	}
	return fmt.Sprintf("%s %s", kind, label)
}

// tracer holds the state shared by the annotators: the options and a stack
// of contexts, one per open span.  Spans started by concurrent binds share
// the stack, so each nests under whichever span was innermost when it
// started.
type tracer struct {
	mu       sync.Mutex
	skip     SkipFilter
	labeler  Labeler
	root     context.Context
	contexts []context.Context
}

func (t *tracer) init(parent context.Context, opts ...Option) {
	t.root = parent
	t.labeler = defaultLabeler
	for _, opt := range opts {
		opt(t)
	}
}

func (t *tracer) skipSpan(kind, label string) bool {
	return t.skip != nil && t.skip(kind, label)
}

// current returns the innermost open context.  The caller holds mu.
func (t *tracer) current() context.Context {
	if n := len(t.contexts); n > 0 {
		return t.contexts[n-1]
	}
	return t.root
}

// push opens a context derived from the innermost one by start and
// returns the function that closes it.  start returns the new context and
// the function ending its span.
func (t *tracer) push(start func(parent context.Context) (context.Context, func())) func() {
	t.mu.Lock()
	ctx, end := start(t.current())
	t.contexts = append(t.contexts, ctx)
	t.mu.Unlock()
	return func() {
		end()
		t.mu.Lock()
		defer t.mu.Unlock()
		for i := len(t.contexts) - 1; i >= 0; i-- {
			if t.contexts[i] == ctx {
				t.contexts = append(t.contexts[:i], t.contexts[i+1:]...)
				break
			}
		}
	}
}

func sourceOf(loc syntax.Location) (file string, line, col int) {
	if !loc.IsValid() {
		return "no-source", 0, 0
	}
	return loc.File, loc.Line, loc.Col
}

var (
	_ binder.Tracer = (*OpenTelemetryAnnotator)(nil)
	_ binder.Tracer = (*OpenCensusAnnotator)(nil)
	_ binder.Tracer = (*PprofAnnotator)(nil)
)
