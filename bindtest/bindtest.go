// Copyright © 2024 The ELPS authors

// Package bindtest sets up binder contexts for tests and runs tables of
// expressions against them.
package bindtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

// Env is a symbol table and binder context built from the core library
// and metadata fixtures.
type Env struct {
	Table   *symbols.Table
	Context *binder.Context
	Log     *Logger
	t       testing.TB
}

// NewEnv returns an Env whose table is the core library extended with
// each YAML metadata document.  The binder traces into the test log.
func NewEnv(t testing.TB, metadata ...string) *Env {
	t.Helper()
	return NewEnvOptions(t, binder.Options{}, metadata...)
}

// NewEnvOptions is NewEnv with explicit binder options.  A nil Tracer in
// opts is replaced by the test logger.
func NewEnvOptions(t testing.TB, opts binder.Options, metadata ...string) *Env {
	t.Helper()
	table := symbols.NewCorLib()
	for i, doc := range metadata {
		err := symbols.LoadYAML(table, fmt.Sprintf("fixture%d.yaml", i), strings.NewReader(doc))
		require.NoError(t, err, "metadata fixture %d", i)
	}
	log := NewLogger(t)
	if opts.Tracer == nil {
		opts.Tracer = log
	}
	ctx, err := binder.NewContext(table, opts)
	require.NoError(t, err)
	return &Env{Table: table, Context: ctx, Log: log, t: t}
}

// Bind parses and binds a top-level expression.
func (e *Env) Bind(src string) *binder.Result {
	e.t.Helper()
	return e.BindIn(e.Context.Root(), src)
}

// BindIn parses src and binds it in scope.
func (e *Env) BindIn(scope binder.ScopeID, src string) *binder.Result {
	e.t.Helper()
	x, err := parser.ParseExpr("test", src)
	require.NoError(e.t, err, src)
	res, err := e.Context.BindIn(scope, x)
	require.NoError(e.t, err, src)
	e.Log.Flush()
	return res
}

// BindScript parses and binds a script.
func (e *Env) BindScript(src string) *binder.ScriptResult {
	e.t.Helper()
	s, err := parser.ParseScript("test.csx", src)
	require.NoError(e.t, err)
	res, err := e.Context.BindScript(s)
	require.NoError(e.t, err)
	e.Log.Flush()
	return res
}

// Codes returns the codes of the diagnostics in bag, in source order.
func Codes(bag *diagnostic.Bag) []diagnostic.Code {
	var codes []diagnostic.Code
	for _, d := range bag.Sorted() {
		codes = append(codes, d.Code)
	}
	return codes
}

// Count returns the number of diagnostics in bag with code.
func Count(bag *diagnostic.Bag, code diagnostic.Code) int {
	n := 0
	for _, d := range bag.Diagnostics() {
		if d.Code == code {
			n++
		}
	}
	return n
}

// TestSequence is a sequence of expressions bound one after another in
// the same Env.
type TestSequence []struct {
	Expr   string            // an expression
	Result string            // the bound tree printed as source
	Type   string            // the type of the bound tree, when not empty
	Codes  []diagnostic.Code // the diagnostics reported, in source order
}

// TestSuite is a set of named TestSequences, each with its own metadata.
type TestSuite []struct {
	Name     string
	Metadata []string
	TestSequence
}

// RunTestSuite binds each TestSequence in a fresh Env.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			env := NewEnv(t, test.Metadata...)
			for j, expr := range test.TestSequence {
				res := env.Bind(expr.Expr)
				assert.Equal(t, expr.Codes, Codes(res.Diagnostics), "expr %d: %s", j, expr.Expr)
				if expr.Result != "" {
					assert.Equal(t, expr.Result, res.Expr.String(), "expr %d: %s", j, expr.Expr)
				}
				if expr.Type != "" && res.Expr.Type() != nil {
					assert.Equal(t, expr.Type, res.Expr.Type().String(), "expr %d: %s", j, expr.Expr)
				}
				if len(expr.Codes) == 0 {
					assert.False(t, res.Expr.HasErrors(), "expr %d: %s\n%s", j, expr.Expr, bound.DumpString(res.Expr))
				}
			}
		})
	}
}

// RunBenchmark binds source repeatedly in a single Env.
func RunBenchmark(b *testing.B, source string, metadata ...string) {
	b.StopTimer()
	env := NewEnvOptions(b, binder.Options{Tracer: nopTracer{}}, metadata...)
	x, err := parser.ParseExpr("benchmark", source)
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.Context.Bind(x); err != nil {
			b.Fatal(err)
		}
	}
}

type nopTracer struct{}

func (nopTracer) Start(string, string, syntax.Location) func() { return func() {} }
