// Copyright © 2024 The ELPS authors

package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/bindtest"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
)

const inventory = `
assembly: inventory
usings: [System]
types:
  - name: Acme.Item
    members:
      - "int Take(int n)"
  - name: Acme.ItemExtensions
    static: true
    members:
      - "static int Take(this Acme.Item item, bool all)"
      - "static string Only(this Acme.Item item, string s)"
      - "static long Twice(this int x, int y)"
      - "static long Pick(this int x, int y)"
  - name: GlobalExtensions
    static: true
    members:
      - "static int Twice(this int x, long y)"
      - "static int Pick(this int x, string s)"
globals:
  - "static void C<T>(T x) where T : class"
  - "static void S<T>(T x) where T : struct"
  - "static T N<T>() where T : new()"
  - "static void U(int* p)"
  - "static TypedReference TR()"
  - "Acme.Item item"
  - "int n"
  - "object o"
  - "dynamic d"
`

func TestFinalValidation(t *testing.T) {
	env := bindtest.NewEnv(t, inventory)
	tests := []struct {
		src  string
		code diagnostic.Code
	}{
		{`C(1)`, diagnostic.ConstraintReferenceType},
		{`S("a")`, diagnostic.ConstraintValueType},
		{`N<string>()`, diagnostic.ConstraintNew},
		{`U(null)`, diagnostic.UnsafeNeeded},
		{`o.MemberwiseClone()`, diagnostic.BadProtectedAccess},
	}
	for _, test := range tests {
		res := env.Bind(test.src)
		assert.Equal(t, []diagnostic.Code{test.code}, bindtest.Codes(res.Diagnostics), test.src)
		assert.True(t, res.Expr.HasErrors(), test.src)
	}

	// The same calls are fine when the arguments satisfy them.
	for _, src := range []string{`C("a")`, `S(1)`, `N<object>()`} {
		res := env.Bind(src)
		assert.Equal(t, 0, res.Diagnostics.Len(), "%s: %v", src, bindtest.Codes(res.Diagnostics))
	}
}

func TestDynamicOperands(t *testing.T) {
	env := bindtest.NewEnv(t, inventory)
	tests := []struct {
		src  string
		code diagnostic.Code
	}{
		{`d.M(x => 1)`, diagnostic.DynamicLambdaArgument},
		{`d.M(Console.WriteLine)`, diagnostic.DynamicMethodGroupArgument},
		{`d.M(TR())`, diagnostic.DynamicBadArgument},
	}
	for _, test := range tests {
		res := env.Bind(test.src)
		assert.Equal(t, []diagnostic.Code{test.code}, bindtest.Codes(res.Diagnostics), test.src)
		assert.True(t, res.Expr.HasErrors(), test.src)
	}
	assert.Equal(t, 0, env.Bind(`d.M(n, "s")`).Diagnostics.Len())
}

func TestExtensionScopes(t *testing.T) {
	env := bindtest.NewEnv(t, inventory)
	res := env.BindScript("using Acme;\nn.Twice(1);\nn.Pick(1);\n")
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	require.Len(t, res.Exprs, 2)

	// The global namespace is searched before the imports and has an
	// applicable Twice, so the better match in Acme is never seen.
	assert.Equal(t, "int", res.Exprs[0].Type().String())
	assertExtension(t, res.Exprs[0], "GlobalExtensions")

	// No global Pick applies, so the search goes on to the imports.
	assert.Equal(t, "long", res.Exprs[1].Type().String())
	assertExtension(t, res.Exprs[1], "ItemExtensions")
}

func TestExtensionFailure(t *testing.T) {
	env := bindtest.NewEnv(t, inventory)

	// Both the instance method and the extension fail the same way; the
	// instance failure is reported.
	res := env.BindScript("using Acme;\nitem.Take(\"s\");\n")
	require.Len(t, bindtest.Codes(res.Diagnostics), 1, "%v", bindtest.Codes(res.Diagnostics))
	bad, found := bound.Find[*bound.BadExpression](res.Exprs[0])
	require.True(t, found)
	require.Len(t, bad.Symbols, 1)
	m, ok := bad.Symbols[0].(*symbols.Method)
	require.True(t, ok, "%T", bad.Symbols[0])
	assert.False(t, m.IsExtension())

	// Nothing named Only is declared on Item, so the extension failure is
	// the less bad one.
	res = env.BindScript("using Acme;\nitem.Only(1);\n")
	require.Len(t, bindtest.Codes(res.Diagnostics), 1, "%v", bindtest.Codes(res.Diagnostics))
	bad, found = bound.Find[*bound.BadExpression](res.Exprs[0])
	require.True(t, found)
	require.Len(t, bad.Symbols, 1)
	m, ok = bad.Symbols[0].(*symbols.Method)
	require.True(t, ok, "%T", bad.Symbols[0])
	assert.True(t, m.IsExtension())
}

func assertExtension(t *testing.T, e bound.Expr, container string) {
	t.Helper()
	call, ok := bound.Strip(e).(*bound.Call)
	require.True(t, ok, "%T", e)
	assert.True(t, call.InvokedAsExtension)
	assert.Equal(t, container, call.Method.ContainingType().Name())
}
