// Copyright © 2024 The ELPS authors

package binder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bindtest"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

const globals = `
assembly: fixture
usings: [System, System.Collections.Generic, System.Linq]
globals:
  - "IEnumerable<int> xs"
  - "IEnumerable<string> words"
  - "List<int> list"
  - "dynamic d"
  - "object o"
  - "static void F(int a, long b)"
  - "static void F(long a, int b)"
  - "static int G(int x)"
  - "static int G(string s)"
`

func newEnv(t testing.TB) *bindtest.Env {
	t.Helper()
	return bindtest.NewEnv(t, globals)
}

func TestMemberInvocation(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`"abc".Substring(1)`)
	assert.Equal(t, 0, res.Diagnostics.Len())
	call, ok := res.Expr.(*bound.Call)
	require.True(t, ok, "%T", res.Expr)
	assert.Equal(t, "Substring", call.Method.Name())
	require.Len(t, call.Method.Parameters(), 1)
	assert.Equal(t, "int", call.Method.Parameters()[0].Type().String())
	assert.Equal(t, "string", call.Type().String())
	assert.False(t, call.InvokedAsExtension)
}

func TestAmbiguousCall(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`F(1, 1)`)
	assert.Equal(t, []diagnostic.Code{diagnostic.AmbiguousCall}, bindtest.Codes(res.Diagnostics))
	assert.True(t, res.Diagnostics.HasErrors())
	bad, ok := res.Expr.(*bound.BadExpression)
	require.True(t, ok, "%T", res.Expr)
	assert.Len(t, bad.Symbols, 2)
	assert.True(t, bad.HasErrors())
}

func TestDynamicShortCircuit(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`G(d)`)
	assert.False(t, res.Diagnostics.HasErrors())
	dyn, ok := res.Expr.(*bound.DynamicInvocation)
	require.True(t, ok, "%T", res.Expr)
	assert.Len(t, dyn.Applicable, 2)
	assert.True(t, bound.IsDynamic(dyn))

	res = env.Bind(`G(1)`)
	call, ok := res.Expr.(*bound.Call)
	require.True(t, ok, "%T", res.Expr)
	assert.Equal(t, "int", call.Method.Parameters()[0].Type().String())
}

func TestQueryTranslation(t *testing.T) {
	bindtest.RunTestSuite(t, bindtest.TestSuite{
		{"where select", []string{globals}, bindtest.TestSequence{
			{`from x in xs where x > 0 select x * 2`, `xs.Where(x => x > 0).Select(x => x * 2)`, "IEnumerable<int>", nil},
		}},
		{"orderby", []string{globals}, bindtest.TestSequence{
			{`from w in words orderby w.Length, w descending select w`, `words.OrderBy(w => w.Length).ThenByDescending(w => w)`, "", nil},
		}},
		{"let", []string{globals}, bindtest.TestSequence{
			{
				`from x in xs let y = x * 2 select x + y`,
				`xs.Select(x => new { Item1 = x, Item2 = x * 2 }).Select(<>h__TransparentIdentifier0 => <>h__TransparentIdentifier0.Item1 + <>h__TransparentIdentifier0.Item2)`,
				"IEnumerable<int>",
				nil,
			},
		}},
		{"from from select", []string{globals}, bindtest.TestSequence{
			{`from x in xs from w in words select w`, `xs.SelectMany(x => words, (x, w) => w)`, "IEnumerable<string>", nil},
		}},
		{"group by", []string{globals}, bindtest.TestSequence{
			{`from w in words group w by w.Length`, `words.GroupBy(w => w.Length)`, "", nil},
		}},
	})
}

func TestLetRangeVariables(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`from x in xs let y = x * 2 select x + y`)
	require.False(t, res.Diagnostics.HasErrors())
	rvs := bound.FindAll[*bound.RangeVariable](res.Expr)
	var inSelect []*bound.RangeVariable
	for _, rv := range rvs {
		if _, ok := rv.Value.(*bound.PropertyAccess); ok {
			inSelect = append(inSelect, rv)
		}
	}
	require.Len(t, inSelect, 2)
	assert.Equal(t, "x", inSelect[0].Symbol.Name())
	assert.Equal(t, "y", inSelect[1].Symbol.Name())
	assert.Equal(t, "<>h__TransparentIdentifier0.Item2", inSelect[1].Value.String())
}

func TestDegenerateSelect(t *testing.T) {
	env := newEnv(t)
	query := env.Bind(`from x in xs select x`)
	plain := env.Bind(`xs`)
	require.False(t, query.Diagnostics.HasErrors())
	_, found := bound.Find[*bound.Call](query.Expr)
	assert.False(t, found, "degenerate select emits no call")
	assert.Equal(t, plain.Expr.String(), bound.Strip(query.Expr).String())

	// An identity select after other clauses ends at the last of them.
	res := env.Bind(`from x in xs where x > 0 select x`)
	require.False(t, res.Diagnostics.HasErrors())
	assert.Equal(t, `xs.Where(x => x > 0)`, bound.Strip(res.Expr).String())
	assertCalls(t, res.Expr, "Where")
	for _, c := range bound.FindAll[*bound.Call](res.Expr) {
		assert.NotEqual(t, "Select", c.Method.Name())
	}

	res = env.Bind(`from object x in xs where x != null select x`)
	require.False(t, res.Diagnostics.HasErrors())
	assert.Equal(t, "IEnumerable<object>", res.Expr.Type().String())
	assertCalls(t, res.Expr, "Cast", "Where")
	for _, c := range bound.FindAll[*bound.Call](res.Expr) {
		assert.NotEqual(t, "Select", c.Method.Name())
	}
}

func TestQueryDiagnostics(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		src  string
		code diagnostic.Code
	}{
		{`from x in d select x`, diagnostic.DynamicQuery},
		{`from x in xs from x in xs select x`, diagnostic.DuplicateRangeVar},
	}
	for _, test := range tests {
		res := env.Bind(test.src)
		assert.Equal(t, 1, bindtest.Count(res.Diagnostics, test.code), "%s: %v", test.src, bindtest.Codes(res.Diagnostics))
		assert.True(t, res.Expr.HasErrors() || res.Diagnostics.HasErrors(), test.src)
	}

	// An int source has no Where.  The member lookup failure is replaced
	// by a query pattern diagnostic at the where clause.
	res := env.Bind(`from x in 5 where x > 0 select x`)
	require.True(t, res.Diagnostics.HasErrors())
	for _, d := range res.Diagnostics.Diagnostics() {
		assert.NotEqual(t, diagnostic.MemberNotFound, d.Code)
		assert.NotEqual(t, diagnostic.ExtensionNotFound, d.Code)
	}
	var query int
	for _, d := range res.Diagnostics.Diagnostics() {
		if d.Code.Family() == diagnostic.FamilyQueryOperator {
			query++
		}
	}
	assert.Equal(t, 1, query, "%v", bindtest.Codes(res.Diagnostics))
}

func TestFailedQueryPrintsWhole(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`from x in xs where G(x) select x`)
	require.True(t, res.Diagnostics.HasErrors())
	bad, ok := res.Expr.(*bound.BadExpression)
	require.True(t, ok, "%T", res.Expr)
	assert.Equal(t, "from x in xs where G(x) select x", bad.String())

	// The partial translation is kept under the bad node.
	_, found := bound.Find[*bound.QueryClause](bad)
	assert.True(t, found)
}

func TestOperatorsAndFolding(t *testing.T) {
	bindtest.RunTestSuite(t, bindtest.TestSuite{
		{"arithmetic", nil, bindtest.TestSequence{
			{`1 + 2 * 3`, `1 + 2 * 3`, "int", nil},
			{`(1 + 2) * 3`, `(1 + 2) * 3`, "int", nil},
			{`1L + 2`, `1L + 2`, "long", nil},
			{`"a" + 1`, `"a" + 1`, "string", nil},
			{`1 / 0`, "", "", []diagnostic.Code{diagnostic.DivideByZero}},
		}},
		{"logical", nil, bindtest.TestSequence{
			{`true && !false`, `true && !false`, "bool", nil},
			{`1 < 2 ? "a" : "b"`, `1 < 2 ? "a" : "b"`, "string", nil},
			{`true + 1`, "", "", []diagnostic.Code{diagnostic.BadBinaryOperator}},
		}},
	})

	env := bindtest.NewEnv(t)
	res := env.Bind(`1 + 2 * 3`)
	require.NotNil(t, res.Expr.Constant())
	assert.Equal(t, int64(7), res.Expr.Constant().Value)
}

func TestScript(t *testing.T) {
	env := newEnv(t)
	res := env.BindScript(`
const int k = 2;
var n = k * 21;
int m = n;
G(m);
`)
	assert.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	require.Len(t, res.Locals, 3)
	assert.Equal(t, "int", res.Locals[1].Type().String())
	assert.Len(t, res.Exprs, 4)

	later := env.BindIn(res.Scope, `n + m`)
	assert.Equal(t, 0, later.Diagnostics.Len())
	assert.Equal(t, "n + m", later.Expr.String())
}

func TestScriptDiagnostics(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		src   string
		codes []diagnostic.Code
	}{
		{`int y = z; int z = 1;`, []diagnostic.Code{diagnostic.UseBeforeDeclaration}},
		{`var v;`, []diagnostic.Code{diagnostic.ImplicitlyTypedInit}},
		{`var v = null;`, []diagnostic.Code{diagnostic.ImplicitlyTypedBad}},
		{`const int c = list.Count;`, []diagnostic.Code{diagnostic.ConstantExpected}},
		{`int a; int a;`, []diagnostic.Code{diagnostic.DuplicateLocal}},
	}
	for _, test := range tests {
		res := env.BindScript(test.src)
		assert.Equal(t, test.codes, bindtest.Codes(res.Diagnostics), test.src)
	}
}

func TestShadowingReportedOnce(t *testing.T) {
	env := newEnv(t)
	res := env.BindScript("int x = 1;\nxs.Select(x => x + 1);")
	assert.Equal(t, 1, bindtest.Count(res.Diagnostics, diagnostic.LocalShadowsEnclosing), "%v", bindtest.Codes(res.Diagnostics))

	again := env.BindIn(res.Scope, `xs.Select(x => x + 1)`)
	assert.Equal(t, 0, bindtest.Count(again.Diagnostics, diagnostic.LocalShadowsEnclosing))
}

func TestOrderIndependence(t *testing.T) {
	exprs := []string{
		`from x in xs where x > 0 select x * 2`,
		`F(1, 1)`,
		`G("s")`,
		`"abc".Substring(1)`,
		`list.Count + 1`,
	}
	bindInOrder := func(order []int) map[string][]diagnostic.Code {
		env := newEnv(t)
		out := make(map[string][]diagnostic.Code)
		for _, i := range order {
			res := env.Bind(exprs[i])
			out[exprs[i]+" => "+res.Expr.String()] = bindtest.Codes(res.Diagnostics)
		}
		return out
	}
	forward := bindInOrder([]int{0, 1, 2, 3, 4})
	assert.Equal(t, forward, bindInOrder([]int{4, 3, 2, 1, 0}))
	assert.Equal(t, forward, bindInOrder([]int{2, 0, 4, 1, 3}))
}

func TestBindAll(t *testing.T) {
	env := bindtest.NewEnvOptions(t, binder.Options{Parallelism: 2}, globals)
	srcs := []string{`G(1)`, `F(1, 1)`, `from x in xs select x + 1`, `o.ToString()`}
	var exprs []syntax.Expr
	for _, src := range srcs {
		x, err := parser.ParseExpr("test", src)
		require.NoError(t, err)
		exprs = append(exprs, x)
	}
	results, err := env.Context.BindAll(context.Background(), env.Context.Root(), exprs)
	require.NoError(t, err)
	require.Len(t, results, len(srcs))
	for i, res := range results {
		serial := env.Bind(srcs[i])
		assert.Equal(t, serial.Expr.String(), res.Expr.String(), srcs[i])
		assert.Equal(t, bindtest.Codes(serial.Diagnostics), bindtest.Codes(res.Diagnostics), srcs[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.Context.BindAll(ctx, env.Context.Root(), exprs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBindNil(t *testing.T) {
	env := newEnv(t)
	_, err := env.Context.Bind(nil)
	assert.Error(t, err)
}

func BenchmarkQuery(b *testing.B) {
	bindtest.RunBenchmark(b, `from x in xs let y = x * 2 where y > 3 orderby y select x + y`, globals)
}
