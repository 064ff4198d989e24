// Copyright © 2024 The ELPS authors

package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bindtest"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

func TestBindErrors(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		src  string
		code diagnostic.Code
	}{
		{`fnord`, diagnostic.NameNotFound},
		{`"abc".Fnord`, diagnostic.ExtensionNotFound},
		{`string.Fnord`, diagnostic.MemberNotFound},
		{`System.Fnord`, diagnostic.NamespaceMemberNotFound},
		{`string.Length`, diagnostic.ObjectRequired},
		{`"abc".Empty`, diagnostic.InstanceAsStatic},
		{`list.Count = 1`, diagnostic.ReadOnlyProperty},
		{`sizeof(string)`, diagnostic.SizeOfUnsafe},
		{`new Math()`, diagnostic.StaticInstantiation},
		{`new IDisposable()`, diagnostic.AbstractInstantiation},
		{`(string)1`, diagnostic.NoExplicitConversion},
		{`(byte)300`, diagnostic.ConstantOverflow},
		{`1 as int`, diagnostic.AsValueType},
		{`new[] {1, "a"}`, diagnostic.NoBestArrayType},
		{`new { A = 1, A = 2 }`, diagnostic.AnonymousDuplicateName},
		{`1 + Console.WriteLine()`, diagnostic.VoidValue},
	}
	for _, test := range tests {
		res := env.Bind(test.src)
		assert.Equal(t, []diagnostic.Code{test.code}, bindtest.Codes(res.Diagnostics), test.src)
		assert.True(t, res.Expr.HasErrors(), test.src)
	}
}

func TestBadExpressionKeepsChildren(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`G(fnord)`)
	assert.Equal(t, []diagnostic.Code{diagnostic.NameNotFound}, bindtest.Codes(res.Diagnostics))
	assert.True(t, res.Expr.HasErrors())
	_, found := bound.Find[*bound.BadExpression](res.Expr)
	assert.True(t, found)
}

func TestTypes(t *testing.T) {
	bindtest.RunTestSuite(t, bindtest.TestSuite{
		{"creation", []string{globals}, bindtest.TestSequence{
			{`new List<int>()`, "", "List<int>", nil},
			{`new[] {1, 2L}`, "", "long[]", nil},
			{`new int[3]`, "", "int[]", nil},
			{`new { A = 1, B = "s" }.B`, "", "string", nil},
		}},
		{"operators", []string{globals}, bindtest.TestSequence{
			{`typeof(int)`, "", "Type", nil},
			{`default(int)`, "", "int", nil},
			{`(long)1`, "", "long", nil},
			{`o as string`, "", "string", nil},
			{`o is string`, "", "bool", nil},
			{`o ?? "x"`, "", "object", nil},
		}},
		{"members", []string{globals}, bindtest.TestSequence{
			{`list.Count`, "", "int", nil},
			{`list[0]`, "", "int", nil},
			{`"abc"[1]`, "", "char", nil},
			{`Math.PI`, "", "double", nil},
			{`int.MaxValue`, "", "int", nil},
		}},
	})
}

func TestDefaultConstant(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`default(int)`)
	require.NotNil(t, res.Expr.Constant())
	assert.Equal(t, int64(0), res.Expr.Constant().Value)
}

func TestConditionalAccess(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`list?.Count`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	_, ok := res.Expr.(*bound.ConditionalAccess)
	require.True(t, ok, "%T", res.Expr)
	assert.True(t, symbols.IsNullable(res.Expr.Type()), res.Expr.Type().String())

	res = env.Bind(`list.Count?.ToString()`)
	assert.Equal(t, []diagnostic.Code{diagnostic.BadUnaryOperator}, bindtest.Codes(res.Diagnostics))
}

func TestDelegateCreation(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`new Func<int, int>(x => x + 1)`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	dc, ok := res.Expr.(*bound.DelegateCreation)
	require.True(t, ok, "%T", res.Expr)
	_, ok = dc.Argument.(*bound.Lambda)
	assert.True(t, ok, "%T", dc.Argument)
}

func TestExtensionInvocation(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`xs.Count()`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	call, ok := res.Expr.(*bound.Call)
	require.True(t, ok, "%T", res.Expr)
	assert.True(t, call.InvokedAsExtension)
	assert.Nil(t, call.Receiver)
	require.NotEmpty(t, call.Args)
	assert.Equal(t, "xs", call.Args[0].String())
	assert.Equal(t, "int", call.Type().String())

	// Sum has overloads for int, long and double sequences.
	res = env.Bind(`xs.Sum()`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	assert.Equal(t, "int", res.Expr.Type().String())
}

const colors = `
assembly: colors
types:
  - name: Acme.Color
    members:
      - "static Color Red { get; }"
      - "string Name { get; }"
globals:
  - "Acme.Color Color"
`

func TestColorColor(t *testing.T) {
	env := bindtest.NewEnv(t, colors)
	res := env.BindScript("using Acme;\nColor.Red;\nColor.Name;\n")
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	require.Len(t, res.Exprs, 2)

	static, ok := res.Exprs[0].(*bound.PropertyAccess)
	require.True(t, ok, "%T", res.Exprs[0])
	assert.Equal(t, "Red", static.Property.Name())
	assert.Nil(t, static.Receiver, "static member is looked up through the type")

	inst, ok := res.Exprs[1].(*bound.PropertyAccess)
	require.True(t, ok, "%T", res.Exprs[1])
	assert.Equal(t, "Name", inst.Property.Name())
	assert.NotNil(t, inst.Receiver, "instance member is looked up through the value")
}

func TestQueryClauses(t *testing.T) {
	env := newEnv(t)

	res := env.Bind(`from x in xs join w in words on x equals w.Length select w`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	assert.Equal(t, "IEnumerable<string>", res.Expr.Type().String())
	assertCalls(t, res.Expr, "Join")

	res = env.Bind(`from w in words group w by w.Length into g select g.Key`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	assert.Equal(t, "IEnumerable<int>", res.Expr.Type().String())
	assertCalls(t, res.Expr, "GroupBy", "Select")

	// An explicit range variable type casts the source even when the
	// select is otherwise degenerate.
	res = env.Bind(`from object x in xs select x`)
	require.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	assert.Equal(t, "IEnumerable<object>", res.Expr.Type().String())
	assertCalls(t, res.Expr, "Cast", "Select")
}

func TestGroupUnoptimizedForm(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`from w in words group w by w.Length`)
	require.False(t, res.Diagnostics.HasErrors())
	qc, ok := res.Expr.(*bound.QueryClause)
	require.True(t, ok, "%T", res.Expr)
	require.NotNil(t, qc.UnoptimizedForm)
	call, ok := bound.Strip(qc.UnoptimizedForm).(*bound.Call)
	require.True(t, ok, "%T", qc.UnoptimizedForm)
	assert.Len(t, call.Args, 3, "source, key and element selectors")
}

func TestRangeVariableReadOnly(t *testing.T) {
	env := newEnv(t)
	res := env.Bind(`from x in xs select x = 1`)
	assert.Equal(t, 1, bindtest.Count(res.Diagnostics, diagnostic.QueryRangeVariableRO), "%v", bindtest.Codes(res.Diagnostics))
}

func TestUnsafe(t *testing.T) {
	env := newEnv(t)
	res := env.BindScript("unsafe { sizeof(string); }\nsizeof(string);\n")
	assert.Equal(t, []diagnostic.Code{diagnostic.SizeOfUnsafe}, bindtest.Codes(res.Diagnostics))
	require.Len(t, res.Exprs, 2)
	assert.False(t, res.Exprs[0].HasErrors())
	assert.True(t, res.Exprs[1].HasErrors())

	env = bindtest.NewEnvOptions(t, binder.Options{Unsafe: true}, globals)
	assert.Equal(t, 0, env.Bind(`sizeof(string)`).Diagnostics.Len())
}

func TestScopeConflicts(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		src   string
		codes []diagnostic.Code
	}{
		{"int x = 1;\n{ int x = 2; }", []diagnostic.Code{diagnostic.LocalShadowsEnclosing}},
		{"{ int y = 1; }\n{ int y = 2; }", nil},
		{"int z = 1;\nfrom z in xs select z;", []diagnostic.Code{diagnostic.DuplicateRangeVar}},
	}
	for _, test := range tests {
		res := env.BindScript(test.src)
		assert.Equal(t, test.codes, bindtest.Codes(res.Diagnostics), test.src)
	}
}

func TestSubmission(t *testing.T) {
	env := newEnv(t)
	first := env.BindScript("int n = 1;")
	require.Equal(t, 0, first.Diagnostics.Len())

	s := parseScript(t, "var m = n + 1;\nm;")
	res, err := env.Context.BindSubmission(first.Scope, s)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
	require.Len(t, res.Locals, 1)
	assert.Equal(t, "int", res.Locals[0].Type().String())

	// Locals of earlier submissions may be redeclared.
	s = parseScript(t, `string n = "s";`)
	res, err = env.Context.BindSubmission(first.Scope, s)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Diagnostics.Len(), "%v", bindtest.Codes(res.Diagnostics))
}

func assertCalls(t *testing.T, e bound.Expr, names ...string) {
	t.Helper()
	found := make(map[string]bool)
	for _, c := range bound.FindAll[*bound.Call](e) {
		found[c.Method.Name()] = true
	}
	for _, name := range names {
		assert.True(t, found[name], "no call to %s in %s", name, e)
	}
}

func parseScript(t *testing.T, src string) *syntax.Script {
	t.Helper()
	s, err := parser.ParseScript("test.csx", src)
	require.NoError(t, err)
	return s
}
