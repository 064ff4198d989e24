// Copyright © 2024 The ELPS authors

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/syntax"
)

func mustParse(t *testing.T, src string) syntax.Expr {
	t.Helper()
	x, err := ParseExpr("test.csx", src)
	require.NoError(t, err, "parsing %q", src)
	return x
}

func TestParseExpr_RoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`1 + 2 * 3`, `1 + 2 * 3`},
		{`"abc".Substring(1)`, `"abc".Substring(1)`},
		{`a.b.c(x, y: 2, ref z)`, `a.b.c(x, y: 2, ref z)`},
		{`x => x * 2`, `x => x * 2`},
		{`(int x, string y) => y`, `(int x, string y) => y`},
		{`() => 1`, `() => 1`},
		{`c ? a : b`, `c ? a : b`},
		{`a ?? b ?? c`, `a ?? b ?? c`},
		{`a?.b.c`, `a?.b.c`},
		{`a?[0]`, `a?[0]`},
		{`(long)x`, `(long)x`},
		{`(int)-1`, `(int)-1`},
		{`(a) + b`, `(a) + b`},
		{`new List<int>()`, `new List<int>()`},
		{`new int[3]`, `new int[3]`},
		{`new int[] { 1, 2 }`, `new int[] { 1, 2 }`},
		{`new[] { 1, 2 }`, `new[] { 1, 2 }`},
		{`new { A = 1, x.B }`, `new { A = 1, x.B }`},
		{`typeof(List<int>)`, `typeof(List<int>)`},
		{`sizeof(int)`, `sizeof(int)`},
		{`default(string)`, `default(string)`},
		{`int.Parse(s)`, `int.Parse(s)`},
		{`xs.Cast<int>()`, `xs.Cast<int>()`},
		{`a < b`, `a < b`},
		{`a < b > c`, `a < b > c`},
		{`F(a < b, c > d)`, `F(a < b, c > d)`},
		{`F(G<A, B>(7))`, `F(G<A, B>(7))`},
		{`x >> 2`, `x >> 2`},
		{`x = y = 3`, `x = y = 3`},
		{`x += 1`, `x += 1`},
		{`x >>= 1`, `x >>= 1`},
		{`!a && b || c`, `!a && b || c`},
		{`x is string`, `x is string`},
		{`x as string`, `x as string`},
		{`&x`, `&x`},
		{`*p`, `*p`},
		{`i++`, `i++`},
		{`@class`, `class`},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			assert.Equal(t, test.want, mustParse(t, test.src).String())
		})
	}
}

func TestParseExpr_Precedence(t *testing.T) {
	x := mustParse(t, "1 + 2 * 3")
	bin, ok := x.(*syntax.Binary)
	require.True(t, ok)
	assert.Equal(t, syntax.BinaryAdd, bin.Op)
	rhs, ok := bin.Y.(*syntax.Binary)
	require.True(t, ok)
	assert.Equal(t, syntax.BinaryMul, rhs.Op)

	x = mustParse(t, "a - b - c")
	bin = x.(*syntax.Binary)
	left, ok := bin.X.(*syntax.Binary)
	require.True(t, ok, "subtraction is left associative")
	assert.Equal(t, "a - b", left.String())
}

func TestParseExpr_GenericDisambiguation(t *testing.T) {
	x := mustParse(t, "F(G<A, B>(7))")
	inv := x.(*syntax.Invocation)
	require.Len(t, inv.Args, 1)
	inner, ok := inv.Args[0].Value.(*syntax.Invocation)
	require.True(t, ok)
	gen, ok := inner.Fn.(*syntax.GenericName)
	require.True(t, ok)
	assert.Len(t, gen.TypeArgs, 2)

	x = mustParse(t, "F(G < A, B > 7)")
	inv = x.(*syntax.Invocation)
	assert.Len(t, inv.Args, 2, "comparison operators, not type arguments")

	x = mustParse(t, "new List<List<int>>()")
	oc := x.(*syntax.ObjectCreation)
	assert.Equal(t, "List<List<int>>", oc.Type.String())
}

func TestParseExpr_ConditionalAccess(t *testing.T) {
	x := mustParse(t, "a?.b(1).c")
	ca, ok := x.(*syntax.ConditionalAccess)
	require.True(t, ok)
	assert.Equal(t, "a", ca.X.String())
	outer, ok := ca.WhenNotNull.(*syntax.MemberAccess)
	require.True(t, ok)
	assert.Equal(t, "c", outer.Name)
	inv, ok := outer.X.(*syntax.Invocation)
	require.True(t, ok)
	ma := inv.Fn.(*syntax.MemberAccess)
	_, ok = ma.X.(*syntax.ImplicitReceiver)
	assert.True(t, ok)
}

func TestParseExpr_Literals(t *testing.T) {
	tests := []struct {
		src    string
		kind   syntax.LiteralKind
		value  interface{}
		suffix string
	}{
		{`42`, syntax.LitInt, uint64(42), ""},
		{`0x1F`, syntax.LitInt, uint64(31), ""},
		{`42L`, syntax.LitInt, uint64(42), "l"},
		{`42UL`, syntax.LitInt, uint64(42), "ul"},
		{`1.5`, syntax.LitReal, 1.5, ""},
		{`1.5f`, syntax.LitReal, 1.5, "f"},
		{`2m`, syntax.LitReal, 2.0, "m"},
		{`"a\tb"`, syntax.LitString, "a\tb", ""},
		{`@"a""b"`, syntax.LitString, `a"b`, ""},
		{`'x'`, syntax.LitChar, 'x', ""},
		{`'\n'`, syntax.LitChar, '\n', ""},
		{`true`, syntax.LitTrue, true, ""},
		{`null`, syntax.LitNull, nil, ""},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			lit, ok := mustParse(t, test.src).(*syntax.Literal)
			require.True(t, ok)
			assert.Equal(t, test.kind, lit.Kind)
			assert.Equal(t, test.value, lit.Value)
			assert.Equal(t, test.suffix, lit.Suffix)
		})
	}
}

func TestParseExpr_Query(t *testing.T) {
	x := mustParse(t, "from x in xs where x > 0 select x * 2")
	q, ok := x.(*syntax.Query)
	require.True(t, ok)
	assert.Equal(t, "x", q.From.Name)
	assert.Nil(t, q.From.Type)
	require.Len(t, q.Body.Clauses, 1)
	_, ok = q.Body.Clauses[0].(*syntax.WhereClause)
	assert.True(t, ok)
	sel, ok := q.Body.SelectOrGroup.(*syntax.SelectClause)
	require.True(t, ok)
	assert.Equal(t, "x * 2", sel.Value.String())
}

func TestParseExpr_QueryClauses(t *testing.T) {
	src := "from int x in xs " +
		"from y in ys " +
		"let z = x + y " +
		"join w in ws on z equals w into g " +
		"orderby x descending, y " +
		"group x by y into r " +
		"select r"
	q := mustParse(t, src).(*syntax.Query)
	assert.Equal(t, "int", q.From.Type.String())
	require.Len(t, q.Body.Clauses, 4)
	join := q.Body.Clauses[2].(*syntax.JoinClause)
	assert.Equal(t, "g", join.Into)
	ob := q.Body.Clauses[3].(*syntax.OrderByClause)
	require.Len(t, ob.Orderings, 2)
	assert.True(t, ob.Orderings[0].Descending)
	assert.False(t, ob.Orderings[1].Descending)
	_, ok := q.Body.SelectOrGroup.(*syntax.GroupClause)
	assert.True(t, ok)
	require.NotNil(t, q.Body.Continuation)
	assert.Equal(t, "r", q.Body.Continuation.Name)
	assert.Equal(t, src, q.String())
}

func TestParseExpr_FromIsContextual(t *testing.T) {
	x := mustParse(t, "from + 1")
	_, ok := x.(*syntax.Binary)
	assert.True(t, ok)
}

func TestParseExpr_Errors(t *testing.T) {
	tests := []string{
		"1 +",
		"f(1",
		"new int",
		"a b",
		"from x in xs where x",
		"'ab'",
		"$",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := ParseExpr("test.csx", src)
			require.Error(t, err)
			perr, ok := err.(*Error)
			require.True(t, ok)
			assert.Equal(t, "test.csx", perr.Loc.File)
			assert.Equal(t, 1, perr.Loc.Line)
		})
	}
}

func TestParseExpr_Locations(t *testing.T) {
	x := mustParse(t, "foo.Bar(\n  baz)")
	inv := x.(*syntax.Invocation)
	assert.Equal(t, 1, inv.Loc().Line)
	assert.Equal(t, 1, inv.Loc().Col)
	arg := inv.Args[0].Value
	assert.Equal(t, 2, arg.Loc().Line)
	assert.Equal(t, 3, arg.Loc().Col)
	ma := inv.Fn.(*syntax.MemberAccess)
	assert.Equal(t, 5, ma.NameLoc.Col)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"int", "int"},
		{"System.Collections.Generic.List<int>", "System.Collections.Generic.List<int>"},
		{"int[]", "int[]"},
		{"int[,]", "int[,]"},
		{"int*", "int*"},
		{"int?", "int?"},
		{"Dictionary<string, List<int>>", "Dictionary<string, List<int>>"},
		{"Func<int, bool>[]", "Func<int, bool>[]"},
	}
	for _, test := range tests {
		typ, err := ParseType(test.src)
		require.NoError(t, err, test.src)
		assert.Equal(t, test.want, typ.String())
	}
	_, err := ParseType("List<")
	assert.Error(t, err)
}

func TestParseScript(t *testing.T) {
	src := `using System;
using L = System.Linq;
// locals
int x = 1, y;
var s = "abc";
{
	string x;
	s.Substring(x);
}
unsafe {
	int* p;
}
x + y;
`
	script, err := ParseScript("s.csx", src)
	require.NoError(t, err)
	require.Len(t, script.Usings, 2)
	assert.Equal(t, "System", script.Usings[0].Name.QualifiedName())
	assert.Equal(t, "L", script.Usings[1].Alias)
	assert.Equal(t, "System.Linq", script.Usings[1].Name.QualifiedName())

	stmts := script.Body.Statements
	require.Len(t, stmts, 5)
	decl := stmts[0].(*syntax.LocalDecl)
	require.Len(t, decl.Declarators, 2)
	assert.NotNil(t, decl.Declarators[0].Init)
	assert.Nil(t, decl.Declarators[1].Init)
	assert.True(t, syntax.IsVar(stmts[1].(*syntax.LocalDecl).Type))
	inner := stmts[2].(*syntax.Block)
	assert.False(t, inner.Unsafe)
	assert.Len(t, inner.Statements, 2)
	assert.True(t, stmts[3].(*syntax.Block).Unsafe)
	_, ok := stmts[4].(*syntax.ExprStmt)
	assert.True(t, ok)
}

func TestParseScript_Errors(t *testing.T) {
	_, err := ParseScript("s.csx", "{ int x; ")
	assert.Error(t, err)
	_, err = ParseScript("s.csx", "int x")
	assert.Error(t, err)
}
