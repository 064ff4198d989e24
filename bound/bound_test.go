// Copyright © 2024 The ELPS authors

package bound

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/conversion"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

type fixture struct {
	table *symbols.Table
	intT  symbols.Type
	boolT symbols.Type
	strT  *symbols.NamedType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewCorLib()
	return &fixture{
		table: table,
		intT:  table.SpecialType(symbols.SpecialInt32),
		boolT: table.SpecialType(symbols.SpecialBoolean),
		strT:  table.SpecialType(symbols.SpecialString),
	}
}

func (f *fixture) lit(v interface{}, typ symbols.Type) *Literal {
	return New(&Literal{Value: v}, nil, typ, Constant(v))
}

func (f *fixture) local(name string, typ symbols.Type) *Local {
	return New(&Local{Symbol: symbols.NewLocal(name, typ, syntax.Location{})}, nil, typ)
}

func (f *fixture) bad() *BadExpression {
	return New(&BadExpression{ResultKind: Empty}, nil, symbols.Error, Errors())
}

func member[T symbols.Symbol](t *testing.T, table *symbols.Table, typ symbols.Type, name string, pick func(T) bool) T {
	t.Helper()
	for _, s := range table.LookupMembers(typ, name) {
		if m, ok := s.(T); ok && (pick == nil || pick(m)) {
			return m
		}
	}
	require.FailNow(t, "member not found", "%v.%s", typ, name)
	var zero T
	return zero
}

// --- construction ---

func TestErrorPropagation(t *testing.T) {
	f := newFixture(t)
	one := f.lit(int64(1), f.intT)
	assert.False(t, one.HasErrors())

	sum := New(&Binary{Op: syntax.BinaryAdd, Left: one, Right: f.bad()}, nil, f.intT)
	assert.True(t, sum.HasErrors(), "errors propagate from children")

	outer := New(&Unary{Op: syntax.UnaryMinus, Operand: sum}, nil, f.intT)
	assert.True(t, outer.HasErrors(), "propagation is transitive")

	quiet := New(&Binary{Op: syntax.BinaryAdd, Left: one, Right: f.bad()}, nil, f.intT, suppressErrors())
	assert.False(t, quiet.HasErrors())

	flagged := New(&Literal{Value: int64(2)}, nil, f.intT, Errors())
	assert.True(t, flagged.HasErrors())
}

func TestWithCopies(t *testing.T) {
	f := newFixture(t)
	one := f.lit(int64(1), f.intT)

	typed := WithType(one, f.table.SpecialType(symbols.SpecialInt64))
	assert.Equal(t, "long", typed.Type().String())
	assert.Equal(t, "int", one.Type().String(), "original unchanged")
	assert.Equal(t, one.Value, typed.Value)

	erred := WithErrors(one)
	assert.True(t, erred.HasErrors())
	assert.False(t, one.HasErrors())
	assert.Same(t, erred, WithErrors(erred))
}

func TestConstants(t *testing.T) {
	f := newFixture(t)
	one := f.lit(int64(1), f.intT)
	require.NotNil(t, one.Constant())
	assert.Equal(t, int64(1), one.Constant().Value)

	null := New(&Literal{}, nil, nil, Constant(nil))
	assert.True(t, IsNullLiteral(null))
	assert.True(t, IsTypeless(null))
	assert.False(t, IsNullLiteral(one))

	x := f.local("x", f.intT)
	assert.Nil(t, x.Constant())
	assert.False(t, IsTypeless(x))
}

func TestResultKindOrder(t *testing.T) {
	order := []ResultKind{Empty, WrongArity, Inaccessible, NotAValue, StaticInstanceMismatch,
		OverloadResolutionFailure, Ambiguous, Viable}
	for i := 1; i < len(order); i++ {
		assert.True(t, order[i].IsBetterThan(order[i-1]), "%v > %v", order[i], order[i-1])
		assert.False(t, order[i-1].IsBetterThan(order[i]))
	}
	assert.False(t, Viable.IsBetterThan(Viable))
}

// --- printing ---

func TestPrintQueryShape(t *testing.T) {
	f := newFixture(t)
	xs := f.local("xs", symbols.NewArrayType(f.intT, 1))
	enumerable := f.table.WellKnownType(symbols.WellKnownEnumerable)
	require.NotNil(t, enumerable)
	where := member(t, f.table, enumerable, "Where", func(m *symbols.Method) bool {
		return len(m.Parameters()) == 2
	}).Construct([]symbols.Type{f.intT})

	param := symbols.NewParameter("x", f.intT, symbols.ParameterOptions{})
	lambdaSym := symbols.NewMethod("", nil, []*symbols.Parameter{param}, f.boolT,
		symbols.MethodOptions{Kind: symbols.MethodLambda})
	body := New(&Binary{
		Op:    syntax.BinaryGt,
		Left:  New(&Parameter{Symbol: param}, nil, f.intT),
		Right: f.lit(int64(0), f.intT),
	}, nil, f.boolT)
	lambda := New(&Lambda{Symbol: lambdaSym, Body: body}, nil, where.Parameters()[1].Type())

	call := New(&Call{
		Method:             where,
		Arguments:          Arguments{Args: []Expr{xs, lambda}},
		InvokedAsExtension: true,
	}, nil, where.ReturnType())
	assert.Equal(t, "xs.Where(x => x > 0)", call.String())
	assert.Equal(t, "IEnumerable<int>", call.Type().String())

	static := New(&Call{Method: where, Arguments: Arguments{Args: []Expr{xs, lambda}}}, nil, where.ReturnType())
	assert.Equal(t, "Enumerable.Where(xs, x => x > 0)", static.String())
}

func TestPrintPrecedence(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.local("a", f.intT), f.local("b", f.intT), f.local("c", f.intT)
	bin := func(op syntax.BinaryOp, l, r Expr) Expr {
		return New(&Binary{Op: op, Left: l, Right: r}, nil, f.intT)
	}
	tests := []struct {
		expr Expr
		want string
	}{
		{bin(syntax.BinaryMul, bin(syntax.BinaryAdd, a, b), c), "(a + b) * c"},
		{bin(syntax.BinaryAdd, a, bin(syntax.BinaryMul, b, c)), "a + b * c"},
		{bin(syntax.BinarySub, a, bin(syntax.BinarySub, b, c)), "a - (b - c)"},
		{bin(syntax.BinarySub, bin(syntax.BinarySub, a, b), c), "a - b - c"},
		{New(&Unary{Op: syntax.UnaryMinus, Operand: bin(syntax.BinaryAdd, a, b)}, nil, f.intT), "-(a + b)"},
		{New(&Unary{Op: syntax.UnaryPostIncrement, Operand: a}, nil, f.intT), "a++"},
		{New(&Conversion{
			Operand:    bin(syntax.BinaryAdd, a, b),
			Conversion: conversion.Of(conversion.ExplicitNumeric),
			Explicit:   true,
		}, nil, f.table.SpecialType(symbols.SpecialByte)), "(byte)(a + b)"},
		{New(&Conversion{
			Operand:    a,
			Conversion: conversion.Of(conversion.ImplicitNumeric),
		}, nil, f.table.SpecialType(symbols.SpecialInt64)), "a"},
		{New(&Conditional{Cond: f.lit(true, f.boolT), Then: a, Else: b}, nil, f.intT), "true ? a : b"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.expr.String())
	}
}

func TestPrintMembers(t *testing.T) {
	f := newFixture(t)
	s := f.local("s", f.strT)
	length := member[*symbols.Property](t, f.table, f.strT, "Length", nil)
	substring := member(t, f.table, f.strT, "Substring", func(m *symbols.Method) bool {
		return len(m.Parameters()) == 1
	})
	intT := f.intT

	recv := New(&ConditionalReceiver{}, nil, f.strT)
	access := New(&ConditionalAccess{
		Receiver: s,
		Access:   New(&PropertyAccess{Receiver: recv, Property: length}, nil, intT),
	}, nil, f.table.Nullable(intT))
	assert.Equal(t, "s?.Length", access.String())
	assert.Equal(t, "int?", access.Type().String())

	call := New(&Call{
		Receiver:  f.lit("abc", f.strT),
		Method:    substring,
		Arguments: Arguments{Args: []Expr{f.lit(int64(1), intT)}},
	}, nil, f.strT)
	assert.Equal(t, `"abc".Substring(1)`, call.String())

	empty := member[*symbols.Field](t, f.table, f.strT, "Empty", nil)
	field := New(&FieldAccess{Field: empty}, nil, f.strT)
	assert.Equal(t, "string.Empty", field.String())

	anon := f.table.AnonymousType([]symbols.AnonymousField{{Name: "A", Type: intT}})
	ctor := member[*symbols.Method](t, f.table, anon, symbols.ConstructorName, nil)
	create := New(&AnonymousObjectCreation{
		Constructor: ctor,
		Args:        []Expr{f.lit(int64(1), intT)},
		Names:       []string{"A"},
	}, nil, anon)
	assert.Equal(t, "new { A = 1 }", create.String())
}

func TestFormatConstant(t *testing.T) {
	f := newFixture(t)
	special := f.table.SpecialType
	tests := []struct {
		v    interface{}
		typ  symbols.Type
		want string
	}{
		{nil, nil, "null"},
		{true, special(symbols.SpecialBoolean), "true"},
		{"a\"b", special(symbols.SpecialString), `"a\"b"`},
		{'x', special(symbols.SpecialChar), "'x'"},
		{int64(-3), special(symbols.SpecialInt32), "-3"},
		{int64(3), special(symbols.SpecialInt64), "3L"},
		{uint64(3), special(symbols.SpecialUInt32), "3U"},
		{uint64(3), special(symbols.SpecialUInt64), "3UL"},
		{1.5, special(symbols.SpecialDouble), "1.5"},
		{2.0, special(symbols.SpecialDouble), "2D"},
		{0.5, special(symbols.SpecialSingle), "0.5F"},
		{1.25, special(symbols.SpecialDecimal), "1.25M"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, FormatConstant(test.v, test.typ), "%#v", test.v)
	}
}

// --- traversal ---

func TestTraversal(t *testing.T) {
	f := newFixture(t)
	a, b := f.local("a", f.intT), f.local("b", f.intT)
	sum := New(&Binary{Op: syntax.BinaryAdd, Left: a, Right: b}, nil, f.intT)
	neg := New(&Unary{Op: syntax.UnaryMinus, Operand: sum}, nil, f.intT)

	locals := FindAll[*Local](neg)
	require.Len(t, locals, 2)
	assert.Equal(t, "a", locals[0].Symbol.Name())
	assert.Equal(t, "b", locals[1].Symbol.Name())

	found, ok := Find[*Binary](neg)
	assert.True(t, ok)
	assert.Same(t, sum, found)
	_, ok = Find[*Call](neg)
	assert.False(t, ok)

	var depths []int
	Walk(neg, func(_, _ Expr, depth int) { depths = append(depths, depth) })
	assert.Equal(t, []int{0, 1, 2, 2}, depths)
}

func TestDump(t *testing.T) {
	f := newFixture(t)
	a := f.local("a", f.intT)
	sum := New(&Binary{Op: syntax.BinaryAdd, Left: a, Right: f.bad()}, nil, f.intT)
	want := strings.Join([]string{
		"Binary + : int [errors]",
		"  Local a : int",
		"  BadExpression empty : ? [errors]",
		"",
	}, "\n")
	assert.Equal(t, want, DumpString(sum))
}

func TestStrip(t *testing.T) {
	f := newFixture(t)
	a := f.local("a", f.intT)
	id := New(&Conversion{Operand: a, Conversion: conversion.Of(conversion.Identity)}, nil, f.intT)
	clause := New(&QueryClause{Value: id}, nil, f.intT)
	assert.Same(t, a, Strip(clause))

	widen := New(&Conversion{Operand: a, Conversion: conversion.Of(conversion.ImplicitNumeric)}, nil,
		f.table.SpecialType(symbols.SpecialInt64))
	assert.Same(t, widen, Strip(widen))
}
