// Copyright © 2024 The ELPS authors

package symbols

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corlib(t *testing.T) *Table {
	t.Helper()
	return NewCorLib()
}

func mustType(t *testing.T, table *Table, name string, arity int) *NamedType {
	t.Helper()
	nt := table.LookupType(name, arity)
	require.NotNil(t, nt, "type %s`%d", name, arity)
	return nt
}

// --- corlib shape ---

func TestCorLibSpecialTypes(t *testing.T) {
	table := corlib(t)
	tests := []struct {
		st   SpecialType
		want string
	}{
		{SpecialObject, "object"},
		{SpecialString, "string"},
		{SpecialInt32, "int"},
		{SpecialUInt64, "ulong"},
		{SpecialDecimal, "decimal"},
		{SpecialVoid, "void"},
		{SpecialValueType, "ValueType"},
		{SpecialIEnumerableT, "IEnumerable<T>"},
		{SpecialNullable, "Nullable<T>"},
	}
	for _, test := range tests {
		nt := table.SpecialType(test.st)
		if assert.NotNil(t, nt, "special %d", test.st) {
			assert.Equal(t, test.want, nt.String())
		}
	}
	assert.True(t, table.SpecialType(SpecialTypedReference).IsRestricted())
	assert.Nil(t, table.SpecialType(SpecialNone))
}

func TestConstructedTypes(t *testing.T) {
	table := corlib(t)
	intType := table.SpecialType(SpecialInt32)
	list := mustType(t, table, "System.Collections.Generic.List", 1)
	li := list.Construct(intType)
	assert.Equal(t, "List<int>", li.String())
	assert.Same(t, li, list.Construct(intType), "constructions are cached")
	assert.True(t, Identical(li, list.Construct(intType)))

	add := li.MembersNamed("Add")
	require.Len(t, add, 1)
	m := add[0].(*Method)
	assert.Same(t, intType, m.Parameters()[0].Type())
	assert.Same(t, list.MembersNamed("Add")[0], m.OriginalDefinition())
	assert.Equal(t, "System.Collections.Generic.List", li.QualifiedName())

	assert.Equal(t, "int?", table.Nullable(intType).String())
	assert.True(t, IsNullable(table.Nullable(intType)))
	assert.Same(t, intType, NullableUnderlying(table.Nullable(intType)))

	grouping := table.WellKnownType(WellKnownIGrouping)
	require.NotNil(t, grouping)
	g := grouping.Construct(table.SpecialType(SpecialString), intType)
	assert.Equal(t, "IGrouping<string, int>", g.String())
	key := table.LookupMembers(g, "Key")
	require.Len(t, key, 1)
	assert.Same(t, table.SpecialType(SpecialString), key[0].(*Property).Type())
}

func TestDelegateInvoke(t *testing.T) {
	table := corlib(t)
	fn := mustType(t, table, "System.Func", 2)
	ft := fn.Construct(table.SpecialType(SpecialInt32), table.SpecialType(SpecialBoolean))
	invoke := DelegateInvoke(ft)
	require.NotNil(t, invoke)
	assert.Equal(t, MethodDelegateInvoke, invoke.MethodKind())
	assert.Equal(t, "int", invoke.Parameters()[0].Type().String())
	assert.Equal(t, "bool", invoke.ReturnType().String())
	assert.Nil(t, DelegateInvoke(table.SpecialType(SpecialString)))
}

// --- hierarchy ---

func TestInterfaces(t *testing.T) {
	table := corlib(t)
	intType := table.SpecialType(SpecialInt32)
	arr := NewArrayType(intType, 1)
	assert.True(t, table.Implements(arr, table.IEnumerableOf(intType)))
	assert.True(t, table.Implements(arr, table.SpecialType(SpecialIEnumerable)))
	assert.False(t, table.Implements(NewArrayType(intType, 2), table.IEnumerableOf(intType)))
	assert.Same(t, table.SpecialType(SpecialArray), table.BaseType(arr))

	str := table.SpecialType(SpecialString)
	assert.True(t, table.Implements(str, table.IEnumerableOf(table.SpecialType(SpecialChar))))
	assert.True(t, table.IsDerivedFrom(str, table.Object()))
	assert.False(t, table.IsDerivedFrom(str, str))
	assert.True(t, table.IsDerivedFrom(intType, table.SpecialType(SpecialValueType)))

	list := mustType(t, table, "System.Collections.Generic.List", 1).Construct(str)
	assert.True(t, table.Implements(list, table.IEnumerableOf(str)))
}

// --- member lookup ---

func TestLookupMembersHiding(t *testing.T) {
	table := corlib(t)
	str := table.SpecialType(SpecialString)

	equals := table.LookupMembers(str, "Equals")
	var sigs []string
	for _, m := range equals {
		sigs = append(sigs, m.String())
	}
	assert.ElementsMatch(t, []string{
		"string.Equals(string)",
		"string.Equals(object)",
		"object.Equals(object, object)",
	}, sigs)

	ctors := table.LookupMembers(str, ConstructorName)
	assert.Len(t, ctors, 2, "constructors are not inherited")

	toString := table.LookupMembers(str, "ToString")
	assert.Len(t, toString, 1)

	assert.Empty(t, table.LookupMembers(str, "NoSuchMember"))
	assert.Empty(t, table.LookupMembers(table.Dynamic(), "Length"))
}

func TestLookupMembersInterface(t *testing.T) {
	table := corlib(t)
	ilist := mustType(t, table, "System.Collections.Generic.IList", 1).Construct(table.SpecialType(SpecialInt32))
	assert.Len(t, table.LookupMembers(ilist, "Count"), 1)
	assert.Len(t, table.LookupMembers(ilist, "GetEnumerator"), 1, "IEnumerable<T>.GetEnumerator hides IEnumerable.GetEnumerator")
	assert.Len(t, table.LookupMembers(ilist, "ToString"), 1, "interfaces see object members")
}

func TestExtensionMethods(t *testing.T) {
	table := corlib(t)
	linq := table.LookupNamespace("System.Linq")
	require.NotNil(t, linq)
	where := table.ExtensionMethods(linq, "Where")
	assert.Len(t, where, 2)
	for _, m := range where {
		assert.True(t, m.IsExtension())
		assert.True(t, m.IsStatic())
	}
	assert.Empty(t, table.ExtensionMethods(linq, "Range"), "Range is not an extension")
	assert.Empty(t, table.ExtensionMethods(table.LookupNamespace("System"), "Where"))
}

// --- accessibility ---

func TestIsAccessible(t *testing.T) {
	table := corlib(t)
	obj := table.Object()
	clone := obj.MembersNamed("MemberwiseClone")[0]
	script := table.ScriptClass()
	str := table.SpecialType(SpecialString)

	assert.False(t, table.IsAccessible(clone, nil, nil))
	assert.True(t, table.IsAccessible(clone, script, script))
	assert.False(t, table.IsAccessible(clone, script, str), "protected access through an unrelated type")
	assert.True(t, table.IsAccessible(obj.MembersNamed("ToString")[0], nil, nil))
}

// --- anonymous types ---

func TestAnonymousType(t *testing.T) {
	table := corlib(t)
	fields := []AnonymousField{
		{Name: "A", Type: table.SpecialType(SpecialInt32)},
		{Name: "B", Type: table.SpecialType(SpecialString)},
	}
	at := table.AnonymousType(fields)
	assert.Same(t, at, table.AnonymousType(fields))
	assert.True(t, at.IsAnonymous())
	assert.Equal(t, "<anonymous type: int A, string B>", at.String())
	assert.Len(t, table.LookupMembers(at, "A"), 1)

	other := table.AnonymousType(fields[:1])
	assert.NotSame(t, at, other)
}

// --- constants ---

func TestConstantFits(t *testing.T) {
	tests := []struct {
		v    interface{}
		st   SpecialType
		want bool
	}{
		{uint64(255), SpecialByte, true},
		{uint64(256), SpecialByte, false},
		{int64(-1), SpecialByte, false},
		{int64(-128), SpecialSByte, true},
		{int64(-129), SpecialSByte, false},
		{uint64(1 << 40), SpecialInt64, true},
		{int64(-9223372036854775808), SpecialInt64, true},
		{uint64(65535), SpecialChar, true},
		{float64(1), SpecialInt32, false},
		{uint64(1), SpecialDouble, false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ConstantFits(test.v, test.st), "%v in %v", test.v, test.st)
	}
}

func TestConvertConstant(t *testing.T) {
	v, ok := ConvertConstant(int64(300), SpecialByte)
	assert.True(t, ok)
	assert.Equal(t, uint64(44), v)

	v, ok = ConvertConstant(float64(-2.7), SpecialInt32)
	assert.True(t, ok)
	assert.Equal(t, int64(-2), v)

	v, ok = ConvertConstant(uint64(65), SpecialChar)
	assert.True(t, ok)
	assert.Equal(t, 'A', v)

	v, ok = ConvertConstant(int64(3), SpecialDouble)
	assert.True(t, ok)
	assert.Equal(t, float64(3), v)

	_, ok = ConvertConstant("x", SpecialInt32)
	assert.False(t, ok)
}

// --- metadata files ---

const geometryYAML = `
assembly: geometry
usings: [System, System.Collections.Generic]
types:
  - name: Geometry.Point
    kind: struct
    members:
      - "double X { get; }"
      - "double Y { get; }"
      - "Point(double x, double y)"
      - "static Point operator +(Point a, Point b)"
      - "static implicit operator Point(int v)"
      - "internal int Secret"
  - name: Geometry.Color
    kind: enum
    underlying: byte
    values: [Red, Green, Blue]
  - name: Geometry.PointExtensions
    static: true
    members:
      - "static double Length(this Point p)"
      - "static T Pick<T>(this IEnumerable<T> source, int index) where T : struct"
globals:
  - "List<Geometry.Point> points"
  - "int count"
`

func TestLoadYAML(t *testing.T) {
	table := corlib(t)
	err := LoadYAML(table, "geometry.yaml", strings.NewReader(geometryYAML))
	require.NoError(t, err)

	point := mustType(t, table, "Geometry.Point", 0)
	assert.True(t, point.IsValueType())
	assert.Same(t, table.SpecialType(SpecialValueType), point.BaseType())
	assert.Len(t, point.MembersNamed("op_Addition"), 1)
	assert.Len(t, point.MembersNamed(ImplicitConversionName), 1)
	assert.Len(t, point.MembersNamed(ConstructorName), 1)
	secret := point.MembersNamed("Secret")[0]
	assert.Equal(t, Internal, secret.Accessibility())
	assert.False(t, table.IsAccessible(secret, nil, nil), "internal to another assembly")

	color := mustType(t, table, "Geometry.Color", 0)
	assert.Equal(t, TypeEnum, color.TypeKind())
	assert.Equal(t, "byte", color.EnumUnderlyingType().String())
	blue := color.MembersNamed("Blue")[0].(*Field)
	assert.True(t, blue.IsConst())
	assert.Equal(t, uint64(2), blue.ConstValue())

	ext := mustType(t, table, "Geometry.PointExtensions", 0)
	pick := ext.MembersNamed("Pick")[0].(*Method)
	assert.True(t, pick.IsExtension())
	assert.True(t, pick.TypeParameters()[0].ValueConstraint)

	points := table.ScriptClass().MembersNamed("points")
	require.Len(t, points, 1)
	assert.Equal(t, "List<Point>", points[0].(*Field).Type().String())
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown type", "types:\n  - name: A\n    members:\n      - \"Missing M()\"\n", "bad.yaml:4: A: Missing M(): unknown type Missing"},
		{"bad kind", "types:\n  - name: A\n    kind: record\n", `bad.yaml:2: type A: unknown kind "record"`},
		{"duplicate", "types:\n  - name: A\n  - name: A\n", "bad.yaml:3: type A is already declared"},
		{"extension outside static class", "types:\n  - name: A\n    members:\n      - \"static int M(this int x)\"\n", "extension methods must be declared"},
		{"syntax", "types:\n  - name: A\n    members:\n      - \"int (\"\n", "bad.yaml:4"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := LoadYAML(corlib(t), "bad.yaml", strings.NewReader(test.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.want)
		})
	}
}

func TestLoadYAMLEmpty(t *testing.T) {
	assert.NoError(t, LoadYAML(corlib(t), "empty.yaml", strings.NewReader("")))
}

// --- rendering ---

func TestRenderType(t *testing.T) {
	table := corlib(t)
	var buf bytes.Buffer
	require.NoError(t, RenderType(&buf, table, mustType(t, table, "System.Collections.Generic.List", 1)))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "class System.Collections.Generic.List<T> : object, IList<T>\n"), out)
	assert.Contains(t, out, "  void Add(T)\n")
	assert.Contains(t, out, "  T this[int] { get; set; }\n")
	assert.Contains(t, out, "  List(int)\n")

	buf.Reset()
	require.NoError(t, RenderType(&buf, table, table.SpecialType(SpecialInt32)))
	assert.Contains(t, buf.String(), "const int MaxValue = 2147483647")

	buf.Reset()
	require.NoError(t, RenderNamespaceList(&buf, table))
	assert.Contains(t, buf.String(), "System.Linq")

	buf.Reset()
	assert.Error(t, RenderNamespace(&buf, table, "No.Such"))
}
