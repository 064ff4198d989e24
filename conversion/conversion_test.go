// Copyright © 2024 The ELPS authors

package conversion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/symbols"
)

const fixtureYAML = `
usings: [System, System.Collections.Generic]
types:
  - name: Zoo.Animal
    members:
      - "string Name { get; }"
  - name: Zoo.Dog
    base: Zoo.Animal
    implements: ["IComparable<Zoo.Dog>"]
  - name: Zoo.Cat
    base: Zoo.Animal
    sealed: true
  - name: Zoo.Meters
    kind: struct
    members:
      - "static implicit operator Meters(int v)"
      - "static explicit operator int(Meters m)"
  - name: Zoo.Color
    kind: enum
    values: [Red, Green]
`

type fixture struct {
	table *symbols.Table
	conv  *Classifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewCorLib()
	require.NoError(t, symbols.LoadYAML(table, "zoo.yaml", strings.NewReader(fixtureYAML)))
	return &fixture{table: table, conv: New(table)}
}

func (f *fixture) special(st symbols.SpecialType) symbols.Type { return f.table.SpecialType(st) }

func (f *fixture) named(t *testing.T, name string) *symbols.NamedType {
	t.Helper()
	nt := f.table.LookupType(name, 0)
	require.NotNil(t, nt, name)
	return nt
}

func (f *fixture) enumerable(elem symbols.Type) symbols.Type { return f.table.IEnumerableOf(elem) }

func TestClassifyImplicit(t *testing.T) {
	f := newFixture(t)
	intT := f.special(symbols.SpecialInt32)
	longT := f.special(symbols.SpecialInt64)
	uintT := f.special(symbols.SpecialUInt32)
	charT := f.special(symbols.SpecialChar)
	dbl := f.special(symbols.SpecialDouble)
	obj := f.special(symbols.SpecialObject)
	str := f.special(symbols.SpecialString)
	animal := f.named(t, "Zoo.Animal")
	dog := f.named(t, "Zoo.Dog")
	meters := f.named(t, "Zoo.Meters")
	color := f.named(t, "Zoo.Color")
	dyn := f.table.Dynamic()

	tests := []struct {
		name     string
		from, to symbols.Type
		want     Kind
	}{
		{"identity", intT, intT, Identity},
		{"object dynamic identity", obj, dyn, Identity},
		{"int to long", intT, longT, ImplicitNumeric},
		{"int to double", intT, dbl, ImplicitNumeric},
		{"char to int", charT, intT, ImplicitNumeric},
		{"long to int", longT, intT, None},
		{"int to uint", intT, uintT, None},
		{"int to char", intT, charT, None},
		{"int to nullable long", intT, f.table.Nullable(longT), ImplicitNullable},
		{"nullable int to int", f.table.Nullable(intT), intT, None},
		{"derived to base", dog, animal, ImplicitReference},
		{"base to derived", animal, dog, None},
		{"class to object", dog, obj, ImplicitReference},
		{"class to interface", dog, f.table.LookupType("System.IComparable", 1).Construct(dog), ImplicitReference},
		{"string to IEnumerable<char>", str, f.enumerable(charT), ImplicitReference},
		{"covariant interface", f.enumerable(dog), f.enumerable(animal), ImplicitReference},
		{"no contravariance in out", f.enumerable(animal), f.enumerable(dog), None},
		{"no variance for value types", f.enumerable(intT), f.enumerable(obj), None},
		{"array covariance", symbols.NewArrayType(dog, 1), symbols.NewArrayType(animal, 1), ImplicitReference},
		{"array to IEnumerable", symbols.NewArrayType(dog, 1), f.enumerable(animal), ImplicitReference},
		{"value array to IEnumerable", symbols.NewArrayType(intT, 1), f.enumerable(intT), ImplicitReference},
		{"array to Array", symbols.NewArrayType(intT, 2), f.special(symbols.SpecialArray), ImplicitReference},
		{"int boxing", intT, obj, Boxing},
		{"int to IComparable", intT, f.table.LookupType("System.IComparable", 0), Boxing},
		{"enum to Enum", color, f.special(symbols.SpecialEnum), Boxing},
		{"enum to int", color, intT, None},
		{"to dynamic", str, dyn, ImplicitDynamic},
		{"from dynamic", dyn, intT, ImplicitDynamic},
		{"user-defined implicit", intT, meters, ImplicitUserDefined},
		{"user-defined implicit via numeric", f.special(symbols.SpecialInt16), meters, ImplicitUserDefined},
		{"user-defined explicit only", meters, intT, None},
		{"void", f.special(symbols.SpecialVoid), obj, None},
		{"error type", symbols.Error, intT, Identity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := f.conv.ClassifyImplicit(test.from, test.to)
			assert.Equal(t, test.want, got.Kind, "%s -> %s: %s", test.from, test.to, got)
		})
	}
}

func TestClassifyExplicit(t *testing.T) {
	f := newFixture(t)
	intT := f.special(symbols.SpecialInt32)
	longT := f.special(symbols.SpecialInt64)
	obj := f.special(symbols.SpecialObject)
	animal := f.named(t, "Zoo.Animal")
	dog := f.named(t, "Zoo.Dog")
	cat := f.named(t, "Zoo.Cat")
	meters := f.named(t, "Zoo.Meters")
	color := f.named(t, "Zoo.Color")
	disposable := f.table.LookupType("System.IDisposable", 0)

	tests := []struct {
		name     string
		from, to symbols.Type
		want     Kind
	}{
		{"implicit is returned", intT, longT, ImplicitNumeric},
		{"long to int", longT, intT, ExplicitNumeric},
		{"double to char", f.special(symbols.SpecialDouble), f.special(symbols.SpecialChar), ExplicitNumeric},
		{"int to enum", intT, color, ExplicitEnumeration},
		{"enum to long", color, longT, ExplicitEnumeration},
		{"base to derived", animal, dog, ExplicitReference},
		{"object to class", obj, dog, ExplicitReference},
		{"open class to interface", animal, disposable, ExplicitReference},
		{"sealed class to interface", cat, disposable, None},
		{"sibling classes", dog, cat, None},
		{"unboxing", obj, intT, Unboxing},
		{"unboxing nullable", obj, f.table.Nullable(intT), Unboxing},
		{"nullable to value", f.table.Nullable(intT), intT, ExplicitNullable},
		{"nullable narrowing", f.table.Nullable(longT), f.table.Nullable(intT), ExplicitNullable},
		{"dynamic cast", f.table.Dynamic(), dog, ImplicitDynamic},
		{"user-defined explicit", meters, intT, ExplicitUserDefined},
		{"string to int", f.special(symbols.SpecialString), intT, None},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := f.conv.ClassifyExplicit(test.from, test.to)
			assert.Equal(t, test.want, got.Kind, "%s -> %s: %s", test.from, test.to, got)
		})
	}
}

func TestClassifyConstant(t *testing.T) {
	f := newFixture(t)
	intT := f.special(symbols.SpecialInt32)
	tests := []struct {
		v    interface{}
		from symbols.Type
		to   symbols.Type
		want Kind
	}{
		{int64(10), intT, f.special(symbols.SpecialByte), ImplicitConstant},
		{int64(300), intT, f.special(symbols.SpecialByte), None},
		{int64(-1), intT, f.special(symbols.SpecialUInt32), None},
		{int64(10), intT, f.special(symbols.SpecialUInt64), ImplicitConstant},
		{int64(10), intT, f.special(symbols.SpecialChar), None},
		{int64(5), f.special(symbols.SpecialInt64), f.special(symbols.SpecialUInt64), ImplicitConstant},
		{int64(0), intT, f.named(t, "Zoo.Color"), ImplicitEnumeration},
		{int64(1), intT, f.named(t, "Zoo.Color"), None},
		{int64(10), intT, f.table.Nullable(f.special(symbols.SpecialByte)), ImplicitNullable},
		{int64(10), intT, f.special(symbols.SpecialInt64), ImplicitNumeric},
	}
	for _, test := range tests {
		got := f.conv.ClassifyConstant(test.v, test.from, test.to)
		assert.Equal(t, test.want, got.Kind, "%v -> %s", test.v, test.to)
	}
}

func TestClassifyNull(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, NullLiteral, f.conv.ClassifyNull(f.special(symbols.SpecialString)).Kind)
	assert.Equal(t, NullLiteral, f.conv.ClassifyNull(f.table.Nullable(f.special(symbols.SpecialInt32))).Kind)
	assert.Equal(t, None, f.conv.ClassifyNull(f.special(symbols.SpecialInt32)).Kind)
}

func TestBetterTarget(t *testing.T) {
	f := newFixture(t)
	intT := f.special(symbols.SpecialInt32)
	tests := []struct {
		t1, t2 symbols.Type
		want   Betterness
	}{
		{intT, f.special(symbols.SpecialInt64), Left},
		{f.special(symbols.SpecialDouble), intT, Right},
		{intT, f.special(symbols.SpecialUInt32), Left},
		{f.special(symbols.SpecialUInt64), f.special(symbols.SpecialInt64), Right},
		{f.named(t, "Zoo.Dog"), f.named(t, "Zoo.Animal"), Left},
		{f.named(t, "Zoo.Dog"), f.named(t, "Zoo.Cat"), Neither},
		{intT, intT, Neither},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, f.conv.BetterTarget(test.t1, test.t2), "%s vs %s", test.t1, test.t2)
	}
}

func TestConversionPredicates(t *testing.T) {
	assert.True(t, Of(Identity).IsImplicit())
	assert.True(t, Of(MethodGroup).IsImplicit())
	assert.False(t, Of(None).IsImplicit())
	assert.True(t, Of(Unboxing).IsExplicit())
	assert.False(t, NoConversion.Exists())
	assert.Less(t, Of(Identity).Rank(), Of(ImplicitNumeric).Rank())
	assert.Less(t, Of(ImplicitNumeric).Rank(), Of(ImplicitReference).Rank())
	assert.Less(t, Of(ImplicitReference).Rank(), Of(Boxing).Rank())
	assert.Less(t, Of(Boxing).Rank(), Of(ImplicitUserDefined).Rank())
	assert.Equal(t, "implicit numeric", ImplicitNumeric.String())
}
