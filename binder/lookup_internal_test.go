// Copyright © 2024 The ELPS authors

package binder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

const nested = `
assembly: nested
usings: [System]
types:
  - name: Acme.Outer
    members:
      - "static void M(int x)"
      - "static int N"
      - "static void P(int x)"
  - name: Acme.Inner
    members:
      - "static void M(string s)"
      - "static void N(string s)"
      - "static int P { get; }"
`

// nestedBinder returns a binder inside Inner, itself inside Outer.
func nestedBinder(t *testing.T) *Binder {
	t.Helper()
	table := symbols.NewCorLib()
	require.NoError(t, symbols.LoadYAML(table, "nested.yaml", strings.NewReader(nested)))
	c, err := NewContext(table, Options{})
	require.NoError(t, err)
	outer := c.Scopes.push(&scope{kind: ScopeType, parent: c.Root(), container: table.LookupType("Acme.Outer", 0)})
	inner := c.Scopes.push(&scope{kind: ScopeType, parent: outer, container: table.LookupType("Acme.Inner", 0)})
	return c.NewBinder(inner, nil)
}

func TestLookupMergesMethods(t *testing.T) {
	b := nestedBinder(t)

	r := b.LookupSymbols("M", 0, AllMethodsOnArityZero, syntax.Location{})
	defer r.Free()
	require.Equal(t, bound.Viable, r.Kind)
	ms, ok := r.methods()
	require.True(t, ok)
	require.Len(t, ms, 2)
	assert.Equal(t, "Inner", ms[0].ContainingType().Name())
	assert.Equal(t, "Outer", ms[1].ContainingType().Name())
}

func TestLookupMergeStopsAtNonMethod(t *testing.T) {
	b := nestedBinder(t)

	// Outer.N is a field, so only the inner method is found.
	r := b.LookupSymbols("N", 0, AllMethodsOnArityZero, syntax.Location{})
	defer r.Free()
	require.Equal(t, bound.Viable, r.Kind)
	require.Len(t, r.Symbols, 1)
	assert.Equal(t, "Inner", r.Symbols[0].(*symbols.Method).ContainingType().Name())

	// Inner.P is a property and hides the outer method.
	r2 := b.LookupSymbols("P", 0, AllMethodsOnArityZero, syntax.Location{})
	defer r2.Free()
	require.Equal(t, bound.Viable, r2.Kind)
	require.Len(t, r2.Symbols, 1)
	_, isProp := r2.Symbols[0].(*symbols.Property)
	assert.True(t, isProp, "%T", r2.Symbols[0])
}
