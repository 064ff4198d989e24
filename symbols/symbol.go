// Copyright © 2024 The ELPS authors

// Package symbols is the symbol graph consumed by the binder: namespaces,
// types, members, locals, parameters and range variables, along with a
// Table that answers member lookup and accessibility questions.
//
// Symbols are immutable once a Table has been published to the binder.
// Constructed generic types compute their substituted members lazily and
// cache them behind a mutex, so a Table may be shared by concurrent binds.
package symbols

import (
	"sync/atomic"

	"github.com/luthersystems/sharpbind/syntax"
)

// Kind classifies symbols.
type Kind int

const (
	KindLocal Kind = iota
	KindParameter
	KindField
	KindProperty
	KindEvent
	KindMethod
	KindNamedType
	KindTypeParameter
	KindNamespace
	KindAlias
	KindRangeVariable
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindParameter:
		return "parameter"
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindEvent:
		return "event"
	case KindMethod:
		return "method"
	case KindNamedType:
		return "type"
	case KindTypeParameter:
		return "type parameter"
	case KindNamespace:
		return "namespace"
	case KindAlias:
		return "alias"
	case KindRangeVariable:
		return "range variable"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Accessibility is a declared accessibility.
type Accessibility int

const (
	Public Accessibility = iota
	Internal
	Protected
	ProtectedInternal
	Private
)

func (a Accessibility) String() string {
	switch a {
	case Public:
		return "public"
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case ProtectedInternal:
		return "protected internal"
	case Private:
		return "private"
	default:
		return "unknown"
	}
}

// ParseAccessibility converts a declared accessibility keyword.
func ParseAccessibility(s string) (Accessibility, bool) {
	switch s {
	case "", "public":
		return Public, true
	case "internal":
		return Internal, true
	case "protected":
		return Protected, true
	case "protected internal":
		return ProtectedInternal, true
	case "private":
		return Private, true
	}
	return Public, false
}

// Symbol is implemented by every named entity in the symbol graph.
type Symbol interface {
	Name() string
	Kind() Kind
	Locations() []syntax.Location
	IsStatic() bool
	ContainingSymbol() Symbol
	Accessibility() Accessibility
	String() string
}

// TypedSymbol is a symbol with a declared type: locals, parameters,
// fields, properties and events.
type TypedSymbol interface {
	Symbol
	Type() Type
}

var symbolIDs uint64

func nextID() uint64 {
	return atomic.AddUint64(&symbolIDs, 1)
}

// symbolBase holds the fields shared by most symbols.
type symbolBase struct {
	name   string
	locs   []syntax.Location
	static bool
	access Accessibility
}

func (s *symbolBase) Name() string                 { return s.name }
func (s *symbolBase) Locations() []syntax.Location { return s.locs }
func (s *symbolBase) IsStatic() bool               { return s.static }
func (s *symbolBase) Accessibility() Accessibility { return s.access }

// FirstLocation returns the first declared location of sym, or the zero
// Location.
func FirstLocation(sym Symbol) syntax.Location {
	if sym == nil {
		return syntax.Location{}
	}
	locs := sym.Locations()
	if len(locs) == 0 {
		return syntax.Location{}
	}
	return locs[0]
}

// SymbolType returns the declared type of sym, the return type of a
// method, or nil.
func SymbolType(sym Symbol) Type {
	switch s := sym.(type) {
	case TypedSymbol:
		return s.Type()
	case *Method:
		return s.ReturnType()
	}
	return nil
}
