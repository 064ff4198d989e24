// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// bindType resolves a type written in source.  Failures are reported and
// produce an error type.
func (b *Binder) bindType(t syntax.Type) symbols.Type {
	switch t := t.(type) {
	case nil:
		return symbols.Error
	case *syntax.PredefinedType:
		st := symbols.SpecialTypeForKeyword(t.Keyword)
		if nt := b.special(st); nt != nil {
			return nt
		}
		b.report(diagnostic.TypeOrNamespaceNotFound, t.Source, t.Keyword)
		return &symbols.ErrorType{Name: t.Keyword}
	case *syntax.NamedType:
		return b.bindNamedType(t)
	case *syntax.ArrayType:
		rank := t.Rank
		if rank < 1 {
			rank = 1
		}
		return symbols.NewArrayType(b.bindType(t.Elem), rank)
	case *syntax.PointerType:
		elem := b.bindType(t.Elem)
		if !b.inUnsafe() {
			b.report(diagnostic.UnsafeNeeded, t.Source)
		}
		return &symbols.PointerType{Elem: elem}
	case *syntax.NullableType:
		elem := b.bindType(t.Elem)
		switch {
		case symbols.IsErrorType(elem), symbols.IsNullable(elem):
			return elem
		case !elem.IsValueType():
			b.report(diagnostic.ConstraintValueType, t.Source, elem, "T", "Nullable<T>")
			return elem
		}
		return b.table().Nullable(elem)
	}
	invariant("unexpected type syntax %T", t)
	return nil
}

func (b *Binder) bindNamedType(t *syntax.NamedType) symbols.Type {
	ns, typ := b.bindNamespaceOrType(t)
	if ns != nil {
		b.report(diagnostic.BadSymbolKind, t.Source, t.QualifiedName(), "namespace", "type")
		return &symbols.ErrorType{Name: t.QualifiedName()}
	}
	return typ
}

// bindNamespaceOrType resolves a dotted name to a namespace or a type.
// Exactly one result is non-nil; failures produce an error type.
func (b *Binder) bindNamespaceOrType(t *syntax.NamedType) (*symbols.Namespace, symbols.Type) {
	typeArgs := b.bindTypeArgs(t.TypeArgs)
	if t.Qualifier == nil {
		return b.bindSimpleTypeName(t, typeArgs)
	}
	qns, qt := b.bindNamespaceOrType(t.Qualifier)
	if qt != nil && symbols.IsErrorType(qt) {
		return nil, qt
	}
	var candidates []symbols.Symbol
	if qns != nil {
		candidates = qns.MembersNamed(t.Name)
	} else if nt, ok := qt.(*symbols.NamedType); ok {
		for _, sym := range nt.MembersNamed(t.Name) {
			if _, ok := sym.(*symbols.NamedType); ok {
				candidates = append(candidates, sym)
			}
		}
	}
	r := newLookupResult()
	defer r.Free()
	for _, sym := range candidates {
		kind, d := b.viability(sym, t.Name, len(typeArgs), NamespacesOrTypesOnly, nil, t.Source)
		r.mergeEqual(kind, sym, d)
	}
	if !r.IsViable() {
		switch {
		case r.Kind != bound.Empty && r.Diagnostic != nil:
			b.diags.Add(*r.Diagnostic)
		case qns != nil:
			b.report(diagnostic.NamespaceMemberNotFound, t.Source, t.Name, qns)
		default:
			b.report(diagnostic.MemberNotFound, t.Source, qt, t.Name)
		}
		return nil, &symbols.ErrorType{Name: t.QualifiedName()}
	}
	return b.namespaceOrTypeSymbol(t, r.Symbols[0], typeArgs)
}

func (b *Binder) bindSimpleTypeName(t *syntax.NamedType, typeArgs []symbols.Type) (*symbols.Namespace, symbols.Type) {
	r := b.LookupSymbols(t.Name, len(typeArgs), NamespacesOrTypesOnly, t.Source)
	defer r.Free()
	if !r.IsViable() {
		if t.Name == "dynamic" && len(typeArgs) == 0 {
			return nil, b.table().Dynamic()
		}
		if r.Kind != bound.Empty && r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.TypeOrNamespaceNotFound, t.Source, t.Name)
		}
		return nil, &symbols.ErrorType{Name: t.Name}
	}
	if len(r.Symbols) > 1 {
		b.report(diagnostic.AmbiguousReference, t.Source, t.Name, r.Symbols[0], r.Symbols[1])
		return nil, &symbols.ErrorType{Name: t.Name}
	}
	return b.namespaceOrTypeSymbol(t, r.Symbols[0], typeArgs)
}

func (b *Binder) namespaceOrTypeSymbol(t *syntax.NamedType, sym symbols.Symbol, typeArgs []symbols.Type) (*symbols.Namespace, symbols.Type) {
	if a, ok := sym.(*symbols.Alias); ok {
		sym = a.Target()
	}
	switch s := sym.(type) {
	case *symbols.Namespace:
		return s, nil
	case *symbols.NamedType:
		if len(typeArgs) > 0 {
			return nil, s.Construct(typeArgs...)
		}
		return nil, s
	case *symbols.TypeParameter:
		return nil, s
	}
	b.report(diagnostic.BadSymbolKind, t.Source, t.Name, symbolKindName(sym), "type")
	return nil, &symbols.ErrorType{Name: t.Name}
}
