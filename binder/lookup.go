// Copyright © 2024 The ELPS authors

package binder

import (
	"sync"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// LookupResult is the outcome of a name lookup: the symbols found, how good
// a match they are and, for failures, the diagnostic explaining the best
// failure.  Results are pooled.  Call Free when done; the Symbols slice is
// reused afterwards.
type LookupResult struct {
	Kind       bound.ResultKind
	Symbols    []symbols.Symbol
	Diagnostic *diagnostic.Diagnostic
}

var lookupResultPool = sync.Pool{
	New: func() interface{} { return new(LookupResult) },
}

func newLookupResult() *LookupResult {
	r := lookupResultPool.Get().(*LookupResult)
	r.clear()
	return r
}

// Free returns r to the pool.
func (r *LookupResult) Free() {
	r.clear()
	lookupResultPool.Put(r)
}

func (r *LookupResult) clear() {
	r.Kind = bound.Empty
	for i := range r.Symbols {
		r.Symbols[i] = nil
	}
	r.Symbols = r.Symbols[:0]
	r.Diagnostic = nil
}

// IsClear reports whether nothing at all was found.
func (r *LookupResult) IsClear() bool { return r.Kind == bound.Empty && len(r.Symbols) == 0 }

// IsViable reports whether the lookup succeeded.
func (r *LookupResult) IsViable() bool { return r.Kind == bound.Viable && len(r.Symbols) > 0 }

// IsSingleViable reports whether the lookup found exactly one symbol.
func (r *LookupResult) IsSingleViable() bool { return r.IsViable() && len(r.Symbols) == 1 }

// SymbolsCopy returns a copy of the symbols found, safe to keep after Free.
func (r *LookupResult) SymbolsCopy() []symbols.Symbol {
	return append([]symbols.Symbol(nil), r.Symbols...)
}

// methods returns the found symbols when they are all methods.
func (r *LookupResult) methods() ([]*symbols.Method, bool) {
	if len(r.Symbols) == 0 {
		return nil, false
	}
	out := make([]*symbols.Method, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		m, ok := s.(*symbols.Method)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// mergeEqual adds a single-symbol outcome found at the same level as the
// symbols already in r.  A better kind replaces them and a worse kind is
// dropped.
func (r *LookupResult) mergeEqual(kind bound.ResultKind, sym symbols.Symbol, d *diagnostic.Diagnostic) {
	switch {
	case kind.IsBetterThan(r.Kind):
		r.clear()
		r.Kind = kind
		r.Symbols = append(r.Symbols, sym)
		r.Diagnostic = d
	case kind == r.Kind && sym != nil:
		for _, s := range r.Symbols {
			if s == sym {
				return
			}
		}
		r.Symbols = append(r.Symbols, sym)
		if r.Diagnostic == nil {
			r.Diagnostic = d
		}
	}
}

// mergePrioritized replaces r with other when other is better.
func (r *LookupResult) mergePrioritized(other *LookupResult) {
	if other.Kind.IsBetterThan(r.Kind) || (r.IsClear() && !other.IsClear()) {
		r.Kind = other.Kind
		r.Symbols = append(r.Symbols[:0], other.Symbols...)
		r.Diagnostic = other.Diagnostic
	}
}

// LookupSymbols looks up name with the given number of type arguments from
// b's scope outward.  The innermost scope with a viable result hides every
// outer one, except that methods found in a type or namespace accumulate
// the methods of the enclosing types and namespaces.  When no scope has a
// viable result, the best failure found anywhere is returned.
func (b *Binder) LookupSymbols(name string, arity int, opts LookupOptions, loc syntax.Location) *LookupResult {
	r := newLookupResult()
	level := newLookupResult()
	defer level.Free()
	for id := b.scope; id != NoScope; {
		s := b.arena().get(id)
		level.clear()
		if stop := b.lookupInScope(id, s, name, arity, opts, loc, level); stop {
			r.mergePrioritized(level)
			return r
		}
		if level.IsViable() {
			r.mergePrioritized(level)
			if _, ok := level.methods(); ok && mergesMethods(s.kind) {
				b.mergeOuterMethods(s.parent, name, arity, opts, loc, r)
			}
			return r
		}
		r.mergePrioritized(level)
		id = s.parent
	}
	return r
}

func mergesMethods(k ScopeKind) bool {
	return k == ScopeType || k == ScopeNamespace || k == ScopeCompilationUnit
}

// mergeOuterMethods adds to r the viable methods named name declared by the
// enclosing types and namespaces starting at id.  A viable non-method in
// one of them, or any other kind of scope, ends the walk.
func (b *Binder) mergeOuterMethods(id ScopeID, name string, arity int, opts LookupOptions, loc syntax.Location, r *LookupResult) {
	level := newLookupResult()
	defer level.Free()
	for id != NoScope {
		s := b.arena().get(id)
		if !mergesMethods(s.kind) {
			return
		}
		level.clear()
		b.lookupInScope(id, s, name, arity, opts, loc, level)
		if level.IsViable() {
			ms, ok := level.methods()
			if !ok {
				return
			}
			for _, m := range ms {
				r.mergeEqual(bound.Viable, m, nil)
			}
		}
		id = s.parent
	}
}

// lookupInScope collects the candidates for name declared by one scope.  It
// returns true when the walk must stop here regardless of the result.
func (b *Binder) lookupInScope(id ScopeID, s *scope, name string, arity int, opts LookupOptions, loc syntax.Location, r *LookupResult) bool {
	switch s.kind {
	case ScopeImports:
		b.lookupInImports(s, name, arity, opts, loc, r)
	case ScopeCompilationUnit, ScopeNamespace:
		if opts.Has(NamespaceAliasesOnly) || opts.Has(LabelsOnly) {
			return false
		}
		for _, sym := range s.namespace.MembersNamed(name) {
			kind, d := b.viability(sym, name, arity, opts, nil, loc)
			r.mergeEqual(kind, sym, d)
		}
	case ScopeType:
		if opts.Has(NamespaceAliasesOnly) || opts.Has(LabelsOnly) {
			return false
		}
		for _, sym := range b.table().LookupMembers(s.container, name) {
			kind, d := b.viability(sym, name, arity, opts, nil, loc)
			r.mergeEqual(kind, sym, d)
		}
	default:
		syms, at, reserved := b.arena().lookupLocal(id, name)
		if len(syms) == 0 && reserved {
			d := diagnostic.New(diagnostic.UseBeforeDeclaration, loc, name).
				WithSecondary(at, "declared here")
			r.Kind = bound.NotAValue
			r.Diagnostic = &d
			return true
		}
		for _, sym := range syms {
			kind, d := b.viability(sym, name, arity, opts, nil, loc)
			r.mergeEqual(kind, sym, d)
		}
	}
	return false
}

func (b *Binder) lookupInImports(s *scope, name string, arity int, opts LookupOptions, loc syntax.Location, r *LookupResult) {
	if alias, ok := s.aliases[name]; ok && arity == 0 {
		kind, d := b.viability(alias, name, arity, opts, nil, loc)
		r.mergeEqual(kind, alias, d)
		if kind == bound.Viable {
			return
		}
	}
	if opts.Has(NamespaceAliasesOnly) || opts.Has(LabelsOnly) {
		return
	}
	// Using directives import types, never nested namespaces.
	for _, ns := range s.imports {
		for _, t := range ns.TypesNamed(name) {
			kind, d := b.viability(t, name, arity, opts, nil, loc)
			r.mergeEqual(kind, t, d)
		}
	}
	if r.Kind == bound.Viable && len(r.Symbols) > 1 {
		d := diagnostic.New(diagnostic.AmbiguousReference, loc, name, r.Symbols[0], r.Symbols[1])
		r.Kind = bound.Ambiguous
		r.Diagnostic = &d
	}
}

// viability classifies a candidate found under name.
func (b *Binder) viability(sym symbols.Symbol, name string, arity int, opts LookupOptions, through symbols.Type, loc syntax.Location) (bound.ResultKind, *diagnostic.Diagnostic) {
	fail := func(kind bound.ResultKind, code diagnostic.Code, args ...interface{}) (bound.ResultKind, *diagnostic.Diagnostic) {
		d := diagnostic.New(code, loc, args...)
		return kind, &d
	}
	target := sym
	if a, ok := sym.(*symbols.Alias); ok {
		target = a.Target()
	} else if opts.Has(NamespaceAliasesOnly) {
		return fail(bound.NotAValue, diagnostic.BadSymbolKind, name, symbolKindName(sym), "alias")
	}
	if opts.Has(LabelsOnly) {
		if sym.Kind() != symbols.KindLabel {
			return bound.Empty, nil
		}
		return bound.Viable, nil
	}
	if sym.Kind() == symbols.KindLabel {
		return bound.Empty, nil
	}
	if opts.Has(NamespacesOrTypesOnly) {
		switch target.Kind() {
		case symbols.KindNamespace, symbols.KindNamedType, symbols.KindTypeParameter:
		default:
			return fail(bound.NotAValue, diagnostic.BadSymbolKind, name, symbolKindName(sym), "type")
		}
	}
	switch t := target.(type) {
	case *symbols.NamedType:
		if t.Arity() != arity {
			if t.Arity() == 0 {
				return fail(bound.WrongArity, diagnostic.NotGeneric, "type", name)
			}
			return fail(bound.WrongArity, diagnostic.WrongArity, "type", name, t.Arity())
		}
	case *symbols.Method:
		if !(arity == 0 && opts.Has(AllMethodsOnArityZero)) && t.Arity() != arity {
			if t.Arity() == 0 {
				return fail(bound.WrongArity, diagnostic.NotGeneric, "method", name)
			}
			return fail(bound.WrongArity, diagnostic.WrongArity, "method", name, t.Arity())
		}
	default:
		if arity > 0 {
			return fail(bound.WrongArity, diagnostic.NotGeneric, symbolKindName(sym), name)
		}
	}
	if opts.Has(MustBeInvocableIfMember) {
		switch target.(type) {
		case *symbols.Field, *symbols.Property, *symbols.Event:
			typ := symbols.SymbolType(target)
			if typ.TypeKind() != symbols.TypeDelegate && !symbols.IsDynamic(typ) && !symbols.IsErrorType(typ) {
				return fail(bound.NotAValue, diagnostic.NonInvocableMember, name)
			}
		}
	}
	if within := b.containingType(); !b.table().IsAccessible(target, within, through) {
		if through != nil && b.table().IsAccessible(target, within, nil) {
			// protected member reached through a qualifier of the wrong type
			return fail(bound.Inaccessible, diagnostic.BadProtectedAccess, target, through, within)
		}
		return fail(bound.Inaccessible, diagnostic.Inaccessible, target)
	}
	if isMember(target) {
		if opts.Has(MustBeInstance) && target.IsStatic() {
			return fail(bound.StaticInstanceMismatch, diagnostic.InstanceAsStatic, target)
		}
		if opts.Has(MustNotBeInstance) && !target.IsStatic() {
			return fail(bound.StaticInstanceMismatch, diagnostic.ObjectRequired, target)
		}
	}
	return bound.Viable, nil
}

// lookupMembers looks name up among the members of typ, including
// inherited ones.  through is the type of the receiver for protected
// access checks.
func (b *Binder) lookupMembers(typ symbols.Type, name string, arity int, opts LookupOptions, through symbols.Type, loc syntax.Location) *LookupResult {
	r := newLookupResult()
	for _, sym := range b.table().LookupMembers(typ, name) {
		kind, d := b.viability(sym, name, arity, opts, through, loc)
		r.mergeEqual(kind, sym, d)
	}
	return r
}

// extensionScopes returns the namespaces searched for extension methods,
// one group per scope from the innermost outward.
func (b *Binder) extensionScopes() [][]*symbols.Namespace {
	var groups [][]*symbols.Namespace
	for id := b.scope; id != NoScope; {
		s := b.arena().get(id)
		switch s.kind {
		case ScopeNamespace, ScopeCompilationUnit:
			groups = append(groups, []*symbols.Namespace{s.namespace})
		case ScopeImports:
			if len(s.imports) > 0 {
				groups = append(groups, s.imports)
			}
		}
		id = s.parent
	}
	return groups
}

// extensionMethods returns the extension methods named name in group, in a
// deterministic order.
func (b *Binder) extensionMethods(group []*symbols.Namespace, name string, arity int) []*symbols.Method {
	var out []*symbols.Method
	seen := make(map[*symbols.Method]bool)
	for _, ns := range group {
		for _, m := range b.table().ExtensionMethods(ns, name) {
			if seen[m] || (arity > 0 && m.Arity() != arity) {
				continue
			}
			if !b.table().IsAccessible(m, b.containingType(), nil) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// hasExtensionMethods reports whether any extension method named name is
// in scope.
func (b *Binder) hasExtensionMethods(name string) bool {
	for _, group := range b.extensionScopes() {
		if len(b.extensionMethods(group, name, 0)) > 0 {
			return true
		}
	}
	return false
}

// rangeValue returns what a range variable found by lookup stands for.
func (b *Binder) rangeValue(rv *symbols.RangeVariable) (bound.Expr, bool) {
	for id := b.scope; id != NoScope; id = b.arena().Parent(id) {
		if v, ok := b.arena().rangeValue(id, rv); ok {
			return v, true
		}
	}
	return nil, false
}

func isMember(sym symbols.Symbol) bool {
	switch sym.Kind() {
	case symbols.KindField, symbols.KindProperty, symbols.KindEvent, symbols.KindMethod:
		return true
	}
	return false
}

// symbolKindName names the kind of sym the way diagnostics do.
func symbolKindName(sym symbols.Symbol) string {
	switch sym.Kind() {
	case symbols.KindLocal:
		return "variable"
	case symbols.KindParameter:
		return "parameter"
	case symbols.KindField:
		return "field"
	case symbols.KindProperty:
		return "property"
	case symbols.KindEvent:
		return "event"
	case symbols.KindMethod:
		return "method"
	case symbols.KindNamedType, symbols.KindTypeParameter:
		return "type"
	case symbols.KindNamespace:
		return "namespace"
	case symbols.KindAlias:
		return "alias"
	case symbols.KindRangeVariable:
		return "range variable"
	case symbols.KindLabel:
		return "label"
	}
	return "symbol"
}
