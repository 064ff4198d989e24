// Copyright © 2024 The ELPS authors

package binder

import (
	"strings"
	"sync"

	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// meaning is the symbol a name denotes within one local scope and the
// scopes nested in it.  A direct meaning was declared or used in the scope
// itself; an indirect one in a nested scope.
type meaning struct {
	sym      symbols.Symbol
	loc      syntax.Location
	direct   bool
	decl     bool
	reported bool
}

// conflictTable maps each name used or declared in a scope to its single
// meaning.  The table is created lazily on first write and is the only
// binder state shared by concurrent binds, hence the lock.
type conflictTable struct {
	mu      sync.Mutex
	entries map[string]*meaning
}

// conflict is a diagnostic decided under the table lock and reported
// after it is released.
type conflict struct {
	code diagnostic.Code
	loc  syntax.Location
	args []interface{}
	prev syntax.Location
}

// record checks m against the current meaning of name.  It returns the
// conflict to report, if any, and whether propagation to the enclosing
// scope must stop.
func (t *conflictTable) record(name string, m *meaning) (*conflict, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[string]*meaning)
	}
	old, ok := t.entries[name]
	if !ok {
		t.entries[name] = m
		return nil, false
	}
	if sameMeaning(old.sym, m.sym) {
		if m.direct && !old.direct {
			old.direct, old.loc, old.decl = true, m.loc, m.decl
		}
		return nil, true
	}
	if old.reported || colorColor(old.sym, m.sym) {
		return nil, true
	}
	var c *conflict
	switch {
	case old.direct && m.direct:
		first, later := old, m
		if later.loc.Before(first.loc) {
			first, later = later, first
		}
		c = conflictAt(name, later, first)
	case m.direct:
		c = conflictAt(name, old, m)
		m.reported = true
		t.entries[name] = m
	case old.direct:
		c = conflictAt(name, m, old)
	default:
		return nil, true
	}
	old.reported = true
	m.reported = true
	return c, true
}

// conflictAt describes the conflict reported at the location of at, whose
// meaning clashes with other.
func conflictAt(name string, at, other *meaning) *conflict {
	c := &conflict{loc: at.loc, prev: other.loc}
	_, atRange := at.sym.(*symbols.RangeVariable)
	_, otherRange := other.sym.(*symbols.RangeVariable)
	switch {
	case at.decl && (atRange || otherRange):
		c.code, c.args = diagnostic.DuplicateRangeVar, []interface{}{name, name}
	case at.decl && other.decl && at.direct && other.direct:
		c.code, c.args = diagnostic.DuplicateLocal, []interface{}{name}
	case at.decl:
		c.code, c.args = diagnostic.LocalShadowsEnclosing, []interface{}{name}
	default:
		c.code, c.args = diagnostic.NameMeaningChanged, []interface{}{name, other.sym}
	}
	return c
}

func sameMeaning(a, b symbols.Symbol) bool {
	if a == b {
		return true
	}
	if x, ok := a.(*symbols.Alias); ok {
		a = x.Target()
	}
	if x, ok := b.(*symbols.Alias); ok {
		b = x.Target()
	}
	return a == b
}

// colorColor reports whether one meaning is a value whose type is the
// other meaning, a type of the same name.  Both readings coexist.
func colorColor(a, b symbols.Symbol) bool {
	check := func(value, typ symbols.Symbol) bool {
		t, ok := typ.(*symbols.NamedType)
		if !ok {
			return false
		}
		switch value.(type) {
		case *symbols.Local, *symbols.Parameter, *symbols.Field, *symbols.Property, *symbols.RangeVariable:
		default:
			return false
		}
		vt, ok := symbols.SymbolType(value).(*symbols.NamedType)
		return ok && value.Name() == t.Name() && symbols.Identical(vt, t)
	}
	return check(a, b) || check(b, a)
}

// recordDeclaration records that name is declared as sym in b's scope.
func (b *Binder) recordDeclaration(name string, sym symbols.Symbol, loc syntax.Location) {
	b.recordMeaning(name, sym, loc, true)
}

// recordUse records that name, used at loc, binds to sym.
func (b *Binder) recordUse(name string, sym symbols.Symbol, loc syntax.Location) {
	b.recordMeaning(name, sym, loc, false)
}

// recordMeaning propagates a meaning of name from b's scope outward until
// the enclosing local scopes end or a table settles it.  Speculative
// binders record nothing: an abandoned attempt must not mark a conflict
// reported when its diagnostic is discarded.
func (b *Binder) recordMeaning(name string, sym symbols.Symbol, loc syntax.Location, decl bool) {
	if b.isSpeculative() || name == "" || strings.HasPrefix(name, "<") {
		return
	}
	direct := true
	for id := b.scope; id != NoScope; {
		s := b.arena().get(id)
		if !s.kind.isLocal() {
			return
		}
		c, stop := s.conflicts.record(name, &meaning{sym: sym, loc: loc, direct: direct, decl: decl})
		if c != nil {
			d := diagnostic.New(c.code, c.loc, c.args...)
			if c.prev.IsValid() {
				d = d.WithSecondary(c.prev, "previous meaning here")
			}
			b.diags.Add(d)
		}
		if stop {
			return
		}
		direct = false
		id = s.parent
	}
}
