// Copyright © 2024 The ELPS authors

package binder

import (
	"sync"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// ScopeKind identifies what introduced a scope.
type ScopeKind int

const (
	ScopeCompilationUnit ScopeKind = iota // global namespace of the compilation
	ScopeImports                          // using directives and aliases
	ScopeNamespace                        // namespace body
	ScopeType                             // members of a type
	ScopeMethod                           // method body and parameters
	ScopeBlock                            // statement block locals
	ScopeLambda                           // lambda parameters
	ScopeQuery                            // range variables of a query body
	ScopeSubmission                       // top-level script code
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeCompilationUnit:
		return "compilation unit"
	case ScopeImports:
		return "imports"
	case ScopeNamespace:
		return "namespace"
	case ScopeType:
		return "type"
	case ScopeMethod:
		return "method"
	case ScopeBlock:
		return "block"
	case ScopeLambda:
		return "lambda"
	case ScopeQuery:
		return "query"
	case ScopeSubmission:
		return "submission"
	default:
		return "unknown"
	}
}

// isLocal reports whether names declared in scopes of kind k take part in
// local name conflict checks.
func (k ScopeKind) isLocal() bool {
	return k == ScopeBlock || k == ScopeLambda || k == ScopeQuery
}

// ScopeID identifies a scope within a ScopeArena.
type ScopeID int

// NoScope is the parent of the outermost scope.
const NoScope ScopeID = -1

// scope is one link of a scope chain.  Lookup walks from the innermost
// scope outward through parent.
type scope struct {
	kind   ScopeKind
	parent ScopeID
	syntax syntax.Node
	unsafe bool

	container *symbols.NamedType // ScopeType
	namespace *symbols.Namespace // ScopeNamespace, ScopeCompilationUnit
	imports   []*symbols.Namespace
	aliases   map[string]*symbols.Alias

	names    map[string][]symbols.Symbol
	reserved map[string]syntax.Location
	// rangeValues gives the rewritten access path of each range variable
	// declared in a query lambda scope.
	rangeValues map[*symbols.RangeVariable]bound.Expr

	conflicts conflictTable
}

// ScopeArena owns every scope created by a Context.  Scopes are addressed
// by index and never freed, so a ScopeID stays valid for the life of the
// arena.  The arena is safe for concurrent use.
type ScopeArena struct {
	mu     sync.RWMutex
	scopes []*scope
}

func (a *ScopeArena) push(s *scope) ScopeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scopes = append(a.scopes, s)
	return ScopeID(len(a.scopes) - 1)
}

func (a *ScopeArena) get(id ScopeID) *scope {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.scopes) {
		invariant("scope %d out of range", id)
	}
	return a.scopes[id]
}

// Len returns the number of scopes in the arena.
func (a *ScopeArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.scopes)
}

// Kind returns the kind of scope id.
func (a *ScopeArena) Kind(id ScopeID) ScopeKind { return a.get(id).kind }

// Parent returns the parent of scope id, or NoScope.
func (a *ScopeArena) Parent(id ScopeID) ScopeID { return a.get(id).parent }

// declare adds sym to scope id and clears any reservation of its name.
func (a *ScopeArena) declare(id ScopeID, sym symbols.Symbol) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.scopes[id]
	if s.names == nil {
		s.names = make(map[string][]symbols.Symbol)
	}
	s.names[sym.Name()] = append(s.names[sym.Name()], sym)
	delete(s.reserved, sym.Name())
}

// reserve marks name as declared later in scope id.  A lookup that reaches
// a reserved name stops with a use-before-declaration error.
func (a *ScopeArena) reserve(id ScopeID, name string, loc syntax.Location) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.scopes[id]
	if s.reserved == nil {
		s.reserved = make(map[string]syntax.Location)
	}
	if _, ok := s.reserved[name]; !ok {
		s.reserved[name] = loc
	}
}

// setRangeValue records the value a range variable stands for in a query
// lambda scope.
func (a *ScopeArena) setRangeValue(id ScopeID, rv *symbols.RangeVariable, value bound.Expr) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.scopes[id]
	if s.rangeValues == nil {
		s.rangeValues = make(map[*symbols.RangeVariable]bound.Expr)
	}
	s.rangeValues[rv] = value
}

// lookupLocal returns the symbols declared under name directly in scope id
// and the location of a pending reservation of name, if any.
func (a *ScopeArena) lookupLocal(id ScopeID, name string) ([]symbols.Symbol, syntax.Location, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := a.scopes[id]
	loc, reserved := s.reserved[name]
	return s.names[name], loc, reserved
}

func (a *ScopeArena) rangeValue(id ScopeID, rv *symbols.RangeVariable) (bound.Expr, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.scopes[id].rangeValues[rv]
	return v, ok
}

// Symbols returns the symbols declared directly in scope id, sorted by
// name then declaration position.
func (a *ScopeArena) Symbols(id ScopeID) []symbols.Symbol {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []symbols.Symbol
	for _, syms := range a.scopes[id].names {
		out = append(out, syms...)
	}
	sortSymbols(out)
	return out
}
