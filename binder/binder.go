// Copyright © 2024 The ELPS authors

// Package binder turns syntax trees into bound trees.  It resolves every
// name against a chain of scopes, classifies each expression, picks the
// target of every invocation by overload resolution, rewrites query
// expressions into method calls and checks that no name means two
// different things within a local scope.
//
// A Context holds the state shared by every bind against one symbol
// table.  A Binder is a cheap value that carries the current scope and
// diagnostic sink; binding a nested construct copies it.
package binder

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/conversion"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// InvariantError reports a broken internal invariant.  The binder raises
// it by panicking; the exported entry points recover it and return it
// wrapped with the phase that failed.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "binder invariant violated: " + e.Msg }

func invariant(format string, v ...interface{}) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, v...)})
}

// recoverInvariant must be deferred directly.
func recoverInvariant(err *error, phase string) {
	if r := recover(); r != nil {
		ie, ok := r.(*InvariantError)
		if !ok {
			panic(r)
		}
		*err = errors.Wrap(ie, phase)
	}
}

// Context is the state shared by all binds against one symbol table.
type Context struct {
	Table       *symbols.Table
	Conversions *conversion.Classifier
	Options     Options
	Scopes      *ScopeArena

	imports []*symbols.Namespace
	root    ScopeID
	ops     *operatorTable
}

// NewContext returns a Context binding against table.  Every namespace
// named in opts.Usings must exist.
func NewContext(table *symbols.Table, opts Options) (*Context, error) {
	if opts.Tracer == nil {
		opts.Tracer = nopTracer{}
	}
	usings := opts.Usings
	if usings == nil {
		usings = DefaultUsings
	}
	c := &Context{
		Table:       table,
		Conversions: conversion.New(table),
		Options:     opts,
		Scopes:      &ScopeArena{},
	}
	for _, u := range usings {
		ns := table.LookupNamespace(u)
		if ns == nil {
			return nil, errors.Errorf("imported namespace %q does not exist", u)
		}
		c.imports = append(c.imports, ns)
	}
	c.ops = newOperatorTable(table)
	c.root = c.newChain(nil, c.imports, nil)
	return c, nil
}

// Root returns the submission scope that top-level expressions bind in.
func (c *Context) Root() ScopeID { return c.root }

// newChain builds the scopes surrounding top-level code and returns the
// innermost one, a submission scope.
func (c *Context) newChain(syn syntax.Node, imports []*symbols.Namespace, aliases map[string]*symbols.Alias) ScopeID {
	id := c.Scopes.push(&scope{
		kind:    ScopeImports,
		parent:  NoScope,
		syntax:  syn,
		imports: imports,
		aliases: aliases,
	})
	id = c.Scopes.push(&scope{
		kind:      ScopeCompilationUnit,
		parent:    id,
		syntax:    syn,
		namespace: c.Table.GlobalNamespace(),
	})
	id = c.Scopes.push(&scope{
		kind:      ScopeType,
		parent:    id,
		syntax:    syn,
		container: c.Table.ScriptClass(),
	})
	return c.Scopes.push(&scope{
		kind:   ScopeSubmission,
		parent: id,
		syntax: syn,
		unsafe: c.Options.Unsafe,
	})
}

// NewBinder returns a binder positioned in scope, reporting to diags.
func (c *Context) NewBinder(scope ScopeID, diags *diagnostic.Bag) *Binder {
	if diags == nil {
		diags = diagnostic.NewBag()
	}
	return &Binder{ctx: c, scope: scope, diags: diags, state: &bindState{}}
}

type binderFlags uint8

const (
	flagSpeculative binderFlags = 1 << iota
	flagUnsafe
)

// bindState is shared by every Binder derived from one top-level bind.
type bindState struct {
	transparent int
}

// Binder binds syntax in one scope.  Binders are copied, never shared, when
// binding descends into a nested scope or a speculative attempt.
type Binder struct {
	ctx   *Context
	scope ScopeID
	diags *diagnostic.Bag
	flags binderFlags
	state *bindState
	// condReceiver stands for the receiver of the innermost ?. operator
	// while its access is bound.
	condReceiver bound.Expr
}

// Context returns the Context b binds in.
func (b *Binder) Context() *Context { return b.ctx }

// Scope returns the scope b binds in.
func (b *Binder) Scope() ScopeID { return b.scope }

// Diagnostics returns the bag b reports to.
func (b *Binder) Diagnostics() *diagnostic.Bag { return b.diags }

func (b *Binder) table() *symbols.Table        { return b.ctx.Table }
func (b *Binder) conv() *conversion.Classifier { return b.ctx.Conversions }
func (b *Binder) arena() *ScopeArena           { return b.ctx.Scopes }
func (b *Binder) isSpeculative() bool          { return b.flags&flagSpeculative != 0 }
func (b *Binder) special(st symbols.SpecialType) *symbols.NamedType {
	return b.ctx.Table.SpecialType(st)
}

func (b *Binder) clone() *Binder {
	c := *b
	return &c
}

// push returns a binder for a new scope of kind nested in b's scope.
func (b *Binder) push(kind ScopeKind, syn syntax.Node) *Binder {
	c := b.clone()
	c.scope = b.arena().push(&scope{kind: kind, parent: b.scope, syntax: syn})
	return c
}

// speculative returns a binder that reports to bag and records nothing
// outside it.
func (b *Binder) speculative(bag *diagnostic.Bag) *Binder {
	c := b.clone()
	c.diags = bag
	c.flags |= flagSpeculative
	return c
}

// withDiagnostics returns a binder reporting to bag.
func (b *Binder) withDiagnostics(bag *diagnostic.Bag) *Binder {
	c := b.clone()
	c.diags = bag
	return c
}

func (b *Binder) report(code diagnostic.Code, loc syntax.Location, args ...interface{}) diagnostic.Diagnostic {
	return b.diags.Report(code, loc, args...)
}

func (b *Binder) trace(kind, label string, loc syntax.Location) func() {
	return b.ctx.Options.Tracer.Start(kind, label, loc)
}

// containingType returns the type whose members are in scope.
func (b *Binder) containingType() *symbols.NamedType {
	for id := b.scope; id != NoScope; {
		s := b.arena().get(id)
		if s.kind == ScopeType {
			return s.container
		}
		id = s.parent
	}
	return nil
}

func (b *Binder) inUnsafe() bool {
	if b.flags&flagUnsafe != 0 || b.ctx.Options.Unsafe {
		return true
	}
	for id := b.scope; id != NoScope; {
		s := b.arena().get(id)
		if s.unsafe {
			return true
		}
		id = s.parent
	}
	return false
}

// nextTransparent names a new transparent identifier.
func (b *Binder) nextTransparent() string {
	n := b.state.transparent
	b.state.transparent++
	return fmt.Sprintf("<>h__TransparentIdentifier%d", n)
}

// bad returns an erroneous expression standing for syn.
func (b *Binder) bad(syn syntax.Node, kind bound.ResultKind, syms []symbols.Symbol, children ...bound.Expr) *bound.BadExpression {
	return b.badTyped(syn, symbols.Error, kind, syms, children...)
}

func (b *Binder) badTyped(syn syntax.Node, typ symbols.Type, kind bound.ResultKind, syms []symbols.Symbol, children ...bound.Expr) *bound.BadExpression {
	var kept []bound.Expr
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	if typ == nil {
		typ = symbols.Error
	}
	return bound.New(&bound.BadExpression{ResultKind: kind, Symbols: syms, Children: kept}, syn, typ, bound.Errors())
}

func (b *Binder) implicitThis(syn syntax.Node) bound.Expr {
	return bound.New(&bound.This{Implicit: true}, syn, b.containingType())
}

func locOf(n syntax.Node) syntax.Location {
	if n == nil {
		return syntax.Location{}
	}
	return n.Loc()
}

// sortSymbols orders syms by name, then declaration position, then
// display string, so that results never depend on map iteration order.
func sortSymbols(syms []symbols.Symbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i], syms[j]
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		la, lb := symbols.FirstLocation(a), symbols.FirstLocation(b)
		if la.Pos != lb.Pos {
			return la.Pos < lb.Pos
		}
		return a.String() < b.String()
	})
}

// typeString formats t for a diagnostic, naming typeless expressions the
// way users think of them.
func typeString(e bound.Expr) string {
	if t := e.Type(); t != nil {
		return t.String()
	}
	switch e.(type) {
	case *bound.UnboundLambda, *bound.Lambda:
		return "lambda expression"
	case *bound.MethodGroup:
		return "method group"
	case *bound.NamespaceExpr:
		return "namespace"
	}
	if bound.IsNullLiteral(e) {
		return "<null>"
	}
	return "?"
}
