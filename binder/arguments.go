// Copyright © 2024 The ELPS authors

package binder

import (
	"sync"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// AnalyzedArguments is a bound argument list awaiting overload resolution.
// Names and RefKinds stay nil until the first named or ref argument is
// added; from then on they have one slot per argument.  Instances are
// pooled; call Free when done.
type AnalyzedArguments struct {
	Args     []bound.Expr
	Names    []string
	NameLocs []syntax.Location
	RefKinds []syntax.RefKind
	// IsExtensionMethodInvocation is set when Args[0] is the receiver of an
	// extension method call.
	IsExtensionMethodInvocation bool
}

var argumentsPool = sync.Pool{
	New: func() interface{} { return new(AnalyzedArguments) },
}

func newArguments() *AnalyzedArguments {
	return argumentsPool.Get().(*AnalyzedArguments)
}

// Free clears a and returns it to the pool.
func (a *AnalyzedArguments) Free() {
	for i := range a.Args {
		a.Args[i] = nil
	}
	a.Args = a.Args[:0]
	a.Names = nil
	a.NameLocs = nil
	a.RefKinds = nil
	a.IsExtensionMethodInvocation = false
	argumentsPool.Put(a)
}

// Len returns the number of arguments.
func (a *AnalyzedArguments) Len() int { return len(a.Args) }

// Add appends an argument.
func (a *AnalyzedArguments) Add(e bound.Expr, name string, nameLoc syntax.Location, ref syntax.RefKind) {
	if name != "" && a.Names == nil {
		a.Names = make([]string, len(a.Args))
		a.NameLocs = make([]syntax.Location, len(a.Args))
	}
	if ref != syntax.RefNone && a.RefKinds == nil {
		a.RefKinds = make([]syntax.RefKind, len(a.Args))
	}
	a.Args = append(a.Args, e)
	if a.Names != nil {
		a.Names = append(a.Names, name)
		a.NameLocs = append(a.NameLocs, nameLoc)
	}
	if a.RefKinds != nil {
		a.RefKinds = append(a.RefKinds, ref)
	}
}

// Name returns the name of argument i, or "" for a positional argument.
func (a *AnalyzedArguments) Name(i int) string {
	if a.Names == nil {
		return ""
	}
	return a.Names[i]
}

// RefKind returns the ref kind of argument i.
func (a *AnalyzedArguments) RefKind(i int) syntax.RefKind {
	if a.RefKinds == nil {
		return syntax.RefNone
	}
	return a.RefKinds[i]
}

// HasNames reports whether any argument is named.
func (a *AnalyzedArguments) HasNames() bool {
	for _, n := range a.Names {
		if n != "" {
			return true
		}
	}
	return false
}

// HasDynamic reports whether any argument is of type dynamic.
func (a *AnalyzedArguments) HasDynamic() bool {
	for _, e := range a.Args {
		if symbols.IsDynamic(e.Type()) {
			return true
		}
	}
	return false
}

// withReceiver returns a new argument list with recv prepended, as the
// first argument of an extension method call.
func (a *AnalyzedArguments) withReceiver(recv bound.Expr) *AnalyzedArguments {
	out := newArguments()
	out.IsExtensionMethodInvocation = true
	out.Add(recv, "", syntax.Location{}, syntax.RefNone)
	for i, e := range a.Args {
		var loc syntax.Location
		if a.NameLocs != nil {
			loc = a.NameLocs[i]
		}
		out.Add(e, a.Name(i), loc, a.RefKind(i))
	}
	return out
}

// names and refKinds return the slices to store in a bound node, nil when
// no argument needs them.
func (a *AnalyzedArguments) names() []string {
	if !a.HasNames() {
		return nil
	}
	return append([]string(nil), a.Names...)
}

func (a *AnalyzedArguments) refKinds() []syntax.RefKind {
	if a.RefKinds == nil {
		return nil
	}
	return append([]syntax.RefKind(nil), a.RefKinds...)
}

// bindArguments binds an argument list.  Method groups and lambdas are left
// unconverted for overload resolution to decide on.
func (b *Binder) bindArguments(list []*syntax.Argument) *AnalyzedArguments {
	args := newArguments()
	seenNamed := false
	names := make(map[string]bool)
	for _, arg := range list {
		var e bound.Expr
		switch arg.RefKind {
		case syntax.RefNone, syntax.RefIn:
			e = b.bindValue(arg.Value, valueRValueOrMethodGroup)
		default:
			e = b.bindValue(arg.Value, valueRefOrOut)
		}
		if arg.Name != "" {
			seenNamed = true
			if names[arg.Name] {
				b.report(diagnostic.DuplicateNamedArgument, arg.NameLoc, arg.Name)
				e = b.bad(arg.Value, bound.NotAValue, nil, e)
			}
			names[arg.Name] = true
		} else if seenNamed {
			b.report(diagnostic.NamedArgumentPosition, arg.Value.Loc())
			e = b.bad(arg.Value, bound.NotAValue, nil, e)
		}
		args.Add(e, arg.Name, arg.NameLoc, arg.RefKind)
	}
	return args
}

// argumentLocation returns where argument i was written.
func argumentLocation(args *AnalyzedArguments, i int) syntax.Location {
	if i < len(args.Args) && args.Args[i].Syntax() != nil {
		return args.Args[i].Syntax().Loc()
	}
	return syntax.Location{}
}

// badArguments converts every argument of a failed call to something that
// can sit in an error node: lambdas are bound with error parameter types
// so that their bodies are still checked.
func (b *Binder) badArguments(args *AnalyzedArguments) []bound.Expr {
	out := make([]bound.Expr, len(args.Args))
	for i, e := range args.Args {
		out[i] = b.bindToNothing(e)
	}
	return out
}

// bindToNothing finishes an expression that has no target type.
func (b *Binder) bindToNothing(e bound.Expr) bound.Expr {
	switch e := e.(type) {
	case *bound.UnboundLambda:
		st, ok := e.State.(*lambdaState)
		if !ok {
			invariant("unexpected lambda state %T", e.State)
		}
		return st.bindWithErrorTypes()
	}
	return e
}
