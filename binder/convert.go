// Copyright © 2024 The ELPS authors

package binder

import (
	"math"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/conversion"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// valueKind is what the context of an expression requires of it.
type valueKind int

const (
	valueRValue              valueKind = iota // a value
	valueRValueOrMethodGroup                  // a value, or a method group awaiting a delegate type
	valueStatement                            // anything a statement may consist of, void included
	valueAssignable                           // a variable, property or indexer that can be assigned
	valueRefOrOut                             // a variable that can be passed by reference
)

func (b *Binder) bindValue(x syntax.Expr, kind valueKind) bound.Expr {
	return b.checkValue(b.bindExpr(x), kind)
}

// checkValue reports when e cannot be used the way kind requires.
func (b *Binder) checkValue(e bound.Expr, kind valueKind) bound.Expr {
	if tv, ok := e.(*bound.TypeOrValue); ok {
		e = tv.Value
	}
	if e.HasErrors() {
		return e
	}
	syn := e.Syntax()
	loc := locOf(syn)
	switch n := e.(type) {
	case *bound.MethodGroup:
		if kind == valueRValueOrMethodGroup {
			return e
		}
		b.report(diagnostic.BadSymbolKind, loc, n.Name, "method", "variable")
		return b.bad(syn, bound.NotAValue, methodSymbols(n.Methods), n)
	case *bound.TypeExpr:
		b.report(diagnostic.NotValidInContext, loc, n.Type(), "type")
		var syms []symbols.Symbol
		if sym, ok := n.Type().(symbols.Symbol); ok {
			syms = append(syms, sym)
		}
		return b.bad(syn, bound.NotAValue, syms, n)
	case *bound.NamespaceExpr:
		b.report(diagnostic.NotValidInContext, loc, n.Namespace.QualifiedName(), "namespace")
		return b.bad(syn, bound.NotAValue, []symbols.Symbol{n.Namespace}, n)
	case *bound.Base:
		b.report(diagnostic.BaseUnavailable, loc)
		return b.bad(syn, bound.NotAValue, nil, n)
	}
	switch kind {
	case valueRValue, valueRValueOrMethodGroup:
		switch n := e.(type) {
		case *bound.PropertyAccess:
			if !n.Property.HasGetter() {
				b.report(diagnostic.WriteOnlyProperty, loc, n.Property)
				return b.badTyped(syn, e.Type(), bound.NotAValue, []symbols.Symbol{n.Property}, n)
			}
		case *bound.IndexerAccess:
			if !n.Indexer.HasGetter() {
				b.report(diagnostic.WriteOnlyProperty, loc, n.Indexer)
				return b.badTyped(syn, e.Type(), bound.NotAValue, []symbols.Symbol{n.Indexer}, n)
			}
		}
		if symbols.IsVoid(e.Type()) {
			b.report(diagnostic.VoidValue, loc)
			return b.bad(syn, bound.NotAValue, nil, e)
		}
	case valueAssignable:
		return b.checkAssignable(e)
	case valueRefOrOut:
		return b.checkRefOrOut(e)
	}
	return e
}

func (b *Binder) checkAssignable(e bound.Expr) bound.Expr {
	syn := e.Syntax()
	loc := locOf(syn)
	fail := func(code diagnostic.Code, args ...interface{}) bound.Expr {
		b.report(code, loc, args...)
		return b.badTyped(syn, e.Type(), bound.NotAValue, nil, e)
	}
	switch n := e.(type) {
	case *bound.Local:
		if n.Symbol.IsConst() {
			return fail(diagnostic.AssignmentTarget)
		}
	case *bound.Parameter:
	case *bound.RangeVariable:
		return fail(diagnostic.QueryRangeVariableRO, n.Symbol.Name())
	case *bound.FieldAccess:
		switch {
		case n.Field.IsConst():
			return fail(diagnostic.AssignmentTarget)
		case n.Field.IsReadOnly():
			return fail(diagnostic.ReadOnlyField, n.Field)
		}
	case *bound.PropertyAccess:
		if !n.Property.HasSetter() {
			return fail(diagnostic.ReadOnlyProperty, n.Property)
		}
	case *bound.IndexerAccess:
		if !n.Indexer.HasSetter() {
			return fail(diagnostic.ReadOnlyProperty, n.Indexer)
		}
	case *bound.ArrayAccess, *bound.PointerIndirection, *bound.EventAccess,
		*bound.DynamicMemberAccess, *bound.DynamicIndexerAccess:
	default:
		return fail(diagnostic.AssignmentTarget)
	}
	return e
}

func (b *Binder) checkRefOrOut(e bound.Expr) bound.Expr {
	syn := e.Syntax()
	loc := locOf(syn)
	switch n := e.(type) {
	case *bound.Local:
		if !n.Symbol.IsConst() {
			return e
		}
	case *bound.Parameter, *bound.ArrayAccess, *bound.PointerIndirection:
		return e
	case *bound.RangeVariable:
		b.report(diagnostic.QueryRangeVariableRO, loc, n.Symbol.Name())
		return b.badTyped(syn, e.Type(), bound.NotAValue, nil, e)
	case *bound.FieldAccess:
		if !n.Field.IsConst() && !n.Field.IsReadOnly() {
			return e
		}
	}
	b.report(diagnostic.RefLvalueExpected, loc)
	return b.badTyped(syn, e.Type(), bound.NotAValue, nil, e)
}

// classify returns the implicit conversion from expression e to target.
// Unlike a conversion between types it accounts for lambdas, method
// groups, the null literal and constant values.
func (b *Binder) classify(e bound.Expr, target symbols.Type) conversion.Conversion {
	switch n := e.(type) {
	case *bound.UnboundLambda:
		if st, ok := n.State.(*lambdaState); ok && st.convertible(target) {
			return conversion.Of(conversion.AnonymousFunction)
		}
		return conversion.NoConversion
	case *bound.MethodGroup:
		if m := b.methodGroupTarget(n, target); m != nil {
			return conversion.Conversion{Kind: conversion.MethodGroup, Method: m}
		}
		return conversion.NoConversion
	}
	if bound.IsNullLiteral(e) {
		return b.conv().ClassifyNull(target)
	}
	if e.Type() == nil {
		return conversion.NoConversion
	}
	if c := e.Constant(); c != nil {
		return b.conv().ClassifyConstant(c.Value, e.Type(), target)
	}
	return b.conv().ClassifyImplicit(e.Type(), target)
}

// convertImplicit converts e to target, reporting when no implicit
// conversion exists.
func (b *Binder) convertImplicit(e bound.Expr, target symbols.Type) bound.Expr {
	if target == nil {
		return e
	}
	if symbols.IsErrorType(target) {
		return b.bindToNothing(e)
	}
	syn := e.Syntax()
	switch n := e.(type) {
	case *bound.UnboundLambda:
		st, ok := n.State.(*lambdaState)
		if !ok {
			invariant("unexpected lambda state %T", n.State)
		}
		return st.bindTo(target, locOf(syn))
	case *bound.MethodGroup:
		return b.convertMethodGroup(n, target)
	}
	if e.Type() != nil && symbols.IsErrorType(e.Type()) {
		return e
	}
	conv := b.classify(e, target)
	if !conv.IsImplicit() {
		if !e.HasErrors() {
			b.reportConversion(e, target)
		}
		return bound.New(&bound.Conversion{Operand: e, Conversion: conv}, syn, target, bound.Errors())
	}
	return b.applyConversion(e, conv, target, false, syn)
}

func (b *Binder) reportConversion(e bound.Expr, target symbols.Type) {
	loc := locOf(e.Syntax())
	switch {
	case bound.IsNullLiteral(e):
		b.report(diagnostic.NullToValueType, loc, target)
	case e.Type() == nil:
		b.report(diagnostic.NoImplicitConversion, loc, typeString(e), target)
	case b.conv().ClassifyExplicit(e.Type(), target).Exists():
		b.report(diagnostic.NoImplicitConversionCast, loc, e.Type(), target)
	default:
		b.report(diagnostic.NoImplicitConversion, loc, e.Type(), target)
	}
}

// applyConversion wraps e in the conversion conv to target.  Identity
// conversions between identical types are elided.
func (b *Binder) applyConversion(e bound.Expr, conv conversion.Conversion, target symbols.Type, explicit bool, syn syntax.Node) bound.Expr {
	switch n := e.(type) {
	case *bound.UnboundLambda, *bound.MethodGroup:
		inner := b.convertImplicit(n, target)
		if !explicit {
			return inner
		}
		return bound.New(&bound.Conversion{Operand: inner, Conversion: conversion.Of(conversion.Identity), Explicit: true}, syn, target)
	}
	if !explicit && conv.IsIdentity() && symbols.Identical(e.Type(), target) {
		return e
	}
	var opts []bound.Option
	if c := e.Constant(); c != nil {
		if v, ok := foldConversion(c.Value, target); ok {
			opts = append(opts, bound.Constant(v))
		}
	}
	return bound.New(&bound.Conversion{Operand: e, Conversion: conv, Explicit: explicit}, syn, target, opts...)
}

// foldConversion converts the constant v to its representation as a
// constant of type target.
func foldConversion(v interface{}, target symbols.Type) (interface{}, bool) {
	if v == nil {
		return nil, target.IsReferenceType() || symbols.IsNullable(target)
	}
	nt, ok := target.(*symbols.NamedType)
	if !ok {
		return nil, false
	}
	if nt.TypeKind() == symbols.TypeEnum && nt.EnumUnderlyingType() != nil {
		nt = nt.EnumUnderlyingType()
	}
	switch st := nt.SpecialType(); {
	case st.IsNumeric(), st == symbols.SpecialChar, st == symbols.SpecialBoolean, st == symbols.SpecialString:
		return symbols.ConvertConstant(v, st)
	}
	return nil, false
}

// convertMethodGroup converts a method group to a delegate type.
func (b *Binder) convertMethodGroup(g *bound.MethodGroup, target symbols.Type) bound.Expr {
	syn := g.Syntax()
	if symbols.DelegateInvoke(target) == nil {
		b.report(diagnostic.MethodGroupToNonDelegate, locOf(syn), g.Name, target)
		return b.badTyped(syn, target, bound.NotAValue, methodSymbols(g.Methods), g)
	}
	m := b.methodGroupTarget(g, target)
	if m == nil {
		b.report(diagnostic.NoMethodMatchesDelegate, locOf(syn), g.Name, target)
		return b.badTyped(syn, target, bound.OverloadResolutionFailure, methodSymbols(g.Methods), g)
	}
	if m.IsStatic() {
		g = bound.New(&bound.MethodGroup{
			Name:       g.Name,
			Methods:    g.Methods,
			TypeArgs:   g.TypeArgs,
			ResultKind: g.ResultKind,
		}, syn, nil)
	}
	return bound.New(&bound.DelegateCreation{Argument: g, Method: m}, syn, target)
}

// methodGroupTarget returns the method of g that a delegate of type target
// would bind to, or nil.
func (b *Binder) methodGroupTarget(g *bound.MethodGroup, target symbols.Type) *symbols.Method {
	invoke := symbols.DelegateInvoke(target)
	if invoke == nil || len(g.Methods) == 0 {
		return nil
	}
	args := newArguments()
	defer args.Free()
	for _, p := range invoke.Parameters() {
		args.Add(placeholder(p.Type()), "", syntax.Location{}, p.RefKind())
	}
	res := b.resolve(methodCandidates(g.Methods), g.TypeArgs, args)
	if res.Kind != bound.Viable {
		return nil
	}
	best := res.Best
	for _, c := range best.Conversions {
		if !c.IsIdentity() && c.Kind != conversion.ImplicitReference {
			return nil
		}
	}
	m := best.Method
	switch {
	case invoke.IsVoid():
		if !m.IsVoid() {
			return nil
		}
	case m.IsVoid():
		return nil
	default:
		c := b.conv().ClassifyImplicit(m.ReturnType(), invoke.ReturnType())
		if !c.IsIdentity() && c.Kind != conversion.ImplicitReference {
			return nil
		}
	}
	return m
}

// placeholder stands for a value of type t in speculative resolution.
func placeholder(t symbols.Type) bound.Expr {
	return bound.New(&bound.Default{}, nil, t)
}

func (b *Binder) bindCast(x *syntax.Cast) bound.Expr {
	target := b.bindType(x.Type)
	operand := b.bindValue(x.X, valueRValueOrMethodGroup)
	return b.convertExplicit(operand, target, x)
}

// convertExplicit converts e to target as a cast would.
func (b *Binder) convertExplicit(e bound.Expr, target symbols.Type, syn syntax.Node) bound.Expr {
	if symbols.IsErrorType(target) {
		return b.bad(syn, bound.NotAValue, nil, b.bindToNothing(e))
	}
	switch e.(type) {
	case *bound.UnboundLambda, *bound.MethodGroup:
		return b.applyConversion(e, conversion.Of(conversion.Identity), target, true, syn)
	}
	if e.Type() != nil && symbols.IsErrorType(e.Type()) {
		return bound.New(&bound.Conversion{Operand: e, Explicit: true}, syn, target, bound.Errors())
	}
	var conv conversion.Conversion
	switch {
	case bound.IsNullLiteral(e):
		conv = b.conv().ClassifyNull(target)
	case e.Type() == nil:
	case e.Constant() != nil:
		conv = b.conv().ClassifyConstant(e.Constant().Value, e.Type(), target)
		if !conv.Exists() {
			conv = b.conv().ClassifyExplicit(e.Type(), target)
		}
	default:
		conv = b.conv().Classify(e.Type(), target)
	}
	if !conv.Exists() {
		if !e.HasErrors() {
			b.report(diagnostic.NoExplicitConversion, locOf(syn), typeString(e), target)
		}
		return bound.New(&bound.Conversion{Operand: e, Conversion: conv, Explicit: true}, syn, target, bound.Errors())
	}
	if c := e.Constant(); c != nil && c.Value != nil && conv.IsExplicit() {
		if st := symbols.Special(target); st.IsIntegral() && !constantFitsAfterCast(c.Value, st) {
			b.report(diagnostic.ConstantOverflow, locOf(syn))
			return bound.New(&bound.Conversion{Operand: e, Conversion: conv, Explicit: true}, syn, target, bound.Errors())
		}
	}
	return b.applyConversion(e, conv, target, true, syn)
}

// constantFitsAfterCast reports whether a constant cast to the integral
// type st keeps its value, truncating fractions.
func constantFitsAfterCast(v interface{}, st symbols.SpecialType) bool {
	f, ok := v.(float64)
	if !ok {
		return symbols.ConstantFits(v, st)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	t := math.Trunc(f)
	switch {
	case t < math.MinInt64 || t >= math.MaxUint64:
		return false
	case t < 0:
		return symbols.ConstantFits(int64(t), st)
	}
	return symbols.ConstantFits(uint64(t), st)
}

func methodSymbols(ms []*symbols.Method) []symbols.Symbol {
	out := make([]symbols.Symbol, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
