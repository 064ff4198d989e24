// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

func (b *Binder) bindInvocation(x *syntax.Invocation) bound.Expr {
	fn := b.bindCallee(x.Fn)
	args := b.bindArguments(x.Args)
	defer args.Free()
	if tv, ok := fn.(*bound.TypeOrValue); ok {
		fn = tv.Value
	}
	switch f := fn.(type) {
	case *bound.MethodGroup:
		return b.bindMethodGroupInvocation(x, f, args)
	case *bound.DynamicMemberAccess:
		return b.bindDynamicInvocation(x, f, args, nil)
	}
	if fn.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, append([]bound.Expr{fn}, b.badArguments(args)...)...)
	}
	switch t := fn.Type(); {
	case t == nil:
	case symbols.IsDynamic(t):
		return b.bindDynamicInvocation(x, fn, args, nil)
	case symbols.DelegateInvoke(t) != nil:
		return b.bindDelegateInvocation(x, fn, symbols.DelegateInvoke(t), args)
	}
	b.report(diagnostic.MethodNameExpected, x.Fn.Loc())
	return b.bad(x, bound.NotAValue, nil, append([]bound.Expr{fn}, b.badArguments(args)...)...)
}

// bindCallee binds the expression being invoked.  Names are looked up with
// a preference for invocable members.
func (b *Binder) bindCallee(x syntax.Expr) bound.Expr {
	switch x := syntax.Unparen(x).(type) {
	case *syntax.Identifier:
		return b.bindSimpleName(x, x.Name, nil, x.Source, true)
	case *syntax.GenericName:
		return b.bindSimpleName(x, x.Name, x.TypeArgs, x.Source, true)
	case *syntax.MemberAccess:
		return b.bindMemberAccess(x, true)
	}
	return b.bindValue(x, valueRValue)
}

func (b *Binder) bindDelegateInvocation(syn syntax.Node, fn bound.Expr, invoke *symbols.Method, args *AnalyzedArguments) bound.Expr {
	if args.HasDynamic() {
		return b.bindDynamicInvocation(syn, fn, args, nil)
	}
	res := b.resolve(methodCandidates([]*symbols.Method{invoke}), nil, args)
	if res.Kind != bound.Viable {
		return b.reportOverloadFailure(syn, invoke.ContainingType().String(), res, args, fn)
	}
	return b.finishCall(syn, fn, res.Best, args, nil, false)
}

// bindMethodGroupInvocation resolves a call to a method group.  Extension
// methods are considered only when no method of the group applies.
func (b *Binder) bindMethodGroupInvocation(syn syntax.Node, g *bound.MethodGroup, args *AnalyzedArguments) bound.Expr {
	end := b.trace("resolve", g.Name, locOf(syn))
	defer end()

	res := b.resolve(methodCandidates(g.Methods), g.TypeArgs, args)
	if len(res.Applicable) > 0 {
		if args.HasDynamic() {
			return b.bindDynamicInvocation(syn, g, args, res.applicableMethods())
		}
		if res.Kind == bound.Viable {
			return b.finishCall(syn, g.Receiver, res.Best, args, g.TypeArgs, false)
		}
		return b.reportOverloadFailure(syn, g.Name, res, args, receiverChildren(g)...)
	}

	recv := extensionReceiver(g)
	if recv == nil || !g.SearchExtensions {
		return b.reportGroupFailure(syn, g, res, args)
	}
	ext, extArgs := b.resolveExtension(g, recv, args)
	if extArgs != nil {
		defer extArgs.Free()
	}
	if ext != nil && len(ext.Applicable) > 0 {
		if args.HasDynamic() {
			b.report(diagnostic.DynamicExtension, locOf(syn), recv.Type(), g.Name)
			return b.bad(syn, bound.OverloadResolutionFailure, methodSymbols(ext.applicableMethods()), append([]bound.Expr{recv}, b.badArguments(args)...)...)
		}
		if ext.Kind == bound.Viable {
			return b.finishCall(syn, nil, ext.Best, extArgs, g.TypeArgs, true)
		}
		return b.reportOverloadFailure(syn, g.Name, ext, extArgs)
	}
	// Neither lookup produced an applicable method: the less bad failure is
	// reported, the ordinary one on a tie.
	ordinaryKind := res.Kind
	if len(g.Methods) == 0 {
		ordinaryKind = g.ResultKind
	}
	if ext != nil && ext.Kind.IsBetterThan(ordinaryKind) {
		return b.reportOverloadFailure(syn, g.Name, ext, extArgs)
	}
	return b.reportGroupFailure(syn, g, res, args)
}

// reportGroupFailure reports a call to a group with no applicable method.
func (b *Binder) reportGroupFailure(syn syntax.Node, g *bound.MethodGroup, res *OverloadResult, args *AnalyzedArguments) bound.Expr {
	if len(g.Methods) > 0 {
		return b.reportOverloadFailure(syn, g.Name, res, args, receiverChildren(g)...)
	}
	children := append(receiverChildren(g), b.badArguments(args)...)
	if g.HasErrors() {
		return b.bad(syn, g.ResultKind, nil, children...)
	}
	recv := g.Receiver
	if tv, ok := recv.(*bound.TypeOrValue); ok {
		recv = tv.Value
	}
	loc := locOf(g.Syntax())
	if ma, ok := g.Syntax().(*syntax.MemberAccess); ok && ma.NameLoc.IsValid() {
		loc = ma.NameLoc
	}
	switch {
	case recv == nil:
		b.report(diagnostic.NameNotFound, loc, g.Name)
	case g.ResultKind != bound.Empty:
		r := b.lookupMembers(recv.Type(), g.Name, len(g.TypeArgs), memberLookupOptions(len(g.TypeArgs), true), recv.Type(), loc)
		if r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.MemberNotFound, loc, recv.Type(), g.Name)
		}
		r.Free()
	case isTypeReceiver(recv):
		b.report(diagnostic.MemberNotFound, loc, recv.Type(), g.Name)
	default:
		b.report(diagnostic.ExtensionNotFound, loc, recv.Type(), g.Name, g.Name, recv.Type())
	}
	return b.bad(syn, g.ResultKind, nil, children...)
}

func receiverChildren(g *bound.MethodGroup) []bound.Expr {
	if g.Receiver == nil {
		return nil
	}
	if _, ok := g.Receiver.(*bound.This); ok {
		return nil
	}
	return []bound.Expr{g.Receiver}
}

// extensionReceiver returns the value an extension method would be called
// on, or nil when the group's receiver is not a value.
func extensionReceiver(g *bound.MethodGroup) bound.Expr {
	switch r := g.Receiver.(type) {
	case nil, *bound.TypeExpr, *bound.NamespaceExpr, *bound.Base:
		return nil
	case *bound.TypeOrValue:
		return r.Value
	case *bound.This:
		if r.Implicit {
			return nil
		}
	}
	if g.Receiver.Type() == nil || symbols.IsErrorType(g.Receiver.Type()) {
		return nil
	}
	return g.Receiver
}

func isTypeReceiver(e bound.Expr) bool {
	_, ok := e.(*bound.TypeExpr)
	return ok
}

// resolveExtension searches the extension method scopes from the
// innermost outward and stops at the first with an applicable method.
// Only methods whose first parameter accepts the receiver are candidates.
// When nothing applies, the result of the first scope with candidates is
// returned.  The returned argument list carries the receiver first.
func (b *Binder) resolveExtension(g *bound.MethodGroup, recv bound.Expr, args *AnalyzedArguments) (*OverloadResult, *AnalyzedArguments) {
	var first *OverloadResult
	var firstArgs *AnalyzedArguments
	for _, group := range b.extensionScopes() {
		var eligible []*symbols.Method
		for _, m := range b.extensionMethods(group, g.Name, len(g.TypeArgs)) {
			if b.receiverEligible(m, recv.Type(), g.TypeArgs) {
				eligible = append(eligible, m)
			}
		}
		if len(eligible) == 0 {
			continue
		}
		eargs := args.withReceiver(recv)
		res := b.resolve(methodCandidates(eligible), g.TypeArgs, eargs)
		if len(res.Applicable) > 0 {
			if firstArgs != nil {
				firstArgs.Free()
			}
			return res, eargs
		}
		if first == nil {
			first, firstArgs = res, eargs
			continue
		}
		eargs.Free()
	}
	return first, firstArgs
}

// receiverEligible reports whether recv converts to the first parameter of
// the extension method m by identity, reference or boxing conversion.
func (b *Binder) receiverEligible(m *symbols.Method, recv symbols.Type, typeArgs []symbols.Type) bool {
	if len(m.Parameters()) == 0 {
		return false
	}
	var first symbols.Type
	if len(typeArgs) > 0 {
		first = m.Construct(typeArgs).Parameters()[0].Type()
	} else {
		t, ok := b.inferFromReceiver(m, recv)
		if !ok {
			return false
		}
		first = t
	}
	return isReceiverConversion(b.conv().ClassifyImplicit(recv, first))
}

// bindDynamicInvocation binds a call dispatched at run time.  applicable
// holds the statically applicable methods when fn is a method group.
func (b *Binder) bindDynamicInvocation(syn syntax.Node, fn bound.Expr, args *AnalyzedArguments, applicable []*symbols.Method) bound.Expr {
	out := b.dynamicArguments(args)
	if g, ok := fn.(*bound.MethodGroup); ok {
		recv := g.Receiver
		if tv, ok := recv.(*bound.TypeOrValue); ok {
			recv = tv.Value
		}
		fn = bound.New(&bound.MethodGroup{
			Receiver:   recv,
			Name:       g.Name,
			Methods:    g.Methods,
			TypeArgs:   g.TypeArgs,
			ResultKind: bound.Viable,
		}, g.Syntax(), nil)
	}
	if dm, ok := fn.(*bound.DynamicMemberAccess); ok && !dm.Invoked {
		fn = bound.New(&bound.DynamicMemberAccess{Receiver: dm.Receiver, Name: dm.Name, TypeArgs: dm.TypeArgs, Invoked: true}, dm.Syntax(), dm.Type())
	}
	return bound.New(&bound.DynamicInvocation{
		Expression: fn,
		Args:       out,
		Names:      args.names(),
		RefKinds:   args.refKinds(),
		Applicable: applicable,
	}, syn, b.table().Dynamic())
}

// dynamicArguments checks that every argument can be passed to a
// dynamically dispatched operation.
func (b *Binder) dynamicArguments(args *AnalyzedArguments) []bound.Expr {
	out := make([]bound.Expr, args.Len())
	for i, a := range args.Args {
		out[i] = b.dynamicOperand(a)
	}
	return out
}

func (b *Binder) dynamicOperand(a bound.Expr) bound.Expr {
	loc := locOf(a.Syntax())
	switch a.(type) {
	case *bound.UnboundLambda:
		b.report(diagnostic.DynamicLambdaArgument, loc)
		return b.bad(a.Syntax(), bound.NotAValue, nil, b.bindToNothing(a))
	case *bound.MethodGroup:
		b.report(diagnostic.DynamicMethodGroupArgument, loc)
		return b.bad(a.Syntax(), bound.NotAValue, nil, a)
	}
	t := a.Type()
	if t == nil || a.HasErrors() {
		return a
	}
	if symbols.IsVoid(t) || t.TypeKind() == symbols.TypePointer || isRestricted(t) {
		b.report(diagnostic.DynamicBadArgument, loc, t)
		return b.badTyped(a.Syntax(), t, bound.NotAValue, nil, a)
	}
	return a
}

func isRestricted(t symbols.Type) bool {
	nt, ok := t.(*symbols.NamedType)
	return ok && nt.IsRestricted()
}

// finishCall builds the call to the winner of overload resolution after
// the checks that only apply to the method finally chosen.
func (b *Binder) finishCall(syn syntax.Node, recv bound.Expr, best *MemberAnalysis, args *AnalyzedArguments, typeArgs []symbols.Type, extension bool) bound.Expr {
	m := best.Method
	if tv, ok := recv.(*bound.TypeOrValue); ok {
		if m.IsStatic() {
			recv = tv.TypeExpr
		} else {
			recv = tv.Value
		}
	}
	ok := b.validateCall(syn, recv, best, extension)
	converted := b.convertArguments(best, args)
	switch {
	case extension:
		recv = nil
	case m.IsStatic():
		if _, isType := recv.(*bound.TypeExpr); isType || isImplicitThis(recv) {
			recv = nil
		}
	}
	call := bound.New(&bound.Call{
		Arguments: bound.Arguments{
			Args:         converted,
			Names:        args.names(),
			RefKinds:     args.refKinds(),
			ArgsToParams: best.argsToParams(),
			Expanded:     best.Expanded,
		},
		Receiver:           recv,
		Method:             m,
		InvokedAsExtension: extension,
		ExplicitTypeArgs:   len(typeArgs) > 0,
	}, syn, m.ReturnType())
	if !ok {
		return bound.WithErrors[bound.Call](call)
	}
	return call
}

func isImplicitThis(e bound.Expr) bool {
	t, ok := e.(*bound.This)
	return ok && t.Implicit
}

// convertArguments converts each argument to the parameter type it was
// matched with.
func (b *Binder) convertArguments(best *MemberAnalysis, args *AnalyzedArguments) []bound.Expr {
	out := make([]bound.Expr, args.Len())
	for i, a := range args.Args {
		pt := best.ParamTypes[i]
		switch n := a.(type) {
		case *bound.UnboundLambda:
			out[i] = n.State.(*lambdaState).bindTo(pt, argumentLocation(args, i))
			continue
		case *bound.MethodGroup:
			out[i] = b.convertMethodGroup(n, pt)
			continue
		}
		if rk := args.RefKind(i); rk == syntax.RefRef || rk == syntax.RefOut {
			out[i] = a
			continue
		}
		out[i] = b.applyConversion(a, best.Conversions[i], pt, false, a.Syntax())
	}
	return out
}

// validateCall checks the method chosen by overload resolution: static
// and instance access, protected access through the receiver, pointer
// types outside an unsafe context and type argument constraints.
func (b *Binder) validateCall(syn syntax.Node, recv bound.Expr, best *MemberAnalysis, extension bool) bool {
	m := best.Method
	loc := locOf(syn)
	if ma, ok := syn.(*syntax.Invocation); ok {
		if acc, ok := ma.Fn.(*syntax.MemberAccess); ok && acc.NameLoc.IsValid() {
			loc = acc.NameLoc
		}
	}
	ok := true
	if !extension && m.MethodKind() != symbols.MethodConstructor && m.MethodKind() != symbols.MethodDelegateInvoke {
		switch {
		case m.IsStatic() && recv != nil && !isTypeReceiver(recv) && !isImplicitThis(recv):
			b.report(diagnostic.InstanceAsStatic, loc, m)
			ok = false
		case !m.IsStatic() && (recv == nil || isTypeReceiver(recv)):
			b.report(diagnostic.ObjectRequired, loc, m)
			ok = false
		}
	}
	if ok && !m.IsStatic() && recv != nil && !isImplicitThis(recv) && recv.Type() != nil {
		switch m.Accessibility() {
		case symbols.Protected, symbols.ProtectedInternal:
			if within := b.containingType(); within != nil && !b.table().IsDerivedFromDefinition(recv.Type(), within) &&
				!b.table().IsAccessible(m, within, recv.Type()) {
				b.report(diagnostic.BadProtectedAccess, loc, m, recv.Type(), within)
				ok = false
			}
		}
	}
	if !b.inUnsafe() {
		unsafe := symbols.IsUnsafe(m.ReturnType())
		for _, p := range m.Parameters() {
			unsafe = unsafe || symbols.IsUnsafe(p.Type())
		}
		if unsafe {
			b.report(diagnostic.UnsafeNeeded, loc)
			ok = false
		}
	}
	if m.IsConstructed() && !b.checkConstraints(loc, m) {
		ok = false
	}
	return ok
}

// checkConstraints checks the type arguments of a constructed method
// against the constraints of its type parameters.
func (b *Binder) checkConstraints(loc syntax.Location, m *symbols.Method) bool {
	tps := m.TypeParameters()
	targs := m.TypeArguments()
	def := m.OriginalDefinition()
	subst := symbols.NewSubstitution(tps, targs)
	ok := true
	for i, tp := range tps {
		arg := targs[i]
		if symbols.IsErrorType(arg) {
			continue
		}
		switch {
		case tp.ReferenceConstraint && !arg.IsReferenceType():
			b.report(diagnostic.ConstraintReferenceType, loc, arg, tp, def)
			ok = false
			continue
		case tp.ValueConstraint && (!arg.IsValueType() || symbols.IsNullable(arg)):
			b.report(diagnostic.ConstraintValueType, loc, arg, tp, def)
			ok = false
			continue
		}
		for _, ct := range tp.ConstraintTypes {
			want := subst.Apply(ct)
			if !isReceiverConversion(b.conv().ClassifyImplicit(arg, want)) {
				b.report(diagnostic.ConstraintType, loc, arg, tp, def, arg, want)
				ok = false
			}
		}
		if tp.ConstructorConstraint && !b.hasDefaultConstructor(arg) {
			b.report(diagnostic.ConstraintNew, loc, arg, tp, def)
			ok = false
		}
	}
	return ok
}

// hasDefaultConstructor reports whether new T() is allowed for t.
func (b *Binder) hasDefaultConstructor(t symbols.Type) bool {
	if t.IsValueType() {
		return true
	}
	switch t := t.(type) {
	case *symbols.TypeParameter:
		return t.ConstructorConstraint || t.ValueConstraint
	case *symbols.NamedType:
		if t.IsAbstract() || t.TypeKind() != symbols.TypeClass {
			return false
		}
		for _, m := range t.MembersNamed(symbols.ConstructorName) {
			if ctor, ok := m.(*symbols.Method); ok && len(ctor.Parameters()) == 0 && ctor.Accessibility() == symbols.Public {
				return true
			}
		}
	}
	return false
}
