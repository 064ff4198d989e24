// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// bindObjectCreation binds new T(args).
func (b *Binder) bindObjectCreation(x *syntax.ObjectCreation) bound.Expr {
	t := b.bindType(x.Type)
	args := b.bindArguments(x.Args)
	defer args.Free()
	fail := func(code diagnostic.Code, v ...interface{}) bound.Expr {
		if code != "" {
			b.report(code, x.Type.Loc(), v...)
		}
		return b.badTyped(x, t, bound.NotAValue, nil, b.badArguments(args)...)
	}
	switch typ := t.(type) {
	case *symbols.ErrorType:
		return fail("")
	case *symbols.DynamicType:
		return fail(diagnostic.NoConstructors, t)
	case *symbols.TypeParameter:
		if !typ.ConstructorConstraint && !typ.ValueConstraint {
			return fail(diagnostic.ConstraintNew, t, typ.Name(), "new()")
		}
		if args.Len() > 0 {
			return fail(diagnostic.NoOverloadForArgCount, t, args.Len())
		}
		return bound.New(&bound.ObjectCreation{}, x, t)
	case *symbols.NamedType:
		switch {
		case typ.TypeKind() == symbols.TypeDelegate:
			return b.bindDelegateCreation(x, typ, args)
		case typ.IsStaticClass():
			// static classes are also abstract
			return fail(diagnostic.StaticInstantiation, t)
		case typ.TypeKind() == symbols.TypeInterface || typ.IsAbstract():
			return fail(diagnostic.AbstractInstantiation, t)
		}
		return b.bindConstructorCall(x, typ, args)
	}
	return fail(diagnostic.NoConstructors, t)
}

// bindDelegateCreation binds new D(f) for a lambda, method group or
// delegate value f.
func (b *Binder) bindDelegateCreation(x *syntax.ObjectCreation, d *symbols.NamedType, args *AnalyzedArguments) bound.Expr {
	if args.Len() != 1 || args.HasNames() {
		b.report(diagnostic.NoOverloadForArgCount, x.Type.Loc(), d, args.Len())
		return b.badTyped(x, d, bound.WrongArity, nil, b.badArguments(args)...)
	}
	e := b.convertImplicit(args.Args[0], d)
	if dc, ok := e.(*bound.DelegateCreation); ok {
		return bound.New(&bound.DelegateCreation{Argument: dc.Argument, Method: dc.Method}, x, d)
	}
	return bound.New(&bound.DelegateCreation{Argument: e}, x, d)
}

// bindConstructorCall resolves the constructor of t for args.  A struct
// without a matching declared constructor is zero-initialized when no
// arguments are given.
func (b *Binder) bindConstructorCall(x *syntax.ObjectCreation, t *symbols.NamedType, args *AnalyzedArguments) bound.Expr {
	loc := x.Type.Loc()
	r := b.lookupMembers(t, symbols.ConstructorName, 0, AllMethodsOnArityZero, nil, loc)
	defer r.Free()
	ctors, _ := r.methods()
	if !r.IsViable() || len(ctors) == 0 {
		if t.IsValueType() && args.Len() == 0 {
			return bound.New(&bound.Default{}, x, t)
		}
		if r.Kind != bound.Empty && r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.NoConstructors, loc, t)
		}
		return b.badTyped(x, t, r.Kind, r.SymbolsCopy(), b.badArguments(args)...)
	}
	res := b.resolve(methodCandidates(ctors), nil, args)
	if len(res.Applicable) > 0 && args.HasDynamic() {
		return bound.New(&bound.DynamicObjectCreation{
			Args:       b.dynamicArguments(args),
			Names:      args.names(),
			Applicable: res.applicableMethods(),
		}, x, t)
	}
	if res.Kind != bound.Viable {
		if t.IsValueType() && args.Len() == 0 {
			return bound.New(&bound.Default{}, x, t)
		}
		e := b.reportOverloadFailure(x, t.Name(), res, args)
		return b.badTyped(x, t, res.Kind, res.candidateSymbols(), e)
	}
	best := res.Best
	ok := b.validateCall(x, nil, best, false)
	node := bound.New(&bound.ObjectCreation{
		Arguments: bound.Arguments{
			Args:         b.convertArguments(best, args),
			Names:        args.names(),
			RefKinds:     args.refKinds(),
			ArgsToParams: best.argsToParams(),
			Expanded:     best.Expanded,
		},
		Constructor: best.Method,
	}, x, t)
	if !ok {
		return bound.WithErrors[bound.ObjectCreation](node)
	}
	return node
}

// bindAnonymousObject binds new { ... }.  Members without a name take the
// name of the simple name or member access they project.
func (b *Binder) bindAnonymousObject(x *syntax.AnonymousObjectCreation) bound.Expr {
	n := len(x.Members)
	args := make([]bound.Expr, 0, n)
	names := make([]string, 0, n)
	fields := make([]symbols.AnonymousField, 0, n)
	seen := make(map[string]bool, n)
	failed := false
	for _, m := range x.Members {
		v := b.bindValue(m.Value, valueRValueOrMethodGroup)
		name, loc := m.Name, m.NameLoc
		if name == "" {
			name, loc = projectionName(m.Value), m.Value.Loc()
		}
		switch t := v.Type(); {
		case name == "":
			b.report(diagnostic.AnonymousBadMember, m.Value.Loc())
			failed = true
		case seen[name]:
			b.report(diagnostic.AnonymousDuplicateName, loc)
			failed = true
		case v.HasErrors():
			failed = true
		case t == nil || symbols.IsVoid(t) || t.TypeKind() == symbols.TypePointer || isRestricted(t):
			b.report(diagnostic.AnonymousBadValue, m.Value.Loc(), typeString(v))
			v = b.bindToNothing(v)
			failed = true
		}
		seen[name] = true
		args = append(args, v)
		names = append(names, name)
		fields = append(fields, symbols.AnonymousField{Name: name, Type: v.Type()})
	}
	if failed {
		return b.bad(x, bound.NotAValue, nil, args...)
	}
	at := b.table().AnonymousType(fields)
	var ctor *symbols.Method
	for _, sym := range at.MembersNamed(symbols.ConstructorName) {
		if m, ok := sym.(*symbols.Method); ok {
			ctor = m
		}
	}
	if ctor == nil {
		invariant("anonymous type %s has no constructor", at)
	}
	return bound.New(&bound.AnonymousObjectCreation{Constructor: ctor, Args: args, Names: names}, x, at)
}

// projectionName returns the member name an anonymous object projection
// of x implies, or "".
func projectionName(x syntax.Expr) string {
	switch x := syntax.Unparen(x).(type) {
	case *syntax.Identifier:
		return x.Name
	case *syntax.MemberAccess:
		return x.Name
	}
	return ""
}

// bindArrayCreation binds new T[n], new T[] { ... } and new[] { ... }.
func (b *Binder) bindArrayCreation(x *syntax.ArrayCreation) bound.Expr {
	if x.Elem == nil {
		return b.bindImplicitArray(x)
	}
	elem := b.bindType(x.Elem)
	rank := x.Rank
	if rank < 1 {
		rank = 1
	}
	typ := symbols.NewArrayType(elem, rank)
	sizes := make([]bound.Expr, len(x.Sizes))
	for i, s := range x.Sizes {
		sizes[i] = b.convertIndex(b.bindValue(s, valueRValue))
	}
	var init *bound.ArrayInitializer
	var opts []bound.Option
	if x.HasInit {
		init = b.bindArrayInit(x, x.Init, elem)
		if len(sizes) == 1 {
			if c := sizes[0].Constant(); c != nil && !constantLength(c.Value, len(init.Items)) {
				b.report(diagnostic.ArrayInitLength, x.Source, len(init.Items))
				opts = append(opts, bound.Errors())
			}
		}
	}
	return bound.New(&bound.ArrayCreation{Sizes: sizes, Init: init}, x, typ, opts...)
}

func constantLength(v interface{}, n int) bool {
	switch v := v.(type) {
	case int64:
		return v == int64(n)
	case uint64:
		return v == uint64(n)
	}
	return true
}

func (b *Binder) bindArrayInit(syn syntax.Node, items []syntax.Expr, elem symbols.Type) *bound.ArrayInitializer {
	out := make([]bound.Expr, len(items))
	for i, it := range items {
		out[i] = b.convertImplicit(b.bindValue(it, valueRValueOrMethodGroup), elem)
	}
	return bound.New(&bound.ArrayInitializer{Items: out}, syn, nil)
}

// bindImplicitArray binds new[] { ... }, whose element type is the best
// common type of the elements.
func (b *Binder) bindImplicitArray(x *syntax.ArrayCreation) bound.Expr {
	items := make([]bound.Expr, len(x.Init))
	for i, it := range x.Init {
		items[i] = b.bindValue(it, valueRValueOrMethodGroup)
	}
	elem := b.bestCommonType(items)
	if elem == nil {
		failed := false
		for _, it := range items {
			failed = failed || it.HasErrors()
		}
		if !failed {
			b.report(diagnostic.NoBestArrayType, x.Source)
		}
		children := make([]bound.Expr, len(items))
		for i, it := range items {
			children[i] = b.bindToNothing(it)
		}
		return b.bad(x, bound.NotAValue, nil, children...)
	}
	for i, it := range items {
		items[i] = b.convertImplicit(it, elem)
	}
	init := bound.New(&bound.ArrayInitializer{Items: items}, x, nil)
	return bound.New(&bound.ArrayCreation{Init: init}, x, symbols.NewArrayType(elem, 1))
}

// bestCommonType returns the type among the item types that every item
// converts to implicitly and that all other such types convert to.
func (b *Binder) bestCommonType(items []bound.Expr) symbols.Type {
	var candidates []symbols.Type
	for _, it := range items {
		t := it.Type()
		if t == nil {
			continue
		}
		if symbols.IsErrorType(t) {
			return nil
		}
		dup := false
		for _, c := range candidates {
			dup = dup || symbols.Identical(c, t)
		}
		if !dup {
			candidates = append(candidates, t)
		}
	}
	var fit []symbols.Type
	for _, c := range candidates {
		ok := true
		for _, it := range items {
			if !b.classify(it, c).IsImplicit() {
				ok = false
				break
			}
		}
		if ok {
			fit = append(fit, c)
		}
	}
	for _, c := range fit {
		best := true
		for _, o := range fit {
			if o != c && !b.conv().ClassifyImplicit(o, c).Exists() {
				best = false
				break
			}
		}
		if best {
			return c
		}
	}
	return nil
}

var indexTypes = []symbols.SpecialType{
	symbols.SpecialInt32, symbols.SpecialUInt32, symbols.SpecialInt64, symbols.SpecialUInt64,
}

// convertIndex converts an array size or index to the first of int,
// uint, long and ulong it converts to implicitly.
func (b *Binder) convertIndex(e bound.Expr) bound.Expr {
	if e.HasErrors() {
		return e
	}
	for _, st := range indexTypes {
		t := b.special(st)
		if t != nil && b.classify(e, t).IsImplicit() {
			return b.convertImplicit(e, t)
		}
	}
	return b.convertImplicit(e, b.special(symbols.SpecialInt32))
}

// bindElementAccess binds x[args] over arrays, pointers, indexers and
// dynamic receivers.
func (b *Binder) bindElementAccess(x *syntax.ElementAccess) bound.Expr {
	recv := b.bindValue(x.X, valueRValue)
	args := b.bindArguments(x.Args)
	defer args.Free()
	if recv.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(args)...)...)
	}
	switch t := recv.Type().(type) {
	case nil:
	case *symbols.DynamicType:
		return bound.New(&bound.DynamicIndexerAccess{
			Receiver: recv,
			Args:     b.dynamicArguments(args),
			Names:    args.names(),
		}, x, t)
	case *symbols.ArrayType:
		return b.bindArrayAccess(x, recv, t.Rank, t.Elem, args)
	case *symbols.PointerType:
		if !b.inUnsafe() {
			b.report(diagnostic.UnsafeNeeded, x.Source)
			return b.bad(x, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(args)...)...)
		}
		return b.bindArrayAccess(x, recv, 1, t.Elem, args)
	default:
		return b.bindIndexerAccess(x, recv, args)
	}
	b.report(diagnostic.BadIndexTarget, x.Source, typeString(recv))
	return b.bad(x, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(args)...)...)
}

func (b *Binder) bindArrayAccess(x *syntax.ElementAccess, recv bound.Expr, rank int, elem symbols.Type, args *AnalyzedArguments) bound.Expr {
	if args.HasNames() {
		b.report(diagnostic.BadNamedArgument, x.Source, "[]", args.Name(0))
		return b.badTyped(x, elem, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(args)...)...)
	}
	if args.Len() != rank {
		b.report(diagnostic.BadIndexCount, x.Source, rank)
		return b.badTyped(x, elem, bound.NotAValue, nil, append([]bound.Expr{recv}, b.badArguments(args)...)...)
	}
	indices := make([]bound.Expr, args.Len())
	for i, a := range args.Args {
		indices[i] = b.convertIndex(b.checkValue(a, valueRValue))
	}
	return bound.New(&bound.ArrayAccess{Array: recv, Indices: indices}, x, elem)
}

// bindIndexerAccess resolves the indexers of the receiver's type.
func (b *Binder) bindIndexerAccess(x *syntax.ElementAccess, recv bound.Expr, args *AnalyzedArguments) bound.Expr {
	t := recv.Type()
	r := b.lookupMembers(t, symbols.IndexerName, 0, 0, t, x.Source)
	defer r.Free()
	if !r.IsViable() {
		if r.Kind != bound.Empty && r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.BadIndexTarget, x.Source, t)
		}
		return b.bad(x, r.Kind, r.SymbolsCopy(), append([]bound.Expr{recv}, b.badArguments(args)...)...)
	}
	var indexers []*symbols.Property
	for _, sym := range r.Symbols {
		if p, ok := sym.(*symbols.Property); ok && p.IsIndexer() {
			indexers = append(indexers, p)
		}
	}
	res := b.resolve(indexerCandidates(indexers), nil, args)
	if len(res.Applicable) > 0 && args.HasDynamic() {
		var applicable []*symbols.Property
		for _, a := range res.Applicable {
			applicable = append(applicable, a.Member.(*symbols.Property))
		}
		return bound.New(&bound.DynamicIndexerAccess{
			Receiver:   recv,
			Args:       b.dynamicArguments(args),
			Names:      args.names(),
			Applicable: applicable,
		}, x, b.table().Dynamic())
	}
	if res.Kind != bound.Viable {
		return b.reportOverloadFailure(x, "this[]", res, args, recv)
	}
	best := res.Best
	p := best.Member.(*symbols.Property)
	return bound.New(&bound.IndexerAccess{
		Arguments: bound.Arguments{
			Args:         b.convertArguments(best, args),
			Names:        args.names(),
			RefKinds:     args.refKinds(),
			ArgsToParams: best.argsToParams(),
			Expanded:     best.Expanded,
		},
		Receiver: recv,
		Indexer:  p,
	}, x, p.Type())
}
