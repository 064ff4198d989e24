// Copyright © 2024 The ELPS authors

package binder

import (
	"math"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// bindExpr binds x without checking how its value is used.
func (b *Binder) bindExpr(x syntax.Expr) bound.Expr {
	switch x := x.(type) {
	case *syntax.Literal:
		return b.bindLiteral(x)
	case *syntax.Identifier:
		return b.bindSimpleName(x, x.Name, nil, x.Source, false)
	case *syntax.GenericName:
		return b.bindSimpleName(x, x.Name, x.TypeArgs, x.Source, false)
	case *syntax.PredefinedType:
		return bound.New(&bound.TypeExpr{}, x, b.bindType(x))
	case *syntax.MemberAccess:
		return b.bindMemberAccess(x, false)
	case *syntax.Invocation:
		return b.bindInvocation(x)
	case *syntax.ElementAccess:
		return b.bindElementAccess(x)
	case *syntax.ImplicitReceiver:
		if b.condReceiver == nil {
			invariant("implicit receiver outside a conditional access at %s", x.Source)
		}
		return b.condReceiver
	case *syntax.ConditionalAccess:
		return b.bindConditionalAccess(x)
	case *syntax.ObjectCreation:
		return b.bindObjectCreation(x)
	case *syntax.ArrayCreation:
		return b.bindArrayCreation(x)
	case *syntax.AnonymousObjectCreation:
		return b.bindAnonymousObject(x)
	case *syntax.Unary:
		return b.bindUnary(x)
	case *syntax.Binary:
		return b.bindBinary(x)
	case *syntax.Conditional:
		return b.bindConditional(x)
	case *syntax.Assignment:
		return b.bindAssignment(x)
	case *syntax.Cast:
		return b.bindCast(x)
	case *syntax.IsType:
		return b.bindIs(x)
	case *syntax.AsType:
		return b.bindAs(x)
	case *syntax.TypeOf:
		return bound.New(&bound.TypeOf{Source: b.bindType(x.Type)}, x, b.special(symbols.SpecialSystemType))
	case *syntax.SizeOf:
		return b.bindSizeOf(x)
	case *syntax.Default:
		return b.bindDefault(x)
	case *syntax.This:
		return b.bindThis(x)
	case *syntax.Base:
		return b.bindBase(x)
	case *syntax.Paren:
		return b.bindExpr(x.X)
	case *syntax.Lambda:
		return b.bindLambda(x)
	case *syntax.Query:
		return b.bindQuery(x)
	}
	invariant("unexpected expression %T", x)
	return nil
}

func (b *Binder) bindLiteral(x *syntax.Literal) bound.Expr {
	var (
		v  interface{}
		st symbols.SpecialType
	)
	switch x.Kind {
	case syntax.LitNull:
		return bound.New(&bound.Literal{}, x, nil, bound.Constant(nil))
	case syntax.LitTrue, syntax.LitFalse:
		v, st = x.Kind == syntax.LitTrue, symbols.SpecialBoolean
	case syntax.LitString:
		v, st = x.Value, symbols.SpecialString
	case syntax.LitChar:
		v, st = x.Value, symbols.SpecialChar
	case syntax.LitReal:
		f, _ := x.Value.(float64)
		switch x.Suffix {
		case "f":
			v, st = float64(float32(f)), symbols.SpecialSingle
		case "m":
			v, st = f, symbols.SpecialDecimal
		default:
			v, st = f, symbols.SpecialDouble
		}
	case syntax.LitInt:
		n, _ := x.Value.(uint64)
		st = integerLiteralType(n, x.Suffix)
		if st.IsSignedIntegral() {
			v = int64(n)
		} else {
			v = n
		}
	default:
		invariant("unexpected literal kind %v", x.Kind)
	}
	return bound.New(&bound.Literal{Value: v}, x, b.special(st), bound.Constant(v))
}

// integerLiteralType picks the first type of the suffix's list that can
// hold n.
func integerLiteralType(n uint64, suffix string) symbols.SpecialType {
	switch suffix {
	case "u":
		if n <= math.MaxUint32 {
			return symbols.SpecialUInt32
		}
		return symbols.SpecialUInt64
	case "l":
		if n <= math.MaxInt64 {
			return symbols.SpecialInt64
		}
		return symbols.SpecialUInt64
	case "ul", "lu":
		return symbols.SpecialUInt64
	}
	switch {
	case n <= math.MaxInt32:
		return symbols.SpecialInt32
	case n <= math.MaxUint32:
		return symbols.SpecialUInt32
	case n <= math.MaxInt64:
		return symbols.SpecialInt64
	}
	return symbols.SpecialUInt64
}

func (b *Binder) bindTypeArgs(ts []syntax.Type) []symbols.Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]symbols.Type, len(ts))
	for i, t := range ts {
		out[i] = b.bindType(t)
	}
	return out
}

// bindSimpleName binds a name written without a receiver.
func (b *Binder) bindSimpleName(syn syntax.Expr, name string, targs []syntax.Type, loc syntax.Location, invoked bool) bound.Expr {
	typeArgs := b.bindTypeArgs(targs)
	var opts LookupOptions
	if len(targs) == 0 {
		opts |= AllMethodsOnArityZero
	}
	if invoked {
		opts |= MustBeInvocableIfMember
	}
	r := b.LookupSymbols(name, len(targs), opts, loc)
	defer r.Free()
	if !r.IsViable() {
		if r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.NameNotFound, loc, name)
		}
		return b.bad(syn, r.Kind, r.SymbolsCopy())
	}
	if ms, ok := r.methods(); ok {
		b.recordUse(name, ms[0], loc)
		return bound.New(&bound.MethodGroup{
			Receiver:   b.implicitThis(syn),
			Name:       name,
			Methods:    ms,
			TypeArgs:   typeArgs,
			ResultKind: bound.Viable,
		}, syn, nil)
	}
	if len(r.Symbols) > 1 {
		b.report(diagnostic.AmbiguousReference, loc, name, r.Symbols[0], r.Symbols[1])
		return b.bad(syn, bound.Ambiguous, r.SymbolsCopy())
	}
	sym := r.Symbols[0]
	b.recordUse(name, sym, loc)
	return b.bindNamedSymbol(syn, sym, typeArgs)
}

// bindNamedSymbol binds a reference to sym found by simple name lookup.
func (b *Binder) bindNamedSymbol(syn syntax.Expr, sym symbols.Symbol, typeArgs []symbols.Type) bound.Expr {
	switch s := sym.(type) {
	case *symbols.Alias:
		e := b.bindNamedSymbol(syn, s.Target(), typeArgs)
		if te, ok := e.(*bound.TypeExpr); ok {
			return bound.New(&bound.TypeExpr{Alias: s}, syn, te.Type())
		}
		return e
	case *symbols.Local:
		var opts []bound.Option
		if s.IsConst() {
			opts = append(opts, bound.Constant(s.ConstValue()))
		}
		return bound.New(&bound.Local{Symbol: s}, syn, s.Type(), opts...)
	case *symbols.Parameter:
		return bound.New(&bound.Parameter{Symbol: s}, syn, s.Type())
	case *symbols.RangeVariable:
		v, ok := b.rangeValue(s)
		if !ok {
			invariant("range variable %s has no value", s.Name())
		}
		return bound.New(&bound.RangeVariable{Symbol: s, Value: v}, syn, v.Type())
	case *symbols.Field, *symbols.Property, *symbols.Event:
		var recv bound.Expr
		if !sym.IsStatic() {
			recv = b.implicitThis(syn)
		}
		return b.memberAccess(syn, recv, sym)
	case *symbols.NamedType:
		var t symbols.Type = s
		if len(typeArgs) > 0 {
			t = s.Construct(typeArgs...)
		}
		return bound.New(&bound.TypeExpr{}, syn, t)
	case *symbols.TypeParameter:
		return bound.New(&bound.TypeExpr{}, syn, s)
	case *symbols.Namespace:
		return bound.New(&bound.NamespaceExpr{Namespace: s}, syn, nil)
	}
	invariant("unexpected symbol %T for %s", sym, sym.Name())
	return nil
}

// memberAccess builds the access to a field, property or event.
func (b *Binder) memberAccess(syn syntax.Node, recv bound.Expr, sym symbols.Symbol) bound.Expr {
	switch s := sym.(type) {
	case *symbols.Field:
		var opts []bound.Option
		if s.IsConst() {
			opts = append(opts, bound.Constant(s.ConstValue()))
		}
		return bound.New(&bound.FieldAccess{Receiver: recv, Field: s}, syn, s.Type(), opts...)
	case *symbols.Property:
		return bound.New(&bound.PropertyAccess{Receiver: recv, Property: s}, syn, s.Type())
	case *symbols.Event:
		return bound.New(&bound.EventAccess{Receiver: recv, Event: s}, syn, s.Type())
	}
	invariant("unexpected member %T", sym)
	return nil
}

func memberLookupOptions(arity int, invoked bool) LookupOptions {
	var opts LookupOptions
	if arity == 0 {
		opts |= AllMethodsOnArityZero
	}
	if invoked {
		opts |= MustBeInvocableIfMember
	}
	return opts
}

// bindReceiver binds the left side of a member access.  A simple name
// whose value has a type of the same name binds to both readings.
func (b *Binder) bindReceiver(x syntax.Expr) bound.Expr {
	id, ok := x.(*syntax.Identifier)
	if !ok {
		return b.bindExpr(x)
	}
	e := b.bindSimpleName(id, id.Name, nil, id.Source, false)
	switch e.(type) {
	case *bound.Local, *bound.Parameter, *bound.FieldAccess, *bound.PropertyAccess, *bound.RangeVariable:
	default:
		return e
	}
	nt, ok := e.Type().(*symbols.NamedType)
	if !ok || nt.Name() != id.Name {
		return e
	}
	r := b.LookupSymbols(id.Name, 0, NamespacesOrTypesOnly, id.Source)
	defer r.Free()
	if !r.IsSingleViable() {
		return e
	}
	target := r.Symbols[0]
	if a, ok := target.(*symbols.Alias); ok {
		target = a.Target()
	}
	if t, ok := target.(*symbols.NamedType); !ok || !symbols.Identical(t, nt) {
		return e
	}
	te := bound.New(&bound.TypeExpr{}, id, nt)
	return bound.New(&bound.TypeOrValue{Value: e, TypeExpr: te}, id, nt)
}

// bindMemberAccess binds X.Name.  invoked is set when the access is the
// target of an invocation.
func (b *Binder) bindMemberAccess(x *syntax.MemberAccess, invoked bool) bound.Expr {
	left := b.bindReceiver(x.X)
	typeArgs := b.bindTypeArgs(x.TypeArgs)
	loc := x.NameLoc
	if !loc.IsValid() {
		loc = x.Source
	}
	switch l := left.(type) {
	case *bound.NamespaceExpr:
		return b.bindNamespaceMember(x, l, typeArgs, loc)
	case *bound.MethodGroup, *bound.UnboundLambda:
		b.report(diagnostic.BadUnaryOperator, loc, ".", typeString(left))
		return b.bad(x, bound.NotAValue, nil, b.bindToNothing(left))
	}
	if left.HasErrors() && (left.Type() == nil || symbols.IsErrorType(left.Type())) {
		return b.bad(x, bound.NotAValue, nil, left)
	}
	t := left.Type()
	switch {
	case t == nil:
		b.report(diagnostic.BadUnaryOperator, loc, ".", typeString(left))
		return b.bad(x, bound.NotAValue, nil, left)
	case symbols.IsDynamic(t) && !isTypeReceiver(left):
		return bound.New(&bound.DynamicMemberAccess{Receiver: left, Name: x.Name, TypeArgs: typeArgs, Invoked: invoked}, x, t)
	case symbols.IsVoid(t) && !isTypeReceiver(left):
		b.report(diagnostic.BadUnaryOperator, loc, ".", t)
		return b.bad(x, bound.NotAValue, nil, left)
	}
	switch left.(type) {
	case *bound.TypeExpr, *bound.TypeOrValue, *bound.Base:
	default:
		left = b.checkValue(left, valueRValue)
	}
	return b.bindMember(x, left, typeArgs, loc, invoked)
}

// bindMember looks x.Name up in the type of recv, which is a value, a
// type or a Color Color receiver.
func (b *Binder) bindMember(x *syntax.MemberAccess, recv bound.Expr, typeArgs []symbols.Type, loc syntax.Location, invoked bool) bound.Expr {
	typ := recv.Type()
	isType := isTypeReceiver(recv)
	tv, isColor := recv.(*bound.TypeOrValue)
	if _, ok := typ.(*symbols.TypeParameter); ok && isType {
		b.report(diagnostic.MemberNotFound, loc, typ, x.Name)
		return b.bad(x, bound.Empty, nil, recv)
	}
	var through symbols.Type
	if !isType {
		through = typ
	}
	r := b.lookupMembers(typ, x.Name, len(typeArgs), memberLookupOptions(len(typeArgs), invoked), through, loc)
	defer r.Free()
	if !r.IsViable() {
		switch {
		case !isType && (invoked || (r.Kind == bound.Empty && b.hasExtensionMethods(x.Name))):
			return bound.New(&bound.MethodGroup{
				Receiver:         recv,
				Name:             x.Name,
				TypeArgs:         typeArgs,
				ResultKind:       r.Kind,
				SearchExtensions: true,
			}, x, nil)
		case r.Kind != bound.Empty && r.Diagnostic != nil:
			b.diags.Add(*r.Diagnostic)
		case isType:
			b.report(diagnostic.MemberNotFound, loc, typ, x.Name)
		default:
			b.report(diagnostic.ExtensionNotFound, loc, typ, x.Name, x.Name, typ)
		}
		return b.bad(x, r.Kind, r.SymbolsCopy(), recv)
	}
	if ms, ok := r.methods(); ok {
		return bound.New(&bound.MethodGroup{
			Receiver:         recv,
			Name:             x.Name,
			Methods:          ms,
			TypeArgs:         typeArgs,
			ResultKind:       bound.Viable,
			SearchExtensions: !isType,
		}, x, nil)
	}
	if len(r.Symbols) > 1 {
		b.report(diagnostic.AmbiguousReference, loc, x.Name, r.Symbols[0], r.Symbols[1])
		return b.bad(x, bound.Ambiguous, r.SymbolsCopy(), recv)
	}
	sym := r.Symbols[0]
	if isColor {
		if sym.IsStatic() || sym.Kind() == symbols.KindNamedType {
			recv, isType = tv.TypeExpr, true
		} else {
			recv = tv.Value
		}
	}
	switch s := sym.(type) {
	case *symbols.NamedType:
		if !isType {
			b.report(diagnostic.NotValidInContext, loc, s, "type")
			return b.bad(x, bound.NotAValue, []symbols.Symbol{s}, recv)
		}
		var t symbols.Type = s
		if len(typeArgs) > 0 {
			t = s.Construct(typeArgs...)
		}
		return bound.New(&bound.TypeExpr{}, x, t)
	case *symbols.Field, *symbols.Property, *symbols.Event:
		switch {
		case isType && !sym.IsStatic():
			b.report(diagnostic.ObjectRequired, loc, sym)
			return b.badTyped(x, symbols.SymbolType(sym), bound.StaticInstanceMismatch, []symbols.Symbol{sym}, recv)
		case !isType && sym.IsStatic():
			b.report(diagnostic.InstanceAsStatic, loc, sym)
			return b.badTyped(x, symbols.SymbolType(sym), bound.StaticInstanceMismatch, []symbols.Symbol{sym}, recv)
		}
		if isType {
			recv = nil
		}
		return b.memberAccess(x, recv, sym)
	}
	invariant("unexpected member %T", sym)
	return nil
}

// bindNamespaceMember binds N.Name for a namespace N.
func (b *Binder) bindNamespaceMember(x *syntax.MemberAccess, ns *bound.NamespaceExpr, typeArgs []symbols.Type, loc syntax.Location) bound.Expr {
	r := newLookupResult()
	defer r.Free()
	for _, sym := range ns.Namespace.MembersNamed(x.Name) {
		kind, d := b.viability(sym, x.Name, len(typeArgs), NamespacesOrTypesOnly, nil, loc)
		r.mergeEqual(kind, sym, d)
	}
	if !r.IsViable() {
		if r.Kind != bound.Empty && r.Diagnostic != nil {
			b.diags.Add(*r.Diagnostic)
		} else {
			b.report(diagnostic.NamespaceMemberNotFound, loc, x.Name, ns.Namespace)
		}
		return b.bad(x, r.Kind, r.SymbolsCopy())
	}
	if len(r.Symbols) > 1 {
		b.report(diagnostic.AmbiguousReference, loc, x.Name, r.Symbols[0], r.Symbols[1])
		return b.bad(x, bound.Ambiguous, r.SymbolsCopy())
	}
	return b.bindNamedSymbol(x, r.Symbols[0], typeArgs)
}

func (b *Binder) bindThis(x *syntax.This) bound.Expr {
	t := b.containingType()
	if t == nil {
		b.report(diagnostic.ThisUnavailable, x.Source)
		return b.bad(x, bound.NotAValue, nil)
	}
	return bound.New(&bound.This{}, x, t)
}

// bindBase binds base, which may only be the receiver of a member access.
func (b *Binder) bindBase(x *syntax.Base) bound.Expr {
	t := b.containingType()
	if t == nil || t.BaseType() == nil {
		b.report(diagnostic.BaseUnavailable, x.Source)
		return b.bad(x, bound.NotAValue, nil)
	}
	return bound.New(&bound.Base{}, x, t.BaseType())
}

// bindConditionalAccess binds r?.access.  The access is bound against the
// non-null value of r; a value type result is lifted to nullable.
func (b *Binder) bindConditionalAccess(x *syntax.ConditionalAccess) bound.Expr {
	recv := b.bindValue(x.X, valueRValue)
	t := recv.Type()
	if recv.HasErrors() || t == nil {
		return b.bad(x, bound.NotAValue, nil, recv)
	}
	if t.IsValueType() && !symbols.IsNullable(t) {
		b.report(diagnostic.BadUnaryOperator, x.X.Loc(), "?", t)
		return b.bad(x, bound.NotAValue, nil, recv)
	}
	under := t
	if symbols.IsNullable(t) {
		under = symbols.NullableUnderlying(t)
	}
	inner := b.clone()
	inner.condReceiver = bound.New(&bound.ConditionalReceiver{}, x, under)
	access := inner.bindValue(x.WhenNotNull, valueStatement)
	var typ symbols.Type
	switch at := access.Type(); {
	case at == nil || symbols.IsErrorType(at):
		typ = symbols.Error
	case symbols.IsVoid(at) || !at.IsValueType() || symbols.IsNullable(at):
		typ = at
	default:
		typ = b.table().Nullable(at)
	}
	return bound.New(&bound.ConditionalAccess{Receiver: recv, Access: access}, x, typ)
}

// sizes of the types with a predefined size.
var predefinedSizes = map[symbols.SpecialType]int64{
	symbols.SpecialSByte:   1,
	symbols.SpecialByte:    1,
	symbols.SpecialBoolean: 1,
	symbols.SpecialInt16:   2,
	symbols.SpecialUInt16:  2,
	symbols.SpecialChar:    2,
	symbols.SpecialInt32:   4,
	symbols.SpecialUInt32:  4,
	symbols.SpecialSingle:  4,
	symbols.SpecialInt64:   8,
	symbols.SpecialUInt64:  8,
	symbols.SpecialDouble:  8,
	symbols.SpecialDecimal: 16,
}

func (b *Binder) bindSizeOf(x *syntax.SizeOf) bound.Expr {
	t := b.bindType(x.Type)
	intType := b.special(symbols.SpecialInt32)
	st := symbols.Special(t)
	if nt, ok := t.(*symbols.NamedType); ok && nt.TypeKind() == symbols.TypeEnum && nt.EnumUnderlyingType() != nil {
		st = nt.EnumUnderlyingType().SpecialType()
	}
	if size, ok := predefinedSizes[st]; ok {
		return bound.New(&bound.SizeOf{Source: t}, x, intType, bound.Constant(size))
	}
	if !b.inUnsafe() && !symbols.IsErrorType(t) {
		b.report(diagnostic.SizeOfUnsafe, x.Source, t)
		return bound.New(&bound.SizeOf{Source: t}, x, intType, bound.Errors())
	}
	return bound.New(&bound.SizeOf{Source: t}, x, intType)
}

func (b *Binder) bindDefault(x *syntax.Default) bound.Expr {
	t := b.bindType(x.Type)
	var opts []bound.Option
	if v, ok := zeroValue(t); ok {
		opts = append(opts, bound.Constant(v))
	}
	return bound.New(&bound.Default{}, x, t, opts...)
}

// zeroValue returns the constant default value of t, when t has one.
func zeroValue(t symbols.Type) (interface{}, bool) {
	nt, ok := t.(*symbols.NamedType)
	if !ok {
		if t.IsReferenceType() {
			return nil, true
		}
		return nil, false
	}
	if symbols.IsNullable(nt) {
		return nil, false
	}
	if nt.TypeKind() == symbols.TypeEnum && nt.EnumUnderlyingType() != nil {
		nt = nt.EnumUnderlyingType()
	}
	switch st := nt.SpecialType(); {
	case st == symbols.SpecialBoolean:
		return false, true
	case st == symbols.SpecialChar:
		return rune(0), true
	case st == symbols.SpecialSingle, st == symbols.SpecialDouble, st == symbols.SpecialDecimal:
		return float64(0), true
	case st.IsSignedIntegral():
		return int64(0), true
	case st.IsUnsignedIntegral():
		return uint64(0), true
	case nt.IsReferenceType():
		return nil, true
	}
	return nil, false
}

// bindIs binds e is T.
func (b *Binder) bindIs(x *syntax.IsType) bound.Expr {
	operand := b.bindValue(x.X, valueRValue)
	t := b.bindType(x.Type)
	boolType := b.special(symbols.SpecialBoolean)
	node := &bound.IsOperator{Operand: operand, TargetType: t}
	if operand.Type() != nil && !symbols.IsErrorType(t) && !symbols.IsErrorType(operand.Type()) {
		node.Conversion = b.conv().Classify(operand.Type(), t)
	}
	return bound.New(node, x, boolType)
}

// bindAs binds e as T.  T must be a reference or nullable type.
func (b *Binder) bindAs(x *syntax.AsType) bound.Expr {
	operand := b.bindValue(x.X, valueRValue)
	t := b.bindType(x.Type)
	if symbols.IsErrorType(t) {
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	if t.IsValueType() && !symbols.IsNullable(t) {
		b.report(diagnostic.AsValueType, x.Type.Loc(), t)
		return b.badTyped(x, t, bound.NotAValue, nil, operand)
	}
	node := &bound.AsOperator{Operand: operand}
	switch {
	case bound.IsNullLiteral(operand):
		node.Conversion = b.conv().ClassifyNull(t)
	case operand.Type() != nil && !symbols.IsErrorType(operand.Type()):
		node.Conversion = b.conv().Classify(operand.Type(), t)
		if !node.Conversion.Exists() && !symbols.IsDynamic(operand.Type()) {
			b.report(diagnostic.NoExplicitConversion, x.Source, operand.Type(), t)
			return bound.New(node, x, t, bound.Errors())
		}
	}
	return bound.New(node, x, t)
}
