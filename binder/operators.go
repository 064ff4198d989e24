// Copyright © 2024 The ELPS authors

package binder

import (
	"math"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// operatorTable holds the predefined operators as synthetic operator
// methods, so that the overload resolver chooses among them the same way
// it chooses among user-defined operators.  The table is immutable once
// built.
type operatorTable struct {
	table  *symbols.Table
	unary  map[syntax.UnaryOp][]*symbols.Method
	binary map[syntax.BinaryOp][]*symbols.Method
}

var (
	integralOperands = []symbols.SpecialType{
		symbols.SpecialInt32, symbols.SpecialUInt32, symbols.SpecialInt64, symbols.SpecialUInt64,
	}
	floatingOperands = []symbols.SpecialType{
		symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal,
	}
	signedOperands = []symbols.SpecialType{
		symbols.SpecialInt32, symbols.SpecialInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal,
	}
)

func newOperatorTable(table *symbols.Table) *operatorTable {
	t := &operatorTable{
		table:  table,
		unary:  make(map[syntax.UnaryOp][]*symbols.Method),
		binary: make(map[syntax.BinaryOp][]*symbols.Method),
	}
	arith := append(append([]symbols.SpecialType(nil), integralOperands...), floatingOperands...)
	for _, st := range arith {
		t.addUnary(syntax.UnaryPlus, st)
	}
	for _, st := range signedOperands {
		t.addUnary(syntax.UnaryMinus, st)
	}
	for _, st := range integralOperands {
		t.addUnary(syntax.UnaryComplement, st)
	}
	t.addUnary(syntax.UnaryNot, symbols.SpecialBoolean)

	for _, op := range []syntax.BinaryOp{syntax.BinaryMul, syntax.BinaryDiv, syntax.BinaryMod, syntax.BinaryAdd, syntax.BinarySub} {
		for _, st := range arith {
			t.addBinary(op, st, st, st)
		}
	}
	for _, op := range []syntax.BinaryOp{syntax.BinaryShl, syntax.BinaryShr} {
		for _, st := range integralOperands {
			t.addBinary(op, st, symbols.SpecialInt32, st)
		}
	}
	for _, op := range []syntax.BinaryOp{syntax.BinaryLt, syntax.BinaryGt, syntax.BinaryLe, syntax.BinaryGe} {
		for _, st := range arith {
			t.addBinary(op, st, st, symbols.SpecialBoolean)
		}
	}
	for _, op := range []syntax.BinaryOp{syntax.BinaryEq, syntax.BinaryNe} {
		for _, st := range arith {
			t.addBinary(op, st, st, symbols.SpecialBoolean)
		}
		for _, st := range []symbols.SpecialType{symbols.SpecialBoolean, symbols.SpecialString, symbols.SpecialObject} {
			t.addBinary(op, st, st, symbols.SpecialBoolean)
		}
	}
	for _, op := range []syntax.BinaryOp{syntax.BinaryAnd, syntax.BinaryOr, syntax.BinaryXor} {
		for _, st := range integralOperands {
			t.addBinary(op, st, st, st)
		}
		t.addBinary(op, symbols.SpecialBoolean, symbols.SpecialBoolean, symbols.SpecialBoolean)
	}
	for _, op := range []syntax.BinaryOp{syntax.BinaryLogicalAnd, syntax.BinaryLogicalOr} {
		t.addBinary(op, symbols.SpecialBoolean, symbols.SpecialBoolean, symbols.SpecialBoolean)
	}
	t.addBinary(syntax.BinaryAdd, symbols.SpecialString, symbols.SpecialString, symbols.SpecialString)
	t.addBinary(syntax.BinaryAdd, symbols.SpecialString, symbols.SpecialObject, symbols.SpecialString)
	t.addBinary(syntax.BinaryAdd, symbols.SpecialObject, symbols.SpecialString, symbols.SpecialString)
	return t
}

func (t *operatorTable) addUnary(op syntax.UnaryOp, st symbols.SpecialType) {
	typ := t.table.SpecialType(st)
	if typ == nil {
		return
	}
	t.unary[op] = append(t.unary[op], operatorMethod(unaryName(op), typ, typ))
}

func (t *operatorTable) addBinary(op syntax.BinaryOp, l, r, ret symbols.SpecialType) {
	lt, rt, res := t.table.SpecialType(l), t.table.SpecialType(r), t.table.SpecialType(ret)
	if lt == nil || rt == nil || res == nil {
		return
	}
	t.binary[op] = append(t.binary[op], operatorMethod(binaryName(op), res, lt, rt))
}

var operandNames = []string{"left", "right"}

func operatorMethod(name string, ret symbols.Type, operands ...symbols.Type) *symbols.Method {
	params := make([]*symbols.Parameter, len(operands))
	for i, o := range operands {
		params[i] = symbols.NewParameter(operandNames[i], o, symbols.ParameterOptions{})
	}
	return symbols.NewMethod(name, nil, params, ret, symbols.MethodOptions{
		MemberOptions: symbols.MemberOptions{Access: symbols.Public},
		Kind:          symbols.MethodOperator,
	})
}

func unaryName(op syntax.UnaryOp) string {
	if name := symbols.UnaryOperatorName(op); name != "" {
		return name
	}
	return "operator " + op.String()
}

func binaryName(op syntax.BinaryOp) string {
	if name := symbols.BinaryOperatorName(op); name != "" {
		return name
	}
	return "operator " + op.String()
}

func isComparison(op syntax.BinaryOp) bool {
	switch op {
	case syntax.BinaryEq, syntax.BinaryNe, syntax.BinaryLt, syntax.BinaryGt, syntax.BinaryLe, syntax.BinaryGe:
		return true
	}
	return false
}

func enumType(t symbols.Type) (*symbols.NamedType, *symbols.NamedType) {
	nt, ok := t.(*symbols.NamedType)
	if !ok || nt.TypeKind() != symbols.TypeEnum || nt.EnumUnderlyingType() == nil {
		return nil, nil
	}
	return nt, nt.EnumUnderlyingType()
}

// binaryCandidates returns the predefined operators for op given the
// operand types, with the enum and delegate operators of those types and
// the lifted forms when lift is set.
func (t *operatorTable) binaryCandidates(op syntax.BinaryOp, lift bool, operands ...symbols.Type) []*symbols.Method {
	out := append([]*symbols.Method(nil), t.binary[op]...)
	boolType := t.table.SpecialType(symbols.SpecialBoolean)
	seen := make(map[string]bool)
	for _, typ := range operands {
		if typ == nil {
			continue
		}
		if symbols.IsNullable(typ) {
			typ = symbols.NullableUnderlying(typ)
		}
		key := symbols.TypeKey(typ)
		if seen[key] {
			continue
		}
		seen[key] = true
		name := binaryName(op)
		if e, u := enumType(typ); e != nil {
			switch {
			case isComparison(op):
				out = append(out, operatorMethod(name, boolType, e, e))
			case op == syntax.BinaryAnd || op == syntax.BinaryOr || op == syntax.BinaryXor:
				out = append(out, operatorMethod(name, e, e, e))
			case op == syntax.BinaryAdd:
				out = append(out, operatorMethod(name, e, e, u), operatorMethod(name, e, u, e))
			case op == syntax.BinarySub:
				out = append(out, operatorMethod(name, u, e, e), operatorMethod(name, e, e, u))
			}
			continue
		}
		if typ.TypeKind() == symbols.TypeDelegate {
			switch op {
			case syntax.BinaryAdd, syntax.BinarySub:
				out = append(out, operatorMethod(name, typ, typ, typ))
			case syntax.BinaryEq, syntax.BinaryNe:
				out = append(out, operatorMethod(name, boolType, typ, typ))
			}
		}
	}
	if lift && op != syntax.BinaryLogicalAnd && op != syntax.BinaryLogicalOr {
		out = append(out, t.lifted(out, isComparison(op))...)
	}
	return out
}

func (t *operatorTable) unaryCandidates(op syntax.UnaryOp, operand symbols.Type, lift bool) []*symbols.Method {
	out := append([]*symbols.Method(nil), t.unary[op]...)
	typ := operand
	if typ != nil && symbols.IsNullable(typ) {
		typ = symbols.NullableUnderlying(typ)
	}
	if e, _ := enumType(typ); e != nil && op == syntax.UnaryComplement {
		out = append(out, operatorMethod(unaryName(op), e, e))
	}
	if lift {
		out = append(out, t.lifted(out, false)...)
	}
	return out
}

// lifted returns the nullable forms of the operators in ms whose operands
// and result are non-nullable value types.  Lifted comparisons keep their
// bool result.
func (t *operatorTable) lifted(ms []*symbols.Method, comparison bool) []*symbols.Method {
	var out []*symbols.Method
	for _, m := range ms {
		ret := m.ReturnType()
		if !liftable(ret) {
			continue
		}
		operands := make([]symbols.Type, 0, len(m.Parameters()))
		ok := true
		for _, p := range m.Parameters() {
			if !liftable(p.Type()) {
				ok = false
				break
			}
			operands = append(operands, t.table.Nullable(p.Type()))
		}
		if !ok {
			continue
		}
		if !comparison {
			ret = t.table.Nullable(ret)
		}
		out = append(out, operatorMethod(m.Name(), ret, operands...))
	}
	return out
}

func liftable(t symbols.Type) bool {
	return t != nil && t.IsValueType() && !symbols.IsNullable(t)
}

// needsLifting reports whether an operand is nullable, or is the null
// literal next to a value type operand.
func needsLifting(operands ...bound.Expr) bool {
	var hasNull, hasValue bool
	for _, e := range operands {
		t := e.Type()
		switch {
		case bound.IsNullLiteral(e):
			hasNull = true
		case t == nil:
		case symbols.IsNullable(t):
			return true
		case t.IsValueType():
			hasValue = true
		}
	}
	return hasNull && hasValue
}

// userOperators collects the operator methods named name with arity
// parameters declared by the operand types or their base types.
func (b *Binder) userOperators(name string, arity int, types ...symbols.Type) []*symbols.Method {
	var out []*symbols.Method
	seen := make(map[*symbols.Method]bool)
	for _, t := range types {
		if t == nil {
			continue
		}
		if symbols.IsNullable(t) {
			t = symbols.NullableUnderlying(t)
		}
		for cur := t; cur != nil; cur = b.table().BaseType(cur) {
			nt, ok := cur.(*symbols.NamedType)
			if !ok {
				break
			}
			for _, sym := range nt.MembersNamed(name) {
				m, ok := sym.(*symbols.Method)
				if !ok || m.MethodKind() != symbols.MethodOperator || len(m.Parameters()) != arity || seen[m] {
					continue
				}
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func isDynamicOperand(e bound.Expr) bool {
	return e.Type() != nil && symbols.IsDynamic(e.Type())
}

// resolveOperator picks the operator for the operands in args.  User
// defined operators are preferred whenever one of them applies.
func (b *Binder) resolveOperator(userName string, predefined func() []*symbols.Method, args *AnalyzedArguments, types ...symbols.Type) (*OverloadResult, bool) {
	if userName != "" {
		if ms := b.userOperators(userName, args.Len(), types...); len(ms) > 0 {
			res := b.resolve(methodCandidates(ms), nil, args)
			if len(res.Applicable) > 0 {
				return res, true
			}
		}
	}
	return b.resolve(methodCandidates(predefined()), nil, args), false
}

func operatorArgs(operands ...bound.Expr) *AnalyzedArguments {
	args := newArguments()
	for _, e := range operands {
		args.Add(e, "", syntax.Location{}, syntax.RefNone)
	}
	return args
}

func (b *Binder) bindBinary(x *syntax.Binary) bound.Expr {
	if x.Op == syntax.BinaryCoalesce {
		return b.bindCoalesce(x)
	}
	left := b.bindValue(x.X, valueRValueOrMethodGroup)
	right := b.bindValue(x.Y, valueRValueOrMethodGroup)
	return b.bindBinaryOperator(x, x.Op, left, right)
}

func (b *Binder) bindBinaryOperator(syn syntax.Node, op syntax.BinaryOp, left, right bound.Expr) bound.Expr {
	if left.HasErrors() || right.HasErrors() {
		return b.bad(syn, bound.NotAValue, nil, b.bindToNothing(left), b.bindToNothing(right))
	}
	if isDynamicOperand(left) || isDynamicOperand(right) {
		return bound.New(&bound.DynamicBinary{Op: op, Left: b.dynamicOperand(left), Right: b.dynamicOperand(right)}, syn, b.table().Dynamic())
	}
	args := operatorArgs(left, right)
	defer args.Free()
	lt, rt := left.Type(), right.Type()
	lift := needsLifting(left, right)
	res, user := b.resolveOperator(symbols.BinaryOperatorName(op), func() []*symbols.Method {
		return b.ctx.ops.binaryCandidates(op, lift, lt, rt)
	}, args, lt, rt)
	loc := locOf(syn)
	switch res.Kind {
	case bound.Viable:
	case bound.Ambiguous:
		b.report(diagnostic.AmbiguousBinary, loc, op, typeString(left), typeString(right))
		return b.bad(syn, bound.Ambiguous, res.candidateSymbols(), b.bindToNothing(left), b.bindToNothing(right))
	default:
		b.report(diagnostic.BadBinaryOperator, loc, op, typeString(left), typeString(right))
		return b.bad(syn, bound.OverloadResolutionFailure, nil, b.bindToNothing(left), b.bindToNothing(right))
	}
	best := res.Best
	l := b.convertImplicit(left, best.ParamTypes[0])
	r := b.convertImplicit(right, best.ParamTypes[1])
	node := &bound.Binary{Op: op, Left: l, Right: r}
	ret := best.Method.ReturnType()
	if user {
		node.Method = best.Method
		return bound.New(node, syn, ret)
	}
	lc, rc := l.Constant(), r.Constant()
	if lc == nil || rc == nil {
		return bound.New(node, syn, ret)
	}
	v, code, ok := foldBinary(op, symbols.Special(best.ParamTypes[0]), symbols.Special(ret), lc.Value, rc.Value)
	if code != "" {
		b.report(code, loc)
		return bound.New(node, syn, ret, bound.Errors())
	}
	if !ok {
		return bound.New(node, syn, ret)
	}
	return bound.New(node, syn, ret, bound.Constant(v))
}

// foldBinary evaluates op over constant operands of type st with a result
// of type res.  code is set when evaluation fails at compile time.
func foldBinary(op syntax.BinaryOp, st, res symbols.SpecialType, l, r interface{}) (v interface{}, code diagnostic.Code, ok bool) {
	if res == symbols.SpecialString && op == syntax.BinaryAdd {
		ls, lok := l.(string)
		rs, rok := r.(string)
		if (!lok && l != nil) || (!rok && r != nil) {
			return nil, "", false
		}
		return ls + rs, "", true
	}
	switch {
	case st == symbols.SpecialString:
		switch op {
		case syntax.BinaryEq:
			return l == r, "", true
		case syntax.BinaryNe:
			return l != r, "", true
		}
	case st == symbols.SpecialBoolean:
		a, aok := l.(bool)
		c, cok := r.(bool)
		if !aok || !cok {
			return nil, "", false
		}
		switch op {
		case syntax.BinaryAnd, syntax.BinaryLogicalAnd:
			return a && c, "", true
		case syntax.BinaryOr, syntax.BinaryLogicalOr:
			return a || c, "", true
		case syntax.BinaryXor, syntax.BinaryNe:
			return a != c, "", true
		case syntax.BinaryEq:
			return a == c, "", true
		}
	case st.IsSignedIntegral():
		a, aok := l.(int64)
		c, cok := r.(int64)
		if !aok || !cok {
			return nil, "", false
		}
		return foldSigned(op, a, c, st == symbols.SpecialInt32)
	case st.IsUnsignedIntegral():
		a, aok := l.(uint64)
		c, cok := r.(uint64)
		if !aok || !cok {
			return nil, "", false
		}
		if op == syntax.BinaryShl || op == syntax.BinaryShr {
			// The shift count is an int.
			return nil, "", false
		}
		return foldUnsigned(op, a, c, st == symbols.SpecialUInt32)
	case st == symbols.SpecialSingle, st == symbols.SpecialDouble, st == symbols.SpecialDecimal:
		a, aok := l.(float64)
		c, cok := r.(float64)
		if !aok || !cok {
			return nil, "", false
		}
		v, code, ok := foldFloat(op, a, c, st == symbols.SpecialDecimal)
		if f, isFloat := v.(float64); isFloat && st == symbols.SpecialSingle {
			v = float64(float32(f))
		}
		return v, code, ok
	}
	return nil, "", false
}

func compare[T int64 | uint64 | float64](op syntax.BinaryOp, a, c T) (bool, bool) {
	switch op {
	case syntax.BinaryEq:
		return a == c, true
	case syntax.BinaryNe:
		return a != c, true
	case syntax.BinaryLt:
		return a < c, true
	case syntax.BinaryGt:
		return a > c, true
	case syntax.BinaryLe:
		return a <= c, true
	case syntax.BinaryGe:
		return a >= c, true
	}
	return false, false
}

func foldSigned(op syntax.BinaryOp, a, c int64, narrow bool) (interface{}, diagnostic.Code, bool) {
	if v, ok := compare(op, a, c); ok {
		return v, "", true
	}
	var v int64
	overflow := false
	switch op {
	case syntax.BinaryAdd:
		v = a + c
		overflow = (c > 0 && v < a) || (c < 0 && v > a)
	case syntax.BinarySub:
		v = a - c
		overflow = (c > 0 && v > a) || (c < 0 && v < a)
	case syntax.BinaryMul:
		v = a * c
		overflow = a != 0 && (v/a != c || (a == -1 && c == math.MinInt64))
	case syntax.BinaryDiv, syntax.BinaryMod:
		if c == 0 {
			return nil, diagnostic.DivideByZero, false
		}
		if c == -1 {
			if op == syntax.BinaryMod {
				return int64(0), "", true
			}
			v = -a
			overflow = a == math.MinInt64
			break
		}
		if op == syntax.BinaryDiv {
			v = a / c
		} else {
			v = a % c
		}
	case syntax.BinaryAnd:
		v = a & c
	case syntax.BinaryOr:
		v = a | c
	case syntax.BinaryXor:
		v = a ^ c
	case syntax.BinaryShl:
		if narrow {
			return int64(int32(a) << (uint(c) & 31)), "", true
		}
		return a << (uint(c) & 63), "", true
	case syntax.BinaryShr:
		if narrow {
			return int64(int32(a) >> (uint(c) & 31)), "", true
		}
		return a >> (uint(c) & 63), "", true
	default:
		return nil, "", false
	}
	if overflow || (narrow && (v < math.MinInt32 || v > math.MaxInt32)) {
		return nil, diagnostic.ConstantOverflow, false
	}
	return v, "", true
}

func foldUnsigned(op syntax.BinaryOp, a, c uint64, narrow bool) (interface{}, diagnostic.Code, bool) {
	if v, ok := compare(op, a, c); ok {
		return v, "", true
	}
	var v uint64
	overflow := false
	switch op {
	case syntax.BinaryAdd:
		v = a + c
		overflow = v < a
	case syntax.BinarySub:
		v = a - c
		overflow = c > a
	case syntax.BinaryMul:
		v = a * c
		overflow = a != 0 && v/a != c
	case syntax.BinaryDiv, syntax.BinaryMod:
		if c == 0 {
			return nil, diagnostic.DivideByZero, false
		}
		if op == syntax.BinaryDiv {
			v = a / c
		} else {
			v = a % c
		}
	case syntax.BinaryAnd:
		v = a & c
	case syntax.BinaryOr:
		v = a | c
	case syntax.BinaryXor:
		v = a ^ c
	default:
		return nil, "", false
	}
	if overflow || (narrow && v > math.MaxUint32) {
		return nil, diagnostic.ConstantOverflow, false
	}
	return v, "", true
}

func foldFloat(op syntax.BinaryOp, a, c float64, decimal bool) (interface{}, diagnostic.Code, bool) {
	if v, ok := compare(op, a, c); ok {
		return v, "", true
	}
	switch op {
	case syntax.BinaryAdd:
		return a + c, "", true
	case syntax.BinarySub:
		return a - c, "", true
	case syntax.BinaryMul:
		return a * c, "", true
	case syntax.BinaryDiv, syntax.BinaryMod:
		if decimal && c == 0 {
			return nil, diagnostic.DivideByZero, false
		}
		if op == syntax.BinaryDiv {
			return a / c, "", true
		}
		return math.Mod(a, c), "", true
	}
	return nil, "", false
}

func (b *Binder) bindUnary(x *syntax.Unary) bound.Expr {
	switch x.Op {
	case syntax.UnaryAddressOf:
		return b.bindAddressOf(x)
	case syntax.UnaryDeref:
		return b.bindDeref(x)
	case syntax.UnaryPreIncrement, syntax.UnaryPreDecrement, syntax.UnaryPostIncrement, syntax.UnaryPostDecrement:
		return b.bindIncrement(x)
	case syntax.UnaryMinus:
		if e := b.bindMinimumLiteral(x); e != nil {
			return e
		}
	}
	operand := b.bindValue(x.X, valueRValueOrMethodGroup)
	return b.bindUnaryOperator(x, x.Op, operand)
}

// bindMinimumLiteral binds -2147483648 and -9223372036854775808, whose
// magnitudes alone do not fit the signed types.
func (b *Binder) bindMinimumLiteral(x *syntax.Unary) bound.Expr {
	lit, ok := x.X.(*syntax.Literal)
	if !ok || lit.Kind != syntax.LitInt || lit.Suffix != "" {
		return nil
	}
	switch lit.Value {
	case uint64(1) << 31:
		v := int64(math.MinInt32)
		return bound.New(&bound.Literal{Value: v}, x, b.special(symbols.SpecialInt32), bound.Constant(v))
	case uint64(1) << 63:
		v := int64(math.MinInt64)
		return bound.New(&bound.Literal{Value: v}, x, b.special(symbols.SpecialInt64), bound.Constant(v))
	}
	return nil
}

func (b *Binder) bindUnaryOperator(syn syntax.Node, op syntax.UnaryOp, operand bound.Expr) bound.Expr {
	if operand.HasErrors() {
		return b.bad(syn, bound.NotAValue, nil, b.bindToNothing(operand))
	}
	if isDynamicOperand(operand) {
		return bound.New(&bound.DynamicUnary{Op: op, Operand: operand}, syn, b.table().Dynamic())
	}
	args := operatorArgs(operand)
	defer args.Free()
	t := operand.Type()
	lift := t != nil && symbols.IsNullable(t)
	res, user := b.resolveOperator(symbols.UnaryOperatorName(op), func() []*symbols.Method {
		return b.ctx.ops.unaryCandidates(op, t, lift)
	}, args, t)
	loc := locOf(syn)
	switch res.Kind {
	case bound.Viable:
	case bound.Ambiguous:
		b.report(diagnostic.AmbiguousUnary, loc, op, typeString(operand))
		return b.bad(syn, bound.Ambiguous, res.candidateSymbols(), b.bindToNothing(operand))
	default:
		b.report(diagnostic.BadUnaryOperator, loc, op, typeString(operand))
		return b.bad(syn, bound.OverloadResolutionFailure, nil, b.bindToNothing(operand))
	}
	best := res.Best
	e := b.convertImplicit(operand, best.ParamTypes[0])
	ret := best.Method.ReturnType()
	node := &bound.Unary{Op: op, Operand: e}
	if user {
		node.Method = best.Method
		return bound.New(node, syn, ret)
	}
	c := e.Constant()
	if c == nil {
		return bound.New(node, syn, ret)
	}
	v, code, ok := foldUnary(op, symbols.Special(ret), c.Value)
	if code != "" {
		b.report(code, loc)
		return bound.New(node, syn, ret, bound.Errors())
	}
	if !ok {
		return bound.New(node, syn, ret)
	}
	return bound.New(node, syn, ret, bound.Constant(v))
}

func foldUnary(op syntax.UnaryOp, st symbols.SpecialType, v interface{}) (interface{}, diagnostic.Code, bool) {
	switch x := v.(type) {
	case bool:
		if op == syntax.UnaryNot {
			return !x, "", true
		}
	case int64:
		switch op {
		case syntax.UnaryPlus:
			return x, "", true
		case syntax.UnaryMinus:
			if (st == symbols.SpecialInt32 && x == math.MinInt32) || x == math.MinInt64 {
				return nil, diagnostic.ConstantOverflow, false
			}
			return -x, "", true
		case syntax.UnaryComplement:
			if st == symbols.SpecialInt32 {
				return int64(^int32(x)), "", true
			}
			return ^x, "", true
		}
	case uint64:
		switch op {
		case syntax.UnaryPlus:
			return x, "", true
		case syntax.UnaryComplement:
			if st == symbols.SpecialUInt32 {
				return uint64(^uint32(x)), "", true
			}
			return ^x, "", true
		}
	case float64:
		switch op {
		case syntax.UnaryPlus:
			return x, "", true
		case syntax.UnaryMinus:
			return -x, "", true
		}
	}
	return nil, "", false
}

// bindIncrement binds ++ and --.  The operand must be an assignable
// variable of a numeric, char or enum type, or have a user-defined
// operator.
func (b *Binder) bindIncrement(x *syntax.Unary) bound.Expr {
	operand := b.bindValue(x.X, valueAssignable)
	if operand.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	t := operand.Type()
	if isDynamicOperand(operand) {
		return bound.New(&bound.DynamicUnary{Op: x.Op, Operand: operand}, x, t)
	}
	if ms := b.userOperators(symbols.UnaryOperatorName(x.Op), 1, t); len(ms) > 0 {
		args := operatorArgs(operand)
		defer args.Free()
		res := b.resolve(methodCandidates(ms), nil, args)
		if res.Kind == bound.Viable && b.conv().ClassifyImplicit(res.Best.Method.ReturnType(), t).Exists() {
			return bound.New(&bound.Unary{Op: x.Op, Operand: operand, Method: res.Best.Method}, x, t)
		}
	}
	under := t
	if symbols.IsNullable(under) {
		under = symbols.NullableUnderlying(under)
	}
	st := symbols.Special(under)
	if e, _ := enumType(under); e == nil && !st.IsNumeric() && st != symbols.SpecialChar {
		b.report(diagnostic.BadUnaryOperator, x.Source, x.Op, t)
		return b.badTyped(x, t, bound.OverloadResolutionFailure, nil, operand)
	}
	return bound.New(&bound.Unary{Op: x.Op, Operand: operand}, x, t)
}

func (b *Binder) bindAddressOf(x *syntax.Unary) bound.Expr {
	operand := b.bindValue(x.X, valueRValue)
	var opts []bound.Option
	if !b.inUnsafe() {
		b.report(diagnostic.UnsafeNeeded, x.Source)
		opts = append(opts, bound.Errors())
	}
	if operand.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	switch operand.(type) {
	case *bound.Local, *bound.Parameter, *bound.FieldAccess, *bound.ArrayAccess, *bound.PointerIndirection:
	default:
		b.report(diagnostic.BadUnaryOperator, x.Source, x.Op, operand.Type())
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	return bound.New(&bound.AddressOf{Operand: operand}, x, &symbols.PointerType{Elem: operand.Type()}, opts...)
}

func (b *Binder) bindDeref(x *syntax.Unary) bound.Expr {
	operand := b.bindValue(x.X, valueRValue)
	var opts []bound.Option
	if !b.inUnsafe() {
		b.report(diagnostic.UnsafeNeeded, x.Source)
		opts = append(opts, bound.Errors())
	}
	if operand.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	p, ok := operand.Type().(*symbols.PointerType)
	if !ok || symbols.IsVoid(p.Elem) {
		b.report(diagnostic.BadUnaryOperator, x.Source, x.Op, operand.Type())
		return b.bad(x, bound.NotAValue, nil, operand)
	}
	return bound.New(&bound.PointerIndirection{Operand: operand}, x, p.Elem, opts...)
}

// bindConditional binds c ? a : b.  The result type is the type of one
// branch that the other converts to implicitly, but not the other way.
func (b *Binder) bindConditional(x *syntax.Conditional) bound.Expr {
	cond := b.convertImplicit(b.bindValue(x.Cond, valueRValue), b.special(symbols.SpecialBoolean))
	then := b.bindValue(x.Then, valueRValueOrMethodGroup)
	els := b.bindValue(x.Else, valueRValueOrMethodGroup)
	typ := b.conditionalType(then, els)
	if typ == nil {
		if !then.HasErrors() && !els.HasErrors() {
			b.report(diagnostic.NoConditionalType, x.Source, typeString(then), typeString(els))
		}
		return b.bad(x, bound.NotAValue, nil, cond, b.bindToNothing(then), b.bindToNothing(els))
	}
	then = b.convertImplicit(then, typ)
	els = b.convertImplicit(els, typ)
	node := &bound.Conditional{Cond: cond, Then: then, Else: els}
	if c := cond.Constant(); c != nil {
		if v, ok := c.Value.(bool); ok {
			pick := els
			if v {
				pick = then
			}
			if pc := pick.Constant(); pc != nil && then.Constant() != nil && els.Constant() != nil {
				return bound.New(node, x, typ, bound.Constant(pc.Value))
			}
		}
	}
	return bound.New(node, x, typ)
}

func (b *Binder) conditionalType(x, y bound.Expr) symbols.Type {
	xt, yt := x.Type(), y.Type()
	switch {
	case xt != nil && yt != nil:
		if symbols.IsErrorType(xt) || symbols.IsErrorType(yt) {
			return symbols.Error
		}
		if symbols.Identical(xt, yt) {
			return xt
		}
		xy := b.classify(x, yt).IsImplicit()
		yx := b.classify(y, xt).IsImplicit()
		switch {
		case xy && !yx:
			return yt
		case yx && !xy:
			return xt
		}
	case xt != nil:
		if b.classify(y, xt).IsImplicit() {
			return xt
		}
	case yt != nil:
		if b.classify(x, yt).IsImplicit() {
			return yt
		}
	}
	return nil
}

// bindCoalesce binds a ?? b.
func (b *Binder) bindCoalesce(x *syntax.Binary) bound.Expr {
	left := b.bindValue(x.X, valueRValue)
	right := b.bindValue(x.Y, valueRValueOrMethodGroup)
	if left.HasErrors() || right.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, left, b.bindToNothing(right))
	}
	lt := left.Type()
	fail := func() bound.Expr {
		b.report(diagnostic.BadBinaryOperator, x.Source, x.Op, typeString(left), typeString(right))
		return b.bad(x, bound.NotAValue, nil, left, b.bindToNothing(right))
	}
	var typ symbols.Type
	switch {
	case lt == nil:
		typ = right.Type()
		if typ == nil || (typ.IsValueType() && !symbols.IsNullable(typ)) {
			return fail()
		}
	case symbols.IsDynamic(lt):
		typ = lt
	case symbols.IsNullable(lt):
		under := symbols.NullableUnderlying(lt)
		switch {
		case b.classify(right, under).IsImplicit():
			typ = under
		case b.classify(right, lt).IsImplicit():
			typ = lt
		default:
			return fail()
		}
	case lt.IsValueType():
		return fail()
	default:
		switch rt := right.Type(); {
		case b.classify(right, lt).IsImplicit():
			typ = lt
		case rt != nil && b.conv().ClassifyImplicit(lt, rt).Exists():
			typ = rt
			left = b.convertImplicit(left, rt)
		default:
			return fail()
		}
	}
	right = b.convertImplicit(right, typ)
	return bound.New(&bound.NullCoalescing{Left: left, Right: right}, x, typ)
}

// bindAssignment binds simple and compound assignment.  A compound
// assignment whose operator result only converts explicitly to the
// target is accepted when the right operand converts implicitly.
func (b *Binder) bindAssignment(x *syntax.Assignment) bound.Expr {
	left := b.bindValue(x.Left, valueAssignable)
	right := b.bindValue(x.Right, valueRValueOrMethodGroup)
	if left.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, left, b.bindToNothing(right))
	}
	lt := left.Type()
	if !x.Compound {
		right = b.convertImplicit(right, lt)
		return bound.New(&bound.Assignment{Left: left, Right: right}, x, lt)
	}
	if ev, ok := left.(*bound.EventAccess); ok && (x.Op == syntax.BinaryAdd || x.Op == syntax.BinarySub) {
		right = b.convertImplicit(right, ev.Type())
		return bound.New(&bound.Assignment{Left: left, Right: right, Compound: true, Op: x.Op}, x, b.special(symbols.SpecialVoid))
	}
	if right.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, left, b.bindToNothing(right))
	}
	if isDynamicOperand(left) || isDynamicOperand(right) {
		return bound.New(&bound.Assignment{Left: left, Right: b.dynamicOperand(right), Compound: true, Op: x.Op}, x, lt)
	}
	op := b.bindBinaryOperator(x, x.Op, left, right)
	if op.HasErrors() {
		return b.bad(x, bound.NotAValue, nil, left, b.bindToNothing(right))
	}
	bin, ok := op.(*bound.Binary)
	if !ok {
		invariant("compound operator bound to %T", op)
	}
	result := op.Type()
	switch {
	case b.conv().ClassifyImplicit(result, lt).Exists():
	case b.conv().ClassifyExplicit(result, lt).Exists() && b.classify(right, lt).IsImplicit():
	default:
		b.report(diagnostic.NoImplicitConversion, x.Source, result, lt)
		return b.bad(x, bound.NotAValue, nil, left, bin.Right)
	}
	return bound.New(&bound.Assignment{Left: left, Right: bin.Right, Compound: true, Op: x.Op, Method: bin.Method}, x, lt)
}
