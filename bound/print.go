// Copyright © 2024 The ELPS authors

package bound

import (
	"strconv"
	"strings"

	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// The printer renders bound trees as C# source.  Implicit conversions are
// invisible, extension calls print with instance syntax and range
// variables print as the expression they were rewritten to, so a printed
// query shows its translation.

type printer struct {
	b strings.Builder
}

func render(e Expr) string {
	var p printer
	p.expr(e)
	return p.b.String()
}

func (p *printer) str(s string) { p.b.WriteString(s) }

func (p *printer) list(xs []Expr) {
	for i, x := range xs {
		if i > 0 {
			p.str(", ")
		}
		p.expr(x)
	}
}

func (p *printer) args(a *Arguments, from int) {
	p.str("(")
	for i := from; i < len(a.Args); i++ {
		if i > from {
			p.str(", ")
		}
		if i < len(a.Names) && a.Names[i] != "" {
			p.str(a.Names[i])
			p.str(": ")
		}
		if i < len(a.RefKinds) && a.RefKinds[i] != syntax.RefNone {
			p.str(a.RefKinds[i].String())
			p.str(" ")
		}
		p.expr(a.Args[i])
	}
	p.str(")")
}

// Precedence levels, loosest first.
const (
	precLambda = iota
	precAssign
	precConditional
	precCoalesce
	precLogicalOr
	precLogicalAnd
	precOr
	precXor
	precAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

func binaryPrec(op syntax.BinaryOp) int {
	switch op {
	case syntax.BinaryMul, syntax.BinaryDiv, syntax.BinaryMod:
		return precMultiplicative
	case syntax.BinaryAdd, syntax.BinarySub:
		return precAdditive
	case syntax.BinaryShl, syntax.BinaryShr:
		return precShift
	case syntax.BinaryLt, syntax.BinaryGt, syntax.BinaryLe, syntax.BinaryGe:
		return precRelational
	case syntax.BinaryEq, syntax.BinaryNe:
		return precEquality
	case syntax.BinaryAnd:
		return precAnd
	case syntax.BinaryXor:
		return precXor
	case syntax.BinaryOr:
		return precOr
	case syntax.BinaryLogicalAnd:
		return precLogicalAnd
	case syntax.BinaryLogicalOr:
		return precLogicalOr
	default:
		return precCoalesce
	}
}

func prec(e Expr) int {
	switch n := e.(type) {
	case *Lambda, *UnboundLambda:
		return precLambda
	case *Assignment:
		return precAssign
	case *Conditional:
		return precConditional
	case *NullCoalescing:
		return precCoalesce
	case *Binary:
		return binaryPrec(n.Op)
	case *DynamicBinary:
		return binaryPrec(n.Op)
	case *IsOperator, *AsOperator:
		return precRelational
	case *Unary, *DynamicUnary, *PointerIndirection, *AddressOf:
		return precUnary
	case *Conversion:
		if n.Explicit {
			return precUnary
		}
		return prec(n.Operand)
	case *QueryClause:
		return prec(n.Value)
	case *RangeVariable:
		if n.Value != nil {
			return prec(n.Value)
		}
	case *TypeOrValue:
		return prec(n.Value)
	}
	return precPrimary
}

// operand prints e, parenthesized when it binds looser than min.
func (p *printer) operand(e Expr, min int) {
	if prec(e) < min {
		p.str("(")
		p.expr(e)
		p.str(")")
		return
	}
	p.expr(e)
}

// receiver prints the receiver of a member named through container,
// followed by the member separator.
func (p *printer) receiver(recv Expr, container *symbols.NamedType) {
	switch r := recv.(type) {
	case nil:
		// Members of synthesized classes, the script class in particular,
		// are referenced without qualification.
		if container != nil && !strings.HasPrefix(container.Name(), "<") {
			p.str(container.String())
			p.str(".")
		}
		return
	case *This:
		if r.Implicit {
			return
		}
	case *ConditionalReceiver:
		p.str(".")
		return
	}
	p.operand(recv, precPrimary)
	p.str(".")
}

func (p *printer) typeArgs(args []symbols.Type) {
	if len(args) == 0 {
		return
	}
	p.str("<")
	for i, a := range args {
		if i > 0 {
			p.str(", ")
		}
		p.str(a.String())
	}
	p.str(">")
}

func (p *printer) expr(e Expr) {
	switch n := e.(type) {
	case nil:
		p.str("<nil>")
	case *Literal:
		p.str(FormatConstant(n.Value, n.Type()))
	case *Local:
		p.str(n.Symbol.Name())
	case *Parameter:
		p.str(n.Symbol.Name())
	case *RangeVariable:
		if n.Value != nil {
			p.expr(n.Value)
		} else {
			p.str(n.Symbol.Name())
		}
	case *This:
		p.str("this")
	case *Base:
		p.str("base")
	case *TypeExpr:
		p.str(n.Type().String())
	case *NamespaceExpr:
		p.str(n.Namespace.QualifiedName())
	case *TypeOrValue:
		p.expr(n.Value)
	case *FieldAccess:
		p.receiver(n.Receiver, n.Field.ContainingType())
		p.str(n.Field.Name())
	case *PropertyAccess:
		p.receiver(n.Receiver, n.Property.ContainingType())
		p.str(n.Property.Name())
	case *EventAccess:
		p.receiver(n.Receiver, n.Event.ContainingType())
		p.str(n.Event.Name())
	case *IndexerAccess:
		if _, ok := n.Receiver.(*ConditionalReceiver); !ok {
			p.operand(n.Receiver, precPrimary)
		}
		p.str("[")
		p.list(n.Args)
		p.str("]")
	case *ArrayAccess:
		if _, ok := n.Array.(*ConditionalReceiver); !ok {
			p.operand(n.Array, precPrimary)
		}
		p.str("[")
		p.list(n.Indices)
		p.str("]")
	case *PointerIndirection:
		p.str("*")
		p.operand(n.Operand, precUnary)
	case *AddressOf:
		p.str("&")
		p.operand(n.Operand, precUnary)
	case *Call:
		p.call(n)
	case *ObjectCreation:
		p.str("new ")
		p.str(n.Type().String())
		p.args(&n.Arguments, 0)
	case *DelegateCreation:
		p.str("new ")
		p.str(n.Type().String())
		p.str("(")
		p.expr(n.Argument)
		p.str(")")
	case *ArrayCreation:
		p.arrayCreation(n)
	case *ArrayInitializer:
		p.str("{ ")
		p.list(n.Items)
		p.str(" }")
	case *AnonymousObjectCreation:
		p.str("new { ")
		for i, a := range n.Args {
			if i > 0 {
				p.str(", ")
			}
			p.str(n.Names[i])
			p.str(" = ")
			p.expr(a)
		}
		p.str(" }")
	case *Conversion:
		if !n.Explicit {
			p.expr(n.Operand)
			return
		}
		p.str("(")
		p.str(n.Type().String())
		p.str(")")
		p.operand(n.Operand, precUnary)
	case *Unary:
		p.unary(n.Op, n.Operand)
	case *DynamicUnary:
		p.unary(n.Op, n.Operand)
	case *Binary:
		p.binary(n.Op, n.Left, n.Right)
	case *DynamicBinary:
		p.binary(n.Op, n.Left, n.Right)
	case *Conditional:
		p.operand(n.Cond, precCoalesce)
		p.str(" ? ")
		p.operand(n.Then, precConditional)
		p.str(" : ")
		p.operand(n.Else, precConditional)
	case *NullCoalescing:
		p.operand(n.Left, precLogicalOr)
		p.str(" ?? ")
		p.operand(n.Right, precCoalesce)
	case *ConditionalAccess:
		p.operand(n.Receiver, precPrimary)
		p.str("?")
		p.expr(n.Access)
	case *ConditionalReceiver:
	case *Assignment:
		p.operand(n.Left, precUnary)
		if n.Compound {
			p.str(" " + n.Op.String() + "= ")
		} else {
			p.str(" = ")
		}
		p.operand(n.Right, precAssign)
	case *IsOperator:
		p.operand(n.Operand, precShift)
		p.str(" is ")
		p.str(n.TargetType.String())
	case *AsOperator:
		p.operand(n.Operand, precShift)
		p.str(" as ")
		p.str(n.Type().String())
	case *TypeOf:
		p.str("typeof(" + n.Source.String() + ")")
	case *SizeOf:
		p.str("sizeof(" + n.Source.String() + ")")
	case *Default:
		p.str("default(" + n.Type().String() + ")")
	case *Lambda:
		p.lambdaParams(n.Symbol.Parameters())
		p.str(" => ")
		p.expr(n.Body)
	case *UnboundLambda:
		if n.Syntax() != nil {
			p.str(n.Syntax().String())
		} else {
			p.str("<lambda>")
		}
	case *MethodGroup:
		var container *symbols.NamedType
		if len(n.Methods) > 0 {
			container = n.Methods[0].ContainingType()
		}
		p.receiver(n.Receiver, container)
		p.str(n.Name)
		p.typeArgs(n.TypeArgs)
	case *PropertyGroup:
		p.operand(n.Receiver, precPrimary)
		p.str("[]")
	case *BadExpression:
		if n.Syntax() != nil {
			p.str(n.Syntax().String())
		} else {
			p.str("<error>")
		}
	case *QueryClause:
		p.expr(n.Value)
	case *DynamicInvocation:
		p.operand(n.Expression, precPrimary)
		p.args(&Arguments{Args: n.Args, Names: n.Names, RefKinds: n.RefKinds}, 0)
	case *DynamicMemberAccess:
		p.receiver(n.Receiver, nil)
		p.str(n.Name)
		p.typeArgs(n.TypeArgs)
	case *DynamicIndexerAccess:
		if _, ok := n.Receiver.(*ConditionalReceiver); !ok {
			p.operand(n.Receiver, precPrimary)
		}
		p.str("[")
		p.list(n.Args)
		p.str("]")
	case *DynamicObjectCreation:
		p.str("new ")
		p.str(n.Type().String())
		p.args(&Arguments{Args: n.Args, Names: n.Names}, 0)
	default:
		p.str("<?>")
	}
}

func (p *printer) call(n *Call) {
	m := n.Method
	from := 0
	if n.InvokedAsExtension && len(n.Args) > 0 {
		p.operand(n.Args[0], precPrimary)
		p.str(".")
		from = 1
	} else {
		p.receiver(n.Receiver, m.ContainingType())
	}
	p.str(m.Name())
	if n.ExplicitTypeArgs {
		p.typeArgs(m.TypeArguments())
	}
	p.args(&n.Arguments, from)
}

func (p *printer) unary(op syntax.UnaryOp, x Expr) {
	if op.IsPostfix() {
		p.operand(x, precPrimary)
		p.str(op.String())
		return
	}
	p.str(op.String())
	p.operand(x, precUnary)
}

func (p *printer) binary(op syntax.BinaryOp, l, r Expr) {
	pr := binaryPrec(op)
	p.operand(l, pr)
	p.str(" " + op.String() + " ")
	p.operand(r, pr+1)
}

func (p *printer) lambdaParams(params []*symbols.Parameter) {
	if len(params) == 1 {
		p.str(params[0].Name())
		return
	}
	p.str("(")
	for i, param := range params {
		if i > 0 {
			p.str(", ")
		}
		p.str(param.Name())
	}
	p.str(")")
}

func (p *printer) arrayCreation(n *ArrayCreation) {
	at, _ := n.Type().(*symbols.ArrayType)
	p.str("new ")
	if at == nil {
		p.str("?[]")
	} else {
		elem := at.Elem
		for {
			inner, ok := elem.(*symbols.ArrayType)
			if !ok {
				break
			}
			elem = inner.Elem
		}
		p.str(elem.String())
		p.str("[")
		if len(n.Sizes) > 0 {
			p.list(n.Sizes)
		} else {
			p.str(strings.Repeat(",", at.Rank-1))
		}
		p.str("]")
		for t := at.Elem; ; {
			inner, ok := t.(*symbols.ArrayType)
			if !ok {
				break
			}
			p.str("[" + strings.Repeat(",", inner.Rank-1) + "]")
			t = inner.Elem
		}
	}
	if n.Init != nil {
		p.str(" ")
		p.expr(n.Init)
	}
}

// FormatConstant renders a constant value of type typ as a C# literal.
func FormatConstant(v interface{}, typ symbols.Type) string {
	st := symbols.SpecialNone
	if typ != nil {
		st = symbols.Special(typ)
	}
	if typ != nil && typ.TypeKind() == symbols.TypeEnum {
		return "(" + typ.String() + ")" + FormatConstant(v, nil)
	}
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return strconv.Quote(v)
	case rune:
		return strconv.QuoteRune(v)
	case int64:
		return strconv.FormatInt(v, 10) + intSuffix(st)
	case uint64:
		return strconv.FormatUint(v, 10) + intSuffix(st)
	case float64:
		switch st {
		case symbols.SpecialSingle:
			return strconv.FormatFloat(v, 'g', -1, 32) + "F"
		case symbols.SpecialDecimal:
			return strconv.FormatFloat(v, 'f', -1, 64) + "M"
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += "D"
		}
		return s
	}
	return "?"
}

func intSuffix(st symbols.SpecialType) string {
	switch st {
	case symbols.SpecialUInt32:
		return "U"
	case symbols.SpecialInt64:
		return "L"
	case symbols.SpecialUInt64:
		return "UL"
	}
	return ""
}

func (n *Literal) String() string                 { return render(n) }
func (n *Local) String() string                   { return render(n) }
func (n *Parameter) String() string               { return render(n) }
func (n *RangeVariable) String() string           { return render(n) }
func (n *This) String() string                    { return render(n) }
func (n *Base) String() string                    { return render(n) }
func (n *TypeExpr) String() string                { return render(n) }
func (n *NamespaceExpr) String() string           { return render(n) }
func (n *TypeOrValue) String() string             { return render(n) }
func (n *FieldAccess) String() string             { return render(n) }
func (n *PropertyAccess) String() string          { return render(n) }
func (n *EventAccess) String() string             { return render(n) }
func (n *IndexerAccess) String() string           { return render(n) }
func (n *ArrayAccess) String() string             { return render(n) }
func (n *PointerIndirection) String() string      { return render(n) }
func (n *AddressOf) String() string               { return render(n) }
func (n *Call) String() string                    { return render(n) }
func (n *ObjectCreation) String() string          { return render(n) }
func (n *DelegateCreation) String() string        { return render(n) }
func (n *ArrayCreation) String() string           { return render(n) }
func (n *ArrayInitializer) String() string        { return render(n) }
func (n *AnonymousObjectCreation) String() string { return render(n) }
func (n *Conversion) String() string              { return render(n) }
func (n *Unary) String() string                   { return render(n) }
func (n *Binary) String() string                  { return render(n) }
func (n *Conditional) String() string             { return render(n) }
func (n *NullCoalescing) String() string          { return render(n) }
func (n *ConditionalAccess) String() string       { return render(n) }
func (n *ConditionalReceiver) String() string     { return render(n) }
func (n *Assignment) String() string              { return render(n) }
func (n *IsOperator) String() string              { return render(n) }
func (n *AsOperator) String() string              { return render(n) }
func (n *TypeOf) String() string                  { return render(n) }
func (n *SizeOf) String() string                  { return render(n) }
func (n *Default) String() string                 { return render(n) }
func (n *Lambda) String() string                  { return render(n) }
func (n *UnboundLambda) String() string           { return render(n) }
func (n *MethodGroup) String() string             { return render(n) }
func (n *PropertyGroup) String() string           { return render(n) }
func (n *BadExpression) String() string           { return render(n) }
func (n *QueryClause) String() string             { return render(n) }
func (n *DynamicInvocation) String() string       { return render(n) }
func (n *DynamicMemberAccess) String() string     { return render(n) }
func (n *DynamicIndexerAccess) String() string    { return render(n) }
func (n *DynamicObjectCreation) String() string   { return render(n) }
func (n *DynamicUnary) String() string            { return render(n) }
func (n *DynamicBinary) String() string           { return render(n) }
