// Copyright © 2024 The ELPS authors

package syntax

// Node is implemented by every syntax tree node.
type Node interface {
	Loc() Location
	String() string
}

// Expr is an expression node.  The set of expression nodes is closed; the
// binder treats an unknown implementation as an internal error.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind distinguishes literal tokens.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitReal
	LitString
	LitChar
	LitTrue
	LitFalse
	LitNull
)

func (k LiteralKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitReal:
		return "real"
	case LitString:
		return "string"
	case LitChar:
		return "char"
	case LitTrue, LitFalse:
		return "bool"
	case LitNull:
		return "null"
	default:
		return "unknown"
	}
}

// Literal is a literal constant.  Text holds the token text as written and
// Value the decoded value: uint64 for integers, float64 for reals, string
// for strings, rune for chars, bool for booleans and nil for null.  Suffix
// holds an integer or real type suffix in lower case ("u", "l", "ul", "f",
// "d", "m").
type Literal struct {
	Kind   LiteralKind
	Text   string
	Value  interface{}
	Suffix string
	Source Location
}

// Identifier is a simple name.
type Identifier struct {
	Name   string
	Source Location
}

// GenericName is a simple name with an explicit type argument list, such
// as Cast<int> or List<string>.
type GenericName struct {
	Name     string
	TypeArgs []Type
	Source   Location
}

// MemberAccess is X.Name or X.Name<TypeArgs>.
type MemberAccess struct {
	X        Expr
	Name     string
	TypeArgs []Type
	NameLoc  Location
	Source   Location
}

// RefKind is the passing mode written on an argument or parameter.
type RefKind int

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (k RefKind) String() string {
	switch k {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	default:
		return ""
	}
}

// Argument is an argument to an invocation, element access or object
// creation.  Name is empty for positional arguments.
type Argument struct {
	Name    string
	NameLoc Location
	RefKind RefKind
	Value   Expr
}

// Invocation is Fn(Args).
type Invocation struct {
	Fn     Expr
	Args   []*Argument
	Source Location
}

// ElementAccess is X[Args].
type ElementAccess struct {
	X      Expr
	Args   []*Argument
	Source Location
}

// ImplicitReceiver stands for the receiver of the operations written after
// ?. or ?[ in a ConditionalAccess.
type ImplicitReceiver struct {
	Source Location
}

// ConditionalAccess is X?.rest or X?[i]rest.  WhenNotNull is rooted at an
// ImplicitReceiver.
type ConditionalAccess struct {
	X           Expr
	WhenNotNull Expr
	Source      Location
}

// ObjectCreation is new T(Args).
type ObjectCreation struct {
	Type   Type
	Args   []*Argument
	Source Location
}

// ArrayCreation is new T[n], new T[] { ... } or new[] { ... }.  Elem is
// nil for an implicitly typed array creation.
type ArrayCreation struct {
	Elem    Type
	Rank    int
	Sizes   []Expr
	Init    []Expr
	HasInit bool
	Source  Location
}

// AnonymousMember is one member declarator of an anonymous object
// creation.  Name is empty when the name is projected from Value.
type AnonymousMember struct {
	Name    string
	NameLoc Location
	Value   Expr
}

// AnonymousObjectCreation is new { A = 1, x.B }.
type AnonymousObjectCreation struct {
	Members []*AnonymousMember
	Source  Location
}

// UnaryOp enumerates prefix and postfix unary operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
	UnaryComplement
	UnaryPreIncrement
	UnaryPreDecrement
	UnaryPostIncrement
	UnaryPostDecrement
	UnaryAddressOf
	UnaryDeref
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryPlus:
		return "+"
	case UnaryMinus:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryComplement:
		return "~"
	case UnaryPreIncrement, UnaryPostIncrement:
		return "++"
	case UnaryPreDecrement, UnaryPostDecrement:
		return "--"
	case UnaryAddressOf:
		return "&"
	case UnaryDeref:
		return "*"
	default:
		return "?"
	}
}

// IsPostfix reports whether the operator is written after its operand.
func (op UnaryOp) IsPostfix() bool {
	return op == UnaryPostIncrement || op == UnaryPostDecrement
}

// Unary is a unary operator expression.
type Unary struct {
	Op     UnaryOp
	X      Expr
	Source Location
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	BinaryMul BinaryOp = iota
	BinaryDiv
	BinaryMod
	BinaryAdd
	BinarySub
	BinaryShl
	BinaryShr
	BinaryLt
	BinaryGt
	BinaryLe
	BinaryGe
	BinaryEq
	BinaryNe
	BinaryAnd
	BinaryXor
	BinaryOr
	BinaryLogicalAnd
	BinaryLogicalOr
	BinaryCoalesce
)

var binaryOpText = [...]string{
	BinaryMul:        "*",
	BinaryDiv:        "/",
	BinaryMod:        "%",
	BinaryAdd:        "+",
	BinarySub:        "-",
	BinaryShl:        "<<",
	BinaryShr:        ">>",
	BinaryLt:         "<",
	BinaryGt:         ">",
	BinaryLe:         "<=",
	BinaryGe:         ">=",
	BinaryEq:         "==",
	BinaryNe:         "!=",
	BinaryAnd:        "&",
	BinaryXor:        "^",
	BinaryOr:         "|",
	BinaryLogicalAnd: "&&",
	BinaryLogicalOr:  "||",
	BinaryCoalesce:   "??",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// Binary is X Op Y.
type Binary struct {
	Op     BinaryOp
	X      Expr
	Y      Expr
	Source Location
}

// Conditional is Cond ? Then : Else.
type Conditional struct {
	Cond   Expr
	Then   Expr
	Else   Expr
	Source Location
}

// Assignment is Left = Right or a compound assignment when Op is set.
type Assignment struct {
	Compound bool
	Op       BinaryOp
	Left     Expr
	Right    Expr
	Source   Location
}

// Cast is (Type)X.
type Cast struct {
	Type   Type
	X      Expr
	Source Location
}

// IsType is X is Type.
type IsType struct {
	X      Expr
	Type   Type
	Source Location
}

// AsType is X as Type.
type AsType struct {
	X      Expr
	Type   Type
	Source Location
}

// TypeOf is typeof(Type).
type TypeOf struct {
	Type   Type
	Source Location
}

// SizeOf is sizeof(Type).
type SizeOf struct {
	Type   Type
	Source Location
}

// Default is default(Type).
type Default struct {
	Type   Type
	Source Location
}

// This is the this keyword.
type This struct {
	Source Location
}

// Base is the base keyword.
type Base struct {
	Source Location
}

// Paren is a parenthesized expression.
type Paren struct {
	X      Expr
	Source Location
}

// LambdaParam is a lambda parameter.  Type is nil when the parameter is
// implicitly typed.
type LambdaParam struct {
	Name    string
	Type    Type
	RefKind RefKind
	Source  Location
}

// Lambda is an expression-bodied anonymous function.
type Lambda struct {
	Params []*LambdaParam
	Body   Expr
	Source Location
}

// HasExplicitTypes reports whether the lambda's parameters are typed.
func (l *Lambda) HasExplicitTypes() bool {
	return len(l.Params) > 0 && l.Params[0].Type != nil
}

func (x *Literal) Loc() Location                 { return x.Source }
func (x *Identifier) Loc() Location              { return x.Source }
func (x *GenericName) Loc() Location             { return x.Source }
func (x *MemberAccess) Loc() Location            { return x.Source }
func (x *Invocation) Loc() Location              { return x.Source }
func (x *ElementAccess) Loc() Location           { return x.Source }
func (x *ImplicitReceiver) Loc() Location        { return x.Source }
func (x *ConditionalAccess) Loc() Location       { return x.Source }
func (x *ObjectCreation) Loc() Location          { return x.Source }
func (x *ArrayCreation) Loc() Location           { return x.Source }
func (x *AnonymousObjectCreation) Loc() Location { return x.Source }
func (x *Unary) Loc() Location                   { return x.Source }
func (x *Binary) Loc() Location                  { return x.Source }
func (x *Conditional) Loc() Location             { return x.Source }
func (x *Assignment) Loc() Location              { return x.Source }
func (x *Cast) Loc() Location                    { return x.Source }
func (x *IsType) Loc() Location                  { return x.Source }
func (x *AsType) Loc() Location                  { return x.Source }
func (x *TypeOf) Loc() Location                  { return x.Source }
func (x *SizeOf) Loc() Location                  { return x.Source }
func (x *Default) Loc() Location                 { return x.Source }
func (x *This) Loc() Location                    { return x.Source }
func (x *Base) Loc() Location                    { return x.Source }
func (x *Paren) Loc() Location                   { return x.Source }
func (x *Lambda) Loc() Location                  { return x.Source }
func (x *LambdaParam) Loc() Location             { return x.Source }

func (*Literal) exprNode()                 {}
func (*Identifier) exprNode()              {}
func (*GenericName) exprNode()             {}
func (*MemberAccess) exprNode()            {}
func (*Invocation) exprNode()              {}
func (*ElementAccess) exprNode()           {}
func (*ImplicitReceiver) exprNode()        {}
func (*ConditionalAccess) exprNode()       {}
func (*ObjectCreation) exprNode()          {}
func (*ArrayCreation) exprNode()           {}
func (*AnonymousObjectCreation) exprNode() {}
func (*Unary) exprNode()                   {}
func (*Binary) exprNode()                  {}
func (*Conditional) exprNode()             {}
func (*Assignment) exprNode()              {}
func (*Cast) exprNode()                    {}
func (*IsType) exprNode()                  {}
func (*AsType) exprNode()                  {}
func (*TypeOf) exprNode()                  {}
func (*SizeOf) exprNode()                  {}
func (*Default) exprNode()                 {}
func (*This) exprNode()                    {}
func (*Base) exprNode()                    {}
func (*Paren) exprNode()                   {}
func (*Lambda) exprNode()                  {}

// Unparen strips any number of enclosing parentheses from x.
func Unparen(x Expr) Expr {
	for {
		p, ok := x.(*Paren)
		if !ok {
			return x
		}
		x = p.X
	}
}
