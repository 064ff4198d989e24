// Copyright © 2024 The ELPS authors

package bound

import (
	"github.com/luthersystems/sharpbind/conversion"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// Literal is a literal constant.  The null literal has no type until it
// is converted.
type Literal struct {
	exprBase
	Value interface{}
}

// Local is a reference to a local variable.
type Local struct {
	exprBase
	Symbol *symbols.Local
}

// Parameter is a reference to a parameter of the enclosing lambda.
type Parameter struct {
	exprBase
	Symbol *symbols.Parameter
}

// RangeVariable is a reference to a query range variable.  Value is the
// expression it was rewritten to: a lambda parameter or a member access
// path through transparent identifiers.
type RangeVariable struct {
	exprBase
	Symbol *symbols.RangeVariable
	Value  Expr
}

// This is this, or the implicit receiver of an unqualified instance member.
type This struct {
	exprBase
	Implicit bool
}

// Base is base used as a receiver.
type Base struct {
	exprBase
}

// TypeExpr is a type used as an expression, typically a receiver of a
// static member access.  Its Type is the type named.
type TypeExpr struct {
	exprBase
	Alias *symbols.Alias
}

// NamespaceExpr is a namespace used as the left side of a member access.
type NamespaceExpr struct {
	exprBase
	Namespace *symbols.Namespace
}

// TypeOrValue is a simple name that denotes both a value and a type of the
// same name.  The consumer picks one interpretation: static members are
// looked up through TypeExpr, instance members through Value.
type TypeOrValue struct {
	exprBase
	Value    Expr
	TypeExpr *TypeExpr
}

// FieldAccess reads or writes a field.  Receiver is nil for static fields.
type FieldAccess struct {
	exprBase
	Receiver Expr
	Field    *symbols.Field
}

// PropertyAccess reads or writes a property.  Receiver is nil for static
// properties.
type PropertyAccess struct {
	exprBase
	Receiver Expr
	Property *symbols.Property
}

// EventAccess references an event.
type EventAccess struct {
	exprBase
	Receiver Expr
	Event    *symbols.Event
}

// Arguments is the resolved argument list of a call, indexer access or
// object creation.  ArgsToParams is nil when argument i binds to
// parameter i.
type Arguments struct {
	Args         []Expr
	Names        []string
	RefKinds     []syntax.RefKind
	ArgsToParams []int
	Expanded     bool
}

// Param returns the index of the parameter argument i binds to.
func (a *Arguments) Param(i int) int {
	if a.ArgsToParams == nil {
		return i
	}
	return a.ArgsToParams[i]
}

// IndexerAccess reads or writes an indexer.
type IndexerAccess struct {
	exprBase
	Arguments
	Receiver Expr
	Indexer  *symbols.Property
}

// ArrayAccess is an array element access.
type ArrayAccess struct {
	exprBase
	Array   Expr
	Indices []Expr
}

// PointerIndirection is *p.
type PointerIndirection struct {
	exprBase
	Operand Expr
}

// AddressOf is &x.
type AddressOf struct {
	exprBase
	Operand Expr
}

// Call is a resolved method invocation.  A call to an extension method
// invoked with instance syntax has a nil Receiver and the receiver as its
// first argument.
type Call struct {
	exprBase
	Arguments
	Receiver           Expr
	Method             *symbols.Method
	InvokedAsExtension bool
	// ExplicitTypeArgs is set when the method type arguments were written
	// rather than inferred.
	ExplicitTypeArgs bool
}

// ObjectCreation is new T(args) resolved to a constructor.
type ObjectCreation struct {
	exprBase
	Arguments
	Constructor *symbols.Method
}

// DelegateCreation converts a lambda or method group to a delegate type.
// Method is the target method when Argument is a method group.
type DelegateCreation struct {
	exprBase
	Argument Expr
	Method   *symbols.Method
}

// ArrayCreation is new T[n] or new T[] { ... }.
type ArrayCreation struct {
	exprBase
	Sizes []Expr
	Init  *ArrayInitializer
}

// ArrayInitializer is the brace-enclosed element list of an array creation.
type ArrayInitializer struct {
	exprBase
	Items []Expr
}

// AnonymousObjectCreation is new { A = a, B = b }.
type AnonymousObjectCreation struct {
	exprBase
	Constructor *symbols.Method
	Args        []Expr
	Names       []string
}

// Conversion converts Operand to the node's type.  Explicit is set for
// conversions written as casts.
type Conversion struct {
	exprBase
	Operand    Expr
	Conversion conversion.Conversion
	Explicit   bool
}

// Unary is a unary operator, including increment and decrement.  Method is
// set for user-defined operators.
type Unary struct {
	exprBase
	Op      syntax.UnaryOp
	Operand Expr
	Method  *symbols.Method
}

// Binary is a binary operator, including the logical operators.  Method is
// set for user-defined operators.
type Binary struct {
	exprBase
	Op     syntax.BinaryOp
	Left   Expr
	Right  Expr
	Method *symbols.Method
}

// Conditional is c ? a : b.
type Conditional struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

// NullCoalescing is a ?? b.
type NullCoalescing struct {
	exprBase
	Left  Expr
	Right Expr
}

// ConditionalAccess is r?.access.  Access is bound against a
// ConditionalReceiver standing for the non-null value of Receiver.
type ConditionalAccess struct {
	exprBase
	Receiver Expr
	Access   Expr
}

// ConditionalReceiver is the implicit receiver inside a ConditionalAccess.
type ConditionalReceiver struct {
	exprBase
}

// Assignment is left = right, or left op= right when Compound.
type Assignment struct {
	exprBase
	Left     Expr
	Right    Expr
	Compound bool
	Op       syntax.BinaryOp
	Method   *symbols.Method
}

// IsOperator is e is T.
type IsOperator struct {
	exprBase
	Operand    Expr
	TargetType symbols.Type
	Conversion conversion.Conversion
}

// AsOperator is e as T.
type AsOperator struct {
	exprBase
	Operand    Expr
	Conversion conversion.Conversion
}

// TypeOf is typeof(T).
type TypeOf struct {
	exprBase
	Source symbols.Type
}

// SizeOf is sizeof(T).
type SizeOf struct {
	exprBase
	Source symbols.Type
}

// Default is default(T).
type Default struct {
	exprBase
}

// Lambda is a lambda bound against a delegate type.
type Lambda struct {
	exprBase
	Symbol *symbols.Method
	Body   Expr
}

// LambdaState is the binder's record of a lambda whose parameter types are
// not yet known.
type LambdaState interface {
	ParameterNames() []string
}

// UnboundLambda is a lambda awaiting a target delegate type.
type UnboundLambda struct {
	exprBase
	State LambdaState
}

// MethodGroup is the set of methods named by a simple name or member
// access, pending overload resolution.
type MethodGroup struct {
	exprBase
	Receiver Expr
	Name     string
	Methods  []*symbols.Method
	TypeArgs []symbols.Type
	// ResultKind is the outcome of the lookup that produced the group.
	ResultKind ResultKind
	// SearchExtensions is set when extension methods may extend the group.
	SearchExtensions bool
}

// PropertyGroup is a set of indexers pending overload resolution.
type PropertyGroup struct {
	exprBase
	Receiver   Expr
	Properties []*symbols.Property
}

// BadExpression stands for an expression that could not be bound.  It
// keeps whatever was bound beneath it, and the candidate symbols for
// reporting.
type BadExpression struct {
	exprBase
	ResultKind ResultKind
	Symbols    []symbols.Symbol
	Children   []Expr
}

// QueryClause wraps the translation of one query clause.  Value is the
// translated expression.  Operation is the synthesized call for clauses
// that invoke a query operator, Cast the Cast<T> call for an explicitly
// typed range variable and UnoptimizedForm the two-lambda GroupBy call
// when the one-lambda form was chosen.
type QueryClause struct {
	exprBase
	Clause          syntax.Node
	Value           Expr
	Definition      *symbols.RangeVariable
	Operation       Expr
	Cast            Expr
	UnoptimizedForm Expr
}

// DynamicInvocation is an invocation dispatched at run time.  Applicable
// holds the statically applicable candidates when Expression is a method
// group.
type DynamicInvocation struct {
	exprBase
	Expression Expr
	Args       []Expr
	Names      []string
	RefKinds   []syntax.RefKind
	Applicable []*symbols.Method
}

// DynamicMemberAccess is a member access on a dynamic receiver.
type DynamicMemberAccess struct {
	exprBase
	Receiver Expr
	Name     string
	TypeArgs []symbols.Type
	Invoked  bool
}

// DynamicIndexerAccess is an element access dispatched at run time.
type DynamicIndexerAccess struct {
	exprBase
	Receiver   Expr
	Args       []Expr
	Names      []string
	Applicable []*symbols.Property
}

// DynamicObjectCreation is new T(args) with a dynamic argument.
type DynamicObjectCreation struct {
	exprBase
	Args       []Expr
	Names      []string
	Applicable []*symbols.Method
}

// DynamicUnary is a unary operator on a dynamic operand.
type DynamicUnary struct {
	exprBase
	Op      syntax.UnaryOp
	Operand Expr
}

// DynamicBinary is a binary operator with a dynamic operand.
type DynamicBinary struct {
	exprBase
	Op    syntax.BinaryOp
	Left  Expr
	Right Expr
}

// IsDynamic reports whether e belongs to the dynamic node family.
func IsDynamic(e Expr) bool {
	switch e.(type) {
	case *DynamicInvocation, *DynamicMemberAccess, *DynamicIndexerAccess,
		*DynamicObjectCreation, *DynamicUnary, *DynamicBinary:
		return true
	}
	return false
}

// Strip removes the wrapper nodes that do not change the meaning of e:
// query clauses and identity conversions.
func Strip(e Expr) Expr {
	for {
		switch n := e.(type) {
		case *QueryClause:
			e = n.Value
		case *Conversion:
			if !n.Conversion.IsIdentity() || n.Explicit {
				return e
			}
			e = n.Operand
		default:
			return e
		}
	}
}
