// Copyright © 2024 The ELPS authors

// Package bound defines the typed, resolved trees produced by the binder.
//
// The node set is closed.  Every node records the syntax it was bound from,
// its result type, an optional constant value and a has-errors flag.  The
// flag is computed from the node's children when the node is constructed
// and is only ever widened: a parent of an erroneous child is erroneous
// unless the binder explicitly suppresses the cascade.  Nodes are never
// mutated after construction; the With* functions return modified copies.
//
// Typeless nodes (Type returns nil) are limited to UnboundLambda,
// MethodGroup, PropertyGroup, NamespaceExpr, ArrayInitializer and a Literal
// for the null constant.
package bound

import (
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// Expr is a bound expression.
type Expr interface {
	Syntax() syntax.Node
	Type() symbols.Type
	Constant() *Const
	HasErrors() bool
	String() string
	base() *exprBase
}

// Const is a compile-time constant value.  A nil *Const means the
// expression is not constant; Value is nil for the null constant.
type Const struct {
	Value interface{}
}

type exprBase struct {
	syntax   syntax.Node
	typ      symbols.Type
	constant *Const
	errors   bool
}

func (b *exprBase) Syntax() syntax.Node { return b.syntax }
func (b *exprBase) Type() symbols.Type  { return b.typ }
func (b *exprBase) Constant() *Const    { return b.constant }
func (b *exprBase) HasErrors() bool     { return b.errors }
func (b *exprBase) base() *exprBase     { return b }

// Option modifies a node under construction.
type Option func(*options)

type options struct {
	errors   bool
	suppress bool
	constant *Const
}

// Errors marks the new node as erroneous regardless of its children.
func Errors() Option {
	return func(o *options) { o.errors = true }
}

// suppressErrors stops the errors of the node's children from propagating
// to it.
func suppressErrors() Option {
	return func(o *options) { o.suppress = true }
}

// Constant attaches a constant value to the new node.
func Constant(v interface{}) Option {
	return func(o *options) { o.constant = &Const{Value: v} }
}

// New finishes the construction of n: it records the syntax and type and
// computes the has-errors flag from n's children.
func New[T Expr](n T, syn syntax.Node, typ symbols.Type, opts ...Option) T {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := n.base()
	b.syntax = syn
	b.typ = typ
	b.constant = o.constant
	b.errors = o.errors
	if !o.suppress && !b.errors {
		for _, c := range Children(n) {
			if c.HasErrors() {
				b.errors = true
				break
			}
		}
	}
	return n
}

func clone[N any, P interface {
	*N
	Expr
}](n P) P {
	c := new(N)
	*c = *(*N)(n)
	return P(c)
}

// WithType returns a copy of n with result type t.
func WithType[N any, P interface {
	*N
	Expr
}](n P, t symbols.Type) P {
	c := clone[N, P](n)
	c.base().typ = t
	return c
}

// WithErrors returns a copy of n with the has-errors flag set.  n itself is
// returned when it already has errors.
func WithErrors[N any, P interface {
	*N
	Expr
}](n P) P {
	if n.HasErrors() {
		return n
	}
	c := clone[N, P](n)
	c.base().errors = true
	return c
}

// IsTypeless reports whether e is one of the shapes that carry no type by
// construction.
func IsTypeless(e Expr) bool {
	switch e := e.(type) {
	case *UnboundLambda, *MethodGroup, *PropertyGroup, *NamespaceExpr, *ArrayInitializer:
		return true
	case *Literal:
		return e.Type() == nil && e.Constant() != nil && e.Constant().Value == nil
	}
	return false
}

// IsNullLiteral reports whether e is the typeless null literal.
func IsNullLiteral(e Expr) bool {
	lit, ok := e.(*Literal)
	return ok && lit.Type() == nil && lit.Value == nil
}

// ResultKind classifies the outcome of a lookup or resolution.  Kinds are
// ordered from the worst failure to Viable; a larger kind is a better
// result.
type ResultKind int

const (
	Empty ResultKind = iota
	WrongArity
	Inaccessible
	NotAValue
	StaticInstanceMismatch
	OverloadResolutionFailure
	Ambiguous
	Viable
)

func (k ResultKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case WrongArity:
		return "wrong arity"
	case Inaccessible:
		return "inaccessible"
	case NotAValue:
		return "not a value"
	case StaticInstanceMismatch:
		return "static/instance mismatch"
	case OverloadResolutionFailure:
		return "overload resolution failure"
	case Ambiguous:
		return "ambiguous"
	case Viable:
		return "viable"
	default:
		return "unknown"
	}
}

// IsBetterThan reports whether k is a strictly better outcome than other.
func (k ResultKind) IsBetterThan(other ResultKind) bool { return k > other }
