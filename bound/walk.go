// Copyright © 2024 The ELPS authors

package bound

import "fmt"

// Children returns the direct children of e in evaluation order.
func Children(e Expr) []Expr {
	var out []Expr
	add := func(xs ...Expr) {
		for _, x := range xs {
			if x != nil {
				out = append(out, x)
			}
		}
	}
	switch n := e.(type) {
	case *Literal, *Local, *Parameter, *This, *Base, *TypeExpr, *NamespaceExpr,
		*TypeOf, *SizeOf, *Default, *UnboundLambda, *ConditionalReceiver:
	case *RangeVariable:
		add(n.Value)
	case *TypeOrValue:
		add(n.Value)
	case *FieldAccess:
		add(n.Receiver)
	case *PropertyAccess:
		add(n.Receiver)
	case *EventAccess:
		add(n.Receiver)
	case *IndexerAccess:
		add(n.Receiver)
		add(n.Args...)
	case *ArrayAccess:
		add(n.Array)
		add(n.Indices...)
	case *PointerIndirection:
		add(n.Operand)
	case *AddressOf:
		add(n.Operand)
	case *Call:
		add(n.Receiver)
		add(n.Args...)
	case *ObjectCreation:
		add(n.Args...)
	case *DelegateCreation:
		add(n.Argument)
	case *ArrayCreation:
		add(n.Sizes...)
		if n.Init != nil {
			add(n.Init)
		}
	case *ArrayInitializer:
		add(n.Items...)
	case *AnonymousObjectCreation:
		add(n.Args...)
	case *Conversion:
		add(n.Operand)
	case *Unary:
		add(n.Operand)
	case *Binary:
		add(n.Left, n.Right)
	case *Conditional:
		add(n.Cond, n.Then, n.Else)
	case *NullCoalescing:
		add(n.Left, n.Right)
	case *ConditionalAccess:
		add(n.Receiver, n.Access)
	case *Assignment:
		add(n.Left, n.Right)
	case *IsOperator:
		add(n.Operand)
	case *AsOperator:
		add(n.Operand)
	case *Lambda:
		add(n.Body)
	case *MethodGroup:
		add(n.Receiver)
	case *PropertyGroup:
		add(n.Receiver)
	case *BadExpression:
		add(n.Children...)
	case *QueryClause:
		add(n.Value)
	case *DynamicInvocation:
		add(n.Expression)
		add(n.Args...)
	case *DynamicMemberAccess:
		add(n.Receiver)
	case *DynamicIndexerAccess:
		add(n.Receiver)
		add(n.Args...)
	case *DynamicObjectCreation:
		add(n.Args...)
	case *DynamicUnary:
		add(n.Operand)
	case *DynamicBinary:
		add(n.Left, n.Right)
	default:
		panic(fmt.Sprintf("bound: unknown node %T", e))
	}
	return out
}

// Inspect traverses the tree rooted at e depth-first, calling fn for each
// node.  Children are skipped when fn returns false.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, fn)
	}
}

// Walk calls fn for every node in the tree rooted at e with its parent and
// depth.  parent is nil for the root.
func Walk(e Expr, fn func(e, parent Expr, depth int)) {
	walk(e, nil, 0, fn)
}

func walk(e, parent Expr, depth int, fn func(Expr, Expr, int)) {
	if e == nil {
		return
	}
	fn(e, parent, depth)
	for _, c := range Children(e) {
		walk(c, e, depth+1, fn)
	}
}

// Find returns the first node of type T in the tree rooted at e, in
// depth-first order.
func Find[T Expr](e Expr) (T, bool) {
	var found T
	var ok bool
	Inspect(e, func(n Expr) bool {
		if ok {
			return false
		}
		found, ok = n.(T)
		return !ok
	})
	return found, ok
}

// FindAll returns every node of type T in the tree rooted at e.
func FindAll[T Expr](e Expr) []T {
	var out []T
	Inspect(e, func(n Expr) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}
