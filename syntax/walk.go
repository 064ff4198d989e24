// Copyright © 2024 The ELPS authors

package syntax

// Walk calls fn for every node in the tree rooted at node, depth-first.
// parent is nil for the root.
func Walk(node Node, fn func(node Node, parent Node, depth int)) {
	walkNode(node, nil, 0, fn)
}

func walkNode(node Node, parent Node, depth int, fn func(Node, Node, int)) {
	if isNil(node) {
		return
	}
	fn(node, parent, depth)
	for _, child := range Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Inspect traverses the tree rooted at node in depth-first order, calling
// fn for each node.  Children are skipped when fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, fn)
	}
}

// Innermost returns the deepest expression in the tree rooted at node whose
// location contains the byte offset pos, or nil.
func Innermost(node Node, pos int) Expr {
	var found Expr
	Inspect(node, func(n Node) bool {
		if !n.Loc().Contains(pos) {
			_, isBlock := n.(*Block)
			return isBlock
		}
		if x, ok := n.(Expr); ok {
			found = x
		}
		return true
	})
	return found
}

func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Block:
		return n == nil
	case *NamedType:
		return n == nil
	case *FromClause:
		return n == nil
	}
	return false
}

// Children returns the direct children of node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}
	addExpr := func(x Expr) {
		if x != nil {
			out = append(out, x)
		}
	}
	addType := func(t Type) {
		if t != nil {
			out = append(out, t)
		}
	}
	addArgs := func(args []*Argument) {
		for _, a := range args {
			addExpr(a.Value)
		}
	}
	switch n := node.(type) {
	case *GenericName:
		for _, t := range n.TypeArgs {
			addType(t)
		}
	case *MemberAccess:
		addExpr(n.X)
		for _, t := range n.TypeArgs {
			addType(t)
		}
	case *Invocation:
		addExpr(n.Fn)
		addArgs(n.Args)
	case *ElementAccess:
		addExpr(n.X)
		addArgs(n.Args)
	case *ConditionalAccess:
		addExpr(n.X)
		addExpr(n.WhenNotNull)
	case *ObjectCreation:
		addType(n.Type)
		addArgs(n.Args)
	case *ArrayCreation:
		addType(n.Elem)
		for _, x := range n.Sizes {
			addExpr(x)
		}
		for _, x := range n.Init {
			addExpr(x)
		}
	case *AnonymousObjectCreation:
		for _, m := range n.Members {
			addExpr(m.Value)
		}
	case *Unary:
		addExpr(n.X)
	case *Binary:
		addExpr(n.X)
		addExpr(n.Y)
	case *Conditional:
		addExpr(n.Cond)
		addExpr(n.Then)
		addExpr(n.Else)
	case *Assignment:
		addExpr(n.Left)
		addExpr(n.Right)
	case *Cast:
		addType(n.Type)
		addExpr(n.X)
	case *IsType:
		addExpr(n.X)
		addType(n.Type)
	case *AsType:
		addExpr(n.X)
		addType(n.Type)
	case *TypeOf:
		addType(n.Type)
	case *SizeOf:
		addType(n.Type)
	case *Default:
		addType(n.Type)
	case *Paren:
		addExpr(n.X)
	case *Lambda:
		for _, p := range n.Params {
			out = append(out, p)
		}
		addExpr(n.Body)
	case *LambdaParam:
		addType(n.Type)
	case *Query:
		add(n.From)
		out = append(out, bodyChildren(n.Body)...)
	case *QueryContinuation:
		out = append(out, bodyChildren(n.Body)...)
	case *FromClause:
		addType(n.Type)
		addExpr(n.In)
	case *LetClause:
		addExpr(n.Value)
	case *WhereClause:
		addExpr(n.Cond)
	case *JoinClause:
		addType(n.Type)
		addExpr(n.In)
		addExpr(n.Left)
		addExpr(n.Right)
	case *OrderByClause:
		for _, o := range n.Orderings {
			out = append(out, o)
		}
	case *Ordering:
		addExpr(n.Key)
	case *SelectClause:
		addExpr(n.Value)
	case *GroupClause:
		addExpr(n.Value)
		addExpr(n.By)
	case *NamedType:
		if n.Qualifier != nil {
			out = append(out, n.Qualifier)
		}
		for _, t := range n.TypeArgs {
			addType(t)
		}
	case *ArrayType:
		addType(n.Elem)
	case *PointerType:
		addType(n.Elem)
	case *NullableType:
		addType(n.Elem)
	case *Block:
		for _, s := range n.Statements {
			out = append(out, s)
		}
	case *LocalDecl:
		addType(n.Type)
		for _, d := range n.Declarators {
			addExpr(d.Init)
		}
	case *ExprStmt:
		addExpr(n.X)
	case *UsingDirective:
		if n.Name != nil {
			out = append(out, n.Name)
		}
	}
	return out
}

func bodyChildren(body *QueryBody) []Node {
	if body == nil {
		return nil
	}
	var out []Node
	for _, c := range body.Clauses {
		out = append(out, c)
	}
	if body.SelectOrGroup != nil {
		out = append(out, body.SelectOrGroup)
	}
	if body.Continuation != nil {
		out = append(out, body.Continuation)
	}
	return out
}
