// Copyright © 2024 The ELPS authors

package syntax

// Query is a query expression: a from clause followed by a body.
type Query struct {
	From   *FromClause
	Body   *QueryBody
	Source Location
}

// QueryBody is the sequence of clauses after the initial from clause,
// terminated by a select or group clause and optionally continued with
// into.
type QueryBody struct {
	Clauses       []Clause
	SelectOrGroup Clause
	Continuation  *QueryContinuation
}

// QueryContinuation is "into Name Body".
type QueryContinuation struct {
	Name    string
	NameLoc Location
	Body    *QueryBody
	Source  Location
}

// Clause is a query clause.
type Clause interface {
	Node
	clauseNode()
}

// FromClause is from [Type] Name in In.
type FromClause struct {
	Type    Type
	Name    string
	NameLoc Location
	In      Expr
	Source  Location
}

// LetClause is let Name = Value.
type LetClause struct {
	Name    string
	NameLoc Location
	Value   Expr
	Source  Location
}

// WhereClause is where Cond.
type WhereClause struct {
	Cond   Expr
	Source Location
}

// JoinClause is join [Type] Name in In on Left equals Right [into Into].
type JoinClause struct {
	Type    Type
	Name    string
	NameLoc Location
	In      Expr
	Left    Expr
	Right   Expr
	Into    string
	IntoLoc Location
	Source  Location
}

// Ordering is one key of an orderby clause.
type Ordering struct {
	Key        Expr
	Descending bool
	Source     Location
}

// OrderByClause is orderby k1 [ascending|descending], k2 ...
type OrderByClause struct {
	Orderings []*Ordering
	Source    Location
}

// SelectClause is select Value.
type SelectClause struct {
	Value  Expr
	Source Location
}

// GroupClause is group Value by By.
type GroupClause struct {
	Value  Expr
	By     Expr
	Source Location
}

func (x *Query) Loc() Location             { return x.Source }
func (x *QueryContinuation) Loc() Location { return x.Source }
func (x *FromClause) Loc() Location        { return x.Source }
func (x *LetClause) Loc() Location         { return x.Source }
func (x *WhereClause) Loc() Location       { return x.Source }
func (x *JoinClause) Loc() Location        { return x.Source }
func (x *Ordering) Loc() Location          { return x.Source }
func (x *OrderByClause) Loc() Location     { return x.Source }
func (x *SelectClause) Loc() Location      { return x.Source }
func (x *GroupClause) Loc() Location       { return x.Source }

func (*Query) exprNode() {}

func (*FromClause) clauseNode()    {}
func (*LetClause) clauseNode()     {}
func (*WhereClause) clauseNode()   {}
func (*JoinClause) clauseNode()    {}
func (*OrderByClause) clauseNode() {}
func (*SelectClause) clauseNode()  {}
func (*GroupClause) clauseNode()   {}
