// Copyright © 2024 The ELPS authors

package syntax

// Script is a source file: using directives followed by a top-level block
// of local declarations, expression statements and nested blocks.
type Script struct {
	File   string
	Usings []*UsingDirective
	Body   *Block
}

// UsingDirective is using Name; or using Alias = Name;.
type UsingDirective struct {
	Alias    string
	AliasLoc Location
	Name     *NamedType
	Source   Location
}

// Statement is an element of a Block.
type Statement interface {
	Node
	stmtNode()
}

// Block is { ... } or unsafe { ... }.  The top-level block of a Script has
// no braces.
type Block struct {
	Statements []Statement
	Unsafe     bool
	Source     Location
}

// Declarator is one name introduced by a LocalDecl, with an optional
// initializer.
type Declarator struct {
	Name    string
	NameLoc Location
	Init    Expr
}

// LocalDecl is [const] Type a [= e], b;.
type LocalDecl struct {
	Const       bool
	Type        Type
	Declarators []*Declarator
	Source      Location
}

// ExprStmt is an expression followed by a semicolon.
type ExprStmt struct {
	X      Expr
	Source Location
}

func (x *UsingDirective) Loc() Location { return x.Source }
func (x *Block) Loc() Location          { return x.Source }
func (x *LocalDecl) Loc() Location      { return x.Source }
func (x *ExprStmt) Loc() Location       { return x.Source }

func (*Block) stmtNode()     {}
func (*LocalDecl) stmtNode() {}
func (*ExprStmt) stmtNode()  {}
