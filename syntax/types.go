// Copyright © 2024 The ELPS authors

package syntax

// Type is a type reference written in source.
type Type interface {
	Node
	typeNode()
}

// PredefinedKeywords lists the type keywords with a special type behind
// them.
var PredefinedKeywords = map[string]bool{
	"object":  true,
	"string":  true,
	"bool":    true,
	"char":    true,
	"sbyte":   true,
	"byte":    true,
	"short":   true,
	"ushort":  true,
	"int":     true,
	"uint":    true,
	"long":    true,
	"ulong":   true,
	"float":   true,
	"double":  true,
	"decimal": true,
	"void":    true,
	"dynamic": false, // contextual; resolved by name lookup
}

// PredefinedType is a type keyword such as int or string.  It is both a
// type and an expression so that int.Parse(s) parses as a member access.
type PredefinedType struct {
	Keyword string
	Source  Location
}

// NamedType is a possibly qualified, possibly generic type name:
// System.Collections.Generic.List<int>.
type NamedType struct {
	Qualifier *NamedType
	Name      string
	TypeArgs  []Type
	Source    Location
}

// ArrayType is Elem[] with the given rank.
type ArrayType struct {
	Elem   Type
	Rank   int
	Source Location
}

// PointerType is Elem*.
type PointerType struct {
	Elem   Type
	Source Location
}

// NullableType is Elem?.
type NullableType struct {
	Elem   Type
	Source Location
}

func (t *PredefinedType) Loc() Location { return t.Source }
func (t *NamedType) Loc() Location      { return t.Source }
func (t *ArrayType) Loc() Location      { return t.Source }
func (t *PointerType) Loc() Location    { return t.Source }
func (t *NullableType) Loc() Location   { return t.Source }

func (*PredefinedType) typeNode() {}
func (*NamedType) typeNode()      {}
func (*ArrayType) typeNode()      {}
func (*PointerType) typeNode()    {}
func (*NullableType) typeNode()   {}

func (*PredefinedType) exprNode() {}

// IsVar reports whether t is the contextual keyword var.
func IsVar(t Type) bool {
	n, ok := t.(*NamedType)
	return ok && n.Qualifier == nil && n.Name == "var" && len(n.TypeArgs) == 0
}

// QualifiedName returns the dotted name of t without type arguments.
func (t *NamedType) QualifiedName() string {
	if t.Qualifier == nil {
		return t.Name
	}
	return t.Qualifier.QualifiedName() + "." + t.Name
}
