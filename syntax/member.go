// Copyright © 2024 The ELPS authors

package syntax

// MemberDeclKind classifies a member declaration.
type MemberDeclKind int

const (
	MemberField MemberDeclKind = iota
	MemberConst
	MemberProperty
	MemberIndexer
	MemberEvent
	MemberMethod
	MemberConstructor
	MemberOperator
	MemberConversion
)

func (k MemberDeclKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberConst:
		return "const"
	case MemberProperty:
		return "property"
	case MemberIndexer:
		return "indexer"
	case MemberEvent:
		return "event"
	case MemberMethod:
		return "method"
	case MemberConstructor:
		return "constructor"
	case MemberOperator:
		return "operator"
	case MemberConversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// MemberDecl is a bodiless member signature such as
//
//	static IEnumerable<T> Where<T>(this IEnumerable<T> source, Func<T, bool> f)
//
// used to describe metadata.  Type is the field, property or return type;
// for conversions it is the target type.  Operator holds the operator token
// for operators and "implicit" or "explicit" for conversions.
type MemberDecl struct {
	Kind        MemberDeclKind
	Modifiers   []string
	Type        Type
	Name        string
	Operator    string
	TypeParams  []*TypeParamDecl
	Params      []*ParamDecl
	Constraints []*ConstraintDecl
	Get         bool
	Set         bool
	Value       Expr
	Source      Location
}

// HasModifier reports whether mod was written on d.
func (d *MemberDecl) HasModifier(mod string) bool {
	for _, m := range d.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// TypeParamDecl is a declared type parameter with optional variance
// ("in" or "out").
type TypeParamDecl struct {
	Name     string
	Variance string
}

// ParamDecl is one declared parameter.
type ParamDecl struct {
	Name    string
	Type    Type
	RefKind RefKind
	This    bool
	Params  bool
	Default Expr
	Source  Location
}

// ConstraintDecl is where Param : constraints.
type ConstraintDecl struct {
	Param  string
	Class  bool
	Struct bool
	New    bool
	Types  []Type
}
