// Copyright © 2024 The ELPS authors

// Package conversion classifies conversions between types.  It answers
// whether a conversion from one type to another exists and whether it is
// implicit or explicit, and reports the kind of conversion so that the
// binder can make it explicit in the bound tree.
package conversion

import (
	"github.com/luthersystems/sharpbind/symbols"
)

// Kind is the classification of a conversion.
type Kind int

const (
	None Kind = iota
	Identity
	ImplicitNumeric
	ImplicitConstant
	ImplicitEnumeration
	ImplicitNullable
	NullLiteral
	ImplicitReference
	Boxing
	ImplicitDynamic
	ImplicitPointer
	ImplicitUserDefined
	AnonymousFunction
	MethodGroup
	ExplicitNumeric
	ExplicitEnumeration
	ExplicitNullable
	ExplicitReference
	Unboxing
	ExplicitDynamic
	ExplicitPointer
	ExplicitUserDefined
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Identity:
		return "identity"
	case ImplicitNumeric:
		return "implicit numeric"
	case ImplicitConstant:
		return "implicit constant"
	case ImplicitEnumeration:
		return "implicit enumeration"
	case ImplicitNullable:
		return "implicit nullable"
	case NullLiteral:
		return "null literal"
	case ImplicitReference:
		return "implicit reference"
	case Boxing:
		return "boxing"
	case ImplicitDynamic:
		return "implicit dynamic"
	case ImplicitPointer:
		return "implicit pointer"
	case ImplicitUserDefined:
		return "implicit user-defined"
	case AnonymousFunction:
		return "anonymous function"
	case MethodGroup:
		return "method group"
	case ExplicitNumeric:
		return "explicit numeric"
	case ExplicitEnumeration:
		return "explicit enumeration"
	case ExplicitNullable:
		return "explicit nullable"
	case ExplicitReference:
		return "explicit reference"
	case Unboxing:
		return "unboxing"
	case ExplicitDynamic:
		return "explicit dynamic"
	case ExplicitPointer:
		return "explicit pointer"
	case ExplicitUserDefined:
		return "explicit user-defined"
	default:
		return "unknown"
	}
}

// Conversion is the result of classifying a conversion.  Method is the
// operator method of a user-defined conversion or the target method of a
// method group conversion.
type Conversion struct {
	Kind   Kind
	Method *symbols.Method
}

// NoConversion is the absent conversion.
var NoConversion = Conversion{}

// Of returns a conversion of kind k.
func Of(k Kind) Conversion { return Conversion{Kind: k} }

// Exists reports whether a conversion exists.
func (c Conversion) Exists() bool { return c.Kind != None }

// IsImplicit reports whether the conversion may be applied implicitly.
func (c Conversion) IsImplicit() bool {
	return c.Kind >= Identity && c.Kind <= MethodGroup
}

// IsExplicit reports whether the conversion requires a cast.
func (c Conversion) IsExplicit() bool { return c.Kind >= ExplicitNumeric }

// IsIdentity reports whether the conversion is an identity conversion.
func (c Conversion) IsIdentity() bool { return c.Kind == Identity }

// IsUserDefined reports whether the conversion calls an operator method.
func (c Conversion) IsUserDefined() bool {
	return c.Kind == ImplicitUserDefined || c.Kind == ExplicitUserDefined
}

// IsNumeric reports whether the conversion is numeric, implicit or not.
func (c Conversion) IsNumeric() bool {
	return c.Kind == ImplicitNumeric || c.Kind == ExplicitNumeric || c.Kind == ImplicitConstant
}

func (c Conversion) String() string {
	if c.Method != nil {
		return c.Kind.String() + " (" + c.Method.String() + ")"
	}
	return c.Kind.String()
}

// Rank orders implicit conversions for tie-breaking between otherwise
// equally good overloads: identity before numeric, numeric before
// reference, reference before boxing, boxing before user-defined.  Lower
// is better.  Explicit and absent conversions rank last.
func (c Conversion) Rank() int {
	switch c.Kind {
	case Identity:
		return 0
	case ImplicitNumeric, ImplicitConstant, ImplicitEnumeration, ImplicitNullable:
		return 1
	case ImplicitReference, NullLiteral, ImplicitPointer, AnonymousFunction, MethodGroup:
		return 2
	case Boxing, ImplicitDynamic:
		return 3
	case ImplicitUserDefined:
		return 4
	}
	return 5
}
