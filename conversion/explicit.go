// Copyright © 2024 The ELPS authors

package conversion

import (
	"github.com/luthersystems/sharpbind/symbols"
)

// ClassifyExplicit returns the conversion a cast from one type to another
// performs.  Implicit conversions are also valid casts and are returned
// as such.
func (c *Classifier) ClassifyExplicit(from, to symbols.Type) Conversion {
	if from == nil || to == nil {
		return NoConversion
	}
	if conv := c.standardImplicit(from, to); conv.Exists() {
		return conv
	}
	if symbols.IsVoid(from) || symbols.IsVoid(to) {
		return NoConversion
	}
	if k := c.explicitStandard(from, to); k != None {
		return Of(k)
	}
	if m := c.userDefined(from, to, true); m != nil {
		if m.Name() == symbols.ImplicitConversionName {
			return Conversion{Kind: ImplicitUserDefined, Method: m}
		}
		return Conversion{Kind: ExplicitUserDefined, Method: m}
	}
	return NoConversion
}

func (c *Classifier) explicitStandard(from, to symbols.Type) Kind {
	if symbols.IsDynamic(from) {
		return ExplicitDynamic
	}
	if isNumericOrEnum(from) && isNumericOrEnum(to) {
		if isEnum(from) || isEnum(to) {
			return ExplicitEnumeration
		}
		return ExplicitNumeric
	}
	if c.explicitReference(from, to) {
		return ExplicitReference
	}
	if c.unboxing(from, to) {
		return Unboxing
	}
	fu, tu := symbols.NullableUnderlying(from), symbols.NullableUnderlying(to)
	if fu != nil || tu != nil {
		src, dst := from, to
		if fu != nil {
			src = fu
		}
		if tu != nil {
			dst = tu
		}
		if c.standardImplicit(src, dst).Exists() || c.explicitStandard(src, dst) != None {
			return ExplicitNullable
		}
	}
	_, fp := from.(*symbols.PointerType)
	_, tp := to.(*symbols.PointerType)
	if fp || tp {
		if (fp && tp) || (fp && symbols.Special(to).IsIntegral()) || (tp && symbols.Special(from).IsIntegral()) {
			return ExplicitPointer
		}
		return None
	}
	return None
}

func isEnum(t symbols.Type) bool { return t.TypeKind() == symbols.TypeEnum }

func isNumericOrEnum(t symbols.Type) bool {
	return isEnum(t) || (isPrimitive(t) && symbols.Special(t).IsNumeric())
}

// explicitReference reports whether an explicit reference conversion
// exists: the reverse of an implicit reference conversion, or a cast
// between a non-sealed class and an interface, or between interfaces.
func (c *Classifier) explicitReference(from, to symbols.Type) bool {
	if _, ok := from.(*symbols.TypeParameter); ok && to.TypeKind() == symbols.TypeInterface {
		return true
	}
	if tp, ok := to.(*symbols.TypeParameter); ok {
		if from.TypeKind() == symbols.TypeInterface || symbols.Special(from) == symbols.SpecialObject {
			return tp.IsReferenceType()
		}
		return c.table.IsDerivedFrom(tp, from)
	}
	if !from.IsReferenceType() || !to.IsReferenceType() {
		return false
	}
	if c.implicitReference(to, from) {
		return true
	}
	fi, ti := from.TypeKind() == symbols.TypeInterface, to.TypeKind() == symbols.TypeInterface
	switch {
	case fi && ti:
		return true
	case ti:
		return !isSealed(from) || c.implementsVariant(from, to)
	case fi:
		return !isSealed(to) || c.implementsVariant(to, from)
	}
	fa, ok1 := from.(*symbols.ArrayType)
	ta, ok2 := to.(*symbols.ArrayType)
	if ok1 && ok2 {
		return fa.Rank == ta.Rank && fa.Elem.IsReferenceType() && ta.Elem.IsReferenceType() &&
			c.explicitReference(fa.Elem, ta.Elem)
	}
	if ok2 && symbols.Special(from) == symbols.SpecialArray {
		return true
	}
	return false
}

func isSealed(t symbols.Type) bool {
	switch t := t.(type) {
	case *symbols.NamedType:
		return t.IsSealed()
	case *symbols.ArrayType:
		return true
	}
	return false
}

// unboxing reports whether an unboxing conversion exists from a reference
// type to a value type.
func (c *Classifier) unboxing(from, to symbols.Type) bool {
	if !from.IsReferenceType() {
		return false
	}
	target := to
	if u := symbols.NullableUnderlying(to); u != nil {
		target = u
	}
	if tp, ok := target.(*symbols.TypeParameter); ok {
		return !tp.IsReferenceType() && (symbols.Special(from) == symbols.SpecialObject || from.TypeKind() == symbols.TypeInterface)
	}
	if !target.IsValueType() {
		return false
	}
	return c.boxing(target, from)
}
