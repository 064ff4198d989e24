// Copyright © 2024 The ELPS authors

package conversion

import (
	"github.com/luthersystems/sharpbind/symbols"
)

type st = symbols.SpecialType

var implicitNumeric = map[st][]st{
	symbols.SpecialSByte:  {symbols.SpecialInt16, symbols.SpecialInt32, symbols.SpecialInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialByte:   {symbols.SpecialInt16, symbols.SpecialUInt16, symbols.SpecialInt32, symbols.SpecialUInt32, symbols.SpecialInt64, symbols.SpecialUInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialInt16:  {symbols.SpecialInt32, symbols.SpecialInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialUInt16: {symbols.SpecialInt32, symbols.SpecialUInt32, symbols.SpecialInt64, symbols.SpecialUInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialInt32:  {symbols.SpecialInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialUInt32: {symbols.SpecialInt64, symbols.SpecialUInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialInt64:  {symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialUInt64: {symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialChar:   {symbols.SpecialUInt16, symbols.SpecialInt32, symbols.SpecialUInt32, symbols.SpecialInt64, symbols.SpecialUInt64, symbols.SpecialSingle, symbols.SpecialDouble, symbols.SpecialDecimal},
	symbols.SpecialSingle: {symbols.SpecialDouble},
}

// HasImplicitNumeric reports whether a predefined implicit numeric
// conversion exists from one special type to another.
func HasImplicitNumeric(from, to symbols.SpecialType) bool {
	for _, t := range implicitNumeric[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Classifier classifies conversions between types of one symbol table.
// It is safe for concurrent use.
type Classifier struct {
	table *symbols.Table
}

// New returns a classifier over table.
func New(table *symbols.Table) *Classifier {
	return &Classifier{table: table}
}

// Table returns the symbol table the classifier consults.
func (c *Classifier) Table() *symbols.Table { return c.table }

// Classify returns the implicit conversion from one type to another if
// there is one, and otherwise the explicit conversion, if any.
func (c *Classifier) Classify(from, to symbols.Type) Conversion {
	if conv := c.ClassifyImplicit(from, to); conv.Exists() {
		return conv
	}
	return c.ClassifyExplicit(from, to)
}

// ClassifyImplicit returns the implicit conversion from one type to
// another, or NoConversion.
func (c *Classifier) ClassifyImplicit(from, to symbols.Type) Conversion {
	if conv := c.standardImplicit(from, to); conv.Exists() {
		return conv
	}
	if from == nil || to == nil {
		return NoConversion
	}
	if m := c.userDefined(from, to, false); m != nil {
		return Conversion{Kind: ImplicitUserDefined, Method: m}
	}
	return NoConversion
}

// ClassifyConstant classifies the conversion of a constant expression of
// type from with value v.  Integral constants convert implicitly to
// narrower integral types when the value fits, and the constant zero
// converts implicitly to any enum type.
func (c *Classifier) ClassifyConstant(v interface{}, from, to symbols.Type) Conversion {
	if conv := c.ClassifyImplicit(from, to); conv.Exists() {
		return conv
	}
	fs, ts := symbols.Special(from), symbols.Special(to)
	if nt, ok := to.(*symbols.NamedType); ok && nt.TypeKind() == symbols.TypeEnum && fs.IsIntegral() && isZero(v) {
		return Of(ImplicitEnumeration)
	}
	switch fs {
	case symbols.SpecialInt32:
		switch ts {
		case symbols.SpecialSByte, symbols.SpecialByte, symbols.SpecialInt16,
			symbols.SpecialUInt16, symbols.SpecialUInt32, symbols.SpecialUInt64:
			if symbols.ConstantFits(v, ts) {
				return Of(ImplicitConstant)
			}
		}
	case symbols.SpecialInt64:
		if ts == symbols.SpecialUInt64 && symbols.ConstantFits(v, ts) {
			return Of(ImplicitConstant)
		}
	}
	if u := symbols.NullableUnderlying(to); u != nil {
		if conv := c.ClassifyConstant(v, from, u); conv.Kind == ImplicitConstant {
			return Of(ImplicitNullable)
		}
	}
	return NoConversion
}

func isZero(v interface{}) bool {
	switch v := v.(type) {
	case int64:
		return v == 0
	case uint64:
		return v == 0
	}
	return false
}

// ClassifyNull classifies the conversion of the null literal to type to.
func (c *Classifier) ClassifyNull(to symbols.Type) Conversion {
	switch {
	case symbols.IsErrorType(to):
		return Of(Identity)
	case to.IsReferenceType(), symbols.IsNullable(to):
		return Of(NullLiteral)
	case to.TypeKind() == symbols.TypePointer:
		return Of(NullLiteral)
	}
	return NoConversion
}

// IdentityConvertible reports whether an identity conversion exists
// between a and b: the types are identical, or differ only in replacing
// object with dynamic.
func (c *Classifier) IdentityConvertible(a, b symbols.Type) bool {
	if symbols.Identical(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if c.isObjectOrDynamic(a) && c.isObjectOrDynamic(b) {
		return true
	}
	switch at := a.(type) {
	case *symbols.NamedType:
		bt, ok := b.(*symbols.NamedType)
		if !ok || at.OriginalDefinition() != bt.OriginalDefinition() {
			return false
		}
		aa, ba := at.TypeArguments(), bt.TypeArguments()
		for i := range aa {
			if !c.IdentityConvertible(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case *symbols.ArrayType:
		bt, ok := b.(*symbols.ArrayType)
		return ok && at.Rank == bt.Rank && c.IdentityConvertible(at.Elem, bt.Elem)
	}
	return false
}

func (c *Classifier) isObjectOrDynamic(t symbols.Type) bool {
	return symbols.IsDynamic(t) || symbols.Special(t) == symbols.SpecialObject
}

// standardImplicit is every implicit conversion except user-defined ones.
func (c *Classifier) standardImplicit(from, to symbols.Type) Conversion {
	if from == nil || to == nil {
		return NoConversion
	}
	if symbols.IsErrorType(from) || symbols.IsErrorType(to) {
		return Of(Identity)
	}
	if c.IdentityConvertible(from, to) {
		return Of(Identity)
	}
	if symbols.IsVoid(from) || symbols.IsVoid(to) {
		return NoConversion
	}
	fs, ts := symbols.Special(from), symbols.Special(to)
	if HasImplicitNumeric(fs, ts) && isPrimitive(from) && isPrimitive(to) {
		return Of(ImplicitNumeric)
	}
	if symbols.IsDynamic(to) {
		return Of(ImplicitDynamic)
	}
	if symbols.IsDynamic(from) {
		return Of(ImplicitDynamic)
	}
	if _, ok := from.(*symbols.PointerType); ok {
		if tp, ok := to.(*symbols.PointerType); ok && symbols.IsVoid(tp.Elem) {
			return Of(ImplicitPointer)
		}
		return NoConversion
	}
	if u := symbols.NullableUnderlying(to); u != nil {
		src := from
		if fu := symbols.NullableUnderlying(from); fu != nil {
			src = fu
		}
		inner := c.standardImplicit(src, u)
		if inner.Kind == Identity || inner.Kind == ImplicitNumeric {
			return Of(ImplicitNullable)
		}
	}
	if c.implicitReference(from, to) {
		return Of(ImplicitReference)
	}
	if c.boxing(from, to) {
		return Of(Boxing)
	}
	return NoConversion
}

// isPrimitive excludes enums, whose special type is never numeric, and
// guards against lookalike types declared outside the core library.
func isPrimitive(t symbols.Type) bool {
	nt, ok := t.(*symbols.NamedType)
	return ok && nt.SpecialType() != symbols.SpecialNone
}

// implicitReference reports whether an implicit reference conversion
// exists from one reference type to another.
func (c *Classifier) implicitReference(from, to symbols.Type) bool {
	if !from.IsReferenceType() || !to.IsReferenceType() {
		return false
	}
	if symbols.Special(to) == symbols.SpecialObject {
		return true
	}
	switch ft := from.(type) {
	case *symbols.ArrayType:
		if tt, ok := to.(*symbols.ArrayType); ok {
			return ft.Rank == tt.Rank && ft.Elem.IsReferenceType() &&
				(c.IdentityConvertible(ft.Elem, tt.Elem) || c.implicitReference(ft.Elem, tt.Elem))
		}
		if symbols.Special(to) == symbols.SpecialArray {
			return true
		}
		if ft.Rank == 1 && ft.Elem.IsReferenceType() {
			if tn, ok := to.(*symbols.NamedType); ok && tn.SpecialType() == symbols.SpecialIEnumerableT {
				elem := tn.TypeArguments()[0]
				if c.IdentityConvertible(ft.Elem, elem) || c.implicitReference(ft.Elem, elem) {
					return true
				}
			}
		}
	case *symbols.NamedType:
		if ft.TypeKind() == symbols.TypeDelegate && symbols.Special(to) == symbols.SpecialDelegate {
			return true
		}
	}
	if to.TypeKind() == symbols.TypeInterface {
		return c.implementsVariant(from, to)
	}
	if from.TypeKind() != symbols.TypeInterface {
		return c.table.IsDerivedFrom(from, to)
	}
	return false
}

// implementsVariant reports whether from is, or implements, an interface
// that is identical or variance-convertible to the interface to.
func (c *Classifier) implementsVariant(from, to symbols.Type) bool {
	cands := c.table.Interfaces(from)
	if from.TypeKind() == symbols.TypeInterface {
		cands = append([]symbols.Type{from}, cands...)
	}
	for _, iface := range cands {
		if c.IdentityConvertible(iface, to) || c.varianceConvertible(iface, to) {
			return true
		}
	}
	return false
}

// varianceConvertible reports whether two constructions of the same
// variant generic interface or delegate convert by variance.
func (c *Classifier) varianceConvertible(from, to symbols.Type) bool {
	fn, ok1 := from.(*symbols.NamedType)
	tn, ok2 := to.(*symbols.NamedType)
	if !ok1 || !ok2 || fn.OriginalDefinition() != tn.OriginalDefinition() || fn.Arity() == 0 {
		return false
	}
	fa, ta := fn.TypeArguments(), tn.TypeArguments()
	for i, tp := range fn.OriginalDefinition().TypeParameters() {
		if c.IdentityConvertible(fa[i], ta[i]) {
			continue
		}
		switch tp.Variance() {
		case symbols.Covariant:
			if !c.implicitReference(fa[i], ta[i]) {
				return false
			}
		case symbols.Contravariant:
			if !c.implicitReference(ta[i], fa[i]) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// boxing reports whether a boxing conversion exists from a value type (or
// a type parameter not known to be a reference type) to to.
func (c *Classifier) boxing(from, to symbols.Type) bool {
	tp, isTP := from.(*symbols.TypeParameter)
	if !from.IsValueType() && !(isTP && !tp.IsReferenceType()) {
		return false
	}
	if !to.IsReferenceType() {
		return false
	}
	switch symbols.Special(to) {
	case symbols.SpecialObject:
		return true
	case symbols.SpecialValueType:
		return !isTP || tp.ValueConstraint
	case symbols.SpecialEnum:
		return from.TypeKind() == symbols.TypeEnum
	}
	if to.TypeKind() == symbols.TypeInterface {
		if u := symbols.NullableUnderlying(from); u != nil {
			from = u
		}
		return c.implementsVariant(from, to)
	}
	if isTP {
		return c.table.IsDerivedFrom(from, to)
	}
	return false
}

// userDefined finds the user-defined conversion operator from one type to
// another.  When explicit is false only op_Implicit operators with
// standard implicit conversions on both sides are considered.  Among
// several applicable operators, one whose parameter and return types match
// exactly is preferred; otherwise the conversion is ambiguous and nil is
// returned.
func (c *Classifier) userDefined(from, to symbols.Type, explicit bool) *symbols.Method {
	var cands []*symbols.Method
	seen := make(map[*symbols.Method]bool)
	collect := func(t symbols.Type) {
		if u := symbols.NullableUnderlying(t); u != nil {
			t = u
		}
		for cur := t; cur != nil; cur = c.table.BaseType(cur) {
			nt, ok := cur.(*symbols.NamedType)
			if !ok || nt.TypeKind() == symbols.TypeInterface {
				return
			}
			names := []string{symbols.ImplicitConversionName}
			if explicit {
				names = append(names, symbols.ExplicitConversionName)
			}
			for _, name := range names {
				for _, m := range nt.MembersNamed(name) {
					if method, ok := m.(*symbols.Method); ok && !seen[method] {
						seen[method] = true
						cands = append(cands, method)
					}
				}
			}
		}
	}
	collect(from)
	collect(to)

	var applicable []*symbols.Method
	for _, m := range cands {
		if len(m.Parameters()) != 1 {
			continue
		}
		p, r := m.Parameters()[0].Type(), m.ReturnType()
		if explicit {
			if c.encompassesExplicit(from, p) && c.encompassesExplicit(r, to) {
				applicable = append(applicable, m)
			}
			continue
		}
		if c.standardImplicit(from, p).Exists() && c.standardImplicit(r, to).Exists() {
			applicable = append(applicable, m)
		}
	}
	switch len(applicable) {
	case 0:
		return nil
	case 1:
		return applicable[0]
	}
	var exact *symbols.Method
	for _, m := range applicable {
		if symbols.Identical(m.Parameters()[0].Type(), from) && symbols.Identical(m.ReturnType(), to) {
			if exact != nil {
				return nil
			}
			exact = m
		}
	}
	return exact
}

func (c *Classifier) encompassesExplicit(a, b symbols.Type) bool {
	return c.standardImplicit(a, b).Exists() || c.standardImplicit(b, a).Exists()
}
