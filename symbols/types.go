// Copyright © 2024 The ELPS authors

package symbols

import (
	"fmt"
	"strings"
	"sync"

	"github.com/luthersystems/sharpbind/syntax"
)

// TypeKind classifies types.
type TypeKind int

const (
	TypeClass TypeKind = iota
	TypeStruct
	TypeInterface
	TypeEnum
	TypeDelegate
	TypeArray
	TypePointer
	TypeTypeParameter
	TypeDynamic
	TypeError
)

func (k TypeKind) String() string {
	switch k {
	case TypeClass:
		return "class"
	case TypeStruct:
		return "struct"
	case TypeInterface:
		return "interface"
	case TypeEnum:
		return "enum"
	case TypeDelegate:
		return "delegate"
	case TypeArray:
		return "array"
	case TypePointer:
		return "pointer"
	case TypeTypeParameter:
		return "type parameter"
	case TypeDynamic:
		return "dynamic"
	case TypeError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseTypeKind converts a type kind keyword.
func ParseTypeKind(s string) (TypeKind, bool) {
	switch s {
	case "", "class":
		return TypeClass, true
	case "struct":
		return TypeStruct, true
	case "interface":
		return TypeInterface, true
	case "enum":
		return TypeEnum, true
	case "delegate":
		return TypeDelegate, true
	}
	return TypeClass, false
}

// Type is a type in the symbol graph.
type Type interface {
	TypeKind() TypeKind
	IsReferenceType() bool
	IsValueType() bool
	String() string
}

// SpecialType identifies the types the binder needs by role rather than
// by name.
type SpecialType int

const (
	SpecialNone SpecialType = iota
	SpecialObject
	SpecialString
	SpecialBoolean
	SpecialChar
	SpecialSByte
	SpecialByte
	SpecialInt16
	SpecialUInt16
	SpecialInt32
	SpecialUInt32
	SpecialInt64
	SpecialUInt64
	SpecialSingle
	SpecialDouble
	SpecialDecimal
	SpecialVoid
	SpecialValueType
	SpecialEnum
	SpecialArray
	SpecialDelegate
	SpecialSystemType
	SpecialNullable
	SpecialIEnumerableT
	SpecialIEnumerable
	SpecialTypedReference
	numSpecialTypes
)

var specialKeywords = map[SpecialType]string{
	SpecialObject:  "object",
	SpecialString:  "string",
	SpecialBoolean: "bool",
	SpecialChar:    "char",
	SpecialSByte:   "sbyte",
	SpecialByte:    "byte",
	SpecialInt16:   "short",
	SpecialUInt16:  "ushort",
	SpecialInt32:   "int",
	SpecialUInt32:  "uint",
	SpecialInt64:   "long",
	SpecialUInt64:  "ulong",
	SpecialSingle:  "float",
	SpecialDouble:  "double",
	SpecialDecimal: "decimal",
	SpecialVoid:    "void",
}

// SpecialTypeForKeyword maps a predefined type keyword to its special type.
func SpecialTypeForKeyword(kw string) SpecialType {
	for st, k := range specialKeywords {
		if k == kw {
			return st
		}
	}
	return SpecialNone
}

// IsNumeric reports whether st is one of the numeric primitive types,
// including char.
func (st SpecialType) IsNumeric() bool {
	return st >= SpecialChar && st <= SpecialDecimal
}

// IsIntegral reports whether st is an integral type, including char.
func (st SpecialType) IsIntegral() bool {
	return st >= SpecialChar && st <= SpecialUInt64
}

// IsSignedIntegral reports whether st is sbyte, short, int or long.
func (st SpecialType) IsSignedIntegral() bool {
	switch st {
	case SpecialSByte, SpecialInt16, SpecialInt32, SpecialInt64:
		return true
	}
	return false
}

// IsUnsignedIntegral reports whether st is byte, ushort, uint or ulong.
func (st SpecialType) IsUnsignedIntegral() bool {
	switch st {
	case SpecialByte, SpecialUInt16, SpecialUInt32, SpecialUInt64:
		return true
	}
	return false
}

// Variance is the declared variance of a generic type parameter.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// TypeParameter is a type parameter of a generic type or method.
type TypeParameter struct {
	symbolBase
	id       uint64
	ordinal  int
	owner    Symbol
	variance Variance

	ReferenceConstraint   bool
	ValueConstraint       bool
	ConstructorConstraint bool
	ConstraintTypes       []Type
}

// NewTypeParameter returns a type parameter named name at position ordinal.
func NewTypeParameter(name string, ordinal int, variance Variance) *TypeParameter {
	return &TypeParameter{
		symbolBase: symbolBase{name: name},
		id:         nextID(),
		ordinal:    ordinal,
		variance:   variance,
	}
}

func (t *TypeParameter) Kind() Kind               { return KindTypeParameter }
func (t *TypeParameter) ContainingSymbol() Symbol { return t.owner }
func (t *TypeParameter) TypeKind() TypeKind       { return TypeTypeParameter }
func (t *TypeParameter) IsReferenceType() bool    { return t.ReferenceConstraint || t.hasClassConstraint() }
func (t *TypeParameter) IsValueType() bool        { return t.ValueConstraint }
func (t *TypeParameter) String() string           { return t.name }
func (t *TypeParameter) Ordinal() int             { return t.ordinal }
func (t *TypeParameter) Variance() Variance       { return t.variance }

// IsMethodTypeParameter reports whether t is declared by a method.
func (t *TypeParameter) IsMethodTypeParameter() bool {
	_, ok := t.owner.(*Method)
	return ok
}

func (t *TypeParameter) hasClassConstraint() bool {
	for _, c := range t.ConstraintTypes {
		if c.TypeKind() == TypeClass {
			return true
		}
	}
	return false
}

// NamedType is a class, struct, interface, enum or delegate, possibly
// generic.  A generic definition has TypeParameters and no TypeArguments;
// a constructed type has both and points at its definition.
type NamedType struct {
	symbolBase
	id         uint64
	kind       TypeKind
	special    SpecialType
	namespace  *Namespace
	outer      *NamedType
	typeParams []*TypeParameter
	typeArgs   []Type
	def        *NamedType

	base       Type
	interfaces []Type
	underlying *NamedType // enums

	sealed     bool
	abstract   bool
	restricted bool
	anonymous  bool
	assembly   string

	members []Symbol
	byName  map[string][]Symbol

	mu            sync.Mutex
	constructions map[string]*NamedType
	resolveOnce   sync.Once
	membersOnce   sync.Once
	subst         Substitution
}

// TypeOptions describes a new named type.
type TypeOptions struct {
	Kind       TypeKind
	Access     Accessibility
	Static     bool
	Sealed     bool
	Abstract   bool
	Restricted bool
	Assembly   string
	Location   syntax.Location
}

// NewNamedType creates a type definition.  Callers attach it to a
// namespace or outer type with Namespace.AddType or NamedType.AddMember.
func NewNamedType(name string, typeParams []*TypeParameter, opts TypeOptions) *NamedType {
	t := &NamedType{
		symbolBase: symbolBase{name: name, static: opts.Static, access: opts.Access},
		id:         nextID(),
		kind:       opts.Kind,
		typeParams: typeParams,
		sealed:     opts.Sealed || opts.Static || opts.Kind == TypeStruct || opts.Kind == TypeEnum || opts.Kind == TypeDelegate,
		abstract:   opts.Abstract || opts.Static || opts.Kind == TypeInterface,
		restricted: opts.Restricted,
		assembly:   opts.Assembly,
		byName:     make(map[string][]Symbol),
	}
	if opts.Location.IsValid() {
		t.locs = []syntax.Location{opts.Location}
	}
	for _, tp := range typeParams {
		tp.owner = t
	}
	return t
}

func (t *NamedType) Kind() Kind         { return KindNamedType }
func (t *NamedType) TypeKind() TypeKind { return t.kind }

// ContainingSymbol returns the outer type or the namespace.
func (t *NamedType) ContainingSymbol() Symbol {
	if t.outer != nil {
		return t.outer
	}
	if t.namespace != nil {
		return t.namespace
	}
	return nil
}

func (t *NamedType) IsReferenceType() bool {
	switch t.kind {
	case TypeClass, TypeInterface, TypeDelegate:
		return true
	}
	return false
}

func (t *NamedType) IsValueType() bool {
	return t.kind == TypeStruct || t.kind == TypeEnum
}

// SpecialType returns the special role of the type, or SpecialNone.
func (t *NamedType) SpecialType() SpecialType { return t.OriginalDefinition().special }

// Arity returns the number of type parameters.
func (t *NamedType) Arity() int { return len(t.typeParams) }

// TypeParameters returns the type parameters of the definition.
func (t *NamedType) TypeParameters() []*TypeParameter { return t.typeParams }

// TypeArguments returns the type arguments of a constructed type, or the
// type parameters of a definition.
func (t *NamedType) TypeArguments() []Type {
	if t.typeArgs != nil {
		return t.typeArgs
	}
	args := make([]Type, len(t.typeParams))
	for i, tp := range t.typeParams {
		args[i] = tp
	}
	return args
}

// IsGenericDefinition reports whether t is an unconstructed generic type.
func (t *NamedType) IsGenericDefinition() bool {
	return len(t.typeParams) > 0 && t.def == nil
}

// OriginalDefinition returns the generic definition t was constructed from,
// or t itself.
func (t *NamedType) OriginalDefinition() *NamedType {
	if t.def != nil {
		return t.def
	}
	return t
}

// Namespace returns the namespace declaring the type, following outer
// types.
func (t *NamedType) Namespace() *Namespace {
	d := t.OriginalDefinition()
	for d.outer != nil {
		d = d.outer
	}
	return d.namespace
}

// Outer returns the declaring type of a nested type.
func (t *NamedType) Outer() *NamedType { return t.OriginalDefinition().outer }

func (t *NamedType) IsSealed() bool     { return t.OriginalDefinition().sealed }
func (t *NamedType) IsAbstract() bool   { return t.OriginalDefinition().abstract }
func (t *NamedType) IsRestricted() bool { return t.OriginalDefinition().restricted }
func (t *NamedType) IsAnonymous() bool  { return t.OriginalDefinition().anonymous }
func (t *NamedType) Assembly() string   { return t.OriginalDefinition().assembly }

// IsStaticClass reports whether t is a static class.
func (t *NamedType) IsStaticClass() bool { return t.OriginalDefinition().static }

// EnumUnderlyingType returns the underlying integral type of an enum.
func (t *NamedType) EnumUnderlyingType() *NamedType { return t.OriginalDefinition().underlying }

// SetEnumUnderlyingType sets the underlying integral type of an enum.
func (t *NamedType) SetEnumUnderlyingType(u *NamedType) { t.underlying = u }

// SetBase sets the direct base class of a definition.
func (t *NamedType) SetBase(base Type) { t.base = base }

// AddInterface adds a directly implemented interface to a definition.
func (t *NamedType) AddInterface(iface Type) { t.interfaces = append(t.interfaces, iface) }

func (t *NamedType) resolve() {
	if t.def == nil {
		return
	}
	t.resolveOnce.Do(func() {
		t.base = t.subst.Apply(t.def.base)
		t.interfaces = make([]Type, len(t.def.interfaces))
		for i, iface := range t.def.interfaces {
			t.interfaces[i] = t.subst.Apply(iface)
		}
	})
}

// BaseType returns the direct base class, or nil.
func (t *NamedType) BaseType() Type {
	t.resolve()
	return t.base
}

// Interfaces returns the directly implemented interfaces.
func (t *NamedType) Interfaces() []Type {
	t.resolve()
	return t.interfaces
}

// AddMember adds a member to a type definition and returns it.
func (t *NamedType) AddMember(m Symbol) Symbol {
	switch m := m.(type) {
	case *Field:
		m.container = t
	case *Property:
		m.container = t
	case *Event:
		m.container = t
	case *Method:
		m.container = t
	case *NamedType:
		m.outer = t
	}
	t.members = append(t.members, m)
	t.byName[m.Name()] = append(t.byName[m.Name()], m)
	return m
}

// Members returns every member declared directly on t.
func (t *NamedType) Members() []Symbol {
	t.substituteMembers()
	return t.members
}

// MembersNamed returns the members declared directly on t with the given
// name.
func (t *NamedType) MembersNamed(name string) []Symbol {
	t.substituteMembers()
	return t.byName[name]
}

func (t *NamedType) substituteMembers() {
	if t.def == nil {
		return
	}
	t.membersOnce.Do(func() {
		t.byName = make(map[string][]Symbol)
		for _, m := range t.def.members {
			sm := t.subst.member(m, t)
			t.members = append(t.members, sm)
			t.byName[sm.Name()] = append(t.byName[sm.Name()], sm)
		}
	})
}

// Construct returns the type constructed from the definition t with the
// given type arguments.  Constructions are cached so that constructing the
// same arguments twice yields the same *NamedType.
func (t *NamedType) Construct(args ...Type) *NamedType {
	def := t.OriginalDefinition()
	if len(args) != len(def.typeParams) {
		panic(fmt.Sprintf("construct %s with %d type arguments", def.name, len(args)))
	}
	if len(args) == 0 {
		return def
	}
	identity := true
	for i, a := range args {
		if tp, ok := a.(*TypeParameter); !ok || tp != def.typeParams[i] {
			identity = false
			break
		}
	}
	if identity {
		return def
	}
	var key strings.Builder
	for _, a := range args {
		key.WriteString(TypeKey(a))
		key.WriteByte(';')
	}
	def.mu.Lock()
	defer def.mu.Unlock()
	if c, ok := def.constructions[key.String()]; ok {
		return c
	}
	c := &NamedType{
		symbolBase: def.symbolBase,
		id:         nextID(),
		kind:       def.kind,
		namespace:  def.namespace,
		outer:      def.outer,
		typeParams: def.typeParams,
		typeArgs:   append([]Type(nil), args...),
		def:        def,
		subst:      NewSubstitution(def.typeParams, args),
	}
	if def.constructions == nil {
		def.constructions = make(map[string]*NamedType)
	}
	def.constructions[key.String()] = c
	return c
}

func (t *NamedType) String() string {
	d := t.OriginalDefinition()
	if kw, ok := specialKeywords[d.special]; ok {
		return kw
	}
	if d.anonymous {
		return anonymousTypeString(t)
	}
	if d.special == SpecialNullable && len(t.typeArgs) == 1 {
		return t.typeArgs[0].String() + "?"
	}
	var b strings.Builder
	if d.outer != nil {
		b.WriteString(d.outer.String())
		b.WriteByte('.')
	}
	b.WriteString(t.name)
	if len(t.typeParams) > 0 {
		b.WriteByte('<')
		for i, a := range t.TypeArguments() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// QualifiedName returns the namespace-qualified name of the definition,
// without type arguments.
func (t *NamedType) QualifiedName() string {
	d := t.OriginalDefinition()
	if d.outer != nil {
		return d.outer.QualifiedName() + "." + d.name
	}
	if d.namespace != nil && !d.namespace.IsGlobal() {
		return d.namespace.QualifiedName() + "." + d.name
	}
	return d.name
}

// DelegateInvoke returns the Invoke method of a delegate type, or nil.
func DelegateInvoke(t Type) *Method {
	nt, ok := t.(*NamedType)
	if !ok || nt.kind != TypeDelegate {
		return nil
	}
	for _, m := range nt.MembersNamed("Invoke") {
		if method, ok := m.(*Method); ok {
			return method
		}
	}
	return nil
}

// ArrayType is Elem[] with a rank.
type ArrayType struct {
	Elem Type
	Rank int
}

// NewArrayType returns the array type of elem with the given rank.
func NewArrayType(elem Type, rank int) *ArrayType {
	if rank < 1 {
		rank = 1
	}
	return &ArrayType{Elem: elem, Rank: rank}
}

func (t *ArrayType) TypeKind() TypeKind    { return TypeArray }
func (t *ArrayType) IsReferenceType() bool { return true }
func (t *ArrayType) IsValueType() bool     { return false }
func (t *ArrayType) String() string {
	return t.Elem.String() + "[" + strings.Repeat(",", t.Rank-1) + "]"
}

// PointerType is Elem*.
type PointerType struct {
	Elem Type
}

func (t *PointerType) TypeKind() TypeKind    { return TypePointer }
func (t *PointerType) IsReferenceType() bool { return false }
func (t *PointerType) IsValueType() bool     { return false }
func (t *PointerType) String() string        { return t.Elem.String() + "*" }

// DynamicType is the dynamic type.
type DynamicType struct{}

func (*DynamicType) TypeKind() TypeKind    { return TypeDynamic }
func (*DynamicType) IsReferenceType() bool { return true }
func (*DynamicType) IsValueType() bool     { return false }
func (*DynamicType) String() string        { return "dynamic" }

// ErrorType stands in for a type that could not be determined.  Name is
// the best-effort name written in source, if any.
type ErrorType struct {
	Name string
}

func (*ErrorType) TypeKind() TypeKind    { return TypeError }
func (*ErrorType) IsReferenceType() bool { return false }
func (*ErrorType) IsValueType() bool     { return false }
func (t *ErrorType) String() string {
	if t.Name == "" {
		return "?"
	}
	return t.Name
}

// Error is the shared nameless error type.
var Error = &ErrorType{}

// IsErrorType reports whether t is an error type or contains one.
func IsErrorType(t Type) bool {
	switch t := t.(type) {
	case *ErrorType:
		return true
	case *ArrayType:
		return IsErrorType(t.Elem)
	case *PointerType:
		return IsErrorType(t.Elem)
	case *NamedType:
		for _, a := range t.typeArgs {
			if IsErrorType(a) {
				return true
			}
		}
	}
	return false
}

// IsDynamic reports whether t is dynamic.
func IsDynamic(t Type) bool {
	_, ok := t.(*DynamicType)
	return ok
}

// Special returns the special role of t, or SpecialNone.
func Special(t Type) SpecialType {
	if nt, ok := t.(*NamedType); ok {
		return nt.SpecialType()
	}
	return SpecialNone
}

// IsVoid reports whether t is void.
func IsVoid(t Type) bool { return Special(t) == SpecialVoid }

// IsNullable reports whether t is a constructed Nullable<T>.
func IsNullable(t Type) bool {
	nt, ok := t.(*NamedType)
	return ok && nt.SpecialType() == SpecialNullable && nt.typeArgs != nil
}

// NullableUnderlying returns T for Nullable<T>, or nil.
func NullableUnderlying(t Type) Type {
	if !IsNullable(t) {
		return nil
	}
	return t.(*NamedType).typeArgs[0]
}

// IsUnsafe reports whether t is or contains a pointer type.
func IsUnsafe(t Type) bool {
	switch t := t.(type) {
	case *PointerType:
		return true
	case *ArrayType:
		return IsUnsafe(t.Elem)
	case *NamedType:
		for _, a := range t.typeArgs {
			if IsUnsafe(a) {
				return true
			}
		}
	}
	return false
}

// Identical reports whether a and b denote the same type.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch at := a.(type) {
	case *NamedType:
		bt, ok := b.(*NamedType)
		if !ok {
			return false
		}
		if at == bt {
			return true
		}
		if at.OriginalDefinition() != bt.OriginalDefinition() {
			return false
		}
		aa, ba := at.TypeArguments(), bt.TypeArguments()
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !Identical(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && at.Rank == bt.Rank && Identical(at.Elem, bt.Elem)
	case *PointerType:
		bt, ok := b.(*PointerType)
		return ok && Identical(at.Elem, bt.Elem)
	case *DynamicType:
		_, ok := b.(*DynamicType)
		return ok
	case *ErrorType:
		bt, ok := b.(*ErrorType)
		return ok && at == bt
	case *TypeParameter:
		return a == b
	}
	return false
}

// TypeKey returns a string that is equal for identical types.
func TypeKey(t Type) string {
	switch t := t.(type) {
	case nil:
		return "<nil>"
	case *NamedType:
		d := t.OriginalDefinition()
		if t.typeArgs == nil {
			return fmt.Sprintf("N%d", d.id)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "N%d<", d.id)
		for _, a := range t.typeArgs {
			b.WriteString(TypeKey(a))
			b.WriteByte(',')
		}
		b.WriteByte('>')
		return b.String()
	case *ArrayType:
		return fmt.Sprintf("%s[%d]", TypeKey(t.Elem), t.Rank)
	case *PointerType:
		return TypeKey(t.Elem) + "*"
	case *TypeParameter:
		return fmt.Sprintf("T%d", t.id)
	case *DynamicType:
		return "dynamic"
	case *ErrorType:
		return "error:" + t.Name
	}
	return t.String()
}

// ContainsTypeParameter reports whether t mentions any type parameter for
// which pred returns true.
func ContainsTypeParameter(t Type, pred func(*TypeParameter) bool) bool {
	switch t := t.(type) {
	case *TypeParameter:
		return pred(t)
	case *ArrayType:
		return ContainsTypeParameter(t.Elem, pred)
	case *PointerType:
		return ContainsTypeParameter(t.Elem, pred)
	case *NamedType:
		for _, a := range t.typeArgs {
			if ContainsTypeParameter(a, pred) {
				return true
			}
		}
	}
	return false
}
