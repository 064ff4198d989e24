// Copyright © 2024 The ELPS authors

package symbols

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Assembly names used for internal accessibility.
const (
	CorLibAssembly = "mscorlib"
	SourceAssembly = "source"
)

// WellKnownType identifies library types the binder refers to by name.
type WellKnownType int

const (
	WellKnownEnumerable WellKnownType = iota
	WellKnownIGrouping
	WellKnownIOrderedEnumerable
	WellKnownList
	WellKnownMath
	WellKnownConsole
)

var wellKnownNames = map[WellKnownType]struct {
	name  string
	arity int
}{
	WellKnownEnumerable:         {"System.Linq.Enumerable", 0},
	WellKnownIGrouping:          {"System.Linq.IGrouping", 2},
	WellKnownIOrderedEnumerable: {"System.Linq.IOrderedEnumerable", 1},
	WellKnownList:               {"System.Collections.Generic.List", 1},
	WellKnownMath:               {"System.Math", 0},
	WellKnownConsole:            {"System.Console", 0},
}

// Table is the symbol graph of one compilation: the global namespace, the
// special types, anonymous types and the script class whose members are
// visible to top-level expressions.
type Table struct {
	global  *Namespace
	special [numSpecialTypes]*NamedType
	dynamic *DynamicType
	script  *NamedType

	anonMu sync.Mutex
	anon   map[string]*NamedType
}

// NewTable returns an empty table.  Most callers want NewCorLib.
func NewTable() *Table {
	t := &Table{
		global:  newNamespace("", nil),
		dynamic: &DynamicType{},
		anon:    make(map[string]*NamedType),
	}
	t.script = NewNamedType("<Script>", nil, TypeOptions{Kind: TypeClass, Assembly: SourceAssembly, Sealed: true})
	return t
}

// GlobalNamespace returns the root namespace.
func (t *Table) GlobalNamespace() *Namespace { return t.global }

// ScriptClass returns the class containing script globals.  It is the
// containing type of top-level expressions.
func (t *Table) ScriptClass() *NamedType { return t.script }

// Dynamic returns the dynamic type.
func (t *Table) Dynamic() *DynamicType { return t.dynamic }

// SpecialType returns the type registered for st, or nil.
func (t *Table) SpecialType(st SpecialType) *NamedType {
	if st <= SpecialNone || st >= numSpecialTypes {
		return nil
	}
	return t.special[st]
}

// SetSpecialType registers nt as the type playing role st.
func (t *Table) SetSpecialType(st SpecialType, nt *NamedType) {
	nt.special = st
	t.special[st] = nt
}

// Object returns System.Object.
func (t *Table) Object() *NamedType { return t.special[SpecialObject] }

// WellKnownType returns the library type wk, or nil when the table does
// not declare it.
func (t *Table) WellKnownType(wk WellKnownType) *NamedType {
	info, ok := wellKnownNames[wk]
	if !ok {
		return nil
	}
	return t.LookupType(info.name, info.arity)
}

// LookupNamespace returns the namespace with the given dotted name, or nil.
func (t *Table) LookupNamespace(qualified string) *Namespace {
	ns := t.global
	if qualified == "" {
		return ns
	}
	for _, part := range strings.Split(qualified, ".") {
		ns = ns.LookupNamespace(part)
		if ns == nil {
			return nil
		}
	}
	return ns
}

// LookupType returns the type with the given dotted name and arity, or nil.
func (t *Table) LookupType(qualified string, arity int) *NamedType {
	nsName, name := "", qualified
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		nsName, name = qualified[:i], qualified[i+1:]
	}
	ns := t.LookupNamespace(nsName)
	if ns == nil {
		return nil
	}
	for _, nt := range ns.TypesNamed(name) {
		if nt.Arity() == arity {
			return nt
		}
	}
	return nil
}

// Nullable returns Nullable<elem>.
func (t *Table) Nullable(elem Type) Type {
	n := t.special[SpecialNullable]
	if n == nil {
		return Error
	}
	return n.Construct(elem)
}

// IEnumerableOf returns IEnumerable<elem>.
func (t *Table) IEnumerableOf(elem Type) Type {
	e := t.special[SpecialIEnumerableT]
	if e == nil {
		return Error
	}
	return e.Construct(elem)
}

// BaseType returns the effective base class of typ, or nil.
func (t *Table) BaseType(typ Type) Type {
	switch typ := typ.(type) {
	case *NamedType:
		return typ.BaseType()
	case *ArrayType:
		return t.special[SpecialArray]
	case *TypeParameter:
		for _, c := range typ.ConstraintTypes {
			if c.TypeKind() == TypeClass {
				return c
			}
		}
		if typ.ValueConstraint {
			return t.special[SpecialValueType]
		}
		return t.special[SpecialObject]
	}
	return nil
}

// Interfaces returns every interface typ implements, directly or
// indirectly, in a deterministic order without duplicates.
func (t *Table) Interfaces(typ Type) []Type {
	seen := make(map[string]bool)
	var out []Type
	var add func(iface Type)
	add = func(iface Type) {
		key := TypeKey(iface)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, iface)
		if nt, ok := iface.(*NamedType); ok {
			for _, b := range nt.Interfaces() {
				add(b)
			}
		}
	}
	switch typ := typ.(type) {
	case *NamedType:
		for cur := Type(typ); cur != nil; cur = t.BaseType(cur) {
			nt, ok := cur.(*NamedType)
			if !ok {
				break
			}
			for _, iface := range nt.Interfaces() {
				add(iface)
			}
		}
	case *ArrayType:
		if typ.Rank == 1 && t.special[SpecialIEnumerableT] != nil {
			add(t.IEnumerableOf(typ.Elem))
		}
		if arr := t.special[SpecialArray]; arr != nil {
			for _, iface := range t.Interfaces(arr) {
				add(iface)
			}
		}
	case *TypeParameter:
		for _, c := range typ.ConstraintTypes {
			if c.TypeKind() == TypeInterface {
				add(c)
			} else {
				for _, iface := range t.Interfaces(c) {
					add(iface)
				}
			}
		}
	}
	return out
}

// IsDerivedFrom reports whether the base class chain of derived contains
// base.  A type does not derive from itself.
func (t *Table) IsDerivedFrom(derived, base Type) bool {
	for cur := t.BaseType(derived); cur != nil; cur = t.BaseType(cur) {
		if Identical(cur, base) {
			return true
		}
	}
	return false
}

// Implements reports whether typ implements iface.
func (t *Table) Implements(typ, iface Type) bool {
	for _, i := range t.Interfaces(typ) {
		if Identical(i, iface) {
			return true
		}
	}
	return false
}

// IsDerivedFromDefinition reports whether typ or one of its base classes
// is constructed from the same definition as base.
func (t *Table) IsDerivedFromDefinition(typ Type, base *NamedType) bool {
	def := base.OriginalDefinition()
	for cur := typ; cur != nil; cur = t.BaseType(cur) {
		if nt, ok := cur.(*NamedType); ok && nt.OriginalDefinition() == def {
			return true
		}
	}
	return false
}

// lookupLevels returns the types whose declared members participate in
// member lookup on typ, most derived first.
func (t *Table) lookupLevels(typ Type) []*NamedType {
	var levels []*NamedType
	switch typ := typ.(type) {
	case *NamedType:
		if typ.TypeKind() == TypeInterface {
			levels = append(levels, typ)
			for _, iface := range t.Interfaces(typ) {
				levels = append(levels, iface.(*NamedType))
			}
			if obj := t.special[SpecialObject]; obj != nil {
				levels = append(levels, obj)
			}
			return levels
		}
		for cur := Type(typ); cur != nil; cur = t.BaseType(cur) {
			nt, ok := cur.(*NamedType)
			if !ok {
				break
			}
			levels = append(levels, nt)
		}
	case *ArrayType, *TypeParameter:
		if base, ok := t.BaseType(typ).(*NamedType); ok {
			levels = t.lookupLevels(base)
		}
		if tp, ok := typ.(*TypeParameter); ok {
			for _, iface := range t.Interfaces(tp) {
				levels = append(levels, iface.(*NamedType))
			}
		}
	}
	return levels
}

// LookupMembers returns the members of typ named name, including inherited
// members that are not hidden.  Methods accumulate across base classes
// unless a more derived method has the same signature; any other kind of
// member hides everything of that name further up the hierarchy.
// Constructors are not inherited.
func (t *Table) LookupMembers(typ Type, name string) []Symbol {
	levels := t.lookupLevels(typ)
	var result []Symbol
	for i, level := range levels {
		if name == ConstructorName && i > 0 {
			break
		}
		hides := false
		for _, m := range level.MembersNamed(name) {
			if method, ok := m.(*Method); ok {
				if !hasSameSignature(result, method) {
					result = append(result, method)
				}
				continue
			}
			if len(result) == 0 || i == 0 {
				result = append(result, m)
			}
			hides = true
		}
		if hides {
			break
		}
	}
	return result
}

// SameSignature reports whether a and b have the same name, arity and
// parameter types and passing modes.
func SameSignature(a, b *Method) bool {
	if a.name != b.name || len(a.typeParams) != len(b.typeParams) || len(a.params) != len(b.params) {
		return false
	}
	var s Substitution
	if len(a.typeParams) > 0 {
		args := make([]Type, len(a.typeParams))
		for i, tp := range a.typeParams {
			args[i] = tp
		}
		s = NewSubstitution(b.typeParams, args)
	}
	for i := range a.params {
		if a.params[i].refKind != b.params[i].refKind {
			return false
		}
		if !Identical(a.params[i].typ, s.Apply(b.params[i].typ)) {
			return false
		}
	}
	return true
}

func hasSameSignature(ms []Symbol, m *Method) bool {
	for _, other := range ms {
		if om, ok := other.(*Method); ok && SameSignature(om, m) {
			return true
		}
	}
	return false
}

func assemblyOf(within *NamedType) string {
	if within == nil {
		return SourceAssembly
	}
	return within.Assembly()
}

func isNestedIn(inner, outer *NamedType) bool {
	outerDef := outer.OriginalDefinition()
	for cur := inner; cur != nil; cur = cur.Outer() {
		if cur.OriginalDefinition() == outerDef {
			return true
		}
	}
	return false
}

// IsAccessible reports whether sym may be referenced from code inside
// within (nil for code outside any type).  For protected instance members
// through, when non-nil, is the static type of the receiver, which must
// derive from within.
func (t *Table) IsAccessible(sym Symbol, within *NamedType, through Type) bool {
	var container *NamedType
	switch s := sym.(type) {
	case *NamedType:
		container = s.Outer()
		if container == nil {
			return s.Accessibility() == Public || s.Assembly() == assemblyOf(within)
		}
	case *Field:
		container = s.container
	case *Property:
		container = s.container
	case *Event:
		container = s.container
	case *Method:
		container = s.container
	default:
		return true
	}
	if container == nil {
		return true
	}
	if !t.IsAccessible(container, within, nil) {
		return false
	}
	switch sym.Accessibility() {
	case Public:
		return true
	case Internal:
		return container.Assembly() == assemblyOf(within)
	case Private:
		return within != nil && isNestedIn(within, container)
	case Protected:
		return t.protectedOK(sym, container, within, through)
	case ProtectedInternal:
		return container.Assembly() == assemblyOf(within) || t.protectedOK(sym, container, within, through)
	}
	return false
}

func (t *Table) protectedOK(sym Symbol, container, within *NamedType, through Type) bool {
	if within == nil {
		return false
	}
	for cur := within; cur != nil; cur = cur.Outer() {
		if cur.OriginalDefinition() == container.OriginalDefinition() || t.IsDerivedFromDefinition(cur, container) {
			if through == nil || sym.IsStatic() {
				return true
			}
			return t.IsDerivedFromDefinition(through, cur)
		}
	}
	return false
}

// ExtensionMethods returns the extension methods named name declared by
// static, non-generic, top-level classes in ns, in declaration-name order.
func (t *Table) ExtensionMethods(ns *Namespace, name string) []*Method {
	var out []*Method
	for _, typ := range ns.Types() {
		if !typ.IsStaticClass() || typ.Arity() > 0 {
			continue
		}
		for _, m := range typ.MembersNamed(name) {
			if method, ok := m.(*Method); ok && method.IsExtension() {
				out = append(out, method)
			}
		}
	}
	return out
}

// AnonymousField is one member of an anonymous type.
type AnonymousField struct {
	Name string
	Type Type
}

// AnonymousType returns the anonymous type with the given members.  Two
// requests with the same names and types in the same order return the same
// type.
func (t *Table) AnonymousType(fields []AnonymousField) *NamedType {
	var key strings.Builder
	for _, f := range fields {
		key.WriteString(f.Name)
		key.WriteByte(':')
		key.WriteString(TypeKey(f.Type))
		key.WriteByte(';')
	}
	t.anonMu.Lock()
	defer t.anonMu.Unlock()
	if at, ok := t.anon[key.String()]; ok {
		return at
	}
	at := NewNamedType(fmt.Sprintf("<>f__AnonymousType%d", len(t.anon)), nil, TypeOptions{
		Kind:     TypeClass,
		Sealed:   true,
		Assembly: SourceAssembly,
	})
	at.anonymous = true
	if obj := t.special[SpecialObject]; obj != nil {
		at.SetBase(obj)
	}
	params := make([]*Parameter, len(fields))
	for i, f := range fields {
		at.AddMember(NewProperty(f.Name, f.Type, nil, true, false, MemberOptions{}))
		params[i] = NewParameter(f.Name, f.Type, ParameterOptions{})
	}
	at.AddMember(NewMethod(ConstructorName, nil, params, t.special[SpecialVoid], MethodOptions{Kind: MethodConstructor}))
	t.anon[key.String()] = at
	return at
}

func anonymousTypeString(t *NamedType) string {
	var parts []string
	for _, m := range t.Members() {
		if p, ok := m.(*Property); ok {
			parts = append(parts, p.typ.String()+" "+p.name)
		}
	}
	return "<anonymous type: " + strings.Join(parts, ", ") + ">"
}

// AllTypes returns every type reachable from the global namespace, sorted
// by qualified name.
func (t *Table) AllTypes() []*NamedType {
	var out []*NamedType
	var walk func(ns *Namespace)
	walk = func(ns *Namespace) {
		out = append(out, ns.Types()...)
		for _, c := range ns.Namespaces() {
			walk(c)
		}
	}
	walk(t.global)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}
