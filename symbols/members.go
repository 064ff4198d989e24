// Copyright © 2024 The ELPS authors

package symbols

import (
	"strings"

	"github.com/luthersystems/sharpbind/syntax"
)

// MemberOptions carries the modifiers shared by member constructors.
type MemberOptions struct {
	Access   Accessibility
	Static   bool
	Location syntax.Location
}

func (o MemberOptions) base(name string) symbolBase {
	b := symbolBase{name: name, static: o.Static, access: o.Access}
	if o.Location.IsValid() {
		b.locs = []syntax.Location{o.Location}
	}
	return b
}

// Field is a field or enum member.
type Field struct {
	symbolBase
	container *NamedType
	typ       Type
	readOnly  bool
	constant  bool
	value     interface{}
	def       *Field
}

// NewField returns a field of the given type.
func NewField(name string, typ Type, opts MemberOptions) *Field {
	return &Field{symbolBase: opts.base(name), typ: typ}
}

// NewConstField returns a constant field.  Constants are implicitly static.
func NewConstField(name string, typ Type, value interface{}, opts MemberOptions) *Field {
	opts.Static = true
	f := NewField(name, typ, opts)
	f.constant = true
	f.readOnly = true
	f.value = value
	return f
}

func (f *Field) Kind() Kind                 { return KindField }
func (f *Field) ContainingSymbol() Symbol   { return f.container }
func (f *Field) ContainingType() *NamedType { return f.container }
func (f *Field) Type() Type                 { return f.typ }
func (f *Field) IsReadOnly() bool           { return f.readOnly }
func (f *Field) IsConst() bool              { return f.constant }
func (f *Field) ConstValue() interface{}    { return f.value }

// SetReadOnly marks the field readonly.
func (f *Field) SetReadOnly(readOnly bool) { f.readOnly = readOnly }

// OriginalDefinition returns the field of the generic definition.
func (f *Field) OriginalDefinition() *Field {
	if f.def != nil {
		return f.def
	}
	return f
}

func (f *Field) String() string { return memberPrefix(f.container) + f.name }

// Property is a property or, when it has parameters, an indexer.
type Property struct {
	symbolBase
	container *NamedType
	typ       Type
	params    []*Parameter
	hasGet    bool
	hasSet    bool
	def       *Property
}

// IndexerName is the member name under which indexers are stored.
const IndexerName = "this[]"

// NewProperty returns a property.  Indexers are named IndexerName and
// have parameters.
func NewProperty(name string, typ Type, params []*Parameter, hasGet, hasSet bool, opts MemberOptions) *Property {
	p := &Property{symbolBase: opts.base(name), typ: typ, params: params, hasGet: hasGet, hasSet: hasSet}
	for i, param := range params {
		param.owner = p
		param.ordinal = i
	}
	return p
}

func (p *Property) Kind() Kind                 { return KindProperty }
func (p *Property) ContainingSymbol() Symbol   { return p.container }
func (p *Property) ContainingType() *NamedType { return p.container }
func (p *Property) Type() Type               { return p.typ }
func (p *Property) Parameters() []*Parameter { return p.params }
func (p *Property) IsIndexer() bool          { return len(p.params) > 0 }
func (p *Property) HasGetter() bool          { return p.hasGet }
func (p *Property) HasSetter() bool          { return p.hasSet }

// OriginalDefinition returns the property of the generic definition.
func (p *Property) OriginalDefinition() *Property {
	if p.def != nil {
		return p.def
	}
	return p
}

func (p *Property) String() string {
	if p.IsIndexer() {
		return memberPrefix(p.container) + "this[" + paramList(p.params) + "]"
	}
	return memberPrefix(p.container) + p.name
}

// Event is an event member.
type Event struct {
	symbolBase
	container *NamedType
	typ       Type
	def       *Event
}

// NewEvent returns an event of the given delegate type.
func NewEvent(name string, typ Type, opts MemberOptions) *Event {
	return &Event{symbolBase: opts.base(name), typ: typ}
}

func (e *Event) Kind() Kind                 { return KindEvent }
func (e *Event) ContainingSymbol() Symbol   { return e.container }
func (e *Event) ContainingType() *NamedType { return e.container }
func (e *Event) Type() Type                 { return e.typ }
func (e *Event) String() string             { return memberPrefix(e.container) + e.name }

// MethodKind classifies methods.
type MethodKind int

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodOperator
	MethodConversion
	MethodDelegateInvoke
	MethodLambda
)

// ConstructorName is the member name of instance constructors.
const ConstructorName = ".ctor"

// Method is a method, constructor, operator, delegate Invoke or lambda.
type Method struct {
	symbolBase
	container  *NamedType
	kind       MethodKind
	typeParams []*TypeParameter
	typeArgs   []Type
	params     []*Parameter
	ret        Type
	extension  bool
	abstract   bool
	virtual    bool
	// def is the method this one was derived from by substitution, either
	// through a constructed containing type or by method type arguments.
	def *Method
}

// MethodOptions describes a new method.
type MethodOptions struct {
	MemberOptions
	Kind      MethodKind
	Extension bool
	Abstract  bool
	Virtual   bool
}

// NewMethod returns a method definition.
func NewMethod(name string, typeParams []*TypeParameter, params []*Parameter, ret Type, opts MethodOptions) *Method {
	if opts.Extension || opts.Kind == MethodOperator || opts.Kind == MethodConversion {
		opts.Static = true
	}
	m := &Method{
		symbolBase: opts.base(name),
		kind:       opts.Kind,
		typeParams: typeParams,
		params:     params,
		ret:        ret,
		extension:  opts.Extension,
		abstract:   opts.Abstract,
		virtual:    opts.Virtual || opts.Abstract,
	}
	for _, tp := range typeParams {
		tp.owner = m
	}
	for i, p := range params {
		p.owner = m
		p.ordinal = i
	}
	return m
}

func (m *Method) Kind() Kind                       { return KindMethod }
func (m *Method) ContainingSymbol() Symbol         { return m.container }
func (m *Method) ContainingType() *NamedType       { return m.container }
func (m *Method) MethodKind() MethodKind           { return m.kind }
func (m *Method) TypeParameters() []*TypeParameter { return m.typeParams }
func (m *Method) TypeArguments() []Type            { return m.typeArgs }
func (m *Method) Parameters() []*Parameter         { return m.params }
func (m *Method) ReturnType() Type                 { return m.ret }
func (m *Method) IsExtension() bool                { return m.extension }
func (m *Method) IsAbstract() bool                 { return m.abstract }
func (m *Method) IsVirtual() bool                  { return m.virtual }
func (m *Method) Arity() int                       { return len(m.typeParams) }
func (m *Method) IsGeneric() bool                  { return len(m.typeParams) > 0 }
func (m *Method) IsConstructed() bool              { return m.typeArgs != nil }
func (m *Method) IsConstructor() bool              { return m.kind == MethodConstructor }
func (m *Method) IsVoid() bool                     { return IsVoid(m.ret) }

// HasParamsArray reports whether the last parameter is a params array.
func (m *Method) HasParamsArray() bool {
	return len(m.params) > 0 && m.params[len(m.params)-1].isParams
}

// OriginalDefinition follows substitutions back to the declared method.
func (m *Method) OriginalDefinition() *Method {
	for m.def != nil {
		m = m.def
	}
	return m
}

// Construct returns m with its own type parameters replaced by args.
func (m *Method) Construct(args []Type) *Method {
	if len(args) != len(m.typeParams) {
		panic("method type argument count mismatch")
	}
	if len(args) == 0 {
		return m
	}
	s := NewSubstitution(m.typeParams, args)
	c := s.method(m, m.container)
	c.typeArgs = append([]Type(nil), args...)
	return c
}

func (m *Method) String() string {
	var b strings.Builder
	switch m.kind {
	case MethodLambda:
		b.WriteString("lambda expression")
		return b.String()
	case MethodConstructor:
		if m.container != nil {
			b.WriteString(m.container.String())
		}
	default:
		b.WriteString(memberPrefix(m.container))
		b.WriteString(m.name)
	}
	if len(m.typeParams) > 0 {
		b.WriteByte('<')
		args := m.typeArgs
		for i, tp := range m.typeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			if args != nil {
				b.WriteString(args[i].String())
			} else {
				b.WriteString(tp.String())
			}
		}
		b.WriteByte('>')
	}
	b.WriteByte('(')
	if m.extension {
		b.WriteString("this ")
	}
	b.WriteString(paramList(m.params))
	b.WriteByte(')')
	return b.String()
}

// Parameter is a parameter of a method, indexer or lambda.
type Parameter struct {
	symbolBase
	owner      Symbol
	ordinal    int
	typ        Type
	refKind    syntax.RefKind
	isParams   bool
	hasDefault bool
	defaultVal interface{}
}

// ParameterOptions describes a new parameter.
type ParameterOptions struct {
	RefKind    syntax.RefKind
	Params     bool
	HasDefault bool
	Default    interface{}
	Location   syntax.Location
}

// NewParameter returns a parameter.
func NewParameter(name string, typ Type, opts ParameterOptions) *Parameter {
	p := &Parameter{
		symbolBase: symbolBase{name: name},
		typ:        typ,
		refKind:    opts.RefKind,
		isParams:   opts.Params,
		hasDefault: opts.HasDefault,
		defaultVal: opts.Default,
	}
	if opts.Location.IsValid() {
		p.locs = []syntax.Location{opts.Location}
	}
	return p
}

func (p *Parameter) Kind() Kind                   { return KindParameter }
func (p *Parameter) ContainingSymbol() Symbol     { return p.owner }
func (p *Parameter) Type() Type                   { return p.typ }
func (p *Parameter) Ordinal() int                 { return p.ordinal }
func (p *Parameter) RefKind() syntax.RefKind      { return p.refKind }
func (p *Parameter) IsParams() bool               { return p.isParams }
func (p *Parameter) IsOptional() bool             { return p.hasDefault }
func (p *Parameter) DefaultValue() interface{}    { return p.defaultVal }
func (p *Parameter) Accessibility() Accessibility { return Public }

func (p *Parameter) String() string { return p.name }

func (p *Parameter) withType(t Type) *Parameter {
	c := *p
	c.typ = t
	return &c
}

// Local is a local variable.
type Local struct {
	symbolBase
	owner           Symbol
	typ             Type
	constant        bool
	value           interface{}
	implicitlyTyped bool
}

// NewLocal returns a local of the given type.
func NewLocal(name string, typ Type, loc syntax.Location) *Local {
	l := &Local{symbolBase: symbolBase{name: name}, typ: typ}
	if loc.IsValid() {
		l.locs = []syntax.Location{loc}
	}
	return l
}

// NewConstLocal returns a constant local.
func NewConstLocal(name string, typ Type, value interface{}, loc syntax.Location) *Local {
	l := NewLocal(name, typ, loc)
	l.constant = true
	l.value = value
	return l
}

// NewImplicitlyTypedLocal returns a var-declared local whose type was
// inferred from its initializer.
func NewImplicitlyTypedLocal(name string, typ Type, loc syntax.Location) *Local {
	l := NewLocal(name, typ, loc)
	l.implicitlyTyped = true
	return l
}

func (l *Local) Kind() Kind                   { return KindLocal }
func (l *Local) ContainingSymbol() Symbol     { return l.owner }
func (l *Local) Type() Type                   { return l.typ }
func (l *Local) IsConst() bool                { return l.constant }
func (l *Local) ConstValue() interface{}      { return l.value }
func (l *Local) IsImplicitlyTyped() bool      { return l.implicitlyTyped }
func (l *Local) Accessibility() Accessibility { return Public }
func (l *Local) String() string               { return l.name }

// RangeVariable is a variable introduced by a query clause.  Its type is
// not fixed at declaration; each reference is typed by the lambda
// parameter it is rewritten to.
type RangeVariable struct {
	symbolBase
	owner Symbol
}

// NewRangeVariable returns a range variable declared at loc.
func NewRangeVariable(name string, loc syntax.Location) *RangeVariable {
	r := &RangeVariable{symbolBase: symbolBase{name: name}}
	if loc.IsValid() {
		r.locs = []syntax.Location{loc}
	}
	return r
}

func (r *RangeVariable) Kind() Kind                   { return KindRangeVariable }
func (r *RangeVariable) ContainingSymbol() Symbol     { return r.owner }
func (r *RangeVariable) Accessibility() Accessibility { return Public }
func (r *RangeVariable) String() string               { return r.name }

// Alias is a using alias.
type Alias struct {
	symbolBase
	target Symbol
}

// NewAlias returns an alias for a namespace or type.
func NewAlias(name string, target Symbol, loc syntax.Location) *Alias {
	a := &Alias{symbolBase: symbolBase{name: name}, target: target}
	if loc.IsValid() {
		a.locs = []syntax.Location{loc}
	}
	return a
}

func (a *Alias) Kind() Kind               { return KindAlias }
func (a *Alias) ContainingSymbol() Symbol { return nil }
func (a *Alias) Target() Symbol           { return a.target }
func (a *Alias) String() string           { return a.name }

// Label is a statement label.  Labels are only looked up with the
// labels-only lookup option.
type Label struct {
	symbolBase
}

// NewLabel returns a label.
func NewLabel(name string, loc syntax.Location) *Label {
	l := &Label{symbolBase: symbolBase{name: name}}
	if loc.IsValid() {
		l.locs = []syntax.Location{loc}
	}
	return l
}

func (l *Label) Kind() Kind               { return KindLabel }
func (l *Label) ContainingSymbol() Symbol { return nil }
func (l *Label) String() string           { return l.name }

func memberPrefix(t *NamedType) string {
	if t == nil {
		return ""
	}
	return t.String() + "."
}

func paramList(params []*Parameter) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.isParams {
			b.WriteString("params ")
		}
		if p.refKind != syntax.RefNone {
			b.WriteString(p.refKind.String())
			b.WriteByte(' ')
		}
		if p.typ != nil {
			b.WriteString(p.typ.String())
		} else {
			b.WriteString(p.name)
		}
	}
	return b.String()
}
