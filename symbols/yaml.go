// Copyright © 2024 The ELPS authors

package symbols

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

// A metadata file describes types with C#-like member signatures:
//
//	assembly: mylib
//	usings: [System, System.Collections.Generic]
//	types:
//	  - name: Geometry.Point
//	    kind: struct
//	    members:
//	      - "double X { get; }"
//	      - "Point(double x, double y)"
//	      - "static Point operator +(Point a, Point b)"
//	globals:
//	  - "List<Point> points"
//
// Globals become members of the script class.
type metadataFile struct {
	Assembly string      `yaml:"assembly"`
	Usings   []string    `yaml:"usings"`
	Types    []yaml.Node `yaml:"types"`
	Globals  []yaml.Node `yaml:"globals"`
}

type metadataType struct {
	Name       string      `yaml:"name"`
	Kind       string      `yaml:"kind"`
	Special    string      `yaml:"special"`
	Access     string      `yaml:"access"`
	Static     bool        `yaml:"static"`
	Sealed     bool        `yaml:"sealed"`
	Abstract   bool        `yaml:"abstract"`
	Restricted bool        `yaml:"restricted"`
	Base       string      `yaml:"base"`
	Implements []string    `yaml:"implements"`
	Where      []string    `yaml:"where"`
	Underlying string      `yaml:"underlying"`
	Values     []string    `yaml:"values"`
	Members    []yaml.Node `yaml:"members"`
}

var specialNames = map[string]SpecialType{
	"valuetype":      SpecialValueType,
	"enum":           SpecialEnum,
	"array":          SpecialArray,
	"delegate":       SpecialDelegate,
	"type":           SpecialSystemType,
	"nullable":       SpecialNullable,
	"ienumerable<t>": SpecialIEnumerableT,
	"ienumerable":    SpecialIEnumerable,
	"typedreference": SpecialTypedReference,
}

func parseSpecial(s string) (SpecialType, bool) {
	if st := SpecialTypeForKeyword(s); st != SpecialNone {
		return st, true
	}
	st, ok := specialNames[strings.ToLower(s)]
	return st, ok
}

// MetadataError is a problem in a metadata file.
type MetadataError struct {
	File string
	Line int
	Msg  string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

type loader struct {
	table  *Table
	file   string
	meta   metadataFile
	usings []*Namespace
	// ns is the namespace of the type being defined; its types and those
	// of its parents are in scope.
	ns *Namespace
	// pending pairs each declared type with its description.
	pending []pendingType
}

type pendingType struct {
	typ  *NamedType
	desc metadataType
	line int
}

// LoadYAML reads type and global declarations from r and adds them to t.
// name identifies r in error messages.  Types may refer to each other and
// to anything already in t.
func LoadYAML(t *Table, name string, r io.Reader) error {
	l := &loader{table: t, file: name}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&l.meta); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if l.meta.Assembly == "" {
		l.meta.Assembly = SourceAssembly
	}
	for _, u := range l.meta.Usings {
		l.usings = append(l.usings, t.global.Descend(u))
	}
	for i := range l.meta.Types {
		if err := l.declare(&l.meta.Types[i]); err != nil {
			return err
		}
	}
	for _, p := range l.pending {
		if err := l.define(p); err != nil {
			return err
		}
	}
	for _, node := range l.meta.Globals {
		if err := l.member(t.script, node.Value, node.Line, nil); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) errorf(line int, format string, v ...interface{}) error {
	return &MetadataError{File: l.file, Line: line, Msg: fmt.Sprintf(format, v...)}
}

// declare creates the type described by node so that later definitions can
// refer to it.
func (l *loader) declare(node *yaml.Node) error {
	var desc metadataType
	if err := node.Decode(&desc); err != nil {
		return l.errorf(node.Line, "%v", err)
	}
	qualified, tpSrc := desc.Name, ""
	if i := strings.IndexByte(desc.Name, '<'); i >= 0 {
		qualified, tpSrc = desc.Name[:i], desc.Name[i:]
	}
	var tps []*TypeParameter
	if tpSrc != "" {
		decls, err := parser.ParseTypeParams(tpSrc)
		if err != nil {
			return l.errorf(node.Line, "type %s: %v", desc.Name, err)
		}
		tps = declareTypeParams(decls)
	}
	kind := TypeClass
	if desc.Kind != "" {
		k, ok := ParseTypeKind(desc.Kind)
		if !ok {
			return l.errorf(node.Line, "type %s: unknown kind %q", desc.Name, desc.Kind)
		}
		kind = k
	}
	access := Public
	if desc.Access != "" {
		a, ok := ParseAccessibility(desc.Access)
		if !ok {
			return l.errorf(node.Line, "type %s: unknown accessibility %q", desc.Name, desc.Access)
		}
		access = a
	}
	nsName, simple := "", qualified
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		nsName, simple = qualified[:i], qualified[i+1:]
	}
	ns := l.table.global.Descend(nsName)
	for _, existing := range ns.TypesNamed(simple) {
		if existing.Arity() == len(tps) {
			return l.errorf(node.Line, "type %s is already declared", desc.Name)
		}
	}
	nt := NewNamedType(simple, tps, TypeOptions{
		Kind:       kind,
		Access:     access,
		Static:     desc.Static,
		Sealed:     desc.Sealed,
		Abstract:   desc.Abstract,
		Restricted: desc.Restricted,
		Assembly:   l.meta.Assembly,
		Location:   syntax.Location{File: l.file, Line: node.Line, Col: node.Column},
	})
	ns.AddType(nt)
	if desc.Special != "" {
		st, ok := parseSpecial(desc.Special)
		if !ok {
			return l.errorf(node.Line, "type %s: unknown special type %q", desc.Name, desc.Special)
		}
		l.table.SetSpecialType(st, nt)
	}
	l.pending = append(l.pending, pendingType{typ: nt, desc: desc, line: node.Line})
	return nil
}

func declareTypeParams(decls []*syntax.TypeParamDecl) []*TypeParameter {
	tps := make([]*TypeParameter, len(decls))
	for i, d := range decls {
		v := Invariant
		switch d.Variance {
		case "out":
			v = Covariant
		case "in":
			v = Contravariant
		}
		tps[i] = NewTypeParameter(d.Name, i, v)
	}
	return tps
}

// define resolves the base types, constraints and members of a declared
// type.
func (l *loader) define(p pendingType) error {
	nt, desc := p.typ, p.desc
	l.ns = nt.Namespace()
	defer func() { l.ns = nil }()
	scope := typeParamScope(nil, nt.typeParams)
	switch {
	case desc.Base != "":
		base, err := l.resolveString(desc.Base, scope)
		if err != nil {
			return l.errorf(p.line, "type %s: base: %v", desc.Name, err)
		}
		nt.SetBase(base)
	case nt.special == SpecialObject || nt.kind == TypeInterface:
	case nt.kind == TypeStruct:
		nt.SetBase(l.table.special[SpecialValueType])
	case nt.kind == TypeEnum:
		nt.SetBase(l.table.special[SpecialEnum])
	case nt.kind == TypeDelegate:
		nt.SetBase(l.table.special[SpecialDelegate])
	default:
		nt.SetBase(l.table.special[SpecialObject])
	}
	for _, src := range desc.Implements {
		iface, err := l.resolveString(src, scope)
		if err != nil {
			return l.errorf(p.line, "type %s: implements: %v", desc.Name, err)
		}
		nt.AddInterface(iface)
	}
	for _, src := range desc.Where {
		c, err := parser.ParseConstraint(src)
		if err != nil {
			return l.errorf(p.line, "type %s: %v", desc.Name, err)
		}
		if err := l.constrain(c, scope); err != nil {
			return l.errorf(p.line, "type %s: %v", desc.Name, err)
		}
	}
	if nt.kind == TypeEnum {
		under := l.table.special[SpecialInt32]
		if desc.Underlying != "" {
			u, err := l.resolveString(desc.Underlying, scope)
			if err != nil {
				return l.errorf(p.line, "type %s: underlying: %v", desc.Name, err)
			}
			un, ok := u.(*NamedType)
			if !ok || !un.SpecialType().IsIntegral() {
				return l.errorf(p.line, "type %s: underlying type %s is not integral", desc.Name, u)
			}
			under = un
		}
		nt.SetEnumUnderlyingType(under)
		for i, v := range desc.Values {
			val, _ := ConvertConstant(int64(i), under.special)
			nt.AddMember(NewConstField(v, nt, val, MemberOptions{}))
		}
	}
	for _, m := range desc.Members {
		if err := l.member(nt, m.Value, m.Line, scope); err != nil {
			return err
		}
	}
	return nil
}

func typeParamScope(outer map[string]*TypeParameter, tps []*TypeParameter) map[string]*TypeParameter {
	scope := make(map[string]*TypeParameter, len(outer)+len(tps))
	for k, v := range outer {
		scope[k] = v
	}
	for _, tp := range tps {
		scope[tp.name] = tp
	}
	return scope
}

func (l *loader) constrain(c *syntax.ConstraintDecl, scope map[string]*TypeParameter) error {
	tp, ok := scope[c.Param]
	if !ok {
		return fmt.Errorf("constraint on unknown type parameter %s", c.Param)
	}
	tp.ReferenceConstraint = tp.ReferenceConstraint || c.Class
	tp.ValueConstraint = tp.ValueConstraint || c.Struct
	tp.ConstructorConstraint = tp.ConstructorConstraint || c.New
	for _, ts := range c.Types {
		typ, err := l.resolve(ts, scope)
		if err != nil {
			return err
		}
		tp.ConstraintTypes = append(tp.ConstraintTypes, typ)
	}
	return nil
}

func (l *loader) member(nt *NamedType, src string, line int, scope map[string]*TypeParameter) error {
	d, err := parser.ParseMember(nt.name, src)
	if err != nil {
		return l.errorf(line, "%s: %v", nt.name, err)
	}
	sym, err := l.buildMember(nt, d, scope)
	if err != nil {
		return l.errorf(line, "%s: %s: %v", nt.name, src, err)
	}
	nt.AddMember(sym)
	return nil
}

func memberOptions(d *syntax.MemberDecl, loc syntax.Location) (MemberOptions, error) {
	opts := MemberOptions{Static: d.HasModifier("static"), Location: loc}
	var access []string
	for _, m := range d.Modifiers {
		switch m {
		case "public", "private", "protected", "internal":
			access = append(access, m)
		}
	}
	if len(access) > 0 {
		a, ok := ParseAccessibility(strings.Join(access, " "))
		if !ok {
			return opts, fmt.Errorf("bad accessibility %q", strings.Join(access, " "))
		}
		opts.Access = a
	}
	return opts, nil
}

func (l *loader) buildMember(nt *NamedType, d *syntax.MemberDecl, scope map[string]*TypeParameter) (Symbol, error) {
	loc := d.Source
	loc.File = l.file
	opts, err := memberOptions(d, loc)
	if err != nil {
		return nil, err
	}
	if nt.IsStaticClass() && d.Kind != syntax.MemberConst {
		opts.Static = true
	}
	switch d.Kind {
	case syntax.MemberField, syntax.MemberEvent, syntax.MemberProperty:
		typ, err := l.resolve(d.Type, scope)
		if err != nil {
			return nil, err
		}
		switch d.Kind {
		case syntax.MemberEvent:
			return NewEvent(d.Name, typ, opts), nil
		case syntax.MemberProperty:
			return NewProperty(d.Name, typ, nil, d.Get, d.Set, opts), nil
		}
		f := NewField(d.Name, typ, opts)
		f.SetReadOnly(d.HasModifier("readonly"))
		return f, nil
	case syntax.MemberConst:
		typ, err := l.resolve(d.Type, scope)
		if err != nil {
			return nil, err
		}
		v, err := l.constant(d.Value, typ)
		if err != nil {
			return nil, err
		}
		return NewConstField(d.Name, typ, v, opts), nil
	case syntax.MemberIndexer:
		typ, err := l.resolve(d.Type, scope)
		if err != nil {
			return nil, err
		}
		params, err := l.params(d.Params, scope)
		if err != nil {
			return nil, err
		}
		return NewProperty(IndexerName, typ, params, d.Get, d.Set, opts), nil
	}

	mopts := MethodOptions{
		MemberOptions: opts,
		Abstract:      d.HasModifier("abstract") || nt.kind == TypeInterface,
		Virtual:       d.HasModifier("virtual") || d.HasModifier("override"),
	}
	var (
		name string
		tps  []*TypeParameter
		ret  Type
	)
	switch d.Kind {
	case syntax.MemberConstructor:
		name, mopts.Kind, mopts.Static = ConstructorName, MethodConstructor, false
		ret = l.table.special[SpecialVoid]
	case syntax.MemberOperator:
		name = operatorMethodName(d.Operator, len(d.Params))
		if name == "" {
			return nil, fmt.Errorf("operator %s cannot take %d operands", d.Operator, len(d.Params))
		}
		mopts.Kind = MethodOperator
	case syntax.MemberConversion:
		name = ImplicitConversionName
		if d.Operator == "explicit" {
			name = ExplicitConversionName
		}
		mopts.Kind = MethodConversion
		if len(d.Params) != 1 {
			return nil, fmt.Errorf("conversion operators take one operand")
		}
	default:
		name = d.Name
		if name == "Invoke" && nt.kind == TypeDelegate {
			mopts.Kind = MethodDelegateInvoke
		}
		tps = declareTypeParams(d.TypeParams)
		scope = typeParamScope(scope, tps)
		for _, c := range d.Constraints {
			if err := l.constrain(c, scope); err != nil {
				return nil, err
			}
		}
	}
	if ret == nil {
		r, err := l.resolve(d.Type, scope)
		if err != nil {
			return nil, err
		}
		ret = r
	}
	params, err := l.params(d.Params, scope)
	if err != nil {
		return nil, err
	}
	if len(d.Params) > 0 && d.Params[0].This {
		if !nt.IsStaticClass() || nt.Arity() > 0 || nt.outer != nil {
			return nil, fmt.Errorf("extension methods must be declared in a non-generic, top-level static class")
		}
		mopts.Extension = true
	}
	return NewMethod(name, tps, params, ret, mopts), nil
}

func (l *loader) params(decls []*syntax.ParamDecl, scope map[string]*TypeParameter) ([]*Parameter, error) {
	params := make([]*Parameter, len(decls))
	for i, pd := range decls {
		typ, err := l.resolve(pd.Type, scope)
		if err != nil {
			return nil, err
		}
		if pd.Params {
			if _, ok := typ.(*ArrayType); !ok || i != len(decls)-1 {
				return nil, fmt.Errorf("params parameter %s must be a trailing array", pd.Name)
			}
		}
		opts := ParameterOptions{RefKind: pd.RefKind, Params: pd.Params}
		if pd.Default != nil {
			v, err := l.constant(pd.Default, typ)
			if err != nil {
				return nil, err
			}
			opts.HasDefault, opts.Default = true, v
		}
		params[i] = NewParameter(pd.Name, typ, opts)
	}
	return params, nil
}

// constant evaluates a literal initializer, optionally negated, as a
// constant of type typ.
func (l *loader) constant(e syntax.Expr, typ Type) (interface{}, error) {
	e = syntax.Unparen(e)
	neg := false
	if u, ok := e.(*syntax.Unary); ok && u.Op == syntax.UnaryMinus {
		neg, e = true, syntax.Unparen(u.X)
	}
	var v interface{}
	switch e := e.(type) {
	case *syntax.Literal:
		v = e.Value
	case *syntax.Default:
		return nil, nil
	default:
		return nil, fmt.Errorf("constant value must be a literal: %s", e)
	}
	if neg {
		switch x := v.(type) {
		case uint64:
			v = -int64(x)
		case float64:
			v = -x
		default:
			return nil, fmt.Errorf("cannot negate %v", v)
		}
	}
	if v == nil {
		return nil, nil
	}
	st := Special(typ)
	if nt, ok := typ.(*NamedType); ok && nt.kind == TypeEnum && nt.underlying != nil {
		st = nt.underlying.special
	}
	out, ok := ConvertConstant(v, st)
	if !ok {
		return nil, fmt.Errorf("constant %v is not a %s", v, typ)
	}
	return out, nil
}

func (l *loader) resolveString(src string, scope map[string]*TypeParameter) (Type, error) {
	ts, err := parser.ParseType(src)
	if err != nil {
		return nil, err
	}
	return l.resolve(ts, scope)
}

// resolve binds type syntax against type parameters in scope, the file's
// usings and the global namespace.
func (l *loader) resolve(ts syntax.Type, scope map[string]*TypeParameter) (Type, error) {
	switch ts := ts.(type) {
	case *syntax.PredefinedType:
		st := SpecialTypeForKeyword(ts.Keyword)
		if t := l.table.SpecialType(st); t != nil {
			return t, nil
		}
		return nil, fmt.Errorf("predefined type %s is not declared", ts.Keyword)
	case *syntax.ArrayType:
		elem, err := l.resolve(ts.Elem, scope)
		if err != nil {
			return nil, err
		}
		return NewArrayType(elem, ts.Rank), nil
	case *syntax.PointerType:
		elem, err := l.resolve(ts.Elem, scope)
		if err != nil {
			return nil, err
		}
		return &PointerType{Elem: elem}, nil
	case *syntax.NullableType:
		elem, err := l.resolve(ts.Elem, scope)
		if err != nil {
			return nil, err
		}
		return l.table.Nullable(elem), nil
	case *syntax.NamedType:
		args := make([]Type, len(ts.TypeArgs))
		for i, a := range ts.TypeArgs {
			t, err := l.resolve(a, scope)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		def := l.lookupNamed(ts, scope)
		switch def := def.(type) {
		case *TypeParameter:
			return def, nil
		case *DynamicType:
			return def, nil
		case *NamedType:
			return def.Construct(args...), nil
		}
		return nil, fmt.Errorf("unknown type %s", ts)
	}
	return nil, fmt.Errorf("unsupported type syntax %s", ts)
}

func (l *loader) lookupNamed(ts *syntax.NamedType, scope map[string]*TypeParameter) Type {
	arity := len(ts.TypeArgs)
	if ts.Qualifier != nil {
		if t := l.table.LookupType(ts.QualifiedName(), arity); t != nil {
			return t
		}
		return nil
	}
	if arity == 0 {
		if tp, ok := scope[ts.Name]; ok {
			return tp
		}
	}
	for ns := l.ns; ns != nil; ns = ns.parent {
		for _, t := range ns.TypesNamed(ts.Name) {
			if t.Arity() == arity {
				return t
			}
		}
	}
	if t := l.table.LookupType(ts.Name, arity); t != nil {
		return t
	}
	for _, ns := range l.usings {
		for _, t := range ns.TypesNamed(ts.Name) {
			if t.Arity() == arity {
				return t
			}
		}
	}
	if ts.Name == "dynamic" && arity == 0 {
		return l.table.dynamic
	}
	return nil
}
