// Copyright © 2024 The ELPS authors

package symbols

// Substitution maps type parameters to type arguments.
type Substitution map[*TypeParameter]Type

// NewSubstitution pairs params with args.
func NewSubstitution(params []*TypeParameter, args []Type) Substitution {
	s := make(Substitution, len(params))
	for i, p := range params {
		s[p] = args[i]
	}
	return s
}

// Apply returns t with every mapped type parameter replaced.
func (s Substitution) Apply(t Type) Type {
	if len(s) == 0 || t == nil {
		return t
	}
	switch t := t.(type) {
	case *TypeParameter:
		if r, ok := s[t]; ok {
			return r
		}
		return t
	case *ArrayType:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return NewArrayType(elem, t.Rank)
	case *PointerType:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return &PointerType{Elem: elem}
	case *NamedType:
		if len(t.typeParams) == 0 {
			return t
		}
		args := t.TypeArguments()
		changed := false
		out := make([]Type, len(args))
		for i, a := range args {
			out[i] = s.Apply(a)
			if out[i] != a {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return t.OriginalDefinition().Construct(out...)
	}
	return t
}

func (s Substitution) params(ps []*Parameter) []*Parameter {
	out := make([]*Parameter, len(ps))
	for i, p := range ps {
		out[i] = p.withType(s.Apply(p.typ))
	}
	return out
}

// member substitutes a member of a generic definition for the constructed
// type container.
func (s Substitution) member(m Symbol, container *NamedType) Symbol {
	switch m := m.(type) {
	case *Field:
		c := *m
		c.typ = s.Apply(m.typ)
		c.container = container
		c.def = m
		return &c
	case *Property:
		c := *m
		c.typ = s.Apply(m.typ)
		c.params = s.params(m.params)
		for _, p := range c.params {
			p.owner = &c
		}
		c.container = container
		c.def = m
		return &c
	case *Event:
		c := *m
		c.typ = s.Apply(m.typ)
		c.container = container
		c.def = m
		return &c
	case *Method:
		return s.method(m, container)
	}
	return m
}

func (s Substitution) method(m *Method, container *NamedType) *Method {
	c := *m
	c.params = s.params(m.params)
	for _, p := range c.params {
		p.owner = &c
	}
	c.ret = s.Apply(m.ret)
	c.container = container
	c.def = m
	return &c
}
