// Copyright © 2024 The ELPS authors

package symbols

import (
	"sort"
	"strings"
)

// Namespace is a namespace.  The global namespace has an empty name and no
// parent.
type Namespace struct {
	symbolBase
	parent     *Namespace
	namespaces map[string]*Namespace
	types      map[string][]*NamedType
}

func newNamespace(name string, parent *Namespace) *Namespace {
	return &Namespace{
		symbolBase: symbolBase{name: name, static: true},
		parent:     parent,
		namespaces: make(map[string]*Namespace),
		types:      make(map[string][]*NamedType),
	}
}

func (n *Namespace) Kind() Kind { return KindNamespace }

// ContainingSymbol returns the parent namespace, or nil for the global
// namespace.
func (n *Namespace) ContainingSymbol() Symbol {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// IsGlobal reports whether n is the global namespace.
func (n *Namespace) IsGlobal() bool { return n.parent == nil }

// QualifiedName returns the dotted name of n.
func (n *Namespace) QualifiedName() string {
	if n.parent == nil || n.parent.IsGlobal() {
		return n.name
	}
	return n.parent.QualifiedName() + "." + n.name
}

func (n *Namespace) String() string {
	if n.IsGlobal() {
		return "<global namespace>"
	}
	return n.QualifiedName()
}

// Child returns the nested namespace name, creating it when missing.
func (n *Namespace) Child(name string) *Namespace {
	c, ok := n.namespaces[name]
	if !ok {
		c = newNamespace(name, n)
		n.namespaces[name] = c
	}
	return c
}

// Descend returns the namespace at the dotted path below n, creating
// namespaces as needed.
func (n *Namespace) Descend(path string) *Namespace {
	ns := n
	if path == "" {
		return ns
	}
	for _, part := range strings.Split(path, ".") {
		ns = ns.Child(part)
	}
	return ns
}

// AddType declares t in n.
func (n *Namespace) AddType(t *NamedType) *NamedType {
	t.namespace = n
	n.types[t.name] = append(n.types[t.name], t)
	return t
}

// LookupNamespace returns the nested namespace name, or nil.
func (n *Namespace) LookupNamespace(name string) *Namespace {
	return n.namespaces[name]
}

// TypesNamed returns the types declared in n with the given name, of any
// arity.
func (n *Namespace) TypesNamed(name string) []*NamedType {
	return n.types[name]
}

// MembersNamed returns the namespaces and types declared in n with the
// given name.
func (n *Namespace) MembersNamed(name string) []Symbol {
	var out []Symbol
	if ns, ok := n.namespaces[name]; ok {
		out = append(out, ns)
	}
	for _, t := range n.types[name] {
		out = append(out, t)
	}
	return out
}

// Types returns every type declared directly in n, sorted by name and
// arity.
func (n *Namespace) Types() []*NamedType {
	var out []*NamedType
	for _, ts := range n.types {
		out = append(out, ts...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].Arity() < out[j].Arity()
	})
	return out
}

// Namespaces returns the namespaces nested directly in n, sorted by name.
func (n *Namespace) Namespaces() []*Namespace {
	out := make([]*Namespace, 0, len(n.namespaces))
	for _, ns := range n.namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
