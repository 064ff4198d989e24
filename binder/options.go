// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/syntax"
)

// Options configures a Context.
type Options struct {
	// Usings are namespaces imported into every bind in addition to the
	// using directives of a script, e.g. "System" and "System.Linq".
	Usings []string
	// Unsafe binds everything as if it were inside an unsafe block.
	Unsafe bool
	// Parallelism bounds the number of expressions BindAll binds at once.
	// Zero or less means one worker per expression.
	Parallelism int
	// Tracer receives a span for each top-level bind, overload resolution
	// and query clause.  A nil Tracer disables tracing.
	Tracer Tracer
}

// Tracer observes binder phases.  Start begins a span and returns the
// function that ends it.
type Tracer interface {
	Start(kind, label string, loc syntax.Location) (end func())
}

type nopTracer struct{}

func (nopTracer) Start(string, string, syntax.Location) func() { return func() {} }

// DefaultUsings are the imports of a Context created without explicit
// Options.Usings.
var DefaultUsings = []string{"System", "System.Collections.Generic", "System.Linq"}

// LookupOptions restrict which symbols a lookup considers viable.
type LookupOptions uint16

const (
	// AllMethodsOnArityZero makes every method viable for an arity zero
	// lookup so that type arguments can be inferred.
	AllMethodsOnArityZero LookupOptions = 1 << iota
	// MustBeInvocableIfMember rejects fields, properties and events that are
	// not of delegate or dynamic type.
	MustBeInvocableIfMember
	// LabelsOnly considers labels and nothing else.
	LabelsOnly
	// UseBaseReferenceAccessibility checks protected access as if through
	// base.
	UseBaseReferenceAccessibility
	// NamespacesOrTypesOnly rejects everything but namespaces, types and
	// aliases.
	NamespacesOrTypesOnly
	// NamespaceAliasesOnly considers only using aliases.
	NamespaceAliasesOnly
	// MustBeInstance rejects static members.
	MustBeInstance
	// MustNotBeInstance rejects instance members.
	MustNotBeInstance
	// IncludeExtensionMethods adds extension methods to member lookups.
	IncludeExtensionMethods
)

// Has reports whether every option in flag is set.
func (o LookupOptions) Has(flag LookupOptions) bool { return o&flag == flag }
