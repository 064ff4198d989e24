// Copyright © 2024 The ELPS authors

package binder

import (
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax"
)

// ScriptResult is a bound script.
type ScriptResult struct {
	// Exprs holds the bound expression statements and initializers in
	// source order.
	Exprs []bound.Expr
	// Locals holds the declared locals in source order.
	Locals []*symbols.Local
	// Scope is the scope of the top-level block.  Expressions bound in it
	// with BindIn see every top-level local of the script.
	Scope       ScopeID
	Diagnostics *diagnostic.Bag
}

// BindScript binds the declarations and expression statements of s.
func (c *Context) BindScript(s *syntax.Script) (res *ScriptResult, err error) {
	defer recoverInvariant(&err, "bind script")
	end := c.Options.Tracer.Start("script", s.File, s.Body.Source)
	defer end()

	diags := diagnostic.NewBag()
	b := c.NewBinder(c.scriptChain(s, diags), diags)
	top := b.push(ScopeBlock, s.Body)
	res = &ScriptResult{Scope: top.scope, Diagnostics: diags}
	top.bindBlock(s.Body, res)
	return res, nil
}

// BindSubmission binds s as a submission following the one whose
// ScriptResult has scope prev.  The locals of earlier submissions stay
// visible and may be redeclared.  The using directives of s apply to it
// and to later submissions.
func (c *Context) BindSubmission(prev ScopeID, s *syntax.Script) (res *ScriptResult, err error) {
	defer recoverInvariant(&err, "bind submission")
	end := c.Options.Tracer.Start("script", s.File, s.Body.Source)
	defer end()

	diags := diagnostic.NewBag()
	parent := prev
	if len(s.Usings) > 0 {
		imports, aliases := c.NewBinder(prev, diags).bindUsings(s.Usings)
		parent = c.Scopes.push(&scope{
			kind:    ScopeImports,
			parent:  prev,
			syntax:  s.Body,
			imports: imports,
			aliases: aliases,
		})
	}
	sub := c.Scopes.push(&scope{
		kind:   ScopeSubmission,
		parent: parent,
		syntax: s.Body,
		unsafe: c.Options.Unsafe,
	})
	top := c.NewBinder(sub, diags).push(ScopeBlock, s.Body)
	res = &ScriptResult{Scope: top.scope, Diagnostics: diags}
	top.bindBlock(s.Body, res)
	return res, nil
}

// scriptChain returns the submission scope of s: the root scope when s
// has no using directives, otherwise a new chain importing them.
func (c *Context) scriptChain(s *syntax.Script, diags *diagnostic.Bag) ScopeID {
	if len(s.Usings) == 0 {
		return c.root
	}
	imports, aliases := c.NewBinder(c.root, diags).bindUsings(s.Usings)
	imports = append(append([]*symbols.Namespace(nil), c.imports...), imports...)
	return c.newChain(s.Body, imports, aliases)
}

// bindUsings resolves using directives to the namespaces they import and
// the aliases they declare.
func (b *Binder) bindUsings(usings []*syntax.UsingDirective) ([]*symbols.Namespace, map[string]*symbols.Alias) {
	var (
		imports []*symbols.Namespace
		aliases map[string]*symbols.Alias
	)
	for _, u := range usings {
		ns, typ := b.bindNamespaceOrType(u.Name)
		if u.Alias != "" {
			var target symbols.Symbol
			switch t := typ.(type) {
			case nil:
				if ns == nil {
					continue
				}
				target = ns
			case *symbols.NamedType:
				target = t
			default:
				continue
			}
			if aliases == nil {
				aliases = make(map[string]*symbols.Alias)
			}
			if prev, ok := aliases[u.Alias]; ok {
				b.report(diagnostic.AmbiguousReference, u.AliasLoc, u.Alias, prev.Target(), target)
				continue
			}
			aliases[u.Alias] = symbols.NewAlias(u.Alias, target, u.AliasLoc)
			continue
		}
		if ns == nil {
			if !symbols.IsErrorType(typ) {
				b.report(diagnostic.BadSymbolKind, u.Name.Source, u.Name.QualifiedName(), "type", "namespace")
			}
			continue
		}
		imports = append(imports, ns)
	}
	return imports, aliases
}

// bindBlock binds the statements of blk in b's scope.  Every name the
// block declares is reserved first so that a use ahead of its declaration
// is reported rather than bound to an outer meaning.
func (b *Binder) bindBlock(blk *syntax.Block, res *ScriptResult) {
	for _, st := range blk.Statements {
		if d, ok := st.(*syntax.LocalDecl); ok {
			for _, v := range d.Declarators {
				b.arena().reserve(b.scope, v.Name, v.NameLoc)
			}
		}
	}
	for _, st := range blk.Statements {
		switch st := st.(type) {
		case *syntax.Block:
			inner := b.push(ScopeBlock, st)
			if st.Unsafe {
				inner.flags |= flagUnsafe
			}
			inner.bindBlock(st, res)
		case *syntax.LocalDecl:
			b.bindLocalDecl(st, res)
		case *syntax.ExprStmt:
			res.Exprs = append(res.Exprs, b.bindValue(st.X, valueStatement))
		default:
			invariant("unexpected statement %T", st)
		}
	}
}

// bindLocalDecl declares the locals of d.  An explicitly typed local is in
// scope in its own initializer; an implicitly typed one only after it.
func (b *Binder) bindLocalDecl(d *syntax.LocalDecl, res *ScriptResult) {
	implicit := syntax.IsVar(d.Type)
	var declared symbols.Type
	if !implicit {
		declared = b.bindType(d.Type)
	}
	for _, v := range d.Declarators {
		if !implicit && !d.Const {
			local := symbols.NewLocal(v.Name, declared, v.NameLoc)
			b.declareLocal(local, v.NameLoc, res)
			if v.Init != nil {
				res.Exprs = append(res.Exprs, b.convertImplicit(b.bindValue(v.Init, valueRValueOrMethodGroup), declared))
			}
			continue
		}
		var init bound.Expr
		typ := declared
		switch {
		case v.Init != nil:
			init = b.bindValue(v.Init, valueRValueOrMethodGroup)
			if implicit {
				typ = b.implicitLocalType(init)
			} else {
				init = b.convertImplicit(init, declared)
			}
			res.Exprs = append(res.Exprs, init)
		case implicit:
			b.report(diagnostic.ImplicitlyTypedInit, v.NameLoc)
			typ = symbols.Error
		}
		if !d.Const {
			b.declareLocal(symbols.NewLocal(v.Name, typ, v.NameLoc), v.NameLoc, res)
			continue
		}
		var value interface{}
		switch {
		case init == nil:
			b.report(diagnostic.ConstantExpected, v.NameLoc, v.Name)
			typ = symbols.Error
		case init.Constant() == nil:
			if !init.HasErrors() {
				b.report(diagnostic.ConstantExpected, locOf(init.Syntax()), v.Name)
			}
			typ = symbols.Error
		default:
			value = init.Constant().Value
		}
		b.declareLocal(symbols.NewConstLocal(v.Name, typ, value, v.NameLoc), v.NameLoc, res)
	}
}

// implicitLocalType returns the type of a local declared with var and
// initialized with init.
func (b *Binder) implicitLocalType(init bound.Expr) symbols.Type {
	t := init.Type()
	switch {
	case init.HasErrors():
		if t == nil {
			return symbols.Error
		}
		return t
	case t == nil, symbols.IsVoid(t):
		b.report(diagnostic.ImplicitlyTypedBad, locOf(init.Syntax()), typeString(init))
		return symbols.Error
	}
	return t
}

func (b *Binder) declareLocal(local *symbols.Local, loc syntax.Location, res *ScriptResult) {
	b.arena().declare(b.scope, local)
	b.recordDeclaration(local.Name(), local, loc)
	res.Locals = append(res.Locals, local)
}
