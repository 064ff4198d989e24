// Copyright © 2024 The ELPS authors

package binder

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/syntax"
)

// Result is a bound top-level expression and the diagnostics reported
// while binding it.
type Result struct {
	Expr        bound.Expr
	Diagnostics *diagnostic.Bag
}

// Bind binds x in the root scope of c.
func (c *Context) Bind(x syntax.Expr) (*Result, error) {
	return c.BindIn(c.root, x)
}

// BindIn binds x in scope, typically the Scope of a ScriptResult.  The
// returned error is non-nil only when the binder itself is broken;
// problems with x are reported as diagnostics.
func (c *Context) BindIn(scope ScopeID, x syntax.Expr) (res *Result, err error) {
	defer recoverInvariant(&err, "bind")
	if x == nil {
		return nil, errors.New("nil expression")
	}
	end := c.Options.Tracer.Start("bind", x.String(), x.Loc())
	defer end()

	diags := diagnostic.NewBag()
	b := c.NewBinder(scope, diags)
	e := b.bindValue(x, valueStatement)
	return &Result{Expr: e, Diagnostics: diags}, nil
}

// BindAll binds independent expressions in scope concurrently, at most
// Options.Parallelism at a time.  Results are in the order of exprs.  The
// first broken bind cancels those not yet started.
func (c *Context) BindAll(ctx context.Context, scope ScopeID, exprs []syntax.Expr) ([]*Result, error) {
	results := make([]*Result, len(exprs))
	g, ctx := errgroup.WithContext(ctx)
	if c.Options.Parallelism > 0 {
		g.SetLimit(c.Options.Parallelism)
	}
	for i, x := range exprs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.BindIn(scope, x)
			if err != nil {
				return errors.Wrapf(err, "expression %d", i)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
