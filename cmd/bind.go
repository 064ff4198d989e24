// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/syntax"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

type bindFlags struct {
	exprs []string
	tree  bool
	json  bool
}

// BindCommand creates the "bind" cobra command.
func BindCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)
	var flags bindFlags

	cmd := &cobra.Command{
		Use:   "bind [flags] [file]",
		Short: "Bind a script or expressions and print their types",
		Long: `Bind a script or expressions and print the bound form and type of each
statement, followed by any diagnostics.

Query comprehensions are printed in their translated method-call form, so
"from x in xs select x * 2" prints as "xs.Select(x => x * 2)".

With no file and no -e, the script is read from stdin.  Each -e expression
is bound independently in the root scope; up to --parallelism of them are
bound concurrently.

Exit codes:
  0  Bound without errors
  1  Binding reported errors
  2  Bad invocation (unreadable file, syntax error)

Examples:
  sharpbind bind script.csx
  sharpbind bind -e 'new[] {1, 2, 3}.Sum()' -e '"abc".Length'
  sharpbind bind --tree -e 'from x in new[] {1, 2} select x * 2'
  sharpbind bind --json script.csx`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ok, err := runBind(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if !ok {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringArrayVarP(&flags.exprs, "expr", "e", nil,
		"Expression to bind (may be repeated).")
	cmd.Flags().BoolVar(&flags.tree, "tree", false,
		"Print the bound tree of each statement.")
	cmd.Flags().BoolVar(&flags.json, "json", false,
		"Output results and diagnostics as JSON.")
	return cmd
}

type bindOutput struct {
	Bound    string `json:"bound"`
	Type     string `json:"type,omitempty"`
	Constant string `json:"constant,omitempty"`
	Tree     string `json:"tree,omitempty"`
}

type localOutput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type bindReport struct {
	Exprs       []bindOutput            `json:"exprs"`
	Locals      []localOutput           `json:"locals,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// runBind binds the expressions or script named by args and flags,
// writing results to w and rendered diagnostics to errw.  It reports
// whether binding succeeded without errors.
func runBind(cfg *cmdConfig, w, errw io.Writer, args []string, flags bindFlags) (bool, error) {
	ctx, done, err := cfg.newContext()
	if err != nil {
		return false, err
	}
	defer done()

	renderer := newRenderer()
	report := bindReport{Diagnostics: []diagnostic.Diagnostic{}}
	bag := diagnostic.NewBag()
	var exprs []bound.Expr

	if len(flags.exprs) > 0 {
		xs := make([]syntax.Expr, len(flags.exprs))
		for i, src := range flags.exprs {
			file := fmt.Sprintf("<expr %d>", i+1)
			renderer.Sources[file] = src
			x, err := parser.ParseExpr(file, src)
			if err != nil {
				return false, err
			}
			xs[i] = x
		}
		results, err := ctx.BindAll(context.Background(), ctx.Root(), xs)
		if err != nil {
			return false, err
		}
		for _, res := range results {
			exprs = append(exprs, res.Expr)
			bag.AddAll(res.Diagnostics)
		}
	} else {
		file, src, err := readScript(args)
		if err != nil {
			return false, err
		}
		renderer.Sources[file] = string(src)
		s, err := parser.ParseScript(file, string(src))
		if err != nil {
			return false, err
		}
		res, err := ctx.BindScript(s)
		if err != nil {
			return false, err
		}
		exprs = res.Exprs
		bag.AddAll(res.Diagnostics)
		for _, l := range res.Locals {
			report.Locals = append(report.Locals, localOutput{Name: l.Name(), Type: typeString(l.Type())})
		}
	}

	for _, e := range exprs {
		out := bindOutput{Bound: e.String()}
		if e.Type() != nil {
			out.Type = e.Type().String()
		}
		if c := e.Constant(); c != nil {
			out.Constant = bound.FormatConstant(c.Value, e.Type())
		}
		if flags.tree {
			out.Tree = bound.DumpString(e)
		}
		report.Exprs = append(report.Exprs, out)
	}
	report.Diagnostics = append(report.Diagnostics, bag.Sorted()...)

	if flags.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return false, err
		}
		return !bag.HasErrors(), nil
	}

	for _, l := range report.Locals {
		fmt.Fprintf(w, "%s %s\n", l.Type, l.Name) //nolint:errcheck // best-effort CLI output
	}
	for _, out := range report.Exprs {
		if flags.tree {
			fmt.Fprint(w, out.Tree) //nolint:errcheck // best-effort CLI output
			continue
		}
		line := out.Bound + " : " + out.Type
		if out.Constant != "" {
			line += " = " + out.Constant
		}
		fmt.Fprintln(w, line) //nolint:errcheck // best-effort CLI output
	}
	if bag.Len() > 0 {
		_ = renderer.RenderAll(errw, report.Diagnostics)
	}
	return !bag.HasErrors(), nil
}

// readScript reads the script named by args, or stdin when there is none.
func readScript(args []string) (string, []byte, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return "<stdin>", src, nil
	}
	src, err := os.ReadFile(args[0]) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return "", nil, err
	}
	return args[0], src, nil
}

func typeString(t interface{ String() string }) string {
	if t == nil {
		return "<no type>"
	}
	return t.String()
}

func init() {
	rootCmd.AddCommand(BindCommand())
}
