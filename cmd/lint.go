// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/sharpbind/lint"
)

type lintFlags struct {
	json     bool
	checks   string
	list     bool
	excludes []string
}

// LintCommand creates the "lint" cobra command.
func LintCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)
	var flags lintFlags

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Run static analysis checks on script files",
		Long: `Run static analysis checks on script files.

Each file is parsed and bound, then every selected analyzer examines the
bound statements.  Binding errors are reported under the "bind" check and
cannot be deselected.

With no files, reads from stdin.  A "dir/..." argument lints every .csx
file under dir.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a diagnostic, add a comment on the same line:
  var a = true ? 1 : 2; // nolint:constant-condition

To suppress all checks on a line:
  var a = true ? 1 : 2; // nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  sharpbind lint script.csx
  sharpbind lint --json script.csx
  sharpbind lint --checks=constant-condition script.csx
  sharpbind lint --exclude=generated ./...
  cat script.csx | sharpbind lint`,
		Run: func(cmd *cobra.Command, args []string) {
			if flags.list {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name) //nolint:errcheck // best-effort CLI output
				}
				return
			}
			n, err := runLint(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags)
			if err != nil {
				fmt.Fprintln(os.Stderr, "sharpbind lint:", err)
				os.Exit(2)
			}
			if n > 0 {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&flags.checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&flags.list, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

// selectAnalyzers returns the default analyzers named in the
// comma-separated checks, or all of them when checks is empty.
func selectAnalyzers(checks string) ([]*lint.Analyzer, error) {
	analyzers := lint.DefaultAnalyzers()
	if checks == "" {
		return analyzers, nil
	}
	selected := make(map[string]bool)
	for _, name := range strings.Split(checks, ",") {
		selected[strings.TrimSpace(name)] = true
	}
	var filtered []*lint.Analyzer
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
			delete(selected, a.Name)
		}
	}
	for name := range selected {
		return nil, fmt.Errorf("unknown check: %s", name)
	}
	return filtered, nil
}

// runLint lints the files named by args, or stdin, and writes what it
// finds.  It returns the number of diagnostics reported.
func runLint(cfg *cmdConfig, w, errw io.Writer, args []string, flags lintFlags) (int, error) {
	analyzers, err := selectAnalyzers(flags.checks)
	if err != nil {
		return 0, err
	}
	ctx, done, err := cfg.newContext()
	if err != nil {
		return 0, err
	}
	defer done()
	l := &lint.Linter{Analyzers: analyzers, Context: ctx}

	var all []lint.Diagnostic
	if len(args) == 0 {
		file, src, err := readScript(nil)
		if err != nil {
			return 0, err
		}
		diags, err := l.LintFile(src, file)
		if err != nil {
			return 0, err
		}
		all = diags
	} else {
		paths, err := expandArgs(args, flags.excludes)
		if err != nil {
			return 0, err
		}
		for _, path := range paths {
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				return 0, err
			}
			diags, err := l.LintFile(src, path)
			if err != nil {
				return 0, err
			}
			all = append(all, diags...)
		}
	}
	if len(all) == 0 {
		return 0, nil
	}
	if flags.json {
		if err := lint.FormatJSON(w, all); err != nil {
			return 0, err
		}
		return len(all), nil
	}
	renderLintDiagnostics(errw, all)
	return len(all), nil
}

func init() {
	rootCmd.AddCommand(LintCommand())
}
