// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luthersystems/sharpbind/symbols"
)

// maxArity bounds the generic arities tried when looking up a type by name.
const maxArity = 8

// SymbolsCommand creates the "symbols" cobra command.
func SymbolsCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)
	return &cobra.Command{
		Use:   "symbols [namespace | type]",
		Short: "Show the symbol metadata available to scripts",
		Long: `Show the namespaces, types, and script globals available to scripts.

With no argument, lists every namespace with its type count, followed by
the members of the script class.  Given a namespace, lists its types.
Given a qualified type name, prints the type's declaration and members.
Metadata loaded with --symbols is included.

Examples:
  sharpbind symbols
  sharpbind symbols System.Collections.Generic
  sharpbind symbols System.Collections.Generic.List
  sharpbind --symbols acme.yaml symbols Acme`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSymbols(cfg, cmd.OutOrStdout(), args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
}

func runSymbols(cfg *cmdConfig, w io.Writer, args []string) error {
	table, err := cfg.loadTable()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if _, err := fmt.Fprintln(w, "namespaces:"); err != nil {
			return err
		}
		if err := symbols.RenderNamespaceList(w, table); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "\nglobals:"); err != nil {
			return err
		}
		return symbols.RenderGlobals(w, table)
	}
	name := args[0]
	if table.LookupNamespace(name) != nil {
		return symbols.RenderNamespace(w, table, name)
	}
	for arity := 0; arity <= maxArity; arity++ {
		if nt := table.LookupType(name, arity); nt != nil {
			return symbols.RenderType(w, table, nt)
		}
	}
	return fmt.Errorf("no namespace or type named %q", name)
}

func init() {
	rootCmd.AddCommand(SymbolsCommand())
}
