// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/luthersystems/sharpbind/lsp"
)

// LSPCommand creates the "lsp" cobra command.  Embedders can pass
// WithTable to serve against their own symbol metadata.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)

	var (
		stdio     bool
		port      int
		verbosity int
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Language Server Protocol server",
		Long: `Start an LSP server for script files.

The language server rebinds each open document as it changes and provides
diagnostics, hover, go-to-definition, find references, completion,
document symbols, and rename.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Server logging is off unless --verbose is given; with --log-file it goes
to that file instead of stderr.

Examples:
  sharpbind lsp                      Start with stdio transport
  sharpbind lsp --port 7998          Start with TCP on port 7998
  sharpbind lsp -v 2 --log-file /tmp/sharpbind-lsp.log`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if logFile != "" {
				commonlog.Configure(verbosity, &logFile)
			} else {
				commonlog.Configure(verbosity, nil)
			}

			ctx, done, err := cfg.newContext()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			defer done()

			srv, err := lsp.New(lsp.WithContext(ctx))
			if err != nil {
				fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
				os.Exit(1)
			}
			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("sharpbind LSP server listening on %s", addr)
				err = srv.RunTCP(addr)
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().IntVarP(&verbosity, "verbose", "v", 0,
		"Server log verbosity (0 disables logging)")
	cmd.Flags().StringVar(&logFile, "log-file", "",
		"Write server logs to this file instead of stderr")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
