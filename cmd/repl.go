// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luthersystems/sharpbind/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive binding session",
	Long: `Start an interactive session that binds each submission against the
locals declared by earlier ones and prints its bound form and type.

Line editing and command history are supported via readline.  Use Ctrl-D
or Ctrl-C to exit.

Example session:
  sharpbind> int n = 4;
  sharpbind> n * 2;
  n * 2 : int
  sharpbind> :type from x in new[] {1, 2} select x.ToString()
  IEnumerable<string>
  sharpbind> :using System.Collections
  sharpbind> :locals
  int n`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, done, err := newConfig(nil).newContext()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer done()
		repl.RunRepl(filepath.Base(os.Args[0])+"> ",
			repl.WithContext(ctx),
			repl.WithColor(colorMode()))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
