// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sharpbind",
	Short: "sharpbind: semantic binder for C# expressions and queries",
	Long: `sharpbind binds C# expressions, query comprehensions and small scripts
against a metadata symbol table, reporting the bound tree, its types and any
diagnostics.

Getting started:
  sharpbind bind file.csx                 Bind a script and print each statement's type
  sharpbind bind -e 'from x in new[] {1, 2} select x * 2'
                                          Bind an expression
  sharpbind bind --tree -e 'F(1, 2L)'     Print the bound tree
  sharpbind lint file.csx                 Run post-binding checks
  sharpbind symbols System.Linq           List the types of a namespace
  sharpbind symbols System.Linq.Enumerable
                                          Show a type's members
  sharpbind repl                          Start an interactive session
  sharpbind lsp                           Start the language server

Metadata:
  The core library (System, System.Collections.Generic, System.Linq, ...)
  is always loaded.  Additional types and script globals are read from YAML
  files named with --symbols or the "symbols" configuration key.

Configuration:
  Settings are read from $HOME/.sharpbind.yaml (or --config) and from
  environment variables prefixed with SHARPBIND_, e.g. SHARPBIND_UNSAFE=true.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sharpbind.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.StringArray("symbols", nil, "YAML metadata file to load after the core library (may be repeated).")
	flags.StringSlice("usings", nil, "Namespaces imported by default (default System, System.Collections.Generic, System.Linq).")
	flags.Bool("unsafe", false, "Bind in an unsafe context.")
	flags.Int("parallelism", 0, "Maximum number of expressions bound concurrently (0 means unlimited).")
	flags.String("trace", "none", `Trace binding: "none", "otel", "opencensus", or "pprof".`)
	flags.String("trace-out", "sharpbind.pprof", "CPU profile written by --trace=pprof.")
	for _, key := range []string{"color", "symbols", "usings", "unsafe", "parallelism", "trace", "trace-out"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".sharpbind" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".sharpbind")
	}

	viper.SetEnvPrefix("SHARPBIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
