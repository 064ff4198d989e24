// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/symbols"
)

// Option configures an exported command factory (BindCommand,
// LintCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	table  *symbols.Table
	tracer binder.Tracer
}

// WithTable binds against table instead of the core library.  Metadata
// files named by the "symbols" key are still loaded into it.
func WithTable(table *symbols.Table) Option {
	return func(c *cmdConfig) { c.table = table }
}

// WithTracer traces binding with t, overriding the "trace" key.
func WithTracer(t binder.Tracer) Option {
	return func(c *cmdConfig) { c.tracer = t }
}

func newConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// newContext builds the binder context described by the configuration.
// The returned function flushes tracing and must be called once binding
// is done.
func (c *cmdConfig) newContext() (*binder.Context, func(), error) {
	table, err := c.loadTable()
	if err != nil {
		return nil, nil, err
	}
	opts := binder.Options{
		Unsafe:      viper.GetBool("unsafe"),
		Parallelism: viper.GetInt("parallelism"),
		Tracer:      c.tracer,
	}
	if usings := viper.GetStringSlice("usings"); len(usings) > 0 {
		opts.Usings = usings
	}
	done := func() {}
	if opts.Tracer == nil {
		t, flush, err := newTracer(viper.GetString("trace"), viper.GetString("trace-out"), os.Stderr)
		if err != nil {
			return nil, nil, err
		}
		opts.Tracer, done = t, flush
	}
	ctx, err := binder.NewContext(table, opts)
	if err != nil {
		done()
		return nil, nil, err
	}
	return ctx, done, nil
}

// loadTable returns the configured symbol table with the metadata files
// named by the "symbols" key loaded into it.
func (c *cmdConfig) loadTable() (*symbols.Table, error) {
	table := c.table
	if table == nil {
		table = symbols.NewCorLib()
	}
	for _, path := range viper.GetStringSlice("symbols") {
		if err := loadSymbols(table, path); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func loadSymbols(table *symbols.Table, path string) error {
	f, err := os.Open(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only file
	if err := symbols.LoadYAML(table, path, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
