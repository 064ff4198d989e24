// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/lint"
	"github.com/luthersystems/sharpbind/symbols"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestLintCommand_DefaultFlags(t *testing.T) {
	cmd := LintCommand()
	assert.Equal(t, "lint [flags] [files...]", cmd.Use)
	for _, name := range []string{"json", "checks", "list", "exclude"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintCommand_WithTable(t *testing.T) {
	table := symbols.NewCorLib()
	var cfg cmdConfig
	WithTable(table)(&cfg)
	assert.Same(t, table, cfg.table)
}

func TestSelectAnalyzers(t *testing.T) {
	all, err := selectAnalyzers("")
	require.NoError(t, err)
	assert.Len(t, all, len(lint.DefaultAnalyzers()))

	some, err := selectAnalyzers("identity-select, constant-condition")
	require.NoError(t, err)
	var names []string
	for _, a := range some {
		names = append(names, a.Name)
	}
	want := []string{"identity-select", "constant-condition"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("selected analyzers (-want +got):\n%s", diff)
	}

	_, err = selectAnalyzers("fnord")
	assert.ErrorContains(t, err, "unknown check: fnord")
}

func TestRunLint(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "cond.csx", "var a = true ? 1 : 2;\nvar b = false ? 1 : 2; // nolint\n")

	var out, errw bytes.Buffer
	n, err := runLint(newConfig(nil), &out, &errw, []string{path}, lintFlags{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, out.String())
	assert.Contains(t, errw.String(), "condition is always true")
	assert.Contains(t, errw.String(), "nolint:constant-condition")
}

func TestRunLint_JSON(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ok.csx", "var a = 1 + 2;\n")
	writeScript(t, dir, "bad.csx", "var a = fnord;\n")

	var out, errw bytes.Buffer
	n, err := runLint(newConfig(nil), &out, &errw, []string{dir + "/..."}, lintFlags{json: true})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal(out.Bytes(), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, lint.BindAnalyzer, diags[0].Analyzer)
	assert.True(t, strings.HasSuffix(diags[0].Pos.File, "bad.csx"))
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
}

func TestRunLint_Exclude(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "generated"), 0o755))
	writeScript(t, dir, filepath.Join("generated", "bad.csx"), "var a = fnord;\n")

	var out, errw bytes.Buffer
	n, err := runLint(newConfig(nil), &out, &errw, []string{dir + "/..."}, lintFlags{excludes: []string{"generated"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunLint_UnreadableFile(t *testing.T) {
	var out, errw bytes.Buffer
	_, err := runLint(newConfig(nil), &out, &errw, []string{filepath.Join(t.TempDir(), "missing.csx")}, lintFlags{})
	assert.Error(t, err)
}
