// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindCommand_Flags(t *testing.T) {
	cmd := BindCommand()
	for _, name := range []string{"expr", "tree", "json"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestRunBind_Exprs(t *testing.T) {
	var out, errw bytes.Buffer
	ok, err := runBind(newConfig(nil), &out, &errw, nil, bindFlags{
		exprs: []string{"1 + 2", `"abc".Length`},
		json:  true,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, errw.String())

	var report bindReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	var types []string
	for _, e := range report.Exprs {
		types = append(types, e.Type)
	}
	if diff := cmp.Diff([]string{"int", "int"}, types); diff != "" {
		t.Errorf("expression types (-want +got):\n%s", diff)
	}
	assert.Equal(t, "3", report.Exprs[0].Constant)
	assert.Empty(t, report.Diagnostics)
}

func TestRunBind_Script(t *testing.T) {
	path := writeScript(t, t.TempDir(), "s.csx", "const int limit = 10;\nlimit + fnord;\n")

	var out, errw bytes.Buffer
	ok, err := runBind(newConfig(nil), &out, &errw, []string{path}, bindFlags{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "int limit\n")
	assert.Contains(t, errw.String(), "fnord")
	assert.Contains(t, errw.String(), "SB0103")
}

func TestRunBind_SyntaxError(t *testing.T) {
	var out, errw bytes.Buffer
	_, err := runBind(newConfig(nil), &out, &errw, nil, bindFlags{exprs: []string{"1 +"}})
	assert.Error(t, err)
}
