// Copyright © 2018 The ELPS authors

package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
)

func runReplWithString(t *testing.T, input string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	go func() {
		RunRepl("> ", WithStdin(inR), WithStderr(outW), WithColor(diagnostic.ColorNever))
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup

	return output.String()
}

func TestHistoryFileMode(t *testing.T) {
	for name, existing := range map[string]*string{
		"new":      nil,
		"existing": func() *string { s := "n * 2;\n"; return &s }(),
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".sharpbind_history")
			if existing != nil {
				require.NoError(t, os.WriteFile(path, []byte(*existing), 0o644))
			}
			ensureHistoryFilePermissions(path)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
			if existing != nil {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, *existing, string(data), "history is kept")
			}
		})
	}
	ensureHistoryFilePermissions("") // no history file configured
}

func TestRunRepl(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Constant",
			input:    "1 + 1\n",
			expected: "1 + 1 : int = 2\n",
		},
		{
			name:     "Error",
			input:    "fnord\n",
			expected: string(diagnostic.NameNotFound),
		},
		{
			name:     "Locals",
			input:    "int x = 3;\nx * 2\n:locals\n",
			expected: "int x\n",
		},
		{
			name:     "Continuation",
			input:    "\"abc\".Substring(\n1)\n",
			expected: `"abc".Substring(1) : string`,
		},
		{
			name:     "Type",
			input:    ":type 1L\n",
			expected: "long\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := runReplWithString(t, tc.input)
			require.Contains(t, got, tc.expected)
		})
	}
}

func newSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx, err := binder.NewContext(symbols.NewCorLib(), binder.Options{})
	require.NoError(t, err)
	s := NewSession(ctx, &out)
	s.renderer.Color = diagnostic.ColorNever
	return s, &out
}

func TestSessionSubmissions(t *testing.T) {
	s, out := newSession(t)
	assert.True(t, s.Eval("var n = 20;"))
	assert.Contains(t, out.String(), "n : int")
	out.Reset()

	// A later submission sees n and may redeclare it.
	assert.True(t, s.Eval("n + 1"))
	assert.Contains(t, out.String(), "n + 1 : int")
	out.Reset()
	assert.True(t, s.Eval(`var n = "s";`))
	assert.NotContains(t, out.String(), "error")
	assert.Contains(t, out.String(), "n : string")
	out.Reset()

	// A submission with errors declares nothing.
	assert.True(t, s.Eval("int m = fnord;"))
	assert.Contains(t, out.String(), "fnord")
	assert.Len(t, s.locals, 2)

	assert.False(t, s.Eval(":quit"))
}

func TestSessionUsing(t *testing.T) {
	s, out := newSession(t)
	s.Eval(":type default(IEnumerator)")
	assert.Contains(t, out.String(), "IEnumerator")
	assert.Contains(t, out.String(), "error")
	out.Reset()

	s.Eval(":using System.Collections")
	out.Reset()
	s.Eval(":type default(IEnumerator)")
	assert.Equal(t, "IEnumerator\n", out.String())
}

func TestBalanced(t *testing.T) {
	assert.True(t, balanced("f(1)"))
	assert.False(t, balanced("f(1"))
	assert.True(t, balanced(`f(")")`))
	assert.False(t, balanced("{ int x = 1;"))
}
