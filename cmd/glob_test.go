// Copyright © 2024 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/main.csx",
		"src/prelude.csx",
		"lib/utils.csx",
	}
	result := filterExcludes(paths, []string{"prelude.csx"})
	assert.Equal(t, []string{"src/main.csx", "lib/utils.csx"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/main.csx",
		"build/output.csx",
		"build/sub/deep.csx",
		"lib/utils.csx",
	}
	result := filterExcludes(paths, []string{"build"})
	assert.Equal(t, []string{"src/main.csx", "lib/utils.csx"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/main.csx",
		"src/generated_foo.csx",
		"src/generated_bar.csx",
		"lib/utils.csx",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/main.csx", "lib/utils.csx"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/main.csx",
		"build/output.csx",
		"src/prelude.csx",
		"lib/utils.csx",
	}
	result := filterExcludes(paths, []string{"build", "prelude.csx"})
	assert.Equal(t, []string{"src/main.csx", "lib/utils.csx"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/main.csx",
		"lib/utils.csx",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/main.csx", "lib/utils.csx"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/main.csx"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/main.csx"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/main.csx", []string{"src/*.csx"}))
	assert.False(t, matchesAny("lib/main.csx", []string{"src/*.csx"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/prelude.csx", []string{"prelude.csx"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/build/output.csx", []string{"build"}))
	assert.False(t, matchesAny("project/src/output.csx", []string{"build"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/c.csx")
	assert.Contains(t, components, "c.csx")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csx", "sub/b.csx", "sub/notes.txt", "gen/c.csx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("1;"), 0o600))
	}
	got, err := expandArgs([]string{dir + "/...", "other.csx"}, []string{"gen"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.csx"),
		filepath.Join(dir, "sub", "b.csx"),
		"other.csx",
	}, got)
}
