// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// scriptExt is the extension of script files found by "dir/..." patterns.
const scriptExt = ".csx"

// expandArgs expands arguments, resolving patterns ending with "/..." to all
// script files found recursively under the given directory, then drops
// paths matching any of excludes. Non-pattern arguments pass through
// unchanged.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findScripts(dir)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
		} else {
			out = append(out, arg)
		}
	}
	return filterExcludes(out, excludes), nil
}

func findScripts(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == scriptExt {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes removes the paths matching any of the glob patterns.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, excludes) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether path, its base name, or any of its directory
// components matches one of the patterns.
func matchesAny(path string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		for _, c := range splitPath(path) {
			if ok, _ := filepath.Match(pat, c); ok {
				return true
			}
		}
	}
	return false
}

// splitPath returns the components of path, last first.
func splitPath(path string) []string {
	var out []string
	for path != "" && path != "." && path != string(filepath.Separator) {
		dir, file := filepath.Split(path)
		if file != "" {
			out = append(out, file)
		}
		path = strings.TrimSuffix(dir, string(filepath.Separator))
	}
	return out
}
