// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryYAML = `
assembly: inventory
usings: [System]
types:
  - name: Inventory.Item
    members:
      - "string Name { get; }"
      - "int Count { get; }"
globals:
  - "int capacity"
`

func TestRunSymbols(t *testing.T) {
	path := writeScript(t, t.TempDir(), "inventory.yaml", inventoryYAML)
	viper.Set("symbols", []string{path})
	t.Cleanup(func() { viper.Set("symbols", nil) })

	var out bytes.Buffer
	require.NoError(t, runSymbols(newConfig(nil), &out, nil))
	assert.Contains(t, out.String(), "Inventory")
	assert.Contains(t, out.String(), "capacity")

	out.Reset()
	require.NoError(t, runSymbols(newConfig(nil), &out, []string{"Inventory"}))
	assert.Contains(t, out.String(), "namespace Inventory")
	assert.Contains(t, out.String(), "Item")

	out.Reset()
	require.NoError(t, runSymbols(newConfig(nil), &out, []string{"Inventory.Item"}))
	assert.Contains(t, out.String(), "Name")
	assert.Contains(t, out.String(), "Count")
}

func TestRunSymbols_GenericType(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSymbols(newConfig(nil), &out, []string{"System.Collections.Generic.List"}))
	assert.Contains(t, out.String(), "List<T>")
}

func TestRunSymbols_Unknown(t *testing.T) {
	var out bytes.Buffer
	err := runSymbols(newConfig(nil), &out, []string{"Fnord"})
	assert.ErrorContains(t, err, `no namespace or type named "Fnord"`)
}
