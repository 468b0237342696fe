package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_ExecShow(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "liveparams.yaml")
	doc := filepath.Join(dir, "design.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: error\nmetrics: false\n"), 0644))
	require.NoError(t, os.WriteFile(doc, []byte("documents:\n  - name: Plate v2\n    parameters: []\n"), 0644))
	common := []string{"--config", cfg, "--document", doc}

	out := run(t, append([]string{"exec"}, append(common,
		`{"action":"create_param","name":"Width","unit":"mm","expression":"20","comment":"outer"}`)...)...)
	assert.Contains(t, out, "✓ Created 'Width'")
	assert.Contains(t, out, "| Width | 20 | 20 | mm | outer |")

	out = run(t, append([]string{"show"}, common...)...)
	assert.Contains(t, out, "● idle SelectCommand")
	assert.Contains(t, out, "## Plate\n")
	assert.Contains(t, out, "| Width |")

	saved, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "name: Width")

	out = run(t, append([]string{"exec", "--json"}, append(common, `{"action":"delete_param","name":"Depth"}`)...)...)
	assert.Contains(t, out, `"message": "Parameter not found"`)
	assert.Contains(t, out, `"type": "error"`)
}

func TestCLI_Version(t *testing.T) {
	out := run(t, "version")
	assert.Contains(t, out, "liveparams version ")
}
