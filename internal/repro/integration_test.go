package repro_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/restage/internal/repo"
	"github.com/vk/restage/internal/repro"
	"github.com/vk/restage/internal/scm"
)

// TestRun_EndToEnd drives the scheduler over a real repository on disk:
// stage files are parsed, commands actually run, and checksums are written
// back into the stage files.
func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	write("fetch.hcl", `
stage "fetch" {
  cmd  = "printf 'a\\nb\\n' > data.csv"
  outs = ["data.csv"]
}
`)
	write("count.hcl", `
stage "count" {
  cmd  = "wc -l < data.csv | tr -d ' ' > count.txt"
  deps = ["data.csv"]
  outs = ["count.txt"]
}
`)

	ctx := context.Background()
	ws, err := repo.Open(ctx, root)
	require.NoError(t, err)

	result, err := repro.Run(ctx, ws, scm.NoopHook{}, repro.Options{Target: "count.hcl"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "fetch.hcl", result[0].Relpath)
	assert.Equal(t, "count.hcl", result[1].Relpath)

	data, err := os.ReadFile(filepath.Join(root, "count.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(data))

	// Checksums were dumped, so a second run is a no-op.
	result, err = repro.Run(ctx, ws, scm.NoopHook{}, repro.Options{Target: "count.hcl"})
	require.NoError(t, err)
	assert.Empty(t, result)

	// Redefining fetch drops its recorded checksums, so it reproduces with
	// new data and the change ripples into count.
	write("fetch.hcl", `
stage "fetch" {
  cmd  = "printf 'a\\nb\\nc\\n' > data.csv"
  outs = ["data.csv"]
}
`)
	result, err = repro.Run(ctx, ws, scm.NoopHook{}, repro.Options{Target: "count.hcl"})
	require.NoError(t, err)
	require.Len(t, result, 2)

	data, err = os.ReadFile(filepath.Join(root, "count.txt"))
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(data))
}
