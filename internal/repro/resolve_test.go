package repro

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/restage/internal/scm"
)

func TestRun_PipelineMode(t *testing.T) {
	// Two pipelines: a <- b, and x alone. The target names a non-terminal
	// stage; its pipeline is reproduced from the terminal stage b.
	ws := newFakeWorkspace(t.TempDir(), [][2]string{{"b", "a"}}, "x")
	markAllChanged(ws)

	result, err := Run(context.Background(), ws, scm.NoopHook{}, Options{Target: "a", Pipeline: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ws.visited(), "only the target's pipeline runs")
	assert.Equal(t, []string{"a", "b"}, relpaths(result))
}

func TestRun_PipelineModeMultipleTerminals(t *testing.T) {
	// One pipeline with two terminal stages b and c sharing dependency a.
	ws := newFakeWorkspace(t.TempDir(), [][2]string{{"b", "a"}, {"c", "a"}})
	ws.changed["a"] = true

	result, err := Run(context.Background(), ws, scm.NoopHook{}, Options{Target: "a", Pipeline: true})

	require.NoError(t, err)
	// Each terminal is its own starting point; a is evaluated in both
	// traversals but reproduces only once.
	assert.Equal(t, []string{"a", "b", "a", "c"}, ws.visited())
	assert.Equal(t, []string{"a"}, relpaths(result))
}

func TestRun_AllPipelines(t *testing.T) {
	ws := newFakeWorkspace(t.TempDir(), [][2]string{{"b", "a"}}, "x")
	markAllChanged(ws)

	result, err := Run(context.Background(), ws, scm.NoopHook{}, Options{AllPipelines: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "x"}, ws.visited(), "every pipeline's terminal stage is scheduled")
	assert.ElementsMatch(t, []string{"a", "b", "x"}, relpaths(result))
}

func TestRun_RecursiveDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "data"), 0o755))

	ws := newFakeWorkspace(root, [][2]string{
		{"data/clean.hcl", "data/fetch.hcl"},
		{"train.hcl", "data/clean.hcl"},
	})
	ws.changed["data/clean.hcl"] = true

	result, err := Run(context.Background(), ws, scm.NoopHook{}, Options{Target: "data", Recursive: true})

	require.NoError(t, err)
	// Both stages under data/ are independent starting points in postorder;
	// train.hcl is outside the directory and never scheduled.
	assert.Equal(t, []string{"data/fetch.hcl", "data/fetch.hcl", "data/clean.hcl"}, ws.visited())
	assert.Equal(t, []string{"data/clean.hcl"}, relpaths(result))
}

func TestRun_RecursiveWithFileTargetFallsThrough(t *testing.T) {
	// Recursive with a non-directory target behaves like a plain target.
	ws := newFakeWorkspace(t.TempDir(), chainEdges)
	markAllChanged(ws)

	_, err := Run(context.Background(), ws, scm.NoopHook{}, Options{Target: "c", Recursive: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ws.visited())
}
