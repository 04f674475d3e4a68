package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStage builds a stage in its own temp directory whose command copies
// input.txt to output.txt.
func newStage(t *testing.T) (*Stage, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "input.txt"), "v1")

	st := &Stage{
		Path:    filepath.Join(dir, "copy.hcl"),
		Relpath: "copy.hcl",
		Name:    "copy",
		Cmd:     "cp input.txt output.txt",
		Deps:    []string{"input.txt"},
		Outs:    []string{"output.txt"},
	}
	return st, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReproduce_RunsWhenNoChecksumsRecorded(t *testing.T) {
	st, dir := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.FileExists(t, filepath.Join(dir, "output.txt"))
	assert.Len(t, updated.Checksums, 3, "both files plus the command digest")
	assert.Equal(t, updated.Checksums["input.txt"], updated.Checksums["output.txt"])
}

func TestReproduce_ChangedCommandIsStale(t *testing.T) {
	st, _ := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)

	updated.Cmd = "cat input.txt > output.txt"
	again, err := updated.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)
	assert.NotNil(t, again, "editing the command must trigger reproduction")
}

func TestReproduce_SkipsWhenUpToDate(t *testing.T) {
	st, dir := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)
	require.NotNil(t, updated)

	again, err := updated.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)
	assert.Nil(t, again, "unchanged stage should be skipped")

	// A modified input makes the stage stale again.
	writeFile(t, filepath.Join(dir, "input.txt"), "v2")
	third, err := updated.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.NotEqual(t, updated.Checksums["input.txt"], third.Checksums["input.txt"])
}

func TestReproduce_MissingOutputIsStale(t *testing.T) {
	st, dir := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "output.txt")))

	again, err := updated.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)
	assert.NotNil(t, again, "a deleted output must trigger reproduction")
	assert.FileExists(t, filepath.Join(dir, "output.txt"))
}

func TestReproduce_ForceIgnoresChecksums(t *testing.T) {
	st, _ := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.NoError(t, err)

	forced, err := updated.Reproduce(context.Background(), ReproduceOptions{Force: true})
	require.NoError(t, err)
	assert.NotNil(t, forced, "force runs even an up-to-date stage")
}

func TestReproduce_DryDoesNotRunCommand(t *testing.T) {
	st, dir := newStage(t)

	updated, err := st.Reproduce(context.Background(), ReproduceOptions{Dry: true})

	require.NoError(t, err)
	assert.NotNil(t, updated, "a stale stage is still reported under dry")
	assert.NoFileExists(t, filepath.Join(dir, "output.txt"))
	assert.Empty(t, updated.Checksums)
}

func TestReproduce_Interactive(t *testing.T) {
	t.Run("decline aborts", func(t *testing.T) {
		st, dir := newStage(t)

		var prompt string
		decline := func(p string) bool {
			prompt = p
			return false
		}

		updated, err := st.Reproduce(context.Background(), ReproduceOptions{Interactive: true, Confirm: decline})

		require.ErrorIs(t, err, ErrAborted)
		assert.Nil(t, updated)
		assert.Contains(t, prompt, "copy.hcl")
		assert.NoFileExists(t, filepath.Join(dir, "output.txt"))
	})

	t.Run("accept proceeds", func(t *testing.T) {
		st, dir := newStage(t)

		accept := func(string) bool { return true }
		updated, err := st.Reproduce(context.Background(), ReproduceOptions{Interactive: true, Confirm: accept})

		require.NoError(t, err)
		assert.NotNil(t, updated)
		assert.FileExists(t, filepath.Join(dir, "output.txt"))
	})

	t.Run("missing prompt is an error", func(t *testing.T) {
		st, _ := newStage(t)

		_, err := st.Reproduce(context.Background(), ReproduceOptions{Interactive: true})
		require.Error(t, err)
	})
}

func TestReproduce_CommandFailure(t *testing.T) {
	st, _ := newStage(t)
	st.Cmd = "exit 3"

	_, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit 3")
}

func TestReproduce_UndeclaredOutputIsAnError(t *testing.T) {
	st, _ := newStage(t)
	st.Cmd = "true"

	_, err := st.Reproduce(context.Background(), ReproduceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not produced")
}

func TestFileMD5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, "hello")

	sum, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = FileMD5(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}
