package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unpatchedHMM = `def parse_hmm(hits):
    query = hits.query.name.decode()
    for hit in hits:
        name = hit.name.decode()
    return query, name
`

func TestApplyRepairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hmm.py")
	require.NoError(t, os.WriteFile(path, []byte(unpatchedHMM), 0o644))

	changed, err := applyRepairs(path, annotationRepairRules)
	require.NoError(t, err)
	assert.True(t, changed)

	patched, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(patched), `hits.query.name.decode() if hasattr(hits.query.name, "decode") else hits.query.name`)
	assert.Contains(t, string(patched), `hit.name.decode() if hasattr(hit.name, "decode") else hit.name`)

	// A second pass must find nothing left to do.
	changed, err = applyRepairs(path, annotationRepairRules)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyRepairsCompatible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hmm.py")
	require.NoError(t, os.WriteFile(path, []byte("query = hits.query.name\n"), 0o644))

	changed, err := applyRepairs(path, annotationRepairRules)
	require.NoError(t, err)
	assert.False(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "query = hits.query.name\n", string(content))
}

func TestRunRepairEnvironment(t *testing.T) {
	t.Run("Patches Then Reports Compatible", func(t *testing.T) {
		scripts := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(scripts, "hmm.py"), []byte(unpatchedHMM), 0o644))

		cfg := DefaultConfig()
		cfg.Annotation.ScriptDir = scripts
		r := New(WithConfig(cfg), WithExecutor(&fakeExecutor{}))

		buf, out := captureSink()
		oc := r.RunAction(context.Background(), ActionRepairEnvironment, out)
		require.True(t, oc.Success)

		log, _ := buf.Snapshot()
		assert.Contains(t, log, "Auto-patching Pharokka script:")

		buf2, out2 := captureSink()
		oc = r.RunAction(context.Background(), ActionRepairEnvironment, out2)
		require.True(t, oc.Success)

		log2, _ := buf2.Snapshot()
		assert.Contains(t, log2, "Pharokka script already patched or compatible.")
	})

	t.Run("Script Missing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Annotation.ScriptDir = t.TempDir()
		r := New(WithConfig(cfg), WithExecutor(&fakeExecutor{}))

		buf, out := captureSink()
		oc := r.RunAction(context.Background(), ActionRepairEnvironment, out)

		assert.False(t, oc.Success)
		log, _ := buf.Snapshot()
		assert.Contains(t, log, "Could not find Pharokka hmm.py")
	})
}
