package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsRegistry(t *testing.T) {
	assert.Equal(t, []string{ActionInstallDatabases, ActionRepairEnvironment}, Actions())
	assert.True(t, KnownAction(ActionInstallDatabases))
	assert.False(t, KnownAction("reticulate_splines"))
}

func TestRunActionUnknown(t *testing.T) {
	fake := &fakeExecutor{}
	buf, out := captureSink()

	oc := newTestRunner(t, t.TempDir(), fake).RunAction(context.Background(), "reticulate_splines", out)

	assert.False(t, oc.Success)
	assert.Empty(t, fake.calls)

	log, _ := buf.Snapshot()
	assert.Contains(t, log, "Unknown action: reticulate_splines")
}

// stubInstaller drops an executable with the given name into dir.
func stubInstaller(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

func TestInstallDatabases(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("installer stubs rely on unix exec semantics")
	}

	t.Run("No Installer Available", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		fake := &fakeExecutor{}
		buf, out := captureSink()

		oc := newTestRunner(t, t.TempDir(), fake).RunAction(context.Background(), ActionInstallDatabases, out)

		assert.False(t, oc.Success)
		assert.Empty(t, fake.calls, "nothing to execute when no installer resolves")

		log, _ := buf.Snapshot()
		assert.Contains(t, log, "All Pharokka database installation commands failed.")
	})

	t.Run("Fallback To Legacy Installer", func(t *testing.T) {
		bin := t.TempDir()
		stubInstaller(t, bin, "pharokka_database.py")
		t.Setenv("PATH", bin)

		fake := &fakeExecutor{}
		buf, out := captureSink()

		oc := newTestRunner(t, t.TempDir(), fake).RunAction(context.Background(), ActionInstallDatabases, out)

		require.True(t, oc.Success)
		assert.Equal(t, []string{"pharokka_database.py"}, fake.programs())

		log, _ := buf.Snapshot()
		assert.Contains(t, log, "Pharokka databases installed successfully!")
	})

	t.Run("First Installer Fails", func(t *testing.T) {
		bin := t.TempDir()
		stubInstaller(t, bin, "install_databases.py")
		stubInstaller(t, bin, "pharokka_database.py")
		t.Setenv("PATH", bin)

		fake := &fakeExecutor{exits: map[string]int{"install_databases.py": 3}}
		buf, out := captureSink()

		oc := newTestRunner(t, t.TempDir(), fake).RunAction(context.Background(), ActionInstallDatabases, out)

		require.True(t, oc.Success)
		assert.Equal(t, []string{"install_databases.py", "pharokka_database.py"}, fake.programs())

		log, _ := buf.Snapshot()
		assert.Contains(t, log, "Command install_databases.py failed (exit code 3). Trying next...")
	})
}
