package capsid_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/ports"
)

// echoExecutor fakes tool execution so facade tests never spawn processes.
type echoExecutor struct {
	exit int
}

func (e *echoExecutor) Execute(ctx context.Context, cmd domain.Command, out ports.Sink) int {
	out.Command(cmd)
	out.Write("ok\n")
	return e.exit
}

func echoStage() domain.Stage {
	return domain.Stage{
		Name:  "Echo",
		Fatal: true,
		Resolve: func(p *domain.Params) (domain.Command, error) {
			return domain.Command{Program: "echo", Args: []string{"hello"}}, nil
		},
	}
}

func newTestEngine(t *testing.T, exec ports.Executor) (*capsid.Engine, string) {
	t.Helper()
	base := t.TempDir()
	cfg := pipeline.DefaultConfig()
	cfg.BaseDir = base

	eng, err := capsid.New(
		capsid.WithConfig(cfg),
		capsid.WithStages(echoStage()),
		capsid.WithExecutor(exec),
	)
	require.NoError(t, err)
	return eng, base
}

func writeReads(t *testing.T, dir string) map[string]any {
	t.Helper()
	path := filepath.Join(dir, "reads_R1.fastq.gz")
	require.NoError(t, os.WriteFile(path, []byte("@r1\nACGT\n+\nIIII\n"), 0o644))
	return map[string]any{"short_r1": path}
}

func TestNew_Defaults(t *testing.T) {
	eng, err := capsid.New()
	require.NoError(t, err)

	require.NotNil(t, eng.Controller())
	require.NotNil(t, eng.Runner())
	assert.Equal(t, "fastqc", eng.Config().Tool("fastqc"))

	status, _ := eng.Controller().Status()
	assert.Equal(t, domain.StatusIdle, status)
}

func TestNew_ConfigFile(t *testing.T) {
	t.Run("Valid File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "capsid.yaml")
		cfg := "base_dir: " + dir + "\nannotation:\n  threads: 8\n"
		require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

		eng, err := capsid.New(capsid.WithConfigFile(path))
		require.NoError(t, err)
		assert.Equal(t, dir, eng.Config().BaseDir)
		assert.Equal(t, 8, eng.Config().Annotation.Threads)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := capsid.New(capsid.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})
}

func TestRunner_Run(t *testing.T) {
	eng, base := newTestEngine(t, &echoExecutor{})
	var buf bytes.Buffer

	runner := &capsid.Runner{Output: &buf}
	oc, err := runner.Run(context.Background(), eng, writeReads(t, base))
	require.NoError(t, err)
	assert.True(t, oc.Success)
	assert.NotEmpty(t, oc.ArtifactPath)

	out := buf.String()
	assert.Contains(t, out, "--- Echo ---")
	assert.Contains(t, out, "$ echo hello")
}

func TestRunner_RunFailure(t *testing.T) {
	eng, base := newTestEngine(t, &echoExecutor{exit: 1})
	var buf bytes.Buffer

	runner := &capsid.Runner{Output: &buf}
	oc, err := runner.Run(context.Background(), eng, writeReads(t, base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline failed (exit code 1)")
	assert.False(t, oc.Success)
}

func TestRunner_RequiresOutput(t *testing.T) {
	eng, base := newTestEngine(t, &echoExecutor{})

	runner := &capsid.Runner{}
	_, err := runner.Run(context.Background(), eng, writeReads(t, base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output writer must be set")
}

func TestRunner_UnknownAction(t *testing.T) {
	eng, _ := newTestEngine(t, &echoExecutor{})

	runner := &capsid.Runner{Output: &bytes.Buffer{}}
	_, err := runner.RunAction(context.Background(), eng, "defrag_disk")
	require.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestFacade_BackgroundRun(t *testing.T) {
	eng, base := newTestEngine(t, &echoExecutor{})
	ctrl := eng.Controller()

	id, err := ctrl.RequestRun(writeReads(t, base))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ctrl.Wait()

	status, message := ctrl.Status()
	assert.Equal(t, domain.StatusFinished, status)
	assert.Equal(t, "Completed successfully", message)

	resp := ctrl.Poll(0)
	assert.Contains(t, resp.Content, "--- Echo ---")
	assert.Equal(t, domain.StatusFinished, resp.Status)
}
