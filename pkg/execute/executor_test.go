package execute

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/logbuf"
	"github.com/aretw0/capsid/pkg/sink"
)

func requireUnixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a Unix shell")
	}
}

func newTestExecutor() *Executor {
	return New(
		WithFlushInterval(20*time.Millisecond),
		WithGracePeriod(time.Second),
	)
}

func shCmd(script string) domain.Command {
	return domain.Command{Program: "/bin/sh", Args: []string{"-c", script}}
}

func TestExecuteStreamsMergedOutput(t *testing.T) {
	requireUnixShell(t)

	buf := logbuf.New()
	code := newTestExecutor().Execute(context.Background(), shCmd("echo to-stdout; echo to-stderr 1>&2"), sink.New(buf))

	assert.Equal(t, 0, code)
	text, _ := buf.Snapshot()
	assert.Contains(t, text, "to-stdout\n")
	assert.Contains(t, text, "to-stderr\n")
}

func TestExecuteReportsExitCode(t *testing.T) {
	requireUnixShell(t)

	t.Run("Success", func(t *testing.T) {
		code := newTestExecutor().Execute(context.Background(), shCmd("true"), sink.New(logbuf.New()))
		assert.Equal(t, 0, code)
	})

	t.Run("Failure", func(t *testing.T) {
		code := newTestExecutor().Execute(context.Background(), shCmd("exit 3"), sink.New(logbuf.New()))
		assert.Equal(t, 3, code)
	})
}

func TestExecuteStartFailure(t *testing.T) {
	buf := logbuf.New()
	cmd := domain.Command{Program: "/nonexistent/capsid-no-such-tool"}

	code := newTestExecutor().Execute(context.Background(), cmd, sink.New(buf))

	assert.Equal(t, 127, code)
	text, _ := buf.Snapshot()
	assert.Contains(t, text, "Failed to start /nonexistent/capsid-no-such-tool")
}

func TestExecuteAbortBeforeSpawn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := logbuf.New()
	code := newTestExecutor().Execute(ctx, shCmd("echo should-not-run"), sink.New(buf))

	assert.Equal(t, domain.ExitAborted, code)
	text, _ := buf.Snapshot()
	assert.Contains(t, text, "❯ Pipeline execution aborted.\n")
	assert.NotContains(t, text, "$", "no command may be echoed when nothing spawns")
	assert.NotContains(t, text, "should-not-run")
}

func TestExecuteTerminateMidRun(t *testing.T) {
	requireUnixShell(t)

	buf := logbuf.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() {
		done <- newTestExecutor().Execute(ctx, shCmd("echo started; sleep 30"), sink.New(buf))
	}()

	require.Eventually(t, func() bool {
		text, _ := buf.Snapshot()
		return strings.Contains(text, "started\n")
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, domain.ExitAborted, code)
	case <-time.After(10 * time.Second):
		t.Fatal("executor did not return after cancellation")
	}
	assert.Less(t, time.Since(start), 5*time.Second, "termination must not wait out the sleep")

	text, _ := buf.Snapshot()
	assert.Contains(t, text, "❯ Terminated.\n")
}

func TestExecuteSilentProcessRemainsCancelable(t *testing.T) {
	requireUnixShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- newTestExecutor().Execute(ctx, shCmd("sleep 30"), sink.New(logbuf.New()))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, domain.ExitAborted, code)
	case <-time.After(10 * time.Second):
		t.Fatal("executor blocked on a silent process")
	}
}

func TestExecuteCarriageReturnProgress(t *testing.T) {
	requireUnixShell(t)

	buf := logbuf.New()
	code := newTestExecutor().Execute(context.Background(), shCmd(`printf 'one\rtwo\rdone\n'`), sink.New(buf))

	assert.Equal(t, 0, code)
	text, _ := buf.Snapshot()
	assert.Contains(t, text, "one\rtwo\rdone\n", "carriage-return redraws must reach the log verbatim")
}

func TestExecuteSplitMultibyteAcrossReads(t *testing.T) {
	requireUnixShell(t)

	buf := logbuf.New()
	// ✓ is E2 9C 93; the pause lands a flush between the partial writes.
	script := `printf '\342\234'; sleep 0.2; printf '\223\n'`
	code := newTestExecutor().Execute(context.Background(), shCmd(script), sink.New(buf))

	assert.Equal(t, 0, code)
	text, _ := buf.Snapshot()
	assert.Contains(t, text, "✓\n")
	assert.NotContains(t, text, "�")
}

func TestPrependPath(t *testing.T) {
	t.Run("Prepends Missing Dir", func(t *testing.T) {
		env := prependPath([]string{"HOME=/root", "PATH=/usr/bin:/bin"}, "/opt/capsid/bin")
		assert.Contains(t, env, "PATH=/opt/capsid/bin:/usr/bin:/bin")
	})

	t.Run("Keeps Existing Dir", func(t *testing.T) {
		env := prependPath([]string{"PATH=/opt/capsid/bin:/bin"}, "/opt/capsid/bin")
		assert.Equal(t, []string{"PATH=/opt/capsid/bin:/bin"}, env)
	})

	t.Run("Adds Entry When PATH Absent", func(t *testing.T) {
		env := prependPath([]string{"HOME=/root"}, "/opt/capsid/bin")
		assert.Contains(t, env, "PATH=/opt/capsid/bin")
	})
}

func TestShimCommandPassthrough(t *testing.T) {
	if needsArchShim() {
		t.Skip("host requires the arch shim")
	}
	cmd := domain.Command{Program: "unicycler", Args: []string{"-o", "out"}}
	prog, args := shimCommand(cmd)
	assert.Equal(t, "unicycler", prog)
	assert.Equal(t, []string{"-o", "out"}, args)
}
