// Package execute implements the streaming process executor: one external
// command at a time, stdout and stderr merged, output decoded incrementally
// and flushed to the sink with bounded latency, cooperative cancellation
// backed by two-phase process-group termination.
package execute

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/ports"
)

const (
	// DefaultFlushInterval bounds how long decoded output may sit in the
	// pending buffer before it reaches the log. It also bounds how long the
	// pump goes without checking for cancellation when a process is silent.
	DefaultFlushInterval = 200 * time.Millisecond

	// DefaultGracePeriod is how long a terminated process group gets
	// between SIGTERM and SIGKILL.
	DefaultGracePeriod = 5 * time.Second

	// readChunkSize is the read granularity. Small enough to surface
	// carriage-return progress redraws promptly, large enough to keep
	// syscall overhead negligible.
	readChunkSize = 4096
)

// Executor runs external commands for the pipeline. It implements
// ports.Executor and never returns an error across that boundary: failures
// are written to the sink and folded into the exit code.
type Executor struct {
	logger        *slog.Logger
	flushInterval time.Duration
	grace         time.Duration
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets the operational logger. Run output goes to the sink, not
// here; this logger carries process lifecycle events for operators.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithFlushInterval overrides the output flush latency bound.
func WithFlushInterval(d time.Duration) Option {
	return func(e *Executor) {
		e.flushInterval = d
	}
}

// WithGracePeriod overrides the SIGTERM-to-SIGKILL window.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Executor) {
		e.grace = d
	}
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		flushInterval: DefaultFlushInterval,
		grace:         DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute spawns the command and pumps its merged output into the sink
// until the process exits or ctx is canceled.
//
// Cancellation reports domain.ExitAborted. A command that cannot start
// reports 127. Everything else reports the real process exit code.
func (e *Executor) Execute(ctx context.Context, command domain.Command, out ports.Sink) int {
	if ctx.Err() != nil {
		out.Step("Pipeline execution aborted.")
		return domain.ExitAborted
	}

	prog, args := shimCommand(command)
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Dir = command.Dir
	cmd.Env = buildEnv(command)
	configureProcAttr(cmd)
	configureCancel(cmd, e.grace)

	out.Command(command)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		out.Error("Failed to open output pipe: " + err.Error())
		return 127
	}
	cmd.Stderr = cmd.Stdout // merge stderr into the stdout pipe

	if err := cmd.Start(); err != nil {
		out.Error("Failed to start " + command.Program + ": " + err.Error())
		return 127
	}
	e.logger.Debug("process started", "program", command.Program, "pid", cmd.Process.Pid)

	chunks := make(chan []byte, 8)
	readErr := make(chan error, 1)
	go func() {
		defer close(chunks)
		buf := make([]byte, readChunkSize)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	aborted := e.pump(ctx, chunks, out)

	if aborted {
		// Stop forwarding output but keep the reader draining until the
		// killed process group releases the pipe.
		go func() {
			for range chunks {
			}
		}()
		_ = cmd.Wait()
		out.Step("Terminated.")
		e.logger.Info("process terminated", "program", command.Program)
		return domain.ExitAborted
	}

	select {
	case err := <-readErr:
		out.Error("Error reading output: " + err.Error())
	default:
	}

	waitErr := cmd.Wait()
	if waitErr == nil {
		return 0
	}
	if code, ok := exitStatus(waitErr); ok {
		e.logger.Debug("process exited", "program", command.Program, "code", code)
		return code
	}
	out.Error("Error waiting for process: " + waitErr.Error())
	return 127
}

// pump moves decoded output into the sink until the stream ends or the
// context is canceled. The stop flag is consulted before waiting for more
// output and again after every flush, so cancellation latency is bounded by
// the flush interval even when the process is silent.
func (e *Executor) pump(ctx context.Context, chunks <-chan []byte, out ports.Sink) (aborted bool) {
	var (
		dec     streamDecoder
		pending strings.Builder
	)
	flush := func() {
		if pending.Len() > 0 {
			out.Write(pending.String())
			pending.Reset()
		}
	}
	defer func() {
		if !aborted {
			pending.WriteString(dec.Flush())
			flush()
		}
	}()

	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return true
		}
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return false
			}
			piece := dec.Decode(chunk)
			pending.WriteString(piece)
			if strings.ContainsAny(piece, "\n\r") {
				flush()
				if ctx.Err() != nil {
					return true
				}
			}
		case <-ticker.C:
			flush()
			if ctx.Err() != nil {
				return true
			}
		case <-ctx.Done():
			return true
		}
	}
}
