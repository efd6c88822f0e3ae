package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/execute"
	"github.com/aretw0/capsid/pkg/observability"
	"github.com/aretw0/capsid/pkg/ports"
)

// Outcome summarizes how a run or maintenance action ended.
type Outcome struct {
	// Success is true when every fatal step completed. Warnings from
	// non-fatal stages do not clear it.
	Success bool

	// Aborted is true when the work stopped on a termination request.
	// Takes precedence over Success.
	Aborted bool

	// Warnings is true when at least one non-fatal stage failed.
	Warnings bool

	// LastExit is the exit code of the last command attempted,
	// domain.ExitAborted when the work was cut short.
	LastExit int

	// ArtifactPath points at the packaged results archive. Set only when a
	// run completed and packaging succeeded.
	ArtifactPath string
}

// Status maps the outcome to its terminal status and standard message.
// Abort takes precedence over failure, failure over warnings.
func (oc Outcome) Status() (domain.RunStatus, string) {
	switch {
	case oc.Aborted:
		return domain.StatusAborted, "Terminated by user"
	case !oc.Success:
		return domain.StatusError, "Failed"
	case oc.Warnings:
		return domain.StatusFinished, "Completed with warnings"
	default:
		return domain.StatusFinished, "Completed successfully"
	}
}

// Runner sequences the stage table over the process executor, enforcing the
// per-stage fatality policy and packaging the results of a completed run.
type Runner struct {
	cfg     Config
	stages  []domain.Stage
	exec    ports.Executor
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfig sets the pipeline configuration. Apply before relying on the
// default stage table, which is built from the active config.
func WithConfig(cfg Config) Option {
	return func(r *Runner) { r.cfg = cfg }
}

// WithStages replaces the default stage table.
func WithStages(stages ...domain.Stage) Option {
	return func(r *Runner) { r.stages = stages }
}

// WithExecutor sets the process executor used for every stage command.
func WithExecutor(exec ports.Executor) Option {
	return func(r *Runner) { r.exec = exec }
}

// WithLogger sets the operational logger. This is the service operator's
// view; run progress for hosts goes through the sink instead.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics enables stage duration instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New builds a Runner with the default config, stage table and executor.
func New(opts ...Option) *Runner {
	r := &Runner{
		cfg:    DefaultConfig(),
		exec:   execute.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.stages == nil {
		r.stages = DefaultStages(r.cfg)
	}
	return r
}

// Stages returns the stage table. Callers must not mutate it.
func (r *Runner) Stages() []domain.Stage { return r.stages }

// Config returns the active configuration.
func (r *Runner) Config() Config { return r.cfg }

// Run executes the full pipeline for a raw parameter payload, writing all
// progress to out. It never returns an error across this boundary: every
// failure mode is logged and folded into the Outcome.
func (r *Runner) Run(ctx context.Context, raw map[string]any, out ports.Sink) Outcome {
	p, err := DecodeParams(raw)
	if err != nil {
		out.Error(fmt.Sprintf("Invalid parameters: %v", err))
		return Outcome{}
	}

	if err := r.prepare(p); err != nil {
		out.Error(err.Error())
		return Outcome{}
	}
	r.logger.Info("run starting", "project", p.OutputName, "output_dir", p.OutDir)

	out.Step("Project name: " + p.OutputName)
	out.Step("Output directory: " + p.OutDir)

	out.Stage("Input Validation")
	if !r.validate(p, out) {
		return Outcome{}
	}

	oc := r.runStages(ctx, p, out)
	if oc.Aborted || !oc.Success {
		return oc
	}

	out.Stage("Finalizing Output")
	artifact := filepath.Join(r.baseDir(), p.OutputName+"_results.zip")
	count, err := Package(p.OutDir, artifact)
	if err != nil {
		// Packaging is part of the run contract: losing the artifact turns
		// an otherwise clean run into a failure.
		out.Error(fmt.Sprintf("Error during zipping: %v", err))
		oc.Success = false
		return oc
	}
	if count > 0 {
		out.Step(fmt.Sprintf("Packaged %d results into %s", count, filepath.Base(artifact)))
	} else {
		out.Warning("No result files found to package.")
	}
	out.Step("Final results zipped at: " + artifact)
	oc.ArtifactPath = artifact

	if oc.Warnings {
		out.Warning("Pipeline completed with warnings (some stages failed).")
	} else {
		out.Success("Pipeline completed successfully!")
	}
	return oc
}

// baseDir resolves where output directories and artifacts are created.
func (r *Runner) baseDir() string {
	if r.cfg.BaseDir != "" {
		return r.cfg.BaseDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// prepare resolves and creates the run's output directory.
func (r *Runner) prepare(p *domain.Params) error {
	p.OutDir = filepath.Join(r.baseDir(), p.OutputName)
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// validate checks the read inputs exist and records their absolute paths on
// the params. Each failure writes exactly one error entry, so hosts can
// tell a validation failure from a stage failure by counting.
func (r *Runner) validate(p *domain.Params, out ports.Sink) bool {
	out.Info("R1: " + p.ShortR1)
	if p.ShortR2 != "" {
		out.Info("R2: " + p.ShortR2)
	}

	if p.ShortR1 == "" {
		out.Error("R1 input is required. Please provide a path to the first fastq file.")
		return false
	}
	r1, err := absExisting(p.ShortR1)
	if err != nil {
		out.Error("R1 file not found at: " + p.ShortR1)
		return false
	}
	p.R1 = r1

	if p.ShortR2 != "" {
		r2, err := absExisting(p.ShortR2)
		if err != nil {
			out.Error("R2 file not found at: " + p.ShortR2)
			return false
		}
		p.R2 = r2
	}
	return true
}

// absExisting resolves path to absolute form and confirms it exists.
func absExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// runStages walks the stage table in order. The stop request is checked
// between stages here and again inside the executor, so a termination lands
// within one read or flush interval no matter where the run is.
func (r *Runner) runStages(ctx context.Context, p *domain.Params, out ports.Sink) Outcome {
	oc := Outcome{Success: true}

	for _, st := range r.stages {
		if ctx.Err() != nil {
			// Stop observed between stages: record the abort without
			// spawning anything further.
			out.Step("Pipeline execution aborted.")
			oc.Success = false
			oc.Aborted = true
			oc.LastExit = domain.ExitAborted
			return oc
		}
		if st.Applies != nil && !st.Applies(p) {
			r.logger.Debug("stage skipped", "stage", st.Name)
			continue
		}

		out.Stage(st.Name)
		cmd, err := st.Resolve(p)
		if err != nil {
			if st.Fatal {
				out.Error(err.Error())
				oc.Success = false
				return oc
			}
			out.Warning(err.Error())
			oc.Warnings = true
			continue
		}

		start := time.Now()
		code := r.exec.Execute(ctx, cmd, out)
		elapsed := time.Since(start)
		if r.metrics != nil {
			r.metrics.ObserveStage(st.Name, elapsed)
		}
		r.logger.Info("stage finished", "stage", st.Name, "exit_code", code, "duration", elapsed)
		oc.LastExit = code

		if code == domain.ExitAborted {
			oc.Success = false
			oc.Aborted = true
			return oc
		}
		if code != 0 {
			if st.Fatal {
				out.Error(fmt.Sprintf("%s failed (exit code %d).", st.Name, code))
				oc.Success = false
				return oc
			}
			out.Warning(fmt.Sprintf("%s failed (exit code %d); continuing.", st.Name, code))
			if st.FailureHint != "" {
				out.Info(st.FailureHint)
			}
			oc.Warnings = true
			continue
		}

		if st.After != nil {
			if err := st.After(p); err != nil {
				if st.Fatal {
					out.Error(err.Error())
					oc.Success = false
					return oc
				}
				out.Warning(err.Error())
				oc.Warnings = true
			}
		}
	}
	return oc
}
