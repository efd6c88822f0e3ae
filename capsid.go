package capsid

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/capsid/pkg/adapters/memory"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/engine"
	"github.com/aretw0/capsid/pkg/observability"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/ports"
)

// Version is the build version, overridden at link time:
//
//	go build -ldflags "-X github.com/aretw0/capsid.Version=v1.2.3"
var Version = "0.1.0"

// Engine is the high-level entry point for the Capsid library.
// It wires a pipeline runner to a background controller and provides a
// simplified API for consumers; adapters (HTTP, MCP, CLI) sit on top of it.
type Engine struct {
	runner     *pipeline.Runner
	controller *engine.Controller

	cfg        pipeline.Config
	cfgFile    string
	logger     *slog.Logger
	store      ports.RunStore
	metrics    *observability.Metrics
	executor   ports.Executor
	stages     []domain.Stage
	embedLimit int64
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig sets the pipeline configuration directly, bypassing file
// loading.
func WithConfig(cfg pipeline.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		e.cfgFile = ""
	}
}

// WithConfigFile loads the pipeline configuration from a YAML or JSON file.
func WithConfigFile(path string) Option {
	return func(e *Engine) {
		e.cfgFile = path
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore injects a run history store. Defaults to an in-memory store.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMetrics registers Prometheus metrics for runs, stages and log volume.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithExecutor injects a custom process executor, mainly for tests.
func WithExecutor(exec ports.Executor) Option {
	return func(e *Engine) {
		e.executor = exec
	}
}

// WithStages replaces the built-in stage table.
func WithStages(stages ...domain.Stage) Option {
	return func(e *Engine) {
		e.stages = stages
	}
}

// WithEmbedLimit caps the artifact size (bytes) embedded in completion
// events. Larger archives stay on disk and the event says where to find
// them.
func WithEmbedLimit(n int64) Option {
	return func(e *Engine) {
		e.embedLimit = n
	}
}

// New initializes a new Capsid Engine.
// By default it uses the built-in configuration and stage table; use
// WithConfigFile to read settings from disk.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		cfg:        pipeline.DefaultConfig(),
		embedLimit: engine.DefaultEmbedLimit,
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.cfgFile != "" {
		// LoadConfig tolerates a missing file for ambient lookups; an
		// explicitly named file must exist so typos surface.
		if _, err := os.Stat(eng.cfgFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg, err := pipeline.LoadConfig(eng.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		eng.cfg = cfg
	}

	// Ensure logger is initialized (so we don't pass nil down, which would
	// overwrite the packages' own defaults).
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	runnerOpts := []pipeline.Option{
		pipeline.WithConfig(eng.cfg),
		pipeline.WithLogger(eng.logger),
	}
	if eng.executor != nil {
		runnerOpts = append(runnerOpts, pipeline.WithExecutor(eng.executor))
	}
	if eng.metrics != nil {
		runnerOpts = append(runnerOpts, pipeline.WithMetrics(eng.metrics))
	}
	if len(eng.stages) > 0 {
		runnerOpts = append(runnerOpts, pipeline.WithStages(eng.stages...))
	}
	eng.runner = pipeline.New(runnerOpts...)

	controllerOpts := []engine.Option{
		engine.WithLogger(eng.logger),
		engine.WithStore(eng.store),
		engine.WithEmbedLimit(eng.embedLimit),
	}
	if eng.metrics != nil {
		controllerOpts = append(controllerOpts, engine.WithMetrics(eng.metrics))
	}
	eng.controller = engine.New(eng.runner, controllerOpts...)

	return eng, nil
}

// Controller returns the background run controller. Adapters use it to
// request runs, poll logs and subscribe to events.
func (e *Engine) Controller() *engine.Controller {
	return e.controller
}

// Runner returns the underlying pipeline runner for synchronous, one-shot
// execution.
func (e *Engine) Runner() *pipeline.Runner {
	return e.runner
}

// Config returns the effective pipeline configuration.
func (e *Engine) Config() pipeline.Config {
	return e.cfg
}
