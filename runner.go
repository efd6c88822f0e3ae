package capsid

import (
	"context"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/sink"
)

// Runner executes a pipeline synchronously, streaming the log to the
// provided writer. This allows for easy testing and integration with
// different frontends (CLI, scripts, CI).
type Runner struct {
	Output io.Writer

	// Styled enables ANSI-colored output using Profile. Leave false for
	// plain text, e.g. when Output is not a terminal.
	Styled  bool
	Profile termenv.Profile
}

// Run executes the full pipeline with the given raw parameters and blocks
// until it finishes. Cancel ctx to abort the run. The returned error is nil
// only when the pipeline completed successfully; the Outcome carries the
// artifact path and warnings flag either way.
func (r *Runner) Run(ctx context.Context, engine *Engine, params map[string]any) (pipeline.Outcome, error) {
	out, err := r.newSink()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	oc := engine.Runner().Run(ctx, params, out)
	return oc, outcomeError("pipeline", oc)
}

// RunAction executes a single maintenance action by name.
func (r *Runner) RunAction(ctx context.Context, engine *Engine, name string) (pipeline.Outcome, error) {
	if !pipeline.KnownAction(name) {
		return pipeline.Outcome{}, fmt.Errorf("%w: %s", domain.ErrUnknownAction, name)
	}
	out, err := r.newSink()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	oc := engine.Runner().RunAction(ctx, name, out)
	return oc, outcomeError("action", oc)
}

func (r *Runner) newSink() (*sink.Log, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	opts := []sink.Option{}
	if r.Styled {
		opts = append(opts, sink.WithProfile(r.Profile))
	}
	return sink.New(sink.WriterAppender{W: r.Output}, opts...), nil
}

func outcomeError(noun string, oc pipeline.Outcome) error {
	switch {
	case oc.Aborted:
		return fmt.Errorf("%s aborted", noun)
	case !oc.Success:
		return fmt.Errorf("%s failed (exit code %d)", noun, oc.LastExit)
	default:
		return nil
	}
}
