package domain

// Stage is one external-tool step in the pipeline. Stages are immutable and
// supplied by the stage table; the runner never mutates them and never
// special-cases a stage by name.
type Stage struct {
	// Name is the human-readable stage title shown in log banners.
	Name string

	// Fatal marks a stage whose failure halts the whole run. A non-fatal
	// stage failure records a warning and lets the run continue.
	Fatal bool

	// Applies reports whether the stage should run for the given parameters.
	// Nil means the stage always applies. Skipped stages leave no log trace.
	Applies func(p *Params) bool

	// Resolve builds the concrete command for the given parameters. It runs
	// after input validation, so required inputs are known to exist. An
	// error here counts as a stage failure under the fatality policy.
	Resolve func(p *Params) (Command, error)

	// After runs only when the command exits zero. It verifies produced
	// artifacts or rewires parameters for later stages (trimming swaps in
	// trimmed read paths). An error counts as a stage failure under the
	// fatality policy.
	After func(p *Params) error

	// FailureHint is an optional remediation note logged when the stage
	// fails non-fatally (for example, pointing at a missing database).
	FailureHint string
}
