package domain

// RunStatus defines the lifecycle state of the engine.
type RunStatus string

const (
	StatusIdle     RunStatus = "idle"     // No run has started yet
	StatusRunning  RunStatus = "running"  // A run or action is in flight
	StatusFinished RunStatus = "finished" // Completed successfully (warnings allowed)
	StatusError    RunStatus = "error"    // An unexpected fault was caught
	StatusAborted  RunStatus = "aborted"  // Terminated by the user
)

// Terminal reports whether the status is a sink state. A terminal status
// never changes until a new run resets the engine.
func (s RunStatus) Terminal() bool {
	return s == StatusFinished || s == StatusError || s == StatusAborted
}

// TaskKind distinguishes full pipeline runs from standalone maintenance
// actions. Both kinds share the log buffer and the completion push.
type TaskKind string

const (
	KindRun    TaskKind = "run"
	KindAction TaskKind = "action"
)
