package domain

import "time"

// EventRunFinished is the type tag of the terminal push event.
const EventRunFinished = "run_finished"

// Artifact is the packaged result attached to a completion event when the
// run succeeded and the archive is small enough to embed.
type Artifact struct {
	// Name is the archive filename, e.g. "phage_project_results.zip".
	Name string `json:"name"`

	// Data is the base64-encoded archive content.
	Data string `json:"data"`
}

// CompletionEvent is pushed exactly once when a run or action reaches a
// terminal status. It always carries the entire accumulated log, so a host
// that missed every poll still converges to the true final state.
type CompletionEvent struct {
	Type    string    `json:"type"`
	Status  RunStatus `json:"status"`
	Message string    `json:"message"`
	Logs    string    `json:"logs"`
	Result  *Artifact `json:"result,omitempty"`
}

// PollResponse answers one offset-based poll against the log buffer.
type PollResponse struct {
	// Content is the log text between the requested offset and the current
	// end of the buffer. Empty when the host is already caught up.
	Content string `json:"content"`

	// NewOffset is the buffer length at snapshot time. The host passes it
	// back on its next poll.
	NewOffset int `json:"new_offset"`

	// Status is the run status observed before the snapshot was taken, so a
	// terminal status implies the content completes the log.
	Status RunStatus `json:"status"`
}

// HistoryRecord is the persisted summary of one finished run or action.
type HistoryRecord struct {
	ID           string         `json:"id"`
	Kind         TaskKind       `json:"kind"`
	Status       RunStatus      `json:"status"`
	Message      string         `json:"message"`
	Params       map[string]any `json:"params,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	LogBytes     int            `json:"log_bytes"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
}
