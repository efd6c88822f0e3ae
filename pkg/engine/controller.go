/*
Package engine implements the controller that sits between host adapters
(HTTP, MCP, CLI) and the pipeline. It owns the single execution slot, the
shared log buffer, status bookkeeping and the event stream.

Control requests are edge-triggered: RequestRun, RequestAction and
RequestTerminate return as soon as the request is accepted or rejected, and
the work itself happens on a background goroutine. Polling is read-only; a
host that misses every poll still converges on the final state through the
terminal push, which carries the entire log.
*/
package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/capsid/pkg/adapters/memory"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/logbuf"
	"github.com/aretw0/capsid/pkg/observability"
	"github.com/aretw0/capsid/pkg/pipeline"
	"github.com/aretw0/capsid/pkg/ports"
	"github.com/aretw0/capsid/pkg/sink"
)

// DefaultEmbedLimit is the largest result archive attached to the
// completion event. Larger archives stay on disk and the log tells the
// user where to find them.
const DefaultEmbedLimit = 50 << 20

const persistTimeout = 5 * time.Second

// Controller serializes runs and actions onto a single execution slot and
// answers polls against the shared log buffer.
//
// Status and log obey one ordering rule: a task writes its final log lines
// before committing a terminal status, and Poll reads status before taking
// its log snapshot. A poller that observes a terminal status therefore
// always holds the complete log.
type Controller struct {
	runner     *pipeline.Runner
	logger     *slog.Logger
	metrics    *observability.Metrics
	store      ports.RunStore
	embedLimit int64

	buf    *logbuf.Buffer
	events *Broadcaster

	mu      sync.Mutex
	status  domain.RunStatus
	message string
	busy    bool
	cancel  context.CancelFunc

	running sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger for engine internals. Host-facing
// output goes through the log buffer instead.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithStore sets the history store. Defaults to the in-memory store.
func WithStore(store ports.RunStore) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithEmbedLimit overrides the artifact embed cutoff in bytes.
func WithEmbedLimit(n int64) Option {
	return func(c *Controller) {
		c.embedLimit = n
	}
}

// New creates a Controller driving the given runner.
func New(runner *pipeline.Runner, opts ...Option) *Controller {
	c := &Controller{
		runner:     runner,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:      memory.NewStore(),
		embedLimit: DefaultEmbedLimit,
		buf:        logbuf.New(),
		status:     domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.events = NewBroadcaster(c.logger)
	return c
}

// RequestRun starts a pipeline run with the given raw parameters. It
// returns the task ID immediately; the run itself executes in the
// background. Returns domain.ErrBusy if the execution slot is taken.
func (c *Controller) RequestRun(params map[string]any) (string, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", domain.ErrBusy
	}
	// New run, new log epoch: poll offsets restart at zero.
	c.buf.Reset()
	c.busy = true
	c.status = domain.StatusRunning
	c.message = "Pipeline running..."
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	id := uuid.NewString()
	if c.metrics != nil {
		c.metrics.TaskStarted(domain.KindRun)
	}
	c.broadcastEvent(Event{Type: EventStatus, Status: domain.StatusRunning, Message: "Pipeline running..."})
	c.logger.Info("run requested", "id", id)

	c.running.Add(1)
	go c.runTask(ctx, cancel, id, domain.KindRun, params, "")
	return id, nil
}

// RequestAction starts a standalone maintenance action. Actions share the
// execution slot and the log buffer with runs. Returns
// domain.ErrUnknownAction for names the registry does not know and
// domain.ErrBusy if the slot is taken.
func (c *Controller) RequestAction(name string) (string, error) {
	if !pipeline.KnownAction(name) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAction, name)
	}

	message := "Executing action: " + name + "..."
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", domain.ErrBusy
	}
	c.buf.Reset()
	c.busy = true
	c.status = domain.StatusRunning
	c.message = message
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	id := uuid.NewString()
	if c.metrics != nil {
		c.metrics.TaskStarted(domain.KindAction)
	}
	c.broadcastEvent(Event{Type: EventStatus, Status: domain.StatusRunning, Message: message})
	c.logger.Info("action requested", "id", id, "action", name)

	c.running.Add(1)
	go c.runTask(ctx, cancel, id, domain.KindAction, nil, name)
	return id, nil
}

// RequestTerminate cancels the active task, if any, and unconditionally
// moves the status to Aborted. Safe to call at any time, including when
// nothing is running.
func (c *Controller) RequestTerminate() {
	c.mu.Lock()
	cancel := c.cancel
	active := c.busy
	c.status = domain.StatusAborted
	c.message = "Terminated by user"
	c.mu.Unlock()

	s := c.newSink()
	s.Write("\n")
	s.Step("Terminating pipeline...")
	if cancel != nil {
		cancel()
	}
	c.broadcastEvent(Event{Type: EventStatus, Status: domain.StatusAborted, Message: "Terminated by user"})
	c.logger.Info("terminate requested", "active", active)
}

// Poll returns the log text between offset and the current end of the
// buffer, the new offset and the status. Read-only: polling never changes
// engine state. Out-of-range offsets clamp, so a host holding an offset
// from a previous log epoch self-corrects on its next poll.
func (c *Controller) Poll(offset int) domain.PollResponse {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	full, length := c.buf.Snapshot()
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	return domain.PollResponse{
		Content:   full[offset:],
		NewOffset: length,
		Status:    status,
	}
}

// Status returns the current status and human-readable message.
func (c *Controller) Status() (domain.RunStatus, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.message
}

// Busy reports whether a run or action currently holds the execution slot.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Subscribe registers an event listener. Each message is one JSON-encoded
// event: incremental log and status events while a task runs, ping
// keepalives, and exactly one run_finished event per task carrying the
// full log. The cancel function unregisters and closes the channel.
func (c *Controller) Subscribe() (chan string, func()) {
	return c.events.Subscribe()
}

// Runner exposes the underlying pipeline runner, e.g. for schema listings.
func (c *Controller) Runner() *pipeline.Runner {
	return c.runner
}

// History lists persisted run and action records, most recent first.
func (c *Controller) History(ctx context.Context) ([]domain.HistoryRecord, error) {
	return c.store.List(ctx)
}

// HistoryRecord loads one persisted record by task ID.
func (c *Controller) HistoryRecord(ctx context.Context, id string) (domain.HistoryRecord, error) {
	return c.store.Load(ctx, id)
}

// Wait blocks until the active background task, if any, has fully
// finished, including its completion push.
func (c *Controller) Wait() {
	c.running.Wait()
}

// runTask executes one run or action to completion on its own goroutine.
func (c *Controller) runTask(ctx context.Context, cancel context.CancelFunc, id string, kind domain.TaskKind, params map[string]any, action string) {
	defer c.running.Done()
	defer cancel()

	started := time.Now().UTC()
	s := c.newSink()

	var oc pipeline.Outcome
	var panicVal any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicVal = r
				c.logger.Error("background task panicked",
					"id", id, "kind", kind, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		switch kind {
		case domain.KindAction:
			s.Step("Executing action: " + action + "...")
			oc = c.runner.RunAction(ctx, action, s)
		default:
			s.Step("Starting Pipeline...")
			oc = c.runner.Run(ctx, params, s)
		}
	}()

	status, message := c.conclude(kind, oc, panicVal, s)

	var result *domain.Artifact
	if kind == domain.KindRun && status == domain.StatusFinished && oc.ArtifactPath != "" {
		result = c.embedArtifact(oc.ArtifactPath, s)
	}

	c.mu.Lock()
	c.status = status
	c.message = message
	c.busy = false
	c.cancel = nil
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.TaskFinished(kind, status)
	}
	c.persist(id, kind, status, message, params, action, started, oc)
	c.pushCompletion(status, message, result)
	c.logger.Info("task finished", "id", id, "kind", kind, "status", status)
}

// conclude writes the closing log lines and maps the outcome to a terminal
// status and message.
func (c *Controller) conclude(kind domain.TaskKind, oc pipeline.Outcome, panicVal any, s ports.Sink) (domain.RunStatus, string) {
	noun := "Pipeline"
	if kind == domain.KindAction {
		noun = "Action"
	}

	if panicVal != nil {
		s.Write("\n")
		s.Error(fmt.Sprintf("Exception: %v", panicVal))
		return domain.StatusError, fmt.Sprintf("Error: %v", panicVal)
	}

	status, message := oc.Status()
	switch {
	case oc.Aborted:
		s.Write("\n")
		s.Step(noun + " was terminated.")
	case !oc.Success:
		s.Write("\n")
		s.Step(noun + " failed.")
	default:
		s.Write("\n")
		s.Step("Completed successfully!")
	}
	return status, message
}

// embedArtifact attaches the result archive to the completion event when it
// fits under the embed limit. Failures here never change the run outcome;
// the archive is already safe on disk.
func (c *Controller) embedArtifact(path string, s ports.Sink) *domain.Artifact {
	name := filepath.Base(path)
	s.Step("Preparing download for " + name + "...")

	info, err := os.Stat(path)
	if err != nil {
		s.Step(fmt.Sprintf("Error preparing download: %v", err))
		return nil
	}
	if info.Size() > c.embedLimit {
		s.Step(fmt.Sprintf("Result archive is too large (%.1fMB) to embed. Retrieve %s from disk instead.",
			float64(info.Size())/(1<<20), path))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.Step(fmt.Sprintf("Error preparing download: %v", err))
		return nil
	}
	s.Step("Ready to download.")
	return &domain.Artifact{
		Name: name,
		Data: base64.StdEncoding.EncodeToString(data),
	}
}

// persist saves the history record. Best-effort: a store failure is logged
// and otherwise ignored.
func (c *Controller) persist(id string, kind domain.TaskKind, status domain.RunStatus, message string, params map[string]any, action string, started time.Time, oc pipeline.Outcome) {
	if c.store == nil {
		return
	}
	rec := domain.HistoryRecord{
		ID:           id,
		Kind:         kind,
		Status:       status,
		Message:      message,
		Params:       params,
		StartedAt:    started,
		FinishedAt:   time.Now().UTC(),
		LogBytes:     c.buf.Len(),
		ArtifactPath: oc.ArtifactPath,
	}
	if kind == domain.KindAction {
		rec.Params = map[string]any{"action": action}
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Save(ctx, rec); err != nil {
		c.logger.Warn("failed to persist history record", "id", id, "err", err)
	}
}

// pushCompletion broadcasts the one unconditional terminal event. The
// snapshot is taken after the final log writes, so Logs is always the
// complete text.
func (c *Controller) pushCompletion(status domain.RunStatus, message string, result *domain.Artifact) {
	logs, _ := c.buf.Snapshot()
	evt := domain.CompletionEvent{
		Type:    domain.EventRunFinished,
		Status:  status,
		Message: message,
		Logs:    logs,
		Result:  result,
	}
	if b, err := json.Marshal(evt); err == nil {
		c.events.Broadcast(string(b))
	}
}

// newSink builds the sink for one task: every entry lands in the log
// buffer, streams to subscribers and feeds the log-volume counter.
func (c *Controller) newSink() ports.Sink {
	fan := sink.Multi(c.buf, sink.AppenderFunc(func(text string) {
		c.broadcastEvent(Event{Type: EventLog, Text: text})
	}))
	return sink.New(fan, sink.WithObserver(func(n int) {
		if c.metrics != nil {
			c.metrics.AddLogBytes(n)
		}
	}))
}

func (c *Controller) broadcastEvent(evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.events.Broadcast(string(b))
}
