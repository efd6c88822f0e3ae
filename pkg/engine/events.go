package engine

import (
	"log/slog"
	"sync"

	"github.com/aretw0/capsid/pkg/domain"
)

// Event types broadcast to subscribers. The terminal push uses
// domain.EventRunFinished and the domain.CompletionEvent shape instead.
const (
	EventLog    = "log"
	EventStatus = "status"
	EventPing   = "ping"
)

// Event is the incremental notification sent to subscribers while a task is
// in flight. Exactly one of the payload fields is populated per type: Text
// for log events, Status and Message for status events, none for pings.
type Event struct {
	Type    string           `json:"type"`
	Text    string           `json:"text,omitempty"`
	Status  domain.RunStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Broadcaster fans event payloads out to subscribers. Sends never block:
// a subscriber that stops draining its channel loses events rather than
// stalling the engine. Subscribers that need the complete picture use the
// poll endpoint or the terminal push, which always carries the full log.
type Broadcaster struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[chan<- string]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logger,
		subs:   make(map[chan<- string]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function. Cancel is idempotent and closes the channel.
func (b *Broadcaster) Subscribe() (chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, 16)
	b.subs[ch] = struct{}{}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Broadcast delivers msg to every subscriber that has room in its buffer.
func (b *Broadcaster) Broadcast(msg string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("subscriber buffer full, dropping event")
		}
	}
}

// Count returns the number of active subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
