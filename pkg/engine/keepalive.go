package engine

import (
	"context"
	"time"
)

// DefaultKeepaliveInterval is how often the engine pings subscribers when
// nothing else is being broadcast.
const DefaultKeepaliveInterval = 30 * time.Second

// StartKeepalive broadcasts a ping event on every interval tick until ctx
// is canceled. Pings keep idle host connections alive through proxies that
// reap quiet streams. The returned channel closes when the loop has fully
// stopped.
func (c *Controller) StartKeepalive(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.broadcastEvent(Event{Type: EventPing})
			}
		}
	}()
	return done
}
