// Package coalesce rate-limits high-frequency geometry events. It is a
// gate, not a queue: suppressed events are dropped, and the authoritative
// final frame is re-synced on interaction end.
package coalesce

import (
	"sync"
	"time"

	"github.com/stridewm/stride/internal/types"
)

// DefaultWindow is the minimum spacing between processed events of the
// same (pid, kind).
const DefaultWindow = 4 * time.Millisecond

type kind int

const (
	kindMove kind = iota
	kindResize
)

type key struct {
	pid  types.PID
	kind kind
}

// Coalescer tracks the last processed time per (pid, kind).
type Coalescer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[key]time.Time
	now    func() time.Time
}

// New creates a coalescer. A zero window uses the default.
func New(window time.Duration) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		window: window,
		last:   make(map[key]time.Time),
		now:    time.Now,
	}
}

// ShouldProcessMove gates a move event for a process.
func (c *Coalescer) ShouldProcessMove(pid types.PID) bool {
	return c.shouldProcess(key{pid: pid, kind: kindMove})
}

// ShouldProcessResize gates a resize event for a process.
func (c *Coalescer) ShouldProcessResize(pid types.PID) bool {
	return c.shouldProcess(key{pid: pid, kind: kindResize})
}

func (c *Coalescer) shouldProcess(k key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	last, seen := c.last[k]
	if seen && now.Sub(last) < c.window {
		return false
	}
	c.last[k] = now
	return true
}

// InteractionEnded clears the gate for a process so the final frame of a
// burst is always processed regardless of spacing.
func (c *Coalescer) InteractionEnded(pid types.PID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, key{pid: pid, kind: kindMove})
	delete(c.last, key{pid: pid, kind: kindResize})
}

// Forget drops all state for a process. Called on app termination.
func (c *Coalescer) Forget(pid types.PID) {
	c.InteractionEnded(pid)
}
