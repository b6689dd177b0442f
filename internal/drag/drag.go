// Package drag tracks the single in-flight drag or swap operation. The
// sequence number detects stale completion callbacks: a completion whose
// sequence does not match the current operation was superseded and is a
// no-op.
package drag

import (
	"sync/atomic"
	"time"

	"github.com/stridewm/stride/internal/types"
)

// MinDragDistance is the center-to-center distance below which a release
// is treated as a click, not a drag.
const MinDragDistance = 50.0

// Kind classifies the in-flight operation.
type Kind int32

const (
	KindNone Kind = iota
	KindDrag
	KindResize
)

// Operation is the process-wide drag state. At most one operation is
// active. All fields are atomics with acquire/release ordering: the
// starter publishes the snapshot before bumping the sequence, so a reader
// that observes a sequence also observes the state written before it.
type Operation struct {
	inProgress atomic.Bool
	sequence   atomic.Uint64
	kind       atomic.Int32
	windowID   atomic.Uint32
	startedAt  atomic.Int64

	// Snapshot of tiled frames at drag start, used to resolve the drop
	// target by center containment. Written only between Begin and End by
	// the single interaction thread.
	originalFrames map[types.WindowID]types.Rect
	startCenter    types.Point
}

// New creates an idle operation tracker.
func New() *Operation {
	return &Operation{originalFrames: make(map[types.WindowID]types.Rect)}
}

// Begin starts a new operation, superseding any previous one, and returns
// the sequence number a completion must present.
func (o *Operation) Begin(kind Kind, windowID types.WindowID, start types.Point, frames map[types.WindowID]types.Rect) uint64 {
	o.originalFrames = frames
	o.startCenter = start
	o.kind.Store(int32(kind))
	o.windowID.Store(uint32(windowID))
	o.startedAt.Store(time.Now().UnixNano())
	seq := o.sequence.Add(1)
	o.inProgress.Store(true)
	return seq
}

// End finishes the operation if seq is current. Returns false for stale
// completions, which callers must treat as no-ops.
func (o *Operation) End(seq uint64) bool {
	if o.sequence.Load() != seq {
		return false
	}
	o.inProgress.Store(false)
	return true
}

// Cancel unconditionally clears the operation.
func (o *Operation) Cancel() {
	o.inProgress.Store(false)
}

// InProgress reports whether an operation is active.
func (o *Operation) InProgress() bool {
	return o.inProgress.Load()
}

// Kind returns the active operation kind, KindNone when idle.
func (o *Operation) Kind() Kind {
	if !o.inProgress.Load() {
		return KindNone
	}
	return Kind(o.kind.Load())
}

// WindowID returns the window under manipulation.
func (o *Operation) WindowID() types.WindowID {
	return types.WindowID(o.windowID.Load())
}

// Sequence returns the current sequence number.
func (o *Operation) Sequence() uint64 {
	return o.sequence.Load()
}

// StartedAt returns when the active operation began.
func (o *Operation) StartedAt() time.Time {
	return time.Unix(0, o.startedAt.Load())
}

// IsDrag reports whether the release point is far enough from the start to
// count as a drag rather than a click.
func (o *Operation) IsDrag(release types.Point) bool {
	return o.startCenter.Distance(release) >= MinDragDistance
}

// DropTarget resolves the window whose pre-drag bounds contain the release
// point, excluding the dragged window itself. Returns false when the drop
// lands on empty space or the dragged window's own slot.
func (o *Operation) DropTarget(release types.Point) (types.WindowID, bool) {
	dragged := o.WindowID()
	for id, frame := range o.originalFrames {
		if id == dragged {
			continue
		}
		if frame.Contains(release) {
			return id, true
		}
	}
	return 0, false
}
