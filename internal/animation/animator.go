// Package animation interpolates window frames from current to target
// geometry on a fixed frame clock. An animation is superseded, never
// cancelled: a newer pass bumps the generation and the old loop exits at
// its next tick, leaving cleanup to the new pass which recomputes from
// current frames.
package animation

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/types"
)

const (
	// DefaultDuration matches the configured animation default.
	DefaultDuration = 200 * time.Millisecond
	// frameInterval targets 60 fps.
	frameInterval = time.Second / 60
	// ConvergenceEpsilon is the per-edge distance below which a window is
	// considered arrived.
	ConvergenceEpsilon = 1.0
)

// Move is one window's interpolation span.
type Move struct {
	WindowID types.WindowID
	From     types.Rect
	To       types.Rect
}

// Positioner writes window frames. Satisfied by the bridge.
type Positioner interface {
	SetFrame(ctx context.Context, id types.WindowID, frame types.Rect) error
}

// Animator drives frame interpolation. One Animator serves all workspaces;
// concurrent Animate calls supersede each other.
type Animator struct {
	positioner Positioner
	duration   time.Duration
	easing     Func
	generation atomic.Uint64
}

// New creates an animator. Zero duration uses the default; nil easing
// uses ease-out.
func New(positioner Positioner, duration time.Duration, easing Func) *Animator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if easing == nil {
		easing = EaseOut
	}
	return &Animator{
		positioner: positioner,
		duration:   duration,
		easing:     easing,
	}
}

// Supersede invalidates any running animation without starting a new one.
// Used when a layout pass applies frames directly.
func (a *Animator) Supersede() {
	a.generation.Add(1)
}

// Animate interpolates every move to its target. Returns
// errs.ErrAnimationCancelled if superseded by a newer call, otherwise nil
// once all windows are within ConvergenceEpsilon (final frames applied
// exactly). Individual positioning failures are skipped; the window is
// reported through the returned failed set for the caller to untrack.
func (a *Animator) Animate(ctx context.Context, moves []Move) (failed []types.WindowID, err error) {
	if len(moves) == 0 {
		return nil, nil
	}

	gen := a.generation.Add(1)

	// Per-call buffer, reused every tick of this animation. A superseding
	// Animate may overlap with the old loop's final ticks, so the buffer
	// must not be shared across invocations.
	frames := make([]types.WindowPlacement, len(moves))

	dead := make(map[types.WindowID]bool)
	start := time.Now()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return keys(dead), ctx.Err()
		case <-ticker.C:
		}

		if a.generation.Load() != gen {
			return keys(dead), errs.ErrAnimationCancelled
		}

		elapsed := time.Since(start)
		t := float64(elapsed) / float64(a.duration)
		final := t >= 1
		if final {
			t = 1
		}
		progress := a.easing(t)

		for i, m := range moves {
			frames[i] = types.WindowPlacement{
				WindowID: m.WindowID,
				Bounds:   lerpRect(m.From, m.To, progress),
			}
			if final {
				frames[i].Bounds = m.To
			}
		}

		a.position(ctx, frames, dead)

		if final || a.converged(moves, progress) {
			// Snap to exact targets so epsilon drift never accumulates
			if !final {
				for i, m := range moves {
					frames[i] = types.WindowPlacement{WindowID: m.WindowID, Bounds: m.To}
				}
				a.position(ctx, frames, dead)
			}
			return keys(dead), nil
		}
	}
}

// position writes one tick's frames in parallel. Positioning has no data
// dependency across windows, so the batch fans out across cores.
func (a *Animator) position(ctx context.Context, frames []types.WindowPlacement, dead map[types.WindowID]bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	for _, f := range frames {
		if dead[f.WindowID] {
			continue
		}
		f := f
		g.Go(func() error {
			if err := a.positioner.SetFrame(gctx, f.WindowID, f.Bounds); err != nil {
				logging.Warn().
					Uint32("windowId", uint32(f.WindowID)).
					Err(err).
					Msg("positioning failed, dropping window from animation")
				mu.Lock()
				dead[f.WindowID] = true
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
}

// converged reports whether every window is within epsilon of target at
// the current progress.
func (a *Animator) converged(moves []Move, progress float64) bool {
	for _, m := range moves {
		current := lerpRect(m.From, m.To, progress)
		if !withinEpsilon(current, m.To) {
			return false
		}
	}
	return true
}

func withinEpsilon(a, b types.Rect) bool {
	return math.Abs(a.X-b.X) < ConvergenceEpsilon &&
		math.Abs(a.Y-b.Y) < ConvergenceEpsilon &&
		math.Abs(a.Width-b.Width) < ConvergenceEpsilon &&
		math.Abs(a.Height-b.Height) < ConvergenceEpsilon
}

func lerpRect(from, to types.Rect, t float64) types.Rect {
	return types.Rect{
		X:      from.X + (to.X-from.X)*t,
		Y:      from.Y + (to.Y-from.Y)*t,
		Width:  from.Width + (to.Width-from.Width)*t,
		Height: from.Height + (to.Height-from.Height)*t,
	}
}

func keys(m map[types.WindowID]bool) []types.WindowID {
	if len(m) == 0 {
		return nil
	}
	out := make([]types.WindowID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
