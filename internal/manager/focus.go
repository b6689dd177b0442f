package manager

import (
	"context"
	"fmt"
	"math"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/types"
)

// FocusDirection moves focus to the nearest window in a direction on the
// visible workspace, wrapping to the opposite edge when none exists. The
// cursor is warped to the new window so pointer and focus stay together.
func (m *Manager) FocusDirection(ctx context.Context, dir types.Direction) error {
	focused := m.state.FocusedWorkspace()
	view, ok := m.state.LayoutView(focused)
	if !ok {
		return errs.ErrWorkspaceNotFound
	}
	if view.Focused == 0 {
		m.focusWorkspaceWindow(ctx, focused)
		return nil
	}

	target, found := windowInDirection(view.Focused, dir, view.Frames, true)
	if !found {
		return nil
	}

	if err := m.backend.Focus(ctx, target); err != nil {
		return fmt.Errorf("focus %s: %w", dir, err)
	}
	m.state.SetFocusedWindow(focused, target)
	if err := m.backend.WarpMouse(ctx, target); err != nil {
		logging.Debug().Uint32("windowId", uint32(target)).Err(err).Msg("mouse warp failed")
	}
	m.syncBorders(ctx)
	return nil
}

// windowInDirection finds the best window to navigate to. Candidates in
// the direction are ranked by a weighted distance that prefers aligned
// windows; with wrapAround, an empty direction wraps to the opposite edge.
func windowInDirection(current types.WindowID, dir types.Direction, frames map[types.WindowID]types.Rect, wrapAround bool) (types.WindowID, bool) {
	from, ok := frames[current]
	if !ok {
		return 0, false
	}
	origin := from.Center()

	var best types.WindowID
	bestDistance := math.MaxFloat64
	for id, frame := range frames {
		if id == current {
			continue
		}
		center := frame.Center()
		if !isInDirection(origin, center, dir) {
			continue
		}
		if d := directionalDistance(origin, center, dir); d < bestDistance {
			bestDistance = d
			best = id
		}
	}
	if best != 0 {
		return best, true
	}
	if wrapAround {
		return wrapAroundWindow(current, dir, frames)
	}
	return 0, false
}

func isInDirection(source, target types.Point, dir types.Direction) bool {
	switch dir {
	case types.DirLeft:
		return target.X < source.X
	case types.DirRight:
		return target.X > source.X
	case types.DirUp:
		return target.Y < source.Y
	case types.DirDown:
		return target.Y > source.Y
	default:
		return false
	}
}

// directionalDistance weights perpendicular displacement double so windows
// in line with the movement win over closer but offset ones.
func directionalDistance(source, target types.Point, dir types.Direction) float64 {
	dx := math.Abs(target.X - source.X)
	dy := math.Abs(target.Y - source.Y)
	switch dir {
	case types.DirLeft, types.DirRight:
		return dx + dy*2
	case types.DirUp, types.DirDown:
		return dy + dx*2
	default:
		return math.Sqrt(dx*dx + dy*dy)
	}
}

// wrapAroundWindow picks the most aligned window on the opposite edge.
func wrapAroundWindow(current types.WindowID, dir types.Direction, frames map[types.WindowID]types.Rect) (types.WindowID, bool) {
	origin := frames[current].Center()

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, frame := range frames {
		c := frame.Center()
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		minY = math.Min(minY, c.Y)
		maxY = math.Max(maxY, c.Y)
	}

	// Edge means within 10% of the extreme; degenerate single-row or
	// single-column grids get an absolute tolerance instead
	xThreshold := (maxX - minX) * 0.1
	yThreshold := (maxY - minY) * 0.1
	if xThreshold == 0 {
		xThreshold = 1
	}
	if yThreshold == 0 {
		yThreshold = 1
	}

	onOppositeEdge := func(c types.Point) bool {
		switch dir {
		case types.DirLeft:
			return c.X >= maxX-xThreshold
		case types.DirRight:
			return c.X <= minX+xThreshold
		case types.DirUp:
			return c.Y >= maxY-yThreshold
		case types.DirDown:
			return c.Y <= minY+yThreshold
		default:
			return false
		}
	}

	perpendicular := func(c types.Point) float64 {
		switch dir {
		case types.DirLeft, types.DirRight:
			return math.Abs(c.Y - origin.Y)
		default:
			return math.Abs(c.X - origin.X)
		}
	}

	var best types.WindowID
	bestDistance := math.MaxFloat64
	for id, frame := range frames {
		if id == current {
			continue
		}
		c := frame.Center()
		if !onOppositeEdge(c) {
			continue
		}
		if d := perpendicular(c); d < bestDistance {
			bestDistance = d
			best = id
		}
	}
	return best, best != 0
}

// SwapFocusedWindow exchanges the focused window with its neighbor in a
// direction, keeping focus on the moved window.
func (m *Manager) SwapFocusedWindow(ctx context.Context, dir types.Direction) error {
	focused := m.state.FocusedWorkspace()
	view, ok := m.state.LayoutView(focused)
	if !ok {
		return errs.ErrWorkspaceNotFound
	}
	if view.Focused == 0 {
		return errs.ErrWindowNotFound
	}

	target, found := windowInDirection(view.Focused, dir, view.Frames, false)
	if !found {
		return nil
	}
	if !m.state.SwapWindows(focused, view.Focused, target) {
		return errs.ErrWindowNotFound
	}
	m.relayout(ctx, focused)
	return nil
}
