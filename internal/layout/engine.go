// Package layout computes target geometry for a workspace's windows. Every
// mode is a pure function from (ordered windows, usable rect, ratios, gaps)
// to one rectangle per window; no OS state is consulted. All tiled modes
// guarantee that returned rectangles do not overlap and lie within the
// usable rect.
package layout

import (
	"github.com/stridewm/stride/internal/types"
)

// ScrollParams positions the scrolling layout's virtual strip.
type ScrollParams struct {
	// Offset is the strip coordinate aligned with the usable rect's left edge.
	Offset float64
	// WindowWidth is the fixed width of each pane on the strip.
	WindowWidth float64
}

// Params carries every layout-affecting input. The same fields feed the
// cache fingerprint, so anything added here must be hashed there too.
type Params struct {
	Windows     []types.WindowID
	Usable      types.Rect
	Mode        types.LayoutMode
	MasterRatio float64
	MaxMasters  int

	// Proportions is the cumulative boundary vector for split modes,
	// length len(Windows)-1, strictly increasing in (0, 1). Empty means
	// equal panes.
	Proportions []float64

	Inner types.InnerGaps

	// CurrentFrames supplies the last-known geometry for floating mode.
	CurrentFrames map[types.WindowID]types.Rect

	Scroll ScrollParams
}

// Compute runs the layout algorithm for p.Mode. Zero windows yields an
// empty result, never an error. A single window fills the usable rect in
// every mode except scrolling.
func Compute(p Params) []types.WindowPlacement {
	n := len(p.Windows)
	if n == 0 {
		return nil
	}

	if p.Mode == types.LayoutFloating {
		return computeFloating(p)
	}
	if p.Mode == types.LayoutScrolling {
		return computeScrolling(p)
	}

	if n == 1 {
		return []types.WindowPlacement{{WindowID: p.Windows[0], Bounds: p.Usable}}
	}

	switch p.Mode {
	case types.LayoutMonocle:
		return computeMonocle(p)
	case types.LayoutMaster:
		return computeMaster(p)
	case types.LayoutSplit, types.LayoutSplitVertical, types.LayoutSplitHorizontal:
		return computeSplit(p)
	case types.LayoutGrid:
		return computeGrid(p)
	case types.LayoutDwindle:
		return computeDwindle(p)
	default:
		return computeDwindle(p)
	}
}

// computeMonocle stacks every window at the full usable rect.
func computeMonocle(p Params) []types.WindowPlacement {
	placements := make([]types.WindowPlacement, len(p.Windows))
	for i, id := range p.Windows {
		placements[i] = types.WindowPlacement{WindowID: id, Bounds: p.Usable}
	}
	return placements
}

// computeFloating returns each window's last-known frame unchanged. A
// window with no known frame keeps the usable rect so it stays reachable.
func computeFloating(p Params) []types.WindowPlacement {
	placements := make([]types.WindowPlacement, len(p.Windows))
	for i, id := range p.Windows {
		bounds, ok := p.CurrentFrames[id]
		if !ok {
			bounds = p.Usable
		}
		placements[i] = types.WindowPlacement{WindowID: id, Bounds: bounds}
	}
	return placements
}

// splitSpan divides a 1-D span into n panes separated by gap, using a
// cumulative boundary vector. Boundaries telescope, so pane extents sum to
// the span exactly and adjacent panes never overlap.
func splitSpan(start, total float64, n int, cumulative []float64, gap float64) (starts, sizes []float64) {
	available := total - gap*float64(n-1)
	if available < 0 {
		available = 0
	}

	bounds := make([]float64, n+1)
	bounds[0] = 0
	bounds[n] = available
	for i := 1; i < n; i++ {
		if len(cumulative) == n-1 {
			bounds[i] = cumulative[i-1] * available
		} else {
			bounds[i] = float64(i) / float64(n) * available
		}
	}

	starts = make([]float64, n)
	sizes = make([]float64, n)
	for i := 0; i < n; i++ {
		starts[i] = start + bounds[i] + gap*float64(i)
		sizes[i] = bounds[i+1] - bounds[i]
		if sizes[i] < 0 {
			sizes[i] = 0
		}
	}
	return starts, sizes
}

// equalSplit is splitSpan with equal panes.
func equalSplit(start, total float64, n int, gap float64) (starts, sizes []float64) {
	return splitSpan(start, total, n, nil, gap)
}
