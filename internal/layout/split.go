package layout

import (
	"github.com/stridewm/stride/internal/types"
)

// computeSplit divides the usable rect along one axis using the cumulative
// proportions vector. split-horizontal lays panes side by side, split-
// vertical stacks them, and plain split picks the long axis of the screen.
func computeSplit(p Params) []types.WindowPlacement {
	n := len(p.Windows)

	horizontal := false
	switch p.Mode {
	case types.LayoutSplitHorizontal:
		horizontal = true
	case types.LayoutSplitVertical:
		horizontal = false
	default:
		horizontal = p.Usable.Width >= p.Usable.Height
	}

	cumulative := p.Proportions
	if !validCumulative(cumulative, n) {
		cumulative = nil
	}

	placements := make([]types.WindowPlacement, n)
	if horizontal {
		xs, ws := splitSpan(p.Usable.X, p.Usable.Width, n, cumulative, p.Inner.Horizontal)
		for i, id := range p.Windows {
			placements[i] = types.WindowPlacement{
				WindowID: id,
				Bounds:   types.Rect{X: xs[i], Y: p.Usable.Y, Width: ws[i], Height: p.Usable.Height},
			}
		}
		return placements
	}

	ys, hs := splitSpan(p.Usable.Y, p.Usable.Height, n, cumulative, p.Inner.Vertical)
	for i, id := range p.Windows {
		placements[i] = types.WindowPlacement{
			WindowID: id,
			Bounds:   types.Rect{X: p.Usable.X, Y: ys[i], Width: p.Usable.Width, Height: hs[i]},
		}
	}
	return placements
}

// validCumulative checks the boundary vector invariant: length n-1,
// strictly increasing, every value in (0, 1).
func validCumulative(cumulative []float64, n int) bool {
	if len(cumulative) != n-1 {
		return false
	}
	prev := 0.0
	for _, c := range cumulative {
		if c <= prev || c >= 1 {
			return false
		}
		prev = c
	}
	return true
}

// PaneProportions converts a cumulative boundary vector (length n-1) into
// per-pane shares (length n, summing to 1).
func PaneProportions(cumulative []float64) []float64 {
	n := len(cumulative) + 1
	panes := make([]float64, n)
	prev := 0.0
	for i, c := range cumulative {
		panes[i] = c - prev
		prev = c
	}
	panes[n-1] = 1 - prev
	return panes
}

// CumulativeProportions is the inverse of PaneProportions. The transforms
// round-trip within floating-point tolerance.
func CumulativeProportions(panes []float64) []float64 {
	if len(panes) == 0 {
		return nil
	}
	cumulative := make([]float64, len(panes)-1)
	sum := 0.0
	for i := 0; i < len(panes)-1; i++ {
		sum += panes[i]
		cumulative[i] = sum
	}
	return cumulative
}
