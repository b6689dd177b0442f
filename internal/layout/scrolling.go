package layout

import (
	"github.com/stridewm/stride/internal/types"
)

// DefaultScrollWidth is the strip pane width when none is configured.
const DefaultScrollWidth = 800.0

// computeScrolling places windows left to right at fixed width along a
// virtual strip. Only the part of the strip under the viewport maps onto
// the usable rect; panes outside it are clipped, degenerating to zero
// width at the nearest edge so the caller can hide them.
func computeScrolling(p Params) []types.WindowPlacement {
	n := len(p.Windows)
	width := p.Scroll.WindowWidth
	if width <= 0 {
		width = DefaultScrollWidth
	}
	if width > p.Usable.Width {
		width = p.Usable.Width
	}

	placements := make([]types.WindowPlacement, n)
	for i, id := range p.Windows {
		stripX := float64(i) * (width + p.Inner.Horizontal)
		x := p.Usable.X + stripX - p.Scroll.Offset

		bounds := types.Rect{X: x, Y: p.Usable.Y, Width: width, Height: p.Usable.Height}
		placements[i] = types.WindowPlacement{WindowID: id, Bounds: clipToViewport(bounds, p.Usable)}
	}
	return placements
}

// clipToViewport intersects a strip pane with the viewport. A pane fully
// outside collapses to a zero-width rect pinned at the nearest edge.
func clipToViewport(r, viewport types.Rect) types.Rect {
	left := max(r.X, viewport.X)
	right := min(r.X+r.Width, viewport.X+viewport.Width)

	if right <= left {
		edge := viewport.X
		if r.X > viewport.X {
			edge = viewport.X + viewport.Width
		}
		return types.Rect{X: edge, Y: r.Y, Width: 0, Height: r.Height}
	}
	return types.Rect{X: left, Y: r.Y, Width: right - left, Height: r.Height}
}
