package layout

import (
	"github.com/stridewm/stride/internal/types"
)

// computeDwindle recursively halves the remaining rectangle, alternating
// the split axis per window. Four windows are a special case arranged as a
// 2x2 grid, which reads better than three nested halvings.
func computeDwindle(p Params) []types.WindowPlacement {
	n := len(p.Windows)
	if n == 4 {
		return dwindleQuad(p)
	}

	placements := make([]types.WindowPlacement, n)
	remaining := p.Usable

	for i, id := range p.Windows {
		if i == n-1 {
			placements[i] = types.WindowPlacement{WindowID: id, Bounds: remaining}
			break
		}

		// Split the long axis so panes stay close to square
		if remaining.Width >= remaining.Height {
			half := (remaining.Width - p.Inner.Horizontal) / 2
			placements[i] = types.WindowPlacement{
				WindowID: id,
				Bounds:   types.Rect{X: remaining.X, Y: remaining.Y, Width: half, Height: remaining.Height},
			}
			remaining = types.Rect{
				X:      remaining.X + half + p.Inner.Horizontal,
				Y:      remaining.Y,
				Width:  remaining.Width - half - p.Inner.Horizontal,
				Height: remaining.Height,
			}
		} else {
			half := (remaining.Height - p.Inner.Vertical) / 2
			placements[i] = types.WindowPlacement{
				WindowID: id,
				Bounds:   types.Rect{X: remaining.X, Y: remaining.Y, Width: remaining.Width, Height: half},
			}
			remaining = types.Rect{
				X:      remaining.X,
				Y:      remaining.Y + half + p.Inner.Vertical,
				Width:  remaining.Width,
				Height: remaining.Height - half - p.Inner.Vertical,
			}
		}
	}
	return placements
}

// dwindleQuad arranges exactly four windows as a 2x2 grid.
func dwindleQuad(p Params) []types.WindowPlacement {
	xs, ws := equalSplit(p.Usable.X, p.Usable.Width, 2, p.Inner.Horizontal)
	ys, hs := equalSplit(p.Usable.Y, p.Usable.Height, 2, p.Inner.Vertical)

	cells := []types.Rect{
		{X: xs[0], Y: ys[0], Width: ws[0], Height: hs[0]},
		{X: xs[1], Y: ys[0], Width: ws[1], Height: hs[0]},
		{X: xs[0], Y: ys[1], Width: ws[0], Height: hs[1]},
		{X: xs[1], Y: ys[1], Width: ws[1], Height: hs[1]},
	}

	placements := make([]types.WindowPlacement, 4)
	for i, id := range p.Windows {
		placements[i] = types.WindowPlacement{WindowID: id, Bounds: cells[i]}
	}
	return placements
}
