package layout

import (
	"github.com/stridewm/stride/internal/types"
)

// DefaultMasterRatio is the master's share of the primary axis when the
// workspace has no configured ratio.
const DefaultMasterRatio = 0.6

// computeMaster places the first MaxMasters windows in a master region
// taking MasterRatio of the primary axis; the rest stack along the
// secondary axis in equal shares. On landscape screens the master region
// is the left column and the stack tiles vertically; portrait screens flip
// to a top master row with a horizontal stack.
func computeMaster(p Params) []types.WindowPlacement {
	n := len(p.Windows)
	ratio := p.MasterRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultMasterRatio
	}
	masters := p.MaxMasters
	if masters < 1 {
		masters = 1
	}
	if masters > n {
		masters = n
	}

	// All windows fit in the master region: plain equal split
	if masters == n {
		return masterRegionOnly(p, n)
	}

	landscape := p.Usable.Width >= p.Usable.Height
	placements := make([]types.WindowPlacement, n)
	stackCount := n - masters

	if landscape {
		masterWidth := (p.Usable.Width - p.Inner.Horizontal) * ratio
		stackWidth := p.Usable.Width - p.Inner.Horizontal - masterWidth

		ys, hs := equalSplit(p.Usable.Y, p.Usable.Height, masters, p.Inner.Vertical)
		for i := 0; i < masters; i++ {
			placements[i] = types.WindowPlacement{
				WindowID: p.Windows[i],
				Bounds:   types.Rect{X: p.Usable.X, Y: ys[i], Width: masterWidth, Height: hs[i]},
			}
		}

		stackX := p.Usable.X + masterWidth + p.Inner.Horizontal
		ys, hs = equalSplit(p.Usable.Y, p.Usable.Height, stackCount, p.Inner.Vertical)
		for i := 0; i < stackCount; i++ {
			placements[masters+i] = types.WindowPlacement{
				WindowID: p.Windows[masters+i],
				Bounds:   types.Rect{X: stackX, Y: ys[i], Width: stackWidth, Height: hs[i]},
			}
		}
		return placements
	}

	masterHeight := (p.Usable.Height - p.Inner.Vertical) * ratio
	stackHeight := p.Usable.Height - p.Inner.Vertical - masterHeight

	xs, ws := equalSplit(p.Usable.X, p.Usable.Width, masters, p.Inner.Horizontal)
	for i := 0; i < masters; i++ {
		placements[i] = types.WindowPlacement{
			WindowID: p.Windows[i],
			Bounds:   types.Rect{X: xs[i], Y: p.Usable.Y, Width: ws[i], Height: masterHeight},
		}
	}

	stackY := p.Usable.Y + masterHeight + p.Inner.Vertical
	xs, ws = equalSplit(p.Usable.X, p.Usable.Width, stackCount, p.Inner.Horizontal)
	for i := 0; i < stackCount; i++ {
		placements[masters+i] = types.WindowPlacement{
			WindowID: p.Windows[masters+i],
			Bounds:   types.Rect{X: xs[i], Y: stackY, Width: ws[i], Height: stackHeight},
		}
	}
	return placements
}

// masterRegionOnly tiles all windows as masters along the secondary axis.
func masterRegionOnly(p Params, n int) []types.WindowPlacement {
	placements := make([]types.WindowPlacement, n)
	if p.Usable.Width >= p.Usable.Height {
		ys, hs := equalSplit(p.Usable.Y, p.Usable.Height, n, p.Inner.Vertical)
		for i, id := range p.Windows {
			placements[i] = types.WindowPlacement{
				WindowID: id,
				Bounds:   types.Rect{X: p.Usable.X, Y: ys[i], Width: p.Usable.Width, Height: hs[i]},
			}
		}
		return placements
	}
	xs, ws := equalSplit(p.Usable.X, p.Usable.Width, n, p.Inner.Horizontal)
	for i, id := range p.Windows {
		placements[i] = types.WindowPlacement{
			WindowID: id,
			Bounds:   types.Rect{X: xs[i], Y: p.Usable.Y, Width: ws[i], Height: p.Usable.Height},
		}
	}
	return placements
}
