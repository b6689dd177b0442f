package layout

import (
	"math"

	"github.com/stridewm/stride/internal/types"
)

// computeGrid arranges windows in a near-square grid: ceil(sqrt(n))
// columns, remainder rows filled left to right. The final row's windows
// widen to consume the unused columns.
func computeGrid(p Params) []types.WindowPlacement {
	n := len(p.Windows)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	ys, hs := equalSplit(p.Usable.Y, p.Usable.Height, rows, p.Inner.Vertical)

	placements := make([]types.WindowPlacement, 0, n)
	for row := 0; row < rows; row++ {
		startIdx := row * cols
		count := cols
		if startIdx+count > n {
			count = n - startIdx
		}

		xs, ws := equalSplit(p.Usable.X, p.Usable.Width, count, p.Inner.Horizontal)
		for col := 0; col < count; col++ {
			placements = append(placements, types.WindowPlacement{
				WindowID: p.Windows[startIdx+col],
				Bounds:   types.Rect{X: xs[col], Y: ys[row], Width: ws[col], Height: hs[row]},
			})
		}
	}
	return placements
}
