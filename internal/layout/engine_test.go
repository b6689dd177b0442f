package layout

import (
	"math"
	"testing"

	"github.com/stridewm/stride/internal/types"
)

func windowIDs(n int) []types.WindowID {
	ids := make([]types.WindowID, n)
	for i := range ids {
		ids[i] = types.WindowID(i + 1)
	}
	return ids
}

var tiledModes = []types.LayoutMode{
	types.LayoutMonocle,
	types.LayoutMaster,
	types.LayoutSplit,
	types.LayoutSplitVertical,
	types.LayoutSplitHorizontal,
	types.LayoutGrid,
	types.LayoutDwindle,
	types.LayoutScrolling,
}

var testScreens = []types.Rect{
	{X: 0, Y: 0, Width: 1920, Height: 1080},
	{X: 0, Y: 25, Width: 1440, Height: 875},
	{X: -2560, Y: 0, Width: 2560, Height: 1440}, // secondary display left of main
	{X: 0, Y: 0, Width: 5120, Height: 1440},     // 32:9 ultrawide
	{X: 0, Y: 0, Width: 1080, Height: 1920},     // portrait
}

// Monocle stacks windows at identical bounds, so overlap is by design
// there; every other tiled mode must produce disjoint rectangles.
func overlapAllowed(mode types.LayoutMode) bool {
	return mode == types.LayoutMonocle
}

func TestTiledModeProperties(t *testing.T) {
	for _, mode := range tiledModes {
		for _, screen := range testScreens {
			for n := 0; n <= 100; n++ {
				p := Params{
					Windows:     windowIDs(n),
					Usable:      screen,
					Mode:        mode,
					MasterRatio: 0.6,
					MaxMasters:  1,
					Scroll:      ScrollParams{WindowWidth: 800},
				}
				placements := Compute(p)

				// Count preservation: one rect per window, same id set
				if len(placements) != n {
					t.Fatalf("%s n=%d screen=%+v: got %d placements", mode, n, screen, len(placements))
				}
				seen := make(map[types.WindowID]bool, n)
				for _, pl := range placements {
					if seen[pl.WindowID] {
						t.Fatalf("%s n=%d: duplicate window %d in result", mode, n, pl.WindowID)
					}
					seen[pl.WindowID] = true
				}
				for _, id := range p.Windows {
					if !seen[id] {
						t.Fatalf("%s n=%d: window %d missing from result", mode, n, id)
					}
				}

				// Containment: every rect inside the usable screen rect
				for _, pl := range placements {
					if !screen.ContainsRect(pl.Bounds) {
						t.Fatalf("%s n=%d screen=%+v: window %d bounds %+v outside screen",
							mode, n, screen, pl.WindowID, pl.Bounds)
					}
				}

				// No-overlap: no two rects intersect with positive area
				if !overlapAllowed(mode) {
					for i := 0; i < len(placements); i++ {
						for j := i + 1; j < len(placements); j++ {
							if area := placements[i].Bounds.Overlap(placements[j].Bounds); area > 1e-6 {
								t.Fatalf("%s n=%d screen=%+v: windows %d and %d overlap by %v",
									mode, n, screen, placements[i].WindowID, placements[j].WindowID, area)
							}
						}
					}
				}
			}
		}
	}
}

func TestTiledModePropertiesWithGaps(t *testing.T) {
	screen := types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	inner := types.InnerGaps{Horizontal: 8, Vertical: 8}

	for _, mode := range tiledModes {
		for n := 1; n <= 20; n++ {
			p := Params{
				Windows:     windowIDs(n),
				Usable:      screen,
				Mode:        mode,
				MasterRatio: 0.6,
				MaxMasters:  1,
				Inner:       inner,
				Scroll:      ScrollParams{WindowWidth: 800},
			}
			for _, pl := range Compute(p) {
				if !screen.ContainsRect(pl.Bounds) {
					t.Fatalf("%s n=%d with gaps: window %d bounds %+v outside screen",
						mode, n, pl.WindowID, pl.Bounds)
				}
			}
		}
	}
}

func TestSingleWindowFillsUsableRect(t *testing.T) {
	screen := types.Rect{X: 10, Y: 20, Width: 1900, Height: 1040}
	for _, mode := range tiledModes {
		if mode == types.LayoutScrolling {
			continue
		}
		placements := Compute(Params{
			Windows: windowIDs(1),
			Usable:  screen,
			Mode:    mode,
		})
		if len(placements) != 1 || placements[0].Bounds != screen {
			t.Errorf("%s: single window = %+v, want full usable rect", mode, placements)
		}
	}
}

func TestZeroWindowsEmptyResult(t *testing.T) {
	for _, mode := range tiledModes {
		if got := Compute(Params{Usable: testScreens[0], Mode: mode}); len(got) != 0 {
			t.Errorf("%s: zero windows returned %d placements", mode, len(got))
		}
	}
}

func TestMasterScenario(t *testing.T) {
	// Three windows, ratio 0.6, 1920x1080, zero gaps: master takes
	// 1152px, the two stack windows split the remaining 768px column
	placements := Compute(Params{
		Windows:     windowIDs(3),
		Usable:      types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Mode:        types.LayoutMaster,
		MasterRatio: 0.6,
		MaxMasters:  1,
	})

	master := placements[0].Bounds
	want := types.Rect{X: 0, Y: 0, Width: 1152, Height: 1080}
	if master != want {
		t.Errorf("master bounds = %+v, want %+v", master, want)
	}

	stackHeight := 0.0
	for _, pl := range placements[1:] {
		b := pl.Bounds
		if b.X != 1152 || b.Width != 768 {
			t.Errorf("stack window %d = %+v, want x=1152 width=768", pl.WindowID, b)
		}
		stackHeight += b.Height
	}
	if stackHeight != 1080 {
		t.Errorf("stack heights sum to %v, want exactly 1080", stackHeight)
	}
}

func TestMasterPortraitFlipsAxes(t *testing.T) {
	placements := Compute(Params{
		Windows:     windowIDs(3),
		Usable:      types.Rect{X: 0, Y: 0, Width: 1080, Height: 1920},
		Mode:        types.LayoutMaster,
		MasterRatio: 0.5,
		MaxMasters:  1,
	})

	master := placements[0].Bounds
	if master.Y != 0 || master.Width != 1080 {
		t.Errorf("portrait master = %+v, want full-width top region", master)
	}
	for _, pl := range placements[1:] {
		if pl.Bounds.Y != master.Height {
			t.Errorf("portrait stack window %d at y=%v, want %v", pl.WindowID, pl.Bounds.Y, master.Height)
		}
	}
}

func TestSplitUsesProportions(t *testing.T) {
	placements := Compute(Params{
		Windows:     windowIDs(3),
		Usable:      types.Rect{X: 0, Y: 0, Width: 1000, Height: 500},
		Mode:        types.LayoutSplitHorizontal,
		Proportions: []float64{0.5, 0.75},
	})

	widths := []float64{placements[0].Bounds.Width, placements[1].Bounds.Width, placements[2].Bounds.Width}
	want := []float64{500, 250, 250}
	for i := range want {
		if math.Abs(widths[i]-want[i]) > 1e-9 {
			t.Errorf("pane %d width = %v, want %v", i, widths[i], want[i])
		}
	}
}

func TestSplitInvalidProportionsFallsBackToEqual(t *testing.T) {
	// Non-monotonic vector violates the invariant and must be ignored
	placements := Compute(Params{
		Windows:     windowIDs(3),
		Usable:      types.Rect{X: 0, Y: 0, Width: 900, Height: 500},
		Mode:        types.LayoutSplitHorizontal,
		Proportions: []float64{0.8, 0.3},
	})

	for i, pl := range placements {
		if math.Abs(pl.Bounds.Width-300) > 1e-9 {
			t.Errorf("pane %d width = %v, want equal 300", i, pl.Bounds.Width)
		}
	}
}

func TestSplitVerticalStacks(t *testing.T) {
	placements := Compute(Params{
		Windows: windowIDs(2),
		Usable:  types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Mode:    types.LayoutSplitVertical,
	})
	if placements[0].Bounds.Width != 1920 {
		t.Errorf("split-vertical panes should span full width, got %v", placements[0].Bounds.Width)
	}
	if placements[1].Bounds.Y != 540 {
		t.Errorf("second pane y = %v, want 540", placements[1].Bounds.Y)
	}
}

func TestProportionsRoundTrip(t *testing.T) {
	vectors := [][]float64{
		{0.5},
		{0.25, 0.5, 0.75},
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
		{0.333333, 0.666667},
	}

	for _, cumulative := range vectors {
		panes := PaneProportions(cumulative)

		sum := 0.0
		for _, share := range panes {
			sum += share
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("pane shares for %v sum to %v, want 1", cumulative, sum)
		}

		back := CumulativeProportions(panes)
		if len(back) != len(cumulative) {
			t.Fatalf("round-trip length %d, want %d", len(back), len(cumulative))
		}
		for i := range cumulative {
			if math.Abs(back[i]-cumulative[i]) > 1e-9 {
				t.Errorf("round-trip[%d] = %v, want %v", i, back[i], cumulative[i])
			}
		}
	}
}

func TestGridColumnCount(t *testing.T) {
	tests := []struct {
		n        int
		wantCols int
	}{
		{2, 2},
		{4, 2},
		{5, 3},
		{9, 3},
		{10, 4},
	}

	for _, tt := range tests {
		placements := Compute(Params{
			Windows: windowIDs(tt.n),
			Usable:  types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			Mode:    types.LayoutGrid,
		})

		// Count distinct x positions in the first row
		firstRowY := placements[0].Bounds.Y
		cols := 0
		for _, pl := range placements {
			if pl.Bounds.Y == firstRowY {
				cols++
			}
		}
		if cols != tt.wantCols {
			t.Errorf("n=%d: first row has %d columns, want %d", tt.n, cols, tt.wantCols)
		}
	}
}

func TestDwindleQuadIs2x2(t *testing.T) {
	placements := Compute(Params{
		Windows: windowIDs(4),
		Usable:  types.Rect{X: 0, Y: 0, Width: 1600, Height: 1200},
		Mode:    types.LayoutDwindle,
	})

	for _, pl := range placements {
		b := pl.Bounds
		if b.Width != 800 || b.Height != 600 {
			t.Errorf("window %d = %+v, want equal 800x600 quadrant", pl.WindowID, b)
		}
	}
}

func TestDwindleHalvesAlternating(t *testing.T) {
	placements := Compute(Params{
		Windows: windowIDs(3),
		Usable:  types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Mode:    types.LayoutDwindle,
	})

	// First window takes the left half; the rest subdivide the right half
	if placements[0].Bounds.Width != 960 || placements[0].Bounds.Height != 1080 {
		t.Errorf("first dwindle pane = %+v, want left half", placements[0].Bounds)
	}
	if placements[1].Bounds.Height != 540 {
		t.Errorf("second dwindle pane height = %v, want 540", placements[1].Bounds.Height)
	}
}

func TestFloatingKeepsFrames(t *testing.T) {
	frames := map[types.WindowID]types.Rect{
		1: {X: 100, Y: 100, Width: 640, Height: 480},
		2: {X: 300, Y: 200, Width: 800, Height: 600},
	}
	placements := Compute(Params{
		Windows:       []types.WindowID{1, 2},
		Usable:        types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Mode:          types.LayoutFloating,
		CurrentFrames: frames,
	})

	for _, pl := range placements {
		if pl.Bounds != frames[pl.WindowID] {
			t.Errorf("floating window %d = %+v, want unchanged %+v", pl.WindowID, pl.Bounds, frames[pl.WindowID])
		}
	}
}

func TestScrollingViewportClipping(t *testing.T) {
	screen := types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	placements := Compute(Params{
		Windows: windowIDs(5),
		Usable:  screen,
		Mode:    types.LayoutScrolling,
		Scroll:  ScrollParams{Offset: 0, WindowWidth: 800},
	})

	// First two panes are fully visible, the third is clipped, the rest
	// collapse to zero width at the right edge
	if placements[0].Bounds.Width != 800 || placements[1].Bounds.Width != 800 {
		t.Errorf("visible panes = %v and %v, want 800 wide", placements[0].Bounds.Width, placements[1].Bounds.Width)
	}
	if placements[2].Bounds.Width >= 800 || placements[2].Bounds.Width <= 0 {
		t.Errorf("partially visible pane width = %v, want clipped", placements[2].Bounds.Width)
	}
	for _, pl := range placements[3:] {
		if pl.Bounds.Width != 0 {
			t.Errorf("off-strip pane %d width = %v, want 0", pl.WindowID, pl.Bounds.Width)
		}
	}
}

func TestScrollingOffsetShiftsStrip(t *testing.T) {
	screen := types.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	placements := Compute(Params{
		Windows: windowIDs(3),
		Usable:  screen,
		Mode:    types.LayoutScrolling,
		Scroll:  ScrollParams{Offset: 800, WindowWidth: 800},
	})

	// With the strip scrolled one pane left, the second window starts at
	// the viewport origin
	if placements[1].Bounds.X != 0 {
		t.Errorf("second pane x = %v, want 0 after one-pane scroll", placements[1].Bounds.X)
	}
	if placements[0].Bounds.Width != 0 {
		t.Errorf("scrolled-out first pane width = %v, want 0", placements[0].Bounds.Width)
	}
}
