package types

// InnerGaps is the spacing between adjacent tiled windows. Horizontal
// applies between side-by-side panes, Vertical between stacked panes.
type InnerGaps struct {
	Horizontal float64 `json:"horizontal" yaml:"horizontal"`
	Vertical   float64 `json:"vertical" yaml:"vertical"`
}

// OuterGaps is the inset from the screen's usable frame to the tiled area.
type OuterGaps struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Gaps bundles the inner and outer gap configuration for one screen.
type Gaps struct {
	Inner InnerGaps `json:"inner" yaml:"inner"`
	Outer OuterGaps `json:"outer" yaml:"outer"`
}

// UniformGaps builds a Gaps with the same value on every axis and side.
func UniformGaps(v float64) Gaps {
	return Gaps{
		Inner: InnerGaps{Horizontal: v, Vertical: v},
		Outer: OuterGaps{Top: v, Bottom: v, Left: v, Right: v},
	}
}

// ApplyOuter shrinks a screen rect by the outer gaps, clamping at zero.
func (g Gaps) ApplyOuter(screen Rect) Rect {
	return Rect{
		X:      screen.X + g.Outer.Left,
		Y:      screen.Y + g.Outer.Top,
		Width:  max(0, screen.Width-g.Outer.Left-g.Outer.Right),
		Height: max(0, screen.Height-g.Outer.Top-g.Outer.Bottom),
	}
}

// IsZero reports whether no gap is configured on any axis or side.
func (g Gaps) IsZero() bool {
	return g == Gaps{}
}
