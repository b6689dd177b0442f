package types

import "testing"

func TestRectCenter(t *testing.T) {
	r := Rect{X: 100, Y: 200, Width: 400, Height: 600}
	c := r.Center()
	if c.X != 300 || c.Y != 500 {
		t.Errorf("Center() = (%v, %v), want (300, 500)", c.X, c.Y)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{X: 50, Y: 50}, true},
		{"top-left corner", Point{X: 0, Y: 0}, true},
		{"bottom-right corner", Point{X: 100, Y: 100}, true},
		{"outside right", Point{X: 101, Y: 50}, false},
		{"outside above", Point{X: 50, Y: -1}, false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestRectOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	b := Rect{X: 50, Y: 50, Width: 100, Height: 100}
	if got := a.Overlap(b); got != 2500 {
		t.Errorf("Overlap = %v, want 2500", got)
	}

	c := Rect{X: 100, Y: 0, Width: 50, Height: 50}
	if got := a.Overlap(c); got != 0 {
		t.Errorf("edge-adjacent rects should not overlap, got %v", got)
	}
}

func TestRectContainsRect(t *testing.T) {
	screen := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	inside := Rect{X: 0, Y: 0, Width: 960, Height: 1080}
	if !screen.ContainsRect(inside) {
		t.Error("boundary-touching rect should be contained")
	}

	outside := Rect{X: 1000, Y: 0, Width: 1000, Height: 500}
	if screen.ContainsRect(outside) {
		t.Error("rect extending past the right edge should not be contained")
	}
}

func TestRectApproxEqual(t *testing.T) {
	a := Rect{X: 100, Y: 100, Width: 500, Height: 400}
	b := Rect{X: 101.5, Y: 99, Width: 500.9, Height: 398.2}
	if !a.ApproxEqual(b, 2.0) {
		t.Error("rects within 2px on every edge should be approximately equal")
	}
	c := Rect{X: 103, Y: 100, Width: 500, Height: 400}
	if a.ApproxEqual(c, 2.0) {
		t.Error("rect offset by 3px should not be approximately equal at 2px tolerance")
	}
}

func TestParseLayoutMode(t *testing.T) {
	tests := []struct {
		input string
		want  LayoutMode
		ok    bool
	}{
		{"master", LayoutMaster, true},
		{"split-vertical", LayoutSplitVertical, true},
		{"tiling", LayoutDwindle, true},
		{"dwindle", LayoutDwindle, true},
		{"scrolling", LayoutScrolling, true},
		{"cascade", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseLayoutMode(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLayoutMode(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGapsApplyOuter(t *testing.T) {
	g := Gaps{Outer: OuterGaps{Top: 10, Bottom: 20, Left: 5, Right: 15}}
	screen := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	usable := g.ApplyOuter(screen)

	want := Rect{X: 5, Y: 10, Width: 1900, Height: 1050}
	if usable != want {
		t.Errorf("ApplyOuter = %+v, want %+v", usable, want)
	}
}

func TestGapsApplyOuterClampsAtZero(t *testing.T) {
	g := UniformGaps(600)
	usable := g.ApplyOuter(Rect{Width: 1000, Height: 1000})
	if usable.Width != 0 || usable.Height != 0 {
		t.Errorf("oversized gaps should clamp usable rect to zero, got %+v", usable)
	}
}
