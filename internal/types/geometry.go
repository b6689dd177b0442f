package types

import "math"

// WindowID identifies a window. IDs are assigned by the window server and
// treated as unique for the lifetime of a session.
type WindowID uint32

// PID identifies an owning process.
type PID int32

// Rect represents pixel bounds on screen
type Rect struct {
	X      float64 `json:"x"`      // Left edge (pixels from screen left)
	Y      float64 `json:"y"`      // Top edge (pixels from screen top)
	Width  float64 `json:"width"`  // Width in pixels
	Height float64 `json:"height"` // Height in pixels
}

// Point represents a 2D coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center returns the center point of a Rect
func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Contains checks if a point is inside the rect
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Overlap returns the area of intersection between two Rects
func (r Rect) Overlap(other Rect) float64 {
	left := max(r.X, other.X)
	right := min(r.X+r.Width, other.X+other.Width)
	top := max(r.Y, other.Y)
	bottom := min(r.Y+r.Height, other.Y+other.Height)

	if left >= right || top >= bottom {
		return 0
	}
	return (right - left) * (bottom - top)
}

// ContainsRect checks if other lies entirely within r, boundary inclusive.
func (r Rect) ContainsRect(other Rect) bool {
	const eps = 1e-6
	return other.X >= r.X-eps &&
		other.Y >= r.Y-eps &&
		other.X+other.Width <= r.X+r.Width+eps &&
		other.Y+other.Height <= r.Y+r.Height+eps
}

// ApproxEqual reports whether two rects match within tolerance on every edge.
// Used for tab-swap detection where frames differ by subpixel rounding.
func (r Rect) ApproxEqual(other Rect, tolerance float64) bool {
	return math.Abs(r.X-other.X) <= tolerance &&
		math.Abs(r.Y-other.Y) <= tolerance &&
		math.Abs(r.Width-other.Width) <= tolerance &&
		math.Abs(r.Height-other.Height) <= tolerance
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Direction represents navigation direction
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection converts a string to Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	default:
		return 0, false
	}
}
