package types

// LayoutMode selects the algorithm used to arrange a workspace's windows
type LayoutMode string

const (
	LayoutMonocle         LayoutMode = "monocle"
	LayoutMaster          LayoutMode = "master"
	LayoutSplit           LayoutMode = "split"
	LayoutSplitVertical   LayoutMode = "split-vertical"
	LayoutSplitHorizontal LayoutMode = "split-horizontal"
	LayoutGrid            LayoutMode = "grid"
	LayoutDwindle         LayoutMode = "dwindle"
	LayoutFloating        LayoutMode = "floating"
	LayoutScrolling       LayoutMode = "scrolling"
)

// ParseLayoutMode converts a configuration string to a LayoutMode.
// "tiling" is accepted as a legacy alias for dwindle.
func ParseLayoutMode(s string) (LayoutMode, bool) {
	switch s {
	case "monocle":
		return LayoutMonocle, true
	case "master":
		return LayoutMaster, true
	case "split":
		return LayoutSplit, true
	case "split-vertical":
		return LayoutSplitVertical, true
	case "split-horizontal":
		return LayoutSplitHorizontal, true
	case "grid":
		return LayoutGrid, true
	case "dwindle", "tiling":
		return LayoutDwindle, true
	case "floating":
		return LayoutFloating, true
	case "scrolling":
		return LayoutScrolling, true
	default:
		return "", false
	}
}

// IsTiled reports whether the mode computes geometry for its windows.
// Floating workspaces keep whatever geometry the user set.
func (m LayoutMode) IsTiled() bool {
	return m != LayoutFloating
}

// WindowPlacement specifies where a window should be positioned
type WindowPlacement struct {
	WindowID WindowID `json:"windowId"`
	Bounds   Rect     `json:"bounds"`
}
