package observer

import (
	"time"

	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// Kind classifies a bridged notification.
type Kind int

const (
	WindowCreated Kind = iota
	WindowDestroyed
	WindowMoved
	WindowResized
	WindowFocused
	WindowTitleChanged
	AppLaunched
	AppTerminated
	AppActivated
	AppDeactivated
	ScreenChanged
	MouseDown
	MouseUp
)

// String returns the wire name of the event kind.
func (k Kind) String() string {
	switch k {
	case WindowCreated:
		return "windowCreated"
	case WindowDestroyed:
		return "windowDestroyed"
	case WindowMoved:
		return "windowMoved"
	case WindowResized:
		return "windowResized"
	case WindowFocused:
		return "windowFocused"
	case WindowTitleChanged:
		return "windowTitleChanged"
	case AppLaunched:
		return "appLaunched"
	case AppTerminated:
		return "appTerminated"
	case AppActivated:
		return "appActivated"
	case AppDeactivated:
		return "appDeactivated"
	case ScreenChanged:
		return "screenChanged"
	case MouseDown:
		return "mouseDown"
	case MouseUp:
		return "mouseUp"
	default:
		return "unknown"
	}
}

// Event is a typed notification delivered to the tiling manager.
type Event struct {
	Kind      Kind
	WindowID  types.WindowID
	PID       types.PID
	AppName   string
	BundleID  string
	Title     string
	Frame     types.Rect
	Location  types.Point
	Timestamp time.Time
}

var kindsByName = map[string]Kind{
	"windowCreated":      WindowCreated,
	"windowDestroyed":    WindowDestroyed,
	"windowMoved":        WindowMoved,
	"windowResized":      WindowResized,
	"windowFocused":      WindowFocused,
	"windowTitleChanged": WindowTitleChanged,
	"appLaunched":        AppLaunched,
	"appTerminated":      AppTerminated,
	"appActivated":       AppActivated,
	"appDeactivated":     AppDeactivated,
	"screenChanged":      ScreenChanged,
	"mouseDown":          MouseDown,
	"mouseUp":            MouseUp,
}

// parseEvent translates a wire event into a typed Event. Unknown event
// types are dropped, not errors; the server may be newer than this client.
func parseEvent(wire *models.Event) (Event, bool) {
	kind, ok := kindsByName[wire.EventType]
	if !ok {
		return Event{}, false
	}

	ev := Event{Kind: kind, Timestamp: wire.Timestamp}

	if v, ok := wire.Data["windowId"].(float64); ok {
		ev.WindowID = types.WindowID(v)
	}
	if v, ok := wire.Data["pid"].(float64); ok {
		ev.PID = types.PID(v)
	}
	if v, ok := wire.Data["appName"].(string); ok {
		ev.AppName = v
	}
	if v, ok := wire.Data["bundleId"].(string); ok {
		ev.BundleID = v
	}
	if v, ok := wire.Data["title"].(string); ok {
		ev.Title = v
	}
	if frame, ok := wire.Data["frame"].(map[string]interface{}); ok {
		ev.Frame = rectFromMap(frame)
	}
	if x, ok := wire.Data["x"].(float64); ok {
		ev.Location.X = x
	}
	if y, ok := wire.Data["y"].(float64); ok {
		ev.Location.Y = y
	}

	return ev, true
}

func rectFromMap(m map[string]interface{}) types.Rect {
	var r types.Rect
	if v, ok := m["x"].(float64); ok {
		r.X = v
	}
	if v, ok := m["y"].(float64); ok {
		r.Y = v
	}
	if v, ok := m["width"].(float64); ok {
		r.Width = v
	}
	if v, ok := m["height"].(float64); ok {
		r.Height = v
	}
	return r
}
