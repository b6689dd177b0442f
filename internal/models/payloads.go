package models

import (
	"encoding/json"
	"fmt"

	"github.com/stridewm/stride/internal/types"
)

// WindowInfo is the window-server's description of one window.
type WindowInfo struct {
	ID          uint32     `json:"id"`
	PID         int32      `json:"pid"`
	Title       string     `json:"title"`
	AppName     string     `json:"appName"`
	BundleID    string     `json:"bundleId"`
	Frame       types.Rect `json:"frame"`
	IsMinimized bool       `json:"isMinimized"`
	IsFocused   bool       `json:"isFocused"`
	ScreenName  string     `json:"screenName"`
}

// ScreenInfo is the window-server's description of one display.
type ScreenInfo struct {
	Name        string     `json:"name"`
	Frame       types.Rect `json:"frame"`
	UsableFrame types.Rect `json:"usableFrame"`
	IsMain      bool       `json:"isMain"`
	Scale       float64    `json:"scale"`
}

// AppInfo describes a running application the observer may watch.
type AppInfo struct {
	PID      int32  `json:"pid"`
	Name     string `json:"name"`
	BundleID string `json:"bundleId"`
	IsActive bool   `json:"isActive"`
	IsHidden bool   `json:"isHidden"`
}

// WorkspaceInfo is the read-only workspace summary exposed to IPC clients.
type WorkspaceInfo struct {
	Name        string           `json:"name"`
	LayoutMode  types.LayoutMode `json:"layoutMode"`
	ScreenName  string           `json:"screenName"`
	IsFocused   bool             `json:"isFocused"`
	WindowCount int              `json:"windowCount"`
	FocusedApp  string           `json:"focusedApp,omitempty"`
}

// FocusedWindowInfo is the focused-window summary exposed to IPC clients.
type FocusedWindowInfo struct {
	WindowID  uint32     `json:"windowId"`
	Title     string     `json:"title"`
	AppName   string     `json:"appName"`
	Workspace string     `json:"workspace"`
	Frame     types.Rect `json:"frame"`
}

// DecodeResult unmarshals an RPC result map into a typed payload.
// The result map comes from the generic envelope decode, so a round-trip
// through JSON is the cheapest faithful conversion.
func DecodeResult(result map[string]interface{}, v interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to re-encode result: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode result payload: %w", err)
	}
	return nil
}

// EncodeParams marshals a typed payload into the params map of a request.
func EncodeParams(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	var params map[string]interface{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params map: %w", err)
	}
	return params, nil
}
