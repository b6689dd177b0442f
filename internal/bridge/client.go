package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

const (
	DefaultSocketPath = "/tmp/stride-server.sock"
	DefaultTimeout    = 5 * time.Second
)

// Client is the RPC client for the window-server bridge process. It holds
// the request/response connection; event subscription uses a separate
// connection owned by the observer.
type Client struct {
	conn *Connection
}

// NewClient creates a new window-server client
func NewClient(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn: NewConnection(socketPath, timeout),
	}
}

// Connect establishes connection to the server
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// request is a helper to send a request and get the response
func (c *Client) request(ctx context.Context, method string, params map[string]interface{}) (*models.Response, error) {
	if !c.conn.IsConnected() {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	return c.conn.SendRequest(ctx, req)
}

// CallMethod sends a generic RPC request with the given method and parameters
func (c *Client) CallMethod(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.request(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		// Accessibility failures carry their OS code through the error info
		return nil, &errs.AccessibilityError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
		}
	}

	return resp.Result, nil
}

// Ping sends a ping request to test connectivity
func (c *Client) Ping(ctx context.Context) (map[string]interface{}, error) {
	return c.CallMethod(ctx, "ping", nil)
}

// CheckAccessibility verifies the bridge holds the accessibility permission.
// Absence is fatal at startup, so the error is returned unwrapped.
func (c *Client) CheckAccessibility(ctx context.Context) error {
	result, err := c.CallMethod(ctx, "checkAccessibility", nil)
	if err != nil {
		return err
	}
	if trusted, ok := result["trusted"].(bool); ok && !trusted {
		return &errs.AccessibilityError{
			Code:    errs.CodeNotAuthorized,
			Message: "accessibility permission not granted",
		}
	}
	return nil
}

// ListWindows enumerates all on-screen windows
func (c *Client) ListWindows(ctx context.Context) ([]models.WindowInfo, error) {
	result, err := c.CallMethod(ctx, "listWindows", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Windows []models.WindowInfo `json:"windows"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, fmt.Errorf("listWindows: %w", err)
	}
	return payload.Windows, nil
}

// ListScreens enumerates the connected displays
func (c *Client) ListScreens(ctx context.Context) ([]models.ScreenInfo, error) {
	result, err := c.CallMethod(ctx, "listScreens", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Screens []models.ScreenInfo `json:"screens"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, fmt.Errorf("listScreens: %w", err)
	}
	return payload.Screens, nil
}

// ListApps enumerates running applications
func (c *Client) ListApps(ctx context.Context) ([]models.AppInfo, error) {
	result, err := c.CallMethod(ctx, "listApps", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Apps []models.AppInfo `json:"apps"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, fmt.Errorf("listApps: %w", err)
	}
	return payload.Apps, nil
}

// ResolveWindows resolves accessibility references for a batch of window IDs.
// The server retains each resolved reference until releaseWindows is called.
func (c *Client) ResolveWindows(ctx context.Context, ids []types.WindowID) ([]models.WindowInfo, error) {
	result, err := c.CallMethod(ctx, "resolveWindows", map[string]interface{}{
		"windowIds": ids,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Windows []models.WindowInfo `json:"windows"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, fmt.Errorf("resolveWindows: %w", err)
	}
	return payload.Windows, nil
}

// ReleaseWindows drops the server-side references for a batch of window IDs
func (c *Client) ReleaseWindows(ctx context.Context, ids []types.WindowID) error {
	_, err := c.CallMethod(ctx, "releaseWindows", map[string]interface{}{
		"windowIds": ids,
	})
	return err
}

// SetWindowFrame moves and resizes a window in one request
func (c *Client) SetWindowFrame(ctx context.Context, id types.WindowID, frame types.Rect) error {
	_, err := c.CallMethod(ctx, "setWindowFrame", map[string]interface{}{
		"windowId": id,
		"x":        frame.X,
		"y":        frame.Y,
		"width":    frame.Width,
		"height":   frame.Height,
	})
	return err
}

// FocusWindow raises and focuses a window
func (c *Client) FocusWindow(ctx context.Context, id types.WindowID) error {
	_, err := c.CallMethod(ctx, "focusWindow", map[string]interface{}{
		"windowId": id,
	})
	return err
}

// SetWindowsVisible hides or shows a batch of windows. Used for workspace
// switching so windows are never parked off-screen.
func (c *Client) SetWindowsVisible(ctx context.Context, ids []types.WindowID, visible bool) error {
	_, err := c.CallMethod(ctx, "setWindowsVisible", map[string]interface{}{
		"windowIds": ids,
		"visible":   visible,
	})
	return err
}

// WatchApp registers per-app observer notifications for a process
func (c *Client) WatchApp(ctx context.Context, pid types.PID) error {
	_, err := c.CallMethod(ctx, "watchApp", map[string]interface{}{
		"pid": pid,
	})
	return err
}

// WarpMouse moves the cursor to the center of a window. Used after
// directional focus so the pointer follows keyboard navigation.
func (c *Client) WarpMouse(ctx context.Context, id types.WindowID) error {
	_, err := c.CallMethod(ctx, "mouse.warp", map[string]interface{}{
		"windowId": id,
	})
	return err
}

// FocusedWindow returns the currently focused window, if any
func (c *Client) FocusedWindow(ctx context.Context) (*models.WindowInfo, error) {
	result, err := c.CallMethod(ctx, "focusedWindow", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Window *models.WindowInfo `json:"window"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, fmt.Errorf("focusedWindow: %w", err)
	}
	return payload.Window, nil
}
