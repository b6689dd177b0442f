// Package client is the typed IPC client the CLI uses to drive a running
// stride daemon over its unix socket.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

const (
	DefaultSocketPath = "/tmp/stride.sock"
	DefaultTimeout    = 5 * time.Second
)

// Client wraps the envelope connection with typed daemon operations.
type Client struct {
	conn *Connection
}

// New creates a client. Zero values use the defaults; the connection is
// established lazily on first use.
func New(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{conn: NewConnection(socketPath, timeout)}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// request sends one request and unwraps the response, surfacing daemon
// errors as Go errors.
func (c *Client) request(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	if !c.conn.IsConnected() {
		if err := c.conn.Connect(); err != nil {
			return nil, err
		}
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	resp, err := c.conn.SendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("daemon error: %s", resp.GetError())
	}
	return resp.Result, nil
}

// Ping checks that the daemon is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.request(ctx, "ping", nil)
	return err
}

// Workspaces lists every workspace.
func (c *Client) Workspaces(ctx context.Context) ([]models.WorkspaceInfo, error) {
	result, err := c.request(ctx, "listWorkspaces", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Workspaces []models.WorkspaceInfo `json:"workspaces"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, err
	}
	return payload.Workspaces, nil
}

// Windows lists a workspace's windows; an empty name means the focused
// workspace.
func (c *Client) Windows(ctx context.Context, workspace string) ([]models.WindowInfo, error) {
	params := map[string]interface{}{}
	if workspace != "" {
		params["workspace"] = workspace
	}
	result, err := c.request(ctx, "listWindows", params)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Windows []models.WindowInfo `json:"windows"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, err
	}
	return payload.Windows, nil
}

// Screens lists the displays.
func (c *Client) Screens(ctx context.Context) ([]models.ScreenInfo, error) {
	result, err := c.request(ctx, "listScreens", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Screens []models.ScreenInfo `json:"screens"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, err
	}
	return payload.Screens, nil
}

// FocusedWindow returns the focused window, nil when nothing is focused.
func (c *Client) FocusedWindow(ctx context.Context) (*models.FocusedWindowInfo, error) {
	result, err := c.request(ctx, "focusedWindow", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Window *models.FocusedWindowInfo `json:"window"`
	}
	if err := models.DecodeResult(result, &payload); err != nil {
		return nil, err
	}
	return payload.Window, nil
}

// SwitchWorkspace makes a workspace visible and focuses it.
func (c *Client) SwitchWorkspace(ctx context.Context, name string) error {
	_, err := c.request(ctx, "switchWorkspace", map[string]interface{}{"name": name})
	return err
}

// MoveWindow sends a window to a workspace. A zero id moves the focused
// window.
func (c *Client) MoveWindow(ctx context.Context, id types.WindowID, workspace string) error {
	params := map[string]interface{}{"workspace": workspace}
	if id != 0 {
		params["windowId"] = uint32(id)
	}
	_, err := c.request(ctx, "moveWindow", params)
	return err
}

// SetLayout changes a workspace's layout mode; an empty name means the
// focused workspace.
func (c *Client) SetLayout(ctx context.Context, workspace, mode string) error {
	params := map[string]interface{}{"mode": mode}
	if workspace != "" {
		params["workspace"] = workspace
	}
	_, err := c.request(ctx, "setLayout", params)
	return err
}

// AdjustMasterRatio shifts the focused workspace's master share.
func (c *Client) AdjustMasterRatio(ctx context.Context, delta float64) error {
	_, err := c.request(ctx, "adjustMasterRatio", map[string]interface{}{"delta": delta})
	return err
}

// SetProportions replaces the focused workspace's pane shares, given as
// per-pane fractions summing to 1.
func (c *Client) SetProportions(ctx context.Context, panes []float64) error {
	vals := make([]interface{}, len(panes))
	for i, p := range panes {
		vals[i] = p
	}
	_, err := c.request(ctx, "setProportions", map[string]interface{}{"panes": vals})
	return err
}

// Scroll shifts the focused workspace's scrolling strip.
func (c *Client) Scroll(ctx context.Context, delta float64) error {
	_, err := c.request(ctx, "scroll", map[string]interface{}{"delta": delta})
	return err
}

// FocusDirection moves focus toward a direction.
func (c *Client) FocusDirection(ctx context.Context, dir string) error {
	_, err := c.request(ctx, "focusDirection", map[string]interface{}{"direction": dir})
	return err
}

// SwapDirection swaps the focused window toward a direction.
func (c *Client) SwapDirection(ctx context.Context, dir string) error {
	_, err := c.request(ctx, "swapDirection", map[string]interface{}{"direction": dir})
	return err
}
