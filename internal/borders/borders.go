// Package borders is the narrow IPC contract with the external
// border-decoration process. Commands are batched so one relayout costs
// one round-trip regardless of window count.
package borders

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stridewm/stride/internal/bridge"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// DefaultSocketPath is the decoration process's command socket.
const DefaultSocketPath = "/tmp/stride-borders.sock"

// WindowStyle is one window's decoration state.
type WindowStyle struct {
	WindowID types.WindowID `json:"windowId"`
	Focused  bool           `json:"focused"`
	Frame    types.Rect     `json:"frame"`
}

// Settings is the global decoration configuration pushed on start and on
// config reload.
type Settings struct {
	ActiveColor   string `json:"activeColor"`
	InactiveColor string `json:"inactiveColor"`
	Width         int    `json:"width"`
}

// Client batches decoration updates to the border process. Decoration is
// cosmetic: failures are logged and dropped, never propagated into the
// layout path.
type Client struct {
	mu         sync.Mutex
	socketPath string
	conn       *bridge.Connection
	enabled    bool
}

// New creates a border client. An empty socket path uses the default.
func New(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Client{socketPath: socketPath, enabled: true}
}

// connectLocked dials lazily. The border process may start after the
// manager; a failed dial disables decoration until the next relayout.
func (c *Client) connectLocked() bool {
	if c.conn != nil && c.conn.IsConnected() {
		return true
	}
	conn := bridge.NewConnection(c.socketPath, time.Second)
	if err := conn.Connect(); err != nil {
		if c.enabled {
			logging.Debug().Str("socket", c.socketPath).Err(err).Msg("border process unavailable")
			c.enabled = false
		}
		return false
	}
	c.conn = conn
	c.enabled = true
	return true
}

// send fires one envelope and ignores the reply beyond error logging.
func (c *Client) send(ctx context.Context, method string, params map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connectLocked() {
		return
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	if _, err := c.conn.SendRequest(ctx, req); err != nil {
		logging.Debug().Str("method", method).Err(err).Msg("border command failed")
		c.conn.Close()
		c.conn = nil
	}
}

// UpdateWindows pushes the full decoration state for a relayout in one
// batched command.
func (c *Client) UpdateWindows(ctx context.Context, styles []WindowStyle) {
	if len(styles) == 0 {
		return
	}
	params, err := models.EncodeParams(map[string]interface{}{"windows": styles})
	if err != nil {
		logging.Debug().Err(err).Msg("border payload encode failed")
		return
	}
	c.send(ctx, "setWindowStyles", params)
}

// ApplySettings pushes global decoration settings in one command.
func (c *Client) ApplySettings(ctx context.Context, settings Settings) {
	params, err := models.EncodeParams(map[string]interface{}{"settings": settings})
	if err != nil {
		logging.Debug().Err(err).Msg("border settings encode failed")
		return
	}
	c.send(ctx, "setSettings", params)
}

// Close drops the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
