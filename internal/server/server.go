// Package server exposes the tiling manager over a unix socket using the
// same newline-delimited envelope protocol the bridge speaks. CLI and
// status-bar collaborators query state and deliver notifications here.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/manager"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// DefaultSocketPath is where the daemon listens for CLI connections.
const DefaultSocketPath = "/tmp/stride.sock"

// JSON-RPC style error codes carried in error responses.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeOperationError = -32000
)

// Server accepts IPC connections and dispatches requests to the manager.
type Server struct {
	socketPath string
	mgr        *manager.Manager
}

// New creates a server. An empty socket path uses the default.
func New(socketPath string, mgr *manager.Manager) *Server {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Server{socketPath: socketPath, mgr: mgr}
}

// Serve listens until the context is cancelled. Implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	// A stale socket from an unclean shutdown blocks the bind
	if err := unix.Unlink(s.socketPath); err != nil && !errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("remove stale socket %s: %w", s.socketPath, err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	// Only the owning user may drive the window manager
	if err := unix.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket %s: %w", s.socketPath, err)
	}

	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	defer func() {
		ln.Close()
		os.Remove(s.socketPath)
		wg.Wait()
	}()

	logging.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).Msg("accept failed")
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn serves one client: requests in, responses out, one JSON
// envelope per line.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var envelope models.MessageEnvelope
		resp := func() *models.MessageEnvelope {
			if err := json.Unmarshal(line, &envelope); err != nil {
				return models.NewErrorResponse("", codeParseError, err.Error())
			}
			if envelope.Type != "request" || envelope.Request == nil {
				return models.NewErrorResponse("", codeParseError, "expected a request envelope")
			}
			return s.dispatch(ctx, envelope.Request)
		}()

		data, err := json.Marshal(resp)
		if err != nil {
			logging.Warn().Err(err).Msg("response marshal failed")
			return
		}
		data = append(data, '\n')
		if _, err := writer.Write(data); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

// dispatch routes one request to the manager. Notification handlers are
// idempotent; queries never mutate.
func (s *Server) dispatch(ctx context.Context, req *models.Request) *models.MessageEnvelope {
	result, err := s.call(ctx, req.Method, req.Params)
	if err != nil {
		var me *methodError
		if errors.As(err, &me) {
			return models.NewErrorResponse(req.ID, me.code, me.message)
		}
		return models.NewErrorResponse(req.ID, codeOperationError, err.Error())
	}
	return models.NewResponse(req.ID, result)
}

type methodError struct {
	code    int
	message string
}

func (e *methodError) Error() string { return e.message }

func (s *Server) call(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	switch method {
	case "ping":
		return map[string]interface{}{"pong": true}, nil

	case "listWorkspaces":
		return models.EncodeParams(map[string]interface{}{"workspaces": s.mgr.WorkspaceInfos()})

	case "listWindows":
		name := stringParam(params, "workspace")
		if name == "" {
			name = s.mgr.State().FocusedWorkspace()
		}
		windows, err := s.mgr.WorkspaceWindows(name)
		if err != nil {
			return nil, err
		}
		return models.EncodeParams(map[string]interface{}{"windows": windows})

	case "listScreens":
		screens, err := s.mgr.Screens(ctx)
		if err != nil {
			return nil, err
		}
		return models.EncodeParams(map[string]interface{}{"screens": screens})

	case "focusedWindow":
		return models.EncodeParams(map[string]interface{}{"window": s.mgr.FocusedWindowInfo()})

	case "switchWorkspace":
		name := stringParam(params, "name")
		if name == "" {
			return nil, &methodError{codeInvalidParams, "name is required"}
		}
		return okResult(), s.mgr.SwitchWorkspace(ctx, name)

	case "moveWindow":
		name := stringParam(params, "workspace")
		if name == "" {
			return nil, &methodError{codeInvalidParams, "workspace is required"}
		}
		if id := uintParam(params, "windowId"); id != 0 {
			return okResult(), s.mgr.MoveWindow(ctx, types.WindowID(id), name)
		}
		return okResult(), s.mgr.MoveFocusedWindow(ctx, name)

	case "setLayout":
		mode, ok := types.ParseLayoutMode(stringParam(params, "mode"))
		if !ok {
			return nil, &methodError{codeInvalidParams, "unknown layout mode"}
		}
		name := stringParam(params, "workspace")
		if name == "" {
			name = s.mgr.State().FocusedWorkspace()
		}
		return okResult(), s.mgr.SetLayout(ctx, name, mode)

	case "adjustMasterRatio":
		name := stringParam(params, "workspace")
		if name == "" {
			name = s.mgr.State().FocusedWorkspace()
		}
		return okResult(), s.mgr.AdjustMasterRatio(ctx, name, floatParam(params, "delta"))

	case "setProportions":
		name := stringParam(params, "workspace")
		if name == "" {
			name = s.mgr.State().FocusedWorkspace()
		}
		panes := floatsParam(params, "panes")
		if len(panes) < 2 {
			return nil, &methodError{codeInvalidParams, "at least two pane proportions are required"}
		}
		return okResult(), s.mgr.SetPaneProportions(ctx, name, panes)

	case "scroll":
		name := stringParam(params, "workspace")
		if name == "" {
			name = s.mgr.State().FocusedWorkspace()
		}
		return okResult(), s.mgr.ScrollBy(ctx, name, floatParam(params, "delta"))

	case "focusDirection":
		dir, ok := types.ParseDirection(stringParam(params, "direction"))
		if !ok {
			return nil, &methodError{codeInvalidParams, "unknown direction"}
		}
		return okResult(), s.mgr.FocusDirection(ctx, dir)

	case "swapDirection":
		dir, ok := types.ParseDirection(stringParam(params, "direction"))
		if !ok {
			return nil, &methodError{codeInvalidParams, "unknown direction"}
		}
		return okResult(), s.mgr.SwapFocusedWindow(ctx, dir)

	case "workspaceChanged":
		name := stringParam(params, "name")
		if name == "" {
			return nil, &methodError{codeInvalidParams, "name is required"}
		}
		return okResult(), s.mgr.NotifyWorkspaceChanged(ctx, name)

	case "focusChanged":
		return okResult(), s.mgr.NotifyFocusChanged(ctx)

	default:
		return nil, &methodError{codeMethodNotFound, fmt.Sprintf("unknown method %q", method)}
	}
}

func okResult() map[string]interface{} {
	return map[string]interface{}{"ok": true}
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func floatParam(params map[string]interface{}, key string) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return 0
}

func floatsParam(params map[string]interface{}, key string) []float64 {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func uintParam(params map[string]interface{}, key string) uint32 {
	if v, ok := params[key].(float64); ok {
		return uint32(v)
	}
	return 0
}
