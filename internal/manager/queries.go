package manager

import (
	"context"
	"fmt"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/layout"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// WorkspaceInfos summarizes every workspace for IPC clients.
func (m *Manager) WorkspaceInfos() []models.WorkspaceInfo {
	focused := m.state.FocusedWorkspace()
	var infos []models.WorkspaceInfo
	for _, name := range m.state.WorkspaceNames() {
		view, ok := m.state.LayoutView(name)
		if !ok {
			continue
		}
		info := models.WorkspaceInfo{
			Name:        name,
			LayoutMode:  view.Mode,
			ScreenName:  view.Screen,
			IsFocused:   name == focused,
			WindowCount: len(view.Windows) + len(view.Floating),
		}
		if view.Focused != 0 {
			if w := m.state.Window(view.Focused); w != nil {
				info.FocusedApp = w.AppName
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// FocusedWindowInfo describes the visible workspace's focused window, nil
// when nothing is focused.
func (m *Manager) FocusedWindowInfo() *models.FocusedWindowInfo {
	focused := m.state.FocusedWorkspace()
	view, ok := m.state.LayoutView(focused)
	if !ok || view.Focused == 0 {
		return nil
	}
	w := m.state.Window(view.Focused)
	if w == nil {
		return nil
	}
	return &models.FocusedWindowInfo{
		WindowID:  uint32(w.ID),
		Title:     w.Title,
		AppName:   w.AppName,
		Workspace: w.Workspace,
		Frame:     w.Frame,
	}
}

// Screens lists the displays as the native layer reports them.
func (m *Manager) Screens(ctx context.Context) ([]models.ScreenInfo, error) {
	return m.backend.Screens(ctx)
}

// WorkspaceWindows lists a workspace's windows in stack order.
func (m *Manager) WorkspaceWindows(name string) ([]models.WindowInfo, error) {
	view, ok := m.state.LayoutView(name)
	if !ok {
		return nil, fmt.Errorf("windows of %q: %w", name, errs.ErrWorkspaceNotFound)
	}

	ids := append(append([]types.WindowID(nil), view.Windows...), view.Floating...)
	infos := make([]models.WindowInfo, 0, len(ids))
	for _, id := range ids {
		w := m.state.Window(id)
		if w == nil {
			continue
		}
		infos = append(infos, models.WindowInfo{
			ID:        uint32(w.ID),
			PID:       int32(w.PID),
			Title:     w.Title,
			AppName:   w.AppName,
			BundleID:  w.BundleID,
			Frame:     w.Frame,
			IsFocused: id == view.Focused,
		})
	}
	return infos, nil
}

// SetLayout switches a workspace's layout mode and retiles it when visible.
func (m *Manager) SetLayout(ctx context.Context, workspace string, mode types.LayoutMode) error {
	if !m.state.SetLayoutMode(workspace, mode) {
		return fmt.Errorf("set layout of %q: %w", workspace, errs.ErrWorkspaceNotFound)
	}
	if workspace == m.state.FocusedWorkspace() {
		m.relayout(ctx, workspace)
	}
	return nil
}

// AdjustMasterRatio shifts the master share by a delta. The state clamps
// the result to its sane band.
func (m *Manager) AdjustMasterRatio(ctx context.Context, workspace string, delta float64) error {
	view, ok := m.state.LayoutView(workspace)
	if !ok {
		return fmt.Errorf("adjust ratio of %q: %w", workspace, errs.ErrWorkspaceNotFound)
	}
	if !m.state.SetMasterRatio(workspace, view.MasterRatio+delta) {
		return errs.ErrWorkspaceNotFound
	}
	if workspace == m.state.FocusedWorkspace() {
		m.relayout(ctx, workspace)
	}
	return nil
}

// SetPaneProportions replaces a split workspace's pane shares, given as
// per-pane fractions summing to 1. Converted to the cumulative boundary
// form the layout engine consumes.
func (m *Manager) SetPaneProportions(ctx context.Context, workspace string, panes []float64) error {
	if !m.state.SetProportions(workspace, layout.CumulativeProportions(panes)) {
		return fmt.Errorf("set proportions of %q: %w", workspace, errs.ErrWorkspaceNotFound)
	}
	if workspace == m.state.FocusedWorkspace() {
		m.relayout(ctx, workspace)
	}
	return nil
}

// ScrollBy shifts the scrolling layout's strip and retiles.
func (m *Manager) ScrollBy(ctx context.Context, workspace string, delta float64) error {
	if _, ok := m.state.AdjustScrollOffset(workspace, delta); !ok {
		return fmt.Errorf("scroll %q: %w", workspace, errs.ErrWorkspaceNotFound)
	}
	if workspace == m.state.FocusedWorkspace() {
		m.relayout(ctx, workspace)
	}
	return nil
}

// NotifyWorkspaceChanged is the idempotent IPC notification handler: an
// external collaborator reports the visible workspace changed. Already
// being on that workspace is a no-op.
func (m *Manager) NotifyWorkspaceChanged(ctx context.Context, name string) error {
	if !m.state.Initialized() {
		return errs.ErrNotInitialized
	}
	return m.switchWorkspace(ctx, name, false)
}

// NotifyFocusChanged re-syncs the focus pointer from the window server.
// Idempotent: re-notification of the current focus changes nothing.
func (m *Manager) NotifyFocusChanged(ctx context.Context) error {
	if !m.state.Initialized() {
		return errs.ErrNotInitialized
	}
	info, err := m.backend.FocusedWindow(ctx)
	if err != nil {
		return fmt.Errorf("focus re-sync: %w", err)
	}
	if info == nil {
		return nil
	}
	if w := m.state.Window(types.WindowID(info.ID)); w != nil {
		m.state.SetFocusedWindow(w.Workspace, w.ID)
		m.syncBorders(ctx)
	}
	return nil
}
