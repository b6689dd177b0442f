package manager

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stridewm/stride/internal/animation"
	"github.com/stridewm/stride/internal/borders"
	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/layout"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/state"
	"github.com/stridewm/stride/internal/types"
)

// screenFor resolves a workspace's display: its assigned screen when that
// screen is still connected, the main display otherwise.
func (m *Manager) screenFor(ctx context.Context, assigned string) (*models.ScreenInfo, error) {
	if assigned != "" {
		if screen, err := m.backend.ScreenByName(ctx, assigned); err == nil {
			return screen, nil
		}
	}
	return m.backend.MainScreen(ctx)
}

// applyLayout is the layout-pending transition: compute target geometry
// through the cache, then position windows directly or through the
// animator. An empty workspace short-circuits to idle with no animation
// phase. Per-window positioning failures untrack the window and retile;
// they never abort the pass.
func (m *Manager) applyLayout(ctx context.Context, workspace string, animate bool) error {
	view, ok := m.state.LayoutView(workspace)
	if !ok {
		return fmt.Errorf("layout for %q: %w", workspace, errs.ErrWorkspaceNotFound)
	}

	screen, err := m.screenFor(ctx, view.Screen)
	if err != nil {
		return fmt.Errorf("layout for %q: %w", workspace, err)
	}

	cfg := m.cfg.Load()
	gaps := cfg.GapsForScreen(screen.Name)
	usable := gaps.ApplyOuter(screen.UsableFrame)

	if len(view.Windows) == 0 {
		m.setPhase(workspace, PhaseIdle)
		m.syncBorders(ctx)
		return nil
	}

	fingerprint, err := view.Fingerprint(usable, gaps)
	if err != nil {
		return fmt.Errorf("layout fingerprint for %q: %w", workspace, err)
	}

	placements, hit := m.state.CachedLayout(workspace, fingerprint)
	if !hit {
		placements = layout.Compute(layout.Params{
			Windows:       view.Windows,
			Usable:        usable,
			Mode:          view.Mode,
			MasterRatio:   view.MasterRatio,
			MaxMasters:    view.MaxMasters,
			Proportions:   view.Proportions,
			Inner:         gaps.Inner,
			CurrentFrames: view.Frames,
			Scroll: layout.ScrollParams{
				Offset:      view.ScrollOffset,
				WindowWidth: cfg.Scrolling.WindowWidth,
			},
		})
		m.state.UpdateLayoutCache(workspace, fingerprint, placements)
	}

	m.applyVisibility(ctx, view, placements)

	moves := make([]animation.Move, 0, len(placements))
	for _, pl := range placements {
		if pl.Bounds.Width <= 0 || pl.Bounds.Height <= 0 {
			continue
		}
		from := view.Frames[pl.WindowID]
		if from.ApproxEqual(pl.Bounds, animation.ConvergenceEpsilon) {
			continue
		}
		moves = append(moves, animation.Move{WindowID: pl.WindowID, From: from, To: pl.Bounds})
	}

	if len(moves) == 0 {
		m.setPhase(workspace, PhaseIdle)
		m.syncBorders(ctx)
		return nil
	}

	if animate && cfg.AnimationEnabled() {
		m.setPhase(workspace, PhaseAnimating)
		anim := m.animator(workspace)
		go func() {
			failed, err := anim.Animate(ctx, moves)
			m.post(func() { m.finishLayout(ctx, workspace, moves, failed, err) })
		}()
		return nil
	}

	failed := m.positionDirect(ctx, moves)
	m.finishLayout(ctx, workspace, moves, failed, nil)
	return nil
}

// finishLayout commits a positioning pass: surviving windows get their
// target recorded as the tracked frame, failed ones are untracked and the
// workspace retiled without them. A superseded animation commits nothing;
// the newer pass owns the workspace now.
func (m *Manager) finishLayout(ctx context.Context, workspace string, moves []animation.Move, failed []types.WindowID, err error) {
	if errors.Is(err, errs.ErrAnimationCancelled) {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn().Str("workspace", workspace).Err(err).Msg("animation failed")
	}

	failedSet := make(map[types.WindowID]bool, len(failed))
	for _, id := range failed {
		failedSet[id] = true
	}
	for _, mv := range moves {
		if !failedSet[mv.WindowID] {
			m.state.UpdateWindowFrame(mv.WindowID, mv.To)
		}
	}
	m.setPhase(workspace, PhaseIdle)
	m.syncBorders(ctx)

	if len(failed) == 0 {
		return
	}
	for _, id := range failed {
		logging.Warn().Uint32("windowId", uint32(id)).Msg("untracking window after positioning failure")
		m.state.UntrackWindow(id)
		m.backend.Invalidate(id)
	}
	m.relayout(ctx, workspace)
}

// positionDirect writes target frames in one parallel batch. Positioning
// has no cross-window data dependency.
func (m *Manager) positionDirect(ctx context.Context, moves []animation.Move) []types.WindowID {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	var failed []types.WindowID
	for _, mv := range moves {
		mv := mv
		g.Go(func() error {
			if err := m.backend.SetFrame(gctx, mv.WindowID, mv.To); err != nil {
				logging.Warn().Uint32("windowId", uint32(mv.WindowID)).Err(err).Msg("positioning failed")
				mu.Lock()
				failed = append(failed, mv.WindowID)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return failed
}

// applyVisibility reconciles per-window visibility with the computed
// layout: panes the scrolling strip pushed off the viewport collapse to
// zero area and are hidden, everything else on the visible workspace is
// shown. Batched per direction.
func (m *Manager) applyVisibility(ctx context.Context, view state.LayoutView, placements []types.WindowPlacement) {
	var hide, show []types.WindowID
	for _, pl := range placements {
		offStrip := pl.Bounds.Width <= 0 || pl.Bounds.Height <= 0
		if offStrip && view.Visible[pl.WindowID] {
			hide = append(hide, pl.WindowID)
		} else if !offStrip && !view.Visible[pl.WindowID] {
			show = append(show, pl.WindowID)
		}
	}

	if len(hide) > 0 {
		if err := m.backend.SetVisible(ctx, hide, false); err != nil {
			logging.Warn().Err(err).Msg("hiding off-strip windows failed")
		} else {
			for _, id := range hide {
				m.state.SetWindowVisible(id, false)
			}
		}
	}
	if len(show) > 0 {
		if err := m.backend.SetVisible(ctx, show, true); err != nil {
			logging.Warn().Err(err).Msg("showing windows failed")
		} else {
			for _, id := range show {
				m.state.SetWindowVisible(id, true)
			}
		}
	}
}

// syncBorders pushes the visible workspace's decoration state in one
// batched command per relayout.
func (m *Manager) syncBorders(ctx context.Context) {
	if m.borders == nil {
		return
	}
	cfg := m.cfg.Load()
	if cfg.Borders.Width <= 0 {
		return
	}

	view, ok := m.state.LayoutView(m.state.FocusedWorkspace())
	if !ok {
		return
	}

	styles := make([]borders.WindowStyle, 0, len(view.Windows)+len(view.Floating))
	for _, id := range append(append([]types.WindowID(nil), view.Windows...), view.Floating...) {
		if !view.Visible[id] {
			continue
		}
		styles = append(styles, borders.WindowStyle{
			WindowID: id,
			Focused:  id == view.Focused,
			Frame:    view.Frames[id],
		})
	}
	m.borders.UpdateWindows(ctx, styles)
}

// switchWorkspace makes a workspace visible: the outgoing workspace's
// windows are hidden, the incoming ones shown and retiled. Hide/show is
// used rather than off-screen parking so screen changes never strand
// windows. Switching to the current workspace is a no-op beyond focus.
func (m *Manager) switchWorkspace(ctx context.Context, name string, focusWindow bool) error {
	target := m.state.WorkspaceByName(name)
	if target == nil {
		return fmt.Errorf("switch to %q: %w", name, errs.ErrWorkspaceNotFound)
	}

	current := m.state.FocusedWorkspace()
	if current == name {
		if focusWindow {
			m.focusWorkspaceWindow(ctx, name)
		}
		return nil
	}

	if outgoing, ok := m.state.LayoutView(current); ok {
		var hide []types.WindowID
		for _, id := range append(append([]types.WindowID(nil), outgoing.Windows...), outgoing.Floating...) {
			if outgoing.Visible[id] {
				hide = append(hide, id)
			}
		}
		if len(hide) > 0 {
			if err := m.backend.SetVisible(ctx, hide, false); err != nil {
				logging.Warn().Str("workspace", current).Err(err).Msg("hiding outgoing workspace failed")
			}
			for _, id := range hide {
				m.state.SetWindowVisible(id, false)
			}
		}
	}

	m.state.SetFocusedWorkspace(name)

	incoming, _ := m.state.LayoutView(name)
	var show []types.WindowID
	for _, id := range append(append([]types.WindowID(nil), incoming.Windows...), incoming.Floating...) {
		show = append(show, id)
	}
	if len(show) > 0 {
		if err := m.backend.SetVisible(ctx, show, true); err != nil {
			logging.Warn().Str("workspace", name).Err(err).Msg("showing incoming workspace failed")
		}
		for _, id := range show {
			m.state.SetWindowVisible(id, true)
		}
	}

	m.relayout(ctx, name)
	if focusWindow {
		m.focusWorkspaceWindow(ctx, name)
	}

	logging.Info().Str("from", current).Str("to", name).Msg("workspace switched")
	return nil
}

// focusWorkspaceWindow raises the workspace's focused window, falling back
// to the first window when the pointer is unset.
func (m *Manager) focusWorkspaceWindow(ctx context.Context, name string) {
	view, ok := m.state.LayoutView(name)
	if !ok {
		return
	}
	id := view.Focused
	if id == 0 && len(view.Windows) > 0 {
		id = view.Windows[0]
	}
	if id == 0 {
		return
	}
	if err := m.backend.Focus(ctx, id); err != nil {
		logging.Debug().Uint32("windowId", uint32(id)).Err(err).Msg("focus failed")
		return
	}
	m.state.SetFocusedWindow(name, id)
}

// SwitchWorkspace is the IPC entry point for workspace switching.
func (m *Manager) SwitchWorkspace(ctx context.Context, name string) error {
	return m.switchWorkspace(ctx, name, true)
}

// MoveFocusedWindow reassigns the visible workspace's focused window to
// another workspace. The window is hidden with its new workspace unless
// that workspace is the visible one.
func (m *Manager) MoveFocusedWindow(ctx context.Context, to string) error {
	focused := m.state.FocusedWorkspace()
	view, ok := m.state.LayoutView(focused)
	if !ok {
		return errs.ErrWorkspaceNotFound
	}
	if view.Focused == 0 {
		return errs.ErrWindowNotFound
	}
	return m.MoveWindow(ctx, view.Focused, to)
}

// MoveWindow reassigns one window to a workspace and retiles both sides.
func (m *Manager) MoveWindow(ctx context.Context, id types.WindowID, to string) error {
	w := m.state.Window(id)
	if w == nil {
		return fmt.Errorf("move window %d: %w", id, errs.ErrWindowNotFound)
	}
	from := w.Workspace
	if !m.state.MoveWindowBetweenWorkspaces(id, to) {
		return fmt.Errorf("move window %d to %q: %w", id, to, errs.ErrWorkspaceNotFound)
	}
	if from == to {
		return nil
	}

	visible := to == m.state.FocusedWorkspace()
	if err := m.backend.SetVisible(ctx, []types.WindowID{id}, visible); err != nil {
		logging.Warn().Uint32("windowId", uint32(id)).Err(err).Msg("visibility update on move failed")
	}
	m.state.SetWindowVisible(id, visible)

	if from == m.state.FocusedWorkspace() {
		m.relayout(ctx, from)
	}
	if visible {
		m.relayout(ctx, to)
	}
	return nil
}
