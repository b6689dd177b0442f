package manager

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/stridewm/stride/internal/drag"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/observer"
	"github.com/stridewm/stride/internal/state"
	"github.com/stridewm/stride/internal/types"
)

// handleEvent dispatches one bridged notification. Events for the same
// window arrive in order; no ordering is assumed across windows.
func (m *Manager) handleEvent(ctx context.Context, ev observer.Event) {
	switch ev.Kind {
	case observer.WindowCreated:
		m.handleWindowCreated(ctx, ev)
	case observer.WindowDestroyed:
		m.handleWindowDestroyed(ctx, ev)
	case observer.WindowMoved:
		m.handleWindowMoved(ctx, ev)
	case observer.WindowResized:
		m.handleWindowResized(ctx, ev)
	case observer.WindowFocused:
		m.handleWindowFocused(ctx, ev)
	case observer.WindowTitleChanged:
		m.handleTitleChanged(ev)
	case observer.AppLaunched:
		m.handleAppLaunched(ctx, ev)
	case observer.AppTerminated:
		m.handleAppTerminated(ctx, ev)
	case observer.ScreenChanged:
		m.handleScreenChanged(ctx)
	case observer.MouseDown:
		m.handleMouseDown(ev)
	case observer.MouseUp:
		m.handleMouseUp(ctx, ev)
	}
}

// handleWindowCreated adopts a new window. The created notification often
// fires before the app has given the window real geometry, so adoption
// waits for a usable frame on an isolated goroutine; the event loop is
// never blocked on a slow window.
func (m *Manager) handleWindowCreated(ctx context.Context, ev observer.Event) {
	if m.state.Window(ev.WindowID) != nil {
		return
	}
	cfg := m.cfg.Load()
	if observer.ShouldSkip(ev.AppName, ev.BundleID) || cfg.IsIgnored(ev.AppName, ev.BundleID) {
		return
	}

	// A destroy followed by a create with the same geometry is a native
	// tab switch: the OS allocated a fresh id for the same visual slot.
	if m.claimTabSwap(ctx, ev) {
		return
	}

	go func() {
		info, err := m.backend.WaitForFrame(ctx, ev.WindowID, readinessInterval, readinessTimeout)
		if err != nil {
			logging.Debug().
				Uint32("windowId", uint32(ev.WindowID)).
				Str("app", ev.AppName).
				Err(err).
				Msg("window never became ready, skipping")
			return
		}
		m.post(func() { m.adoptWindow(ctx, ev, info.Frame) })
	}()
}

// claimTabSwap checks the pending-destroy slots for a frame match and, on
// a hit, substitutes the new id in place. Geometry is unchanged so no
// relayout happens; the cache stays invalidated by the id substitution.
func (m *Manager) claimTabSwap(ctx context.Context, ev observer.Event) bool {
	m.mu.Lock()
	var match *pendingDestroy
	for _, pd := range m.pending {
		if pd.pid == ev.PID && pd.frame.ApproxEqual(ev.Frame, tabSwapTolerance) {
			match = pd
			break
		}
	}
	if match != nil {
		match.timer.Stop()
		delete(m.pending, match.id)
	}
	m.mu.Unlock()

	if match == nil {
		return false
	}

	if !m.state.ReplaceWindowID(match.id, ev.WindowID) {
		return false
	}
	m.backend.Invalidate(match.id)
	logging.Debug().
		Uint32("stale", uint32(match.id)).
		Uint32("fresh", uint32(ev.WindowID)).
		Msg("tab swap detected, id substituted")
	m.syncBorders(ctx)
	return true
}

// adoptWindow tracks a ready window and relayouts its workspace. Runs on
// the event loop via the task queue.
func (m *Manager) adoptWindow(ctx context.Context, ev observer.Event, frame types.Rect) {
	if m.state.Window(ev.WindowID) != nil {
		return
	}
	cfg := m.cfg.Load()
	focused := m.state.FocusedWorkspace()

	target := focused
	floating := false
	if rule := cfg.RuleFor(ev.AppName, ev.BundleID, ev.Title); rule != nil {
		if rule.Workspace != "" && m.state.WorkspaceByName(rule.Workspace) != nil {
			target = rule.Workspace
		}
		floating = rule.Floating
	}

	visible := target == focused
	m.state.TrackWindow(&state.TrackedWindow{
		ID:        ev.WindowID,
		PID:       ev.PID,
		AppName:   ev.AppName,
		BundleID:  ev.BundleID,
		Title:     ev.Title,
		Frame:     frame,
		Visible:   visible,
		Floating:  floating,
		Workspace: target,
	})
	m.state.SetFocusedWindow(target, ev.WindowID)

	if !visible {
		if err := m.backend.SetVisible(ctx, []types.WindowID{ev.WindowID}, false); err != nil {
			logging.Warn().Uint32("windowId", uint32(ev.WindowID)).Err(err).Msg("hiding ruled window failed")
		}
		return
	}

	m.relayout(ctx, target)
}

// handleWindowDestroyed parks the window in a pending-destroy slot for the
// tab-settle window before untracking, so a same-frame create can claim it.
func (m *Manager) handleWindowDestroyed(ctx context.Context, ev observer.Event) {
	w := m.state.Window(ev.WindowID)
	if w == nil {
		return
	}

	pd := &pendingDestroy{id: ev.WindowID, pid: w.PID, frame: w.Frame}
	pd.timer = time.AfterFunc(tabSettleDelay, func() {
		m.post(func() { m.finalizeDestroy(ctx, ev.WindowID) })
	})

	m.mu.Lock()
	if prev, ok := m.pending[ev.WindowID]; ok {
		prev.timer.Stop()
	}
	m.pending[ev.WindowID] = pd
	m.mu.Unlock()
}

// finalizeDestroy untracks a window whose slot went unclaimed.
func (m *Manager) finalizeDestroy(ctx context.Context, id types.WindowID) {
	m.mu.Lock()
	if _, ok := m.pending[id]; !ok {
		// Claimed by a tab swap while the timer was in flight
		m.mu.Unlock()
		return
	}
	delete(m.pending, id)
	m.mu.Unlock()

	wasVisible, workspace, ok := m.state.UntrackWindow(id)
	if !ok {
		return
	}
	m.backend.Invalidate(id)
	m.backend.InvalidateWindows()

	if m.op.InProgress() && m.op.WindowID() == id {
		m.op.Cancel()
		m.setPhase(workspace, PhaseIdle)
	}

	if wasVisible {
		m.relayout(ctx, workspace)
	}
}

// handleWindowMoved applies the coalescer gate, then classifies the move.
// A displacement beyond the reposition threshold is a manual override: the
// tracked frame is updated and the window keeps its new geometry until the
// next full layout pass. Smaller displacements are jitter from our own
// positioning and are ignored.
func (m *Manager) handleWindowMoved(ctx context.Context, ev observer.Event) {
	m.handleGeometryEvent(ctx, ev, m.coal.ShouldProcessMove)
}

func (m *Manager) handleWindowResized(ctx context.Context, ev observer.Event) {
	m.handleGeometryEvent(ctx, ev, m.coal.ShouldProcessResize)
}

func (m *Manager) handleGeometryEvent(ctx context.Context, ev observer.Event, gate func(types.PID) bool) {
	if !m.state.Initialized() {
		return
	}
	w := m.state.Window(ev.WindowID)
	if w == nil {
		return
	}

	// The dragged window's geometry is authoritative during the drag
	if m.op.InProgress() && m.op.WindowID() == ev.WindowID {
		m.state.UpdateWindowFrame(ev.WindowID, ev.Frame)
		return
	}

	// Interpolation ticks echo back as move events; ignore them
	if m.phase(w.Workspace) == PhaseAnimating {
		return
	}

	if !gate(w.PID) {
		return
	}

	if w.Floating {
		m.state.UpdateWindowFrame(ev.WindowID, ev.Frame)
		return
	}

	if displacement(w.Frame, ev.Frame) >= RepositionThresholdPx {
		m.state.UpdateWindowFrame(ev.WindowID, ev.Frame)
	}
}

// displacement is the largest per-edge delta between two frames.
func displacement(a, b types.Rect) float64 {
	d := math.Abs(a.X - b.X)
	if v := math.Abs(a.Y - b.Y); v > d {
		d = v
	}
	if v := math.Abs(a.Width - b.Width); v > d {
		d = v
	}
	if v := math.Abs(a.Height - b.Height); v > d {
		d = v
	}
	return d
}

// handleWindowFocused moves the focus pointer and, when the window lives
// on a non-visible workspace, switches to it (focus follows workspace).
func (m *Manager) handleWindowFocused(ctx context.Context, ev observer.Event) {
	w := m.state.Window(ev.WindowID)
	if w == nil {
		return
	}
	m.state.SetFocusedWindow(w.Workspace, ev.WindowID)

	if w.Workspace != m.state.FocusedWorkspace() {
		if err := m.switchWorkspace(ctx, w.Workspace, false); err != nil {
			logging.Warn().Str("workspace", w.Workspace).Err(err).Msg("focus-follows-workspace switch failed")
		}
		return
	}
	m.syncBorders(ctx)
}

func (m *Manager) handleTitleChanged(ev observer.Event) {
	if ev.Title != "" {
		m.state.UpdateWindowTitle(ev.WindowID, ev.Title)
	}
}

// handleAppLaunched registers the observer for the new process. Window
// events follow once registration succeeds.
func (m *Manager) handleAppLaunched(ctx context.Context, ev observer.Event) {
	cfg := m.cfg.Load()
	if cfg.IsIgnored(ev.AppName, ev.BundleID) {
		return
	}
	if m.obs == nil {
		return
	}
	go func() {
		if err := m.obs.WatchApp(ctx, m.backend, ev.PID, ev.AppName, ev.BundleID); err != nil {
			logging.Debug().Int32("pid", int32(ev.PID)).Err(err).Msg("app watch failed")
		}
	}()
}

// handleAppTerminated untracks every window the process owned. Destroyed
// notifications for an exiting app are unreliable, so termination is the
// authoritative cleanup signal.
func (m *Manager) handleAppTerminated(ctx context.Context, ev observer.Event) {
	ids := m.state.WindowsForPID(ev.PID)
	if len(ids) == 0 {
		return
	}

	affected := make(map[string]bool)
	for _, id := range ids {
		wasVisible, workspace, ok := m.state.UntrackWindow(id)
		if !ok {
			continue
		}
		m.backend.Invalidate(id)
		if wasVisible {
			affected[workspace] = true
		}
	}
	m.coal.Forget(ev.PID)
	m.backend.InvalidateWindows()

	for workspace := range affected {
		m.relayout(ctx, workspace)
	}
}

// handleScreenChanged drops every geometry-derived cache and relayouts the
// visible workspace. Hidden workspaces pick up the new screens on switch.
func (m *Manager) handleScreenChanged(ctx context.Context) {
	m.backend.InvalidateScreens()
	m.backend.InvalidateWindows()
	m.state.InvalidateAllLayoutCaches()

	focused := m.state.FocusedWorkspace()
	if focused != "" {
		m.relayout(ctx, focused)
	}
}

// handleMouseDown begins a drag when the press lands on a tiled window of
// the visible workspace. The pre-drag frame snapshot resolves the drop
// target on release.
func (m *Manager) handleMouseDown(ev observer.Event) {
	focused := m.state.FocusedWorkspace()
	view, ok := m.state.LayoutView(focused)
	if !ok || m.phase(focused) == PhaseAnimating {
		return
	}

	var hit types.WindowID
	for _, id := range view.Windows {
		if view.Frames[id].Contains(ev.Location) {
			hit = id
			break
		}
	}
	if hit == 0 {
		return
	}

	frames := make(map[types.WindowID]types.Rect, len(view.Windows))
	for _, id := range view.Windows {
		frames[id] = view.Frames[id]
	}

	seq := m.op.Begin(drag.KindDrag, hit, view.Frames[hit].Center(), frames)
	m.mu.Lock()
	m.dragSeq = seq
	m.mu.Unlock()
	m.setPhase(focused, PhaseDragging)
}

// handleMouseUp always finalizes: the coalescer may have swallowed the
// burst's tail, so the release is the authoritative end of interaction.
func (m *Manager) handleMouseUp(ctx context.Context, ev observer.Event) {
	if !m.op.InProgress() {
		return
	}

	m.mu.Lock()
	seq := m.dragSeq
	m.mu.Unlock()

	dragged := m.op.WindowID()
	isDrag := m.op.IsDrag(ev.Location)
	target, hasTarget := m.op.DropTarget(ev.Location)

	if !m.op.End(seq) {
		// Superseded by a newer operation; this completion is a no-op
		return
	}

	w := m.state.Window(dragged)
	if w == nil {
		return
	}
	m.coal.InteractionEnded(w.PID)
	m.setPhase(w.Workspace, PhaseIdle)

	if isDrag && hasTarget {
		m.state.SwapWindows(w.Workspace, dragged, target)
	}
	// Relayout either applies the swap or snaps the window back
	m.relayout(ctx, w.Workspace)
}

// relayout runs a layout pass, logging rather than propagating failures;
// the event loop must keep consuming.
func (m *Manager) relayout(ctx context.Context, workspace string) {
	m.setPhase(workspace, PhaseLayoutPending)
	cfg := m.cfg.Load()
	if err := m.applyLayout(ctx, workspace, cfg.AnimationEnabled()); err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn().Str("workspace", workspace).Err(err).Msg("layout pass failed")
		m.setPhase(workspace, PhaseIdle)
	}
}
