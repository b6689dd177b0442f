// Package manager is the tiling orchestrator. It consumes the observer's
// typed event stream, mutates the state model, runs the layout engine
// through the per-workspace cache, and drives native positioning directly
// or through the animator. All event processing happens on one goroutine;
// slow work (readiness polling, animation) runs on isolated goroutines
// that re-enter the loop through the task queue.
package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stridewm/stride/internal/animation"
	"github.com/stridewm/stride/internal/borders"
	"github.com/stridewm/stride/internal/coalesce"
	"github.com/stridewm/stride/internal/config"
	"github.com/stridewm/stride/internal/drag"
	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/observer"
	"github.com/stridewm/stride/internal/state"
	"github.com/stridewm/stride/internal/types"
)

const (
	// RepositionThresholdPx is the displacement beyond which a window's
	// move is treated as a manual geometry override rather than jitter.
	RepositionThresholdPx = 30.0

	// New windows report a zero frame until the app finishes creating
	// them; the readiness poll waits for a usable frame before adoption.
	readinessInterval = 5 * time.Millisecond
	readinessTimeout  = 25 * time.Millisecond

	// tabSettleDelay holds a destroyed window's slot open briefly so a
	// created event with a matching frame can claim it as a tab swap.
	tabSettleDelay = 50 * time.Millisecond

	// tabSwapTolerance is the per-edge frame tolerance for tab-swap
	// identity matching.
	tabSwapTolerance = 2.0

	maintenanceInterval = 30 * time.Second
)

// Phase is one workspace's position in the event state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLayoutPending
	PhaseDragging
	PhaseAnimating
)

// Backend is the native-layer surface the manager drives. bridge.Bridge
// satisfies it; tests substitute a fake.
type Backend interface {
	CheckAccessibility(ctx context.Context) error
	Screens(ctx context.Context) ([]models.ScreenInfo, error)
	ScreenByName(ctx context.Context, name string) (*models.ScreenInfo, error)
	MainScreen(ctx context.Context) (*models.ScreenInfo, error)
	InvalidateScreens()
	Windows(ctx context.Context) ([]models.WindowInfo, error)
	InvalidateWindows()
	Apps(ctx context.Context) ([]models.AppInfo, error)
	SetFrame(ctx context.Context, id types.WindowID, frame types.Rect) error
	Focus(ctx context.Context, id types.WindowID) error
	SetVisible(ctx context.Context, ids []types.WindowID, visible bool) error
	FocusedWindow(ctx context.Context) (*models.WindowInfo, error)
	WaitForFrame(ctx context.Context, id types.WindowID, interval, timeout time.Duration) (*models.WindowInfo, error)
	WatchApp(ctx context.Context, pid types.PID) error
	WarpMouse(ctx context.Context, id types.WindowID) error
	Invalidate(id types.WindowID)
	EvictExpired()
}

// pendingDestroy holds a destroyed window's slot during the tab-settle
// window so an identity swap can be detected.
type pendingDestroy struct {
	id    types.WindowID
	pid   types.PID
	frame types.Rect
	timer *time.Timer
}

// Manager wires the event stream to the state model and the native layer.
type Manager struct {
	backend Backend
	state   *state.TilingState
	obs     *observer.Observer
	coal    *coalesce.Coalescer
	op      *drag.Operation
	borders *borders.Client

	cfg atomic.Pointer[config.Config]

	// tasks re-enters async completions into the event loop.
	tasks chan func()

	mu        sync.Mutex
	phases    map[string]Phase
	animators map[string]*animation.Animator
	pending   map[types.WindowID]*pendingDestroy
	// dragSeq is the sequence the current mouse interaction must present
	// on completion.
	dragSeq uint64
}

// Options carries the manager's collaborators. Borders and Observer may be
// nil (decoration disabled, events injected directly in tests).
type Options struct {
	Backend  Backend
	State    *state.TilingState
	Observer *observer.Observer
	Borders  *borders.Client
	Config   *config.Config
}

// New assembles a manager from its collaborators.
func New(opts Options) *Manager {
	cfg := opts.Config
	if cfg == nil {
		cfg, _ = config.LoadConfigFromBytes([]byte("{}"), "json")
	}
	st := opts.State
	if st == nil {
		st = state.New()
	}

	m := &Manager{
		backend:   opts.Backend,
		state:     st,
		obs:       opts.Observer,
		coal:      coalesce.New(time.Duration(cfg.CoalesceMs) * time.Millisecond),
		op:        drag.New(),
		borders:   opts.Borders,
		tasks:     make(chan func(), 64),
		phases:    make(map[string]Phase),
		animators: make(map[string]*animation.Animator),
		pending:   make(map[types.WindowID]*pendingDestroy),
	}
	m.cfg.Store(cfg)
	return m
}

// Config returns the active configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg.Load()
}

// State exposes the model for IPC queries.
func (m *Manager) State() *state.TilingState {
	return m.state
}

// Init verifies accessibility, builds the workspace set, restores persisted
// layout settings, and adopts the windows already on screen. Accessibility
// failure is fatal: nothing works without the permission.
func (m *Manager) Init(ctx context.Context) error {
	if err := m.backend.CheckAccessibility(ctx); err != nil {
		return fmt.Errorf("accessibility check: %w", err)
	}

	cfg := m.cfg.Load()
	for _, wc := range cfg.Workspaces {
		m.state.AddWorkspace(wc.Name, cfg.LayoutForWorkspace(wc.Name))
		m.state.SetMasterRatio(wc.Name, cfg.Master.Ratio)
		m.state.SetMaxMasters(wc.Name, cfg.Master.MaxMasters)
		if wc.Screen != "" {
			m.state.AssignScreen(wc.Name, wc.Screen)
		}
	}

	snap, err := state.LoadSnapshot()
	if err != nil {
		logging.Warn().Err(err).Msg("state snapshot unreadable, starting fresh")
	} else {
		m.state.Apply(snap)
	}

	focused := ""
	if snap != nil && snap.FocusedWorkspace != "" {
		if m.state.WorkspaceByName(snap.FocusedWorkspace) != nil {
			focused = snap.FocusedWorkspace
		}
	}
	if focused == "" {
		names := m.state.WorkspaceNames()
		if len(names) == 0 {
			return errs.ErrWorkspaceNotFound
		}
		focused = names[0]
	}
	m.state.SetFocusedWorkspace(focused)

	if err := m.adoptExisting(ctx); err != nil {
		return err
	}
	m.watchRunningApps(ctx)

	if m.borders != nil {
		m.borders.ApplySettings(ctx, borders.Settings{
			ActiveColor:   cfg.Borders.ActiveColor,
			InactiveColor: cfg.Borders.InactiveColor,
			Width:         cfg.Borders.Width,
		})
	}

	// First layout is applied directly; animating startup placement from
	// arbitrary frames looks like a window explosion.
	if err := m.applyLayout(ctx, focused, false); err != nil {
		logging.Warn().Str("workspace", focused).Err(err).Msg("initial layout failed")
	}

	m.state.MarkInitialized()
	logging.Info().
		Str("workspace", focused).
		Int("windows", m.state.WindowCount()).
		Msg("manager initialized")
	return nil
}

// adoptExisting tracks the windows already on screen, assigning each
// through the rule table. Windows landing outside the focused workspace
// are hidden so every workspace starts consistent.
func (m *Manager) adoptExisting(ctx context.Context) error {
	windows, err := m.backend.Windows(ctx)
	if err != nil {
		return fmt.Errorf("initial enumeration: %w", err)
	}

	cfg := m.cfg.Load()
	focused := m.state.FocusedWorkspace()
	var hide []types.WindowID

	for _, w := range windows {
		if w.IsMinimized {
			continue
		}
		if observer.ShouldSkip(w.AppName, w.BundleID) || cfg.IsIgnored(w.AppName, w.BundleID) {
			continue
		}

		target := focused
		floating := false
		if rule := cfg.RuleFor(w.AppName, w.BundleID, w.Title); rule != nil {
			if rule.Workspace != "" && m.state.WorkspaceByName(rule.Workspace) != nil {
				target = rule.Workspace
			}
			floating = rule.Floating
		}

		visible := target == focused
		m.state.TrackWindow(&state.TrackedWindow{
			ID:        types.WindowID(w.ID),
			PID:       types.PID(w.PID),
			AppName:   w.AppName,
			BundleID:  w.BundleID,
			Title:     w.Title,
			Frame:     w.Frame,
			Visible:   visible,
			Floating:  floating,
			Workspace: target,
		})
		if !visible {
			hide = append(hide, types.WindowID(w.ID))
		}
		if w.IsFocused {
			m.state.SetFocusedWindow(target, types.WindowID(w.ID))
		}
	}

	if len(hide) > 0 {
		if err := m.backend.SetVisible(ctx, hide, false); err != nil {
			logging.Warn().Err(err).Msg("hiding off-workspace windows failed")
		}
	}
	return nil
}

// watchRunningApps registers observer notifications for every running app.
// Failures are per-app and non-fatal.
func (m *Manager) watchRunningApps(ctx context.Context) {
	apps, err := m.backend.Apps(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("app enumeration failed, relying on launch events")
		return
	}
	cfg := m.cfg.Load()
	for _, app := range apps {
		if cfg.IsIgnored(app.Name, app.BundleID) {
			continue
		}
		if m.obs != nil {
			m.obs.WatchApp(ctx, m.backend, types.PID(app.PID), app.Name, app.BundleID)
		}
	}
}

// Serve runs the event loop until the context is cancelled. Implements
// suture.Service.
func (m *Manager) Serve(ctx context.Context) error {
	var events <-chan observer.Event
	if m.obs != nil {
		events = m.obs.Events()
	}

	maintenance := time.NewTicker(maintenanceInterval)
	defer maintenance.Stop()

	for {
		select {
		case <-ctx.Done():
			m.saveSnapshot()
			return ctx.Err()
		case ev := <-events:
			m.handleEvent(ctx, ev)
		case task := <-m.tasks:
			task()
		case <-maintenance.C:
			m.backend.EvictExpired()
			m.saveSnapshot()
		}
	}
}

// post queues work onto the event loop. Dropping under sustained overload
// is acceptable for the same reason the observer drops: authoritative
// state is re-derived on the next relayout.
func (m *Manager) post(task func()) {
	select {
	case m.tasks <- task:
	default:
		logging.Warn().Msg("task queue full, dropping")
	}
}

func (m *Manager) saveSnapshot() {
	if err := m.state.Snapshot().Save(); err != nil {
		logging.Warn().Err(err).Msg("state snapshot save failed")
	}
}

// OnConfigChange swaps the active configuration. Layout-affecting settings
// take effect on the next layout pass; caches are dropped wholesale since
// gap or ratio defaults may have moved.
func (m *Manager) OnConfigChange(ctx context.Context, cfg *config.Config) {
	m.cfg.Store(cfg)
	m.state.InvalidateAllLayoutCaches()

	// Animators bake in duration and easing at creation, so new animation
	// settings only apply if the cached ones are rebuilt
	m.mu.Lock()
	for workspace, a := range m.animators {
		a.Supersede()
		delete(m.animators, workspace)
	}
	m.mu.Unlock()

	if m.borders != nil {
		m.borders.ApplySettings(ctx, borders.Settings{
			ActiveColor:   cfg.Borders.ActiveColor,
			InactiveColor: cfg.Borders.InactiveColor,
			Width:         cfg.Borders.Width,
		})
	}

	focused := m.state.FocusedWorkspace()
	if focused != "" {
		if err := m.applyLayout(ctx, focused, cfg.AnimationEnabled()); err != nil {
			logging.Warn().Str("workspace", focused).Err(err).Msg("relayout after config change failed")
		}
	}
	logging.Info().Msg("configuration reloaded")
}

func (m *Manager) phase(workspace string) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phases[workspace]
}

func (m *Manager) setPhase(workspace string, p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == PhaseIdle {
		delete(m.phases, workspace)
		return
	}
	m.phases[workspace] = p
}

// animator returns the per-workspace animator, creating it from the active
// animation settings on first use. Per-workspace animators keep a relayout
// on one workspace from superseding an animation on another.
func (m *Manager) animator(workspace string) *animation.Animator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.animators[workspace]; ok {
		return a
	}
	cfg := m.cfg.Load()
	a := animation.New(
		m.backend,
		time.Duration(cfg.Animation.DurationMs)*time.Millisecond,
		animation.ByName(cfg.Animation.Easing, cfg.Animation.Stiffness, cfg.Animation.Damping),
	)
	m.animators[workspace] = a
	return a
}
