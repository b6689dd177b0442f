// Package bridge is the native window handle layer. It wraps the
// window-server RPC client with TTL-bounded caches so the event path can
// resolve windows and enumerate screens without a round-trip per query,
// and owns the lifetime of every resolved accessibility reference.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// serverAPI is the typed RPC surface the bridge consumes. Client satisfies
// it; tests substitute a fake server.
type serverAPI interface {
	CheckAccessibility(ctx context.Context) error
	ListWindows(ctx context.Context) ([]models.WindowInfo, error)
	ListScreens(ctx context.Context) ([]models.ScreenInfo, error)
	ListApps(ctx context.Context) ([]models.AppInfo, error)
	ResolveWindows(ctx context.Context, ids []types.WindowID) ([]models.WindowInfo, error)
	ReleaseWindows(ctx context.Context, ids []types.WindowID) error
	SetWindowFrame(ctx context.Context, id types.WindowID, frame types.Rect) error
	FocusWindow(ctx context.Context, id types.WindowID) error
	SetWindowsVisible(ctx context.Context, ids []types.WindowID, visible bool) error
	FocusedWindow(ctx context.Context) (*models.WindowInfo, error)
	WatchApp(ctx context.Context, pid types.PID) error
	WarpMouse(ctx context.Context, id types.WindowID) error
}

// Bridge provides cached, reference-counted access to the window server.
type Bridge struct {
	server  serverAPI
	handles *handleCache
	screens *snapshotCache[models.ScreenInfo]
	windows *snapshotCache[models.WindowInfo]
}

// New creates a bridge over a connected client.
func New(client *Client) *Bridge {
	return newBridge(client)
}

func newBridge(server serverAPI) *Bridge {
	return &Bridge{
		server:  server,
		handles: newHandleCache(HandleTTL),
		screens: newSnapshotCache[models.ScreenInfo](ScreenTTL),
		windows: newSnapshotCache[models.WindowInfo](WindowListTTL),
	}
}

// CheckAccessibility verifies the accessibility permission. Called once at
// manager initialization; failure there is fatal.
func (b *Bridge) CheckAccessibility(ctx context.Context) error {
	return b.server.CheckAccessibility(ctx)
}

// Resolve returns a handle for one window, from cache when fresh.
func (b *Bridge) Resolve(ctx context.Context, id types.WindowID) (*Handle, error) {
	handles, err := b.ResolveBatch(ctx, []types.WindowID{id})
	if err != nil {
		return nil, err
	}
	h, ok := handles[id]
	if !ok {
		return nil, fmt.Errorf("resolve window %d: %w", id, errs.ErrWindowNotFound)
	}
	return h, nil
}

// ResolveBatch resolves a set of windows, querying the server once for the
// cache misses only. Windows the server no longer knows are absent from the
// result rather than an error; callers untrack them.
func (b *Bridge) ResolveBatch(ctx context.Context, ids []types.WindowID) (map[types.WindowID]*Handle, error) {
	hits, missing := b.handles.misses(ids)
	if len(missing) == 0 {
		return hits, nil
	}

	infos, err := b.server.ResolveWindows(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("batch resolve of %d windows: %w", len(missing), err)
	}

	for _, info := range infos {
		h := &Handle{
			WindowID:   types.WindowID(info.ID),
			Info:       info,
			resolvedAt: b.handles.now(),
			releaseFn:  b.releaseOnServer,
		}
		b.handles.put(h)
		hits[h.WindowID] = h
	}

	if len(infos) < len(missing) {
		logging.Debug().
			Int("requested", len(missing)).
			Int("resolved", len(infos)).
			Msg("some windows no longer resolvable")
	}

	return hits, nil
}

// Invalidate evicts and releases one window's handle. Called on untrack.
func (b *Bridge) Invalidate(id types.WindowID) {
	b.handles.invalidate(id)
}

// EvictExpired releases handles past their TTL. Driven from the manager's
// periodic maintenance tick.
func (b *Bridge) EvictExpired() {
	b.handles.evictExpired()
}

// releaseOnServer is the Handle release hook. Uses a detached short context
// because release runs from eviction paths with no caller context.
func (b *Bridge) releaseOnServer(id types.WindowID) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	if err := b.server.ReleaseWindows(ctx, []types.WindowID{id}); err != nil {
		logging.Debug().Uint32("windowId", uint32(id)).Err(err).Msg("release failed")
	}
}

// Screens enumerates displays, cached for ScreenTTL.
func (b *Bridge) Screens(ctx context.Context) ([]models.ScreenInfo, error) {
	if cached, ok := b.screens.get(); ok {
		return cached, nil
	}

	screens, err := b.server.ListScreens(ctx)
	if err != nil {
		return nil, fmt.Errorf("screen enumeration: %w", err)
	}
	b.screens.set(screens)
	return screens, nil
}

// ScreenByName finds a screen in the cached enumeration.
func (b *Bridge) ScreenByName(ctx context.Context, name string) (*models.ScreenInfo, error) {
	screens, err := b.Screens(ctx)
	if err != nil {
		return nil, err
	}
	for i := range screens {
		if screens[i].Name == name {
			return &screens[i], nil
		}
	}
	return nil, fmt.Errorf("screen %q: %w", name, errs.ErrScreenNotFound)
}

// MainScreen returns the primary display.
func (b *Bridge) MainScreen(ctx context.Context) (*models.ScreenInfo, error) {
	screens, err := b.Screens(ctx)
	if err != nil {
		return nil, err
	}
	for i := range screens {
		if screens[i].IsMain {
			return &screens[i], nil
		}
	}
	if len(screens) > 0 {
		return &screens[0], nil
	}
	return nil, errs.ErrScreenNotFound
}

// InvalidateScreens drops the screen cache. Called on screen-reconfiguration.
func (b *Bridge) InvalidateScreens() {
	b.screens.invalidate()
}

// Windows enumerates on-screen windows, cached for WindowListTTL.
func (b *Bridge) Windows(ctx context.Context) ([]models.WindowInfo, error) {
	if cached, ok := b.windows.get(); ok {
		return cached, nil
	}

	windows, err := b.server.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("window enumeration: %w", err)
	}
	b.windows.set(windows)
	return windows, nil
}

// InvalidateWindows drops the window-list cache.
func (b *Bridge) InvalidateWindows() {
	b.windows.invalidate()
}

// Apps enumerates running applications. Uncached; only queried at startup
// and on app-launch events.
func (b *Bridge) Apps(ctx context.Context) ([]models.AppInfo, error) {
	return b.server.ListApps(ctx)
}

// SetFrame writes a window's geometry. Failures are window-scoped.
func (b *Bridge) SetFrame(ctx context.Context, id types.WindowID, frame types.Rect) error {
	if err := b.server.SetWindowFrame(ctx, id, frame); err != nil {
		return &errs.WindowOperationError{WindowID: uint32(id), Reason: "set frame", Err: err}
	}
	return nil
}

// Focus raises and focuses a window.
func (b *Bridge) Focus(ctx context.Context, id types.WindowID) error {
	if err := b.server.FocusWindow(ctx, id); err != nil {
		return &errs.WindowOperationError{WindowID: uint32(id), Reason: "focus", Err: err}
	}
	return nil
}

// SetVisible hides or shows a batch of windows in one request.
func (b *Bridge) SetVisible(ctx context.Context, ids []types.WindowID, visible bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := b.server.SetWindowsVisible(ctx, ids, visible); err != nil {
		return fmt.Errorf("set visibility for %d windows: %w", len(ids), err)
	}
	return nil
}

// FocusedWindow returns the currently focused window, nil if none.
func (b *Bridge) FocusedWindow(ctx context.Context) (*models.WindowInfo, error) {
	return b.server.FocusedWindow(ctx)
}

// WatchApp registers observer notifications for one process.
func (b *Bridge) WatchApp(ctx context.Context, pid types.PID) error {
	return b.server.WatchApp(ctx, pid)
}

// WarpMouse moves the cursor to a window's center.
func (b *Bridge) WarpMouse(ctx context.Context, id types.WindowID) error {
	return b.server.WarpMouse(ctx, id)
}

// WaitForFrame polls until a new window reports a usable frame or the
// budget expires. Runs on an isolated goroutine so a slow-to-initialize
// window never stalls event processing; the caller proceeds without the
// window on timeout. The reference resolved by the successful poll is
// kept in the handle cache, which owns releasing it.
func (b *Bridge) WaitForFrame(ctx context.Context, id types.WindowID, interval, timeout time.Duration) (*models.WindowInfo, error) {
	deadline := time.Now().Add(timeout)
	for {
		infos, err := b.server.ResolveWindows(ctx, []types.WindowID{id})
		if err == nil && len(infos) == 1 {
			if f := infos[0].Frame; f.Width > 1 && f.Height > 1 {
				info := infos[0]
				b.handles.put(&Handle{
					WindowID:   id,
					Info:       info,
					resolvedAt: b.handles.now(),
					releaseFn:  b.releaseOnServer,
				})
				return &info, nil
			}
			// Transient reference; not kept, so release immediately
			b.server.ReleaseWindows(ctx, []types.WindowID{id})
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("window %d frame not ready after %v: %w", id, timeout, errs.ErrWindowNotFound)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
