package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// fakeServer records calls and serves canned windows/screens.
type fakeServer struct {
	mu            sync.Mutex
	windows       map[types.WindowID]models.WindowInfo
	screens       []models.ScreenInfo
	resolveCalls  int
	resolvedIDs   [][]types.WindowID
	releasedIDs   []types.WindowID
	listWinCalls  int
	listScrCalls  int
	setFrameCalls int
}

func newFakeServer() *fakeServer {
	return &fakeServer{windows: make(map[types.WindowID]models.WindowInfo)}
}

func (f *fakeServer) addWindow(id types.WindowID, frame types.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[id] = models.WindowInfo{ID: uint32(id), PID: 100, Frame: frame}
}

func (f *fakeServer) CheckAccessibility(ctx context.Context) error { return nil }

func (f *fakeServer) ListWindows(ctx context.Context) ([]models.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listWinCalls++
	out := make([]models.WindowInfo, 0, len(f.windows))
	for _, w := range f.windows {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeServer) ListScreens(ctx context.Context) ([]models.ScreenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listScrCalls++
	return f.screens, nil
}

func (f *fakeServer) ListApps(ctx context.Context) ([]models.AppInfo, error) { return nil, nil }

func (f *fakeServer) ResolveWindows(ctx context.Context, ids []types.WindowID) ([]models.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	f.resolvedIDs = append(f.resolvedIDs, ids)
	var out []models.WindowInfo
	for _, id := range ids {
		if w, ok := f.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeServer) ReleaseWindows(ctx context.Context, ids []types.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releasedIDs = append(f.releasedIDs, ids...)
	return nil
}

func (f *fakeServer) SetWindowFrame(ctx context.Context, id types.WindowID, frame types.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setFrameCalls++
	if w, ok := f.windows[id]; ok {
		w.Frame = frame
		f.windows[id] = w
	}
	return nil
}

func (f *fakeServer) FocusWindow(ctx context.Context, id types.WindowID) error { return nil }

func (f *fakeServer) WatchApp(ctx context.Context, pid types.PID) error { return nil }

func (f *fakeServer) WarpMouse(ctx context.Context, id types.WindowID) error { return nil }

func (f *fakeServer) SetWindowsVisible(ctx context.Context, ids []types.WindowID, visible bool) error {
	return nil
}

func (f *fakeServer) FocusedWindow(ctx context.Context) (*models.WindowInfo, error) {
	return nil, nil
}

func (f *fakeServer) releaseCount(id types.WindowID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.releasedIDs {
		if r == id {
			n++
		}
	}
	return n
}

func TestResolveUsesCache(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(1, types.Rect{Width: 800, Height: 600})
	b := newBridge(srv)
	ctx := context.Background()

	if _, err := b.Resolve(ctx, 1); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if _, err := b.Resolve(ctx, 1); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if srv.resolveCalls != 1 {
		t.Errorf("resolve calls = %d, want 1 (second should hit cache)", srv.resolveCalls)
	}
}

func TestResolveBatchQueriesMissesOnly(t *testing.T) {
	srv := newFakeServer()
	for id := types.WindowID(1); id <= 4; id++ {
		srv.addWindow(id, types.Rect{Width: 800, Height: 600})
	}
	b := newBridge(srv)
	ctx := context.Background()

	if _, err := b.Resolve(ctx, 1); err != nil {
		t.Fatalf("warm-up resolve failed: %v", err)
	}

	handles, err := b.ResolveBatch(ctx, []types.WindowID{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("batch resolve failed: %v", err)
	}
	if len(handles) != 4 {
		t.Fatalf("resolved %d handles, want 4", len(handles))
	}

	// Second server call should have asked for the three misses only
	last := srv.resolvedIDs[len(srv.resolvedIDs)-1]
	if len(last) != 3 {
		t.Errorf("batch queried %d ids, want 3 (window 1 was cached)", len(last))
	}
	for _, id := range last {
		if id == 1 {
			t.Error("batch should not re-query the cached window")
		}
	}
}

func TestHandleTTLExpiry(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(1, types.Rect{Width: 800, Height: 600})
	b := newBridge(srv)
	ctx := context.Background()

	now := time.Now()
	b.handles.now = func() time.Time { return now }

	if _, err := b.Resolve(ctx, 1); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	// Advance past the TTL; the next resolve must hit the server again
	now = now.Add(HandleTTL + time.Millisecond)
	if _, err := b.Resolve(ctx, 1); err != nil {
		t.Fatalf("post-expiry resolve failed: %v", err)
	}
	if srv.resolveCalls != 2 {
		t.Errorf("resolve calls = %d, want 2 after TTL expiry", srv.resolveCalls)
	}
}

func TestInvalidateReleasesExactlyOnce(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(7, types.Rect{Width: 800, Height: 600})
	b := newBridge(srv)
	ctx := context.Background()

	h, err := b.Resolve(ctx, 7)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	b.Invalidate(7)
	b.Invalidate(7)
	h.Release()

	if n := srv.releaseCount(7); n != 1 {
		t.Errorf("window released %d times, want exactly 1", n)
	}
}

func TestEvictExpiredReleasesStaleHandles(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(1, types.Rect{Width: 800, Height: 600})
	srv.addWindow(2, types.Rect{Width: 800, Height: 600})
	b := newBridge(srv)
	ctx := context.Background()

	now := time.Now()
	b.handles.now = func() time.Time { return now }

	if _, err := b.ResolveBatch(ctx, []types.WindowID{1, 2}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	now = now.Add(HandleTTL + time.Millisecond)
	b.EvictExpired()

	if n := srv.releaseCount(1); n != 1 {
		t.Errorf("window 1 released %d times, want 1", n)
	}
	if n := srv.releaseCount(2); n != 1 {
		t.Errorf("window 2 released %d times, want 1", n)
	}
}

func TestScreenCacheInvalidation(t *testing.T) {
	srv := newFakeServer()
	srv.screens = []models.ScreenInfo{{Name: "Main", IsMain: true}}
	b := newBridge(srv)
	ctx := context.Background()

	if _, err := b.Screens(ctx); err != nil {
		t.Fatalf("screens failed: %v", err)
	}
	if _, err := b.Screens(ctx); err != nil {
		t.Fatalf("screens failed: %v", err)
	}
	if srv.listScrCalls != 1 {
		t.Errorf("screen enumerations = %d, want 1 (cached)", srv.listScrCalls)
	}

	// Screen-reconfiguration drops the cache immediately
	b.InvalidateScreens()
	if _, err := b.Screens(ctx); err != nil {
		t.Fatalf("screens failed: %v", err)
	}
	if srv.listScrCalls != 2 {
		t.Errorf("screen enumerations = %d, want 2 after invalidation", srv.listScrCalls)
	}
}

func TestWindowListCache(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(1, types.Rect{Width: 800, Height: 600})
	b := newBridge(srv)
	ctx := context.Background()

	now := time.Now()
	b.windows.now = func() time.Time { return now }

	b.Windows(ctx)
	b.Windows(ctx)
	if srv.listWinCalls != 1 {
		t.Errorf("window enumerations = %d, want 1 within TTL", srv.listWinCalls)
	}

	now = now.Add(WindowListTTL + time.Millisecond)
	b.Windows(ctx)
	if srv.listWinCalls != 2 {
		t.Errorf("window enumerations = %d, want 2 after TTL", srv.listWinCalls)
	}
}

func TestWaitForFrameTimesOut(t *testing.T) {
	srv := newFakeServer()
	// Window exists but reports a degenerate frame, as half-initialized
	// windows do
	srv.addWindow(9, types.Rect{Width: 0, Height: 0})
	b := newBridge(srv)

	_, err := b.WaitForFrame(context.Background(), 9, time.Millisecond, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout for window that never reports a frame")
	}
}

func TestWaitForFrameSucceeds(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(9, types.Rect{Width: 1024, Height: 768})
	b := newBridge(srv)

	info, err := b.WaitForFrame(context.Background(), 9, time.Millisecond, 25*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForFrame failed: %v", err)
	}
	if info.Frame.Width != 1024 {
		t.Errorf("frame width = %v, want 1024", info.Frame.Width)
	}
}

func TestWaitForFrameCachesResolvedReference(t *testing.T) {
	srv := newFakeServer()
	srv.addWindow(9, types.Rect{Width: 1024, Height: 768})
	b := newBridge(srv)
	ctx := context.Background()

	if _, err := b.WaitForFrame(ctx, 9, time.Millisecond, 25*time.Millisecond); err != nil {
		t.Fatalf("WaitForFrame failed: %v", err)
	}

	// The poll's reference is kept, so a follow-up resolve hits the cache
	// instead of retaining a second server-side reference
	if _, err := b.Resolve(ctx, 9); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if srv.resolveCalls != 1 {
		t.Errorf("resolve calls = %d, want 1 (handle cached by the poll)", srv.resolveCalls)
	}

	// Untrack releases that single reference exactly once
	b.Invalidate(9)
	if n := srv.releaseCount(9); n != 1 {
		t.Errorf("window released %d times, want exactly 1", n)
	}
}
