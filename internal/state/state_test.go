package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stridewm/stride/internal/types"
)

func newTracked(id types.WindowID, pid types.PID, workspace string) *TrackedWindow {
	return &TrackedWindow{
		ID:        id,
		PID:       pid,
		Workspace: workspace,
		Visible:   true,
	}
}

// === Workspace index ===

func TestAddWorkspaceIdempotent(t *testing.T) {
	s := New()
	a := s.AddWorkspace("code", types.LayoutDwindle)
	b := s.AddWorkspace("code", types.LayoutMaster)

	if a != b {
		t.Error("adding an existing name should return the existing workspace")
	}
	if a.Mode != types.LayoutDwindle {
		t.Errorf("mode = %s, duplicate add should not overwrite", a.Mode)
	}
}

func TestIndexConsistency(t *testing.T) {
	s := New()
	names := []string{"1", "2", "3", "code", "media", "chat"}
	for _, name := range names {
		s.AddWorkspace(name, types.LayoutDwindle)
	}

	s.RemoveWorkspace("2")
	s.RemoveWorkspace("media")
	s.AddWorkspace("scratch", types.LayoutGrid)

	// Index lookup must agree with a linear scan for every name
	all := s.Workspaces()
	for _, ws := range all {
		byIndex := s.WorkspaceByName(ws.Name)
		var byScan *Workspace
		for _, candidate := range all {
			if candidate.Name == ws.Name {
				byScan = candidate
				break
			}
		}
		if byIndex != byScan {
			t.Errorf("index lookup for %q disagrees with linear scan", ws.Name)
		}
	}

	if s.WorkspaceByName("2") != nil {
		t.Error("removed workspace should not resolve")
	}
}

func TestWorkspaceByNameUnknown(t *testing.T) {
	s := New()
	if ws := s.WorkspaceByName("nope"); ws != nil {
		t.Errorf("unknown workspace = %v, want nil", ws)
	}
}

// === Window tracking ===

func TestTrackWindowAppendsInOrder(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)

	for id := types.WindowID(1); id <= 3; id++ {
		s.TrackWindow(newTracked(id, 100, "code"))
	}

	ws := s.WorkspaceByName("code")
	if len(ws.Windows) != 3 {
		t.Fatalf("window count = %d, want 3", len(ws.Windows))
	}
	for i, id := range ws.Windows {
		if id != types.WindowID(i+1) {
			t.Errorf("window order[%d] = %d, want %d (insertion order)", i, id, i+1)
		}
	}
}

func TestUntrackReturnsVisibility(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)

	w := newTracked(1, 100, "code")
	w.Visible = true
	s.TrackWindow(w)

	hidden := newTracked(2, 100, "code")
	hidden.Visible = false
	s.TrackWindow(hidden)

	wasVisible, workspace, ok := s.UntrackWindow(1)
	if !ok || !wasVisible || workspace != "code" {
		t.Errorf("UntrackWindow(1) = (%v, %s, %v), want (true, code, true)", wasVisible, workspace, ok)
	}

	wasVisible, _, ok = s.UntrackWindow(2)
	if !ok || wasVisible {
		t.Errorf("UntrackWindow(2) = (%v, _, %v), want (false, true)", wasVisible, ok)
	}

	if _, _, ok := s.UntrackWindow(99); ok {
		t.Error("untracking an unknown window should report not found")
	}
}

func TestFocusedIndexStaysValid(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	for id := types.WindowID(1); id <= 3; id++ {
		s.TrackWindow(newTracked(id, 100, "code"))
	}
	s.SetFocusedWindow("code", 3)

	ws := s.WorkspaceByName("code")
	if ws.FocusedIndex != 2 {
		t.Fatalf("focused index = %d, want 2", ws.FocusedIndex)
	}

	// Removing a window before the focused one shifts the pointer
	s.UntrackWindow(1)
	if focused, ok := ws.FocusedWindow(); !ok || focused != 3 {
		t.Errorf("focused window after removal = (%d, %v), want (3, true)", focused, ok)
	}

	// Removing the focused window clamps to the last entry
	s.UntrackWindow(3)
	if focused, ok := ws.FocusedWindow(); !ok || focused != 2 {
		t.Errorf("focused window after removing focused = (%d, %v), want (2, true)", focused, ok)
	}

	// Emptying the workspace clears focus
	s.UntrackWindow(2)
	if _, ok := ws.FocusedWindow(); ok {
		t.Error("empty workspace should have no focused window")
	}
}

func TestMoveWindowBetweenWorkspaces(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	s.AddWorkspace("media", types.LayoutMonocle)
	s.TrackWindow(newTracked(1, 100, "code"))
	s.TrackWindow(newTracked(2, 100, "code"))

	if !s.MoveWindowBetweenWorkspaces(2, "media") {
		t.Fatal("move should succeed")
	}

	if w := s.Window(2); w.Workspace != "media" {
		t.Errorf("window workspace = %s, want media", w.Workspace)
	}
	if n := len(s.WorkspaceByName("code").Windows); n != 1 {
		t.Errorf("source workspace count = %d, want 1", n)
	}
	if n := len(s.WorkspaceByName("media").Windows); n != 1 {
		t.Errorf("target workspace count = %d, want 1", n)
	}

	if s.MoveWindowBetweenWorkspaces(2, "nope") {
		t.Error("move to unknown workspace should fail")
	}
}

func TestSwapWindows(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	for id := types.WindowID(1); id <= 3; id++ {
		s.TrackWindow(newTracked(id, 100, "code"))
	}
	s.SetFocusedWindow("code", 1)

	if !s.SwapWindows("code", 1, 3) {
		t.Fatal("swap should succeed")
	}

	ws := s.WorkspaceByName("code")
	if ws.Windows[0] != 3 || ws.Windows[2] != 1 {
		t.Errorf("order after swap = %v, want [3 2 1]", ws.Windows)
	}
	// Focus follows the window, not the slot
	if focused, _ := ws.FocusedWindow(); focused != 1 {
		t.Errorf("focused window after swap = %d, want 1", focused)
	}
}

func TestReplaceWindowID(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	s.TrackWindow(newTracked(1, 100, "code"))
	s.TrackWindow(newTracked(2, 100, "code"))

	if !s.ReplaceWindowID(1, 10) {
		t.Fatal("replace should succeed")
	}

	ws := s.WorkspaceByName("code")
	if ws.Windows[0] != 10 {
		t.Errorf("ordering slot = %d, want replacement id 10 in original position", ws.Windows[0])
	}
	if s.Window(1) != nil {
		t.Error("stale id should no longer resolve")
	}
	if s.Window(10) == nil {
		t.Error("fresh id should resolve")
	}
}

func TestWindowsForPID(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	s.TrackWindow(newTracked(1, 100, "code"))
	s.TrackWindow(newTracked(2, 200, "code"))
	s.TrackWindow(newTracked(3, 100, "code"))

	ids := s.WindowsForPID(100)
	if len(ids) != 2 {
		t.Errorf("windows for pid 100 = %v, want 2 entries", ids)
	}
}

// === Layout cache ===

func TestLayoutCacheHitAndInvalidation(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	s.TrackWindow(newTracked(1, 100, "code"))
	s.TrackWindow(newTracked(2, 100, "code"))

	ws := s.WorkspaceByName("code")
	screen := types.Rect{Width: 1920, Height: 1080}
	gaps := types.UniformGaps(8)

	fp, err := ComputeLayoutHash(ws, screen, gaps)
	if err != nil {
		t.Fatalf("ComputeLayoutHash failed: %v", err)
	}

	placements := []types.WindowPlacement{
		{WindowID: 1, Bounds: types.Rect{Width: 960, Height: 1080}},
		{WindowID: 2, Bounds: types.Rect{X: 960, Width: 960, Height: 1080}},
	}
	s.UpdateLayoutCache("code", fp, placements)

	got, ok := s.CachedLayout("code", fp)
	if !ok {
		t.Fatal("cache should hit with unchanged fingerprint")
	}
	// Bit-identical: the cached slice is returned as stored
	for i := range placements {
		if got[i] != placements[i] {
			t.Errorf("cached placement %d = %+v, want %+v", i, got[i], placements[i])
		}
	}

	// Any membership mutation invalidates
	s.TrackWindow(newTracked(3, 100, "code"))
	if _, ok := s.CachedLayout("code", fp); ok {
		t.Error("cache should be invalid after tracking a new window")
	}
}

func TestLayoutHashChangesPerInput(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutMaster)
	s.TrackWindow(newTracked(1, 100, "code"))
	s.TrackWindow(newTracked(2, 100, "code"))
	ws := s.WorkspaceByName("code")

	screen := types.Rect{Width: 1920, Height: 1080}
	gaps := types.UniformGaps(8)
	base, err := ComputeLayoutHash(ws, screen, gaps)
	if err != nil {
		t.Fatalf("ComputeLayoutHash failed: %v", err)
	}

	same, _ := ComputeLayoutHash(ws, screen, gaps)
	if same != base {
		t.Error("identical inputs must produce identical fingerprints")
	}

	// Each single-input change must change the fingerprint
	variants := map[string]func() uint64{
		"screen": func() uint64 {
			h, _ := ComputeLayoutHash(ws, types.Rect{Width: 2560, Height: 1440}, gaps)
			return h
		},
		"gaps": func() uint64 {
			h, _ := ComputeLayoutHash(ws, screen, types.UniformGaps(16))
			return h
		},
		"ratio": func() uint64 {
			s.SetMasterRatio("code", 0.7)
			h, _ := ComputeLayoutHash(ws, screen, gaps)
			return h
		},
		"mode": func() uint64 {
			s.SetLayoutMode("code", types.LayoutGrid)
			h, _ := ComputeLayoutHash(ws, screen, gaps)
			return h
		},
		"windows": func() uint64 {
			s.TrackWindow(newTracked(3, 100, "code"))
			h, _ := ComputeLayoutHash(ws, screen, gaps)
			return h
		},
	}

	seen := map[uint64]string{base: "base"}
	for name, compute := range variants {
		h := compute()
		if prev, dup := seen[h]; dup {
			t.Errorf("changing %s collided with %s fingerprint", name, prev)
		}
		seen[h] = name
	}
}

func TestSetLayoutModeInvalidatesCache(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutDwindle)
	s.TrackWindow(newTracked(1, 100, "code"))

	ws := s.WorkspaceByName("code")
	fp, _ := ComputeLayoutHash(ws, types.Rect{Width: 1920, Height: 1080}, types.Gaps{})
	s.UpdateLayoutCache("code", fp, []types.WindowPlacement{{WindowID: 1}})

	s.SetLayoutMode("code", types.LayoutMonocle)
	if _, ok := s.CachedLayout("code", fp); ok {
		t.Error("mode change must invalidate the layout cache")
	}
}

// === Persistence ===

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	s.AddWorkspace("code", types.LayoutMaster)
	s.AddWorkspace("media", types.LayoutMonocle)
	s.SetMasterRatio("code", 0.7)
	s.AssignScreen("code", "DELL U2720Q")
	s.SetFocusedWorkspace("code")

	path := filepath.Join(t.TempDir(), "state.json")
	if err := s.Snapshot().SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	snap, err := LoadSnapshotFrom(path)
	if err != nil {
		t.Fatalf("LoadSnapshotFrom failed: %v", err)
	}

	restored := New()
	restored.AddWorkspace("code", types.LayoutDwindle)
	restored.AddWorkspace("media", types.LayoutDwindle)
	restored.Apply(snap)

	code := restored.WorkspaceByName("code")
	if code.Mode != types.LayoutMaster || code.MasterRatio != 0.7 || code.Screen != "DELL U2720Q" {
		t.Errorf("restored workspace = %+v, want persisted settings applied", code)
	}
	if restored.WorkspaceByName("media").Mode != types.LayoutMonocle {
		t.Error("second workspace settings not restored")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	snap, err := LoadSnapshotFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should yield empty snapshot, got error: %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Workspaces) != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshotFrom(path); err == nil {
		t.Error("corrupt state file should return an error")
	}
}

func TestManyWorkspacesIndex(t *testing.T) {
	s := New()
	for i := 0; i < 50; i++ {
		s.AddWorkspace(fmt.Sprintf("ws-%d", i), types.LayoutDwindle)
	}
	for i := 0; i < 50; i += 7 {
		s.RemoveWorkspace(fmt.Sprintf("ws-%d", i))
	}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("ws-%d", i)
		ws := s.WorkspaceByName(name)
		if i%7 == 0 {
			if ws != nil {
				t.Errorf("removed workspace %s should not resolve", name)
			}
		} else if ws == nil || ws.Name != name {
			t.Errorf("workspace %s did not resolve correctly", name)
		}
	}
}
