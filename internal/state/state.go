// Package state is the authoritative in-memory model: workspaces, window
// membership and ordering, focus pointers, and the per-workspace layout
// cache. Pure data structure; no I/O and no OS calls happen under its lock.
package state

import (
	"sync"

	"github.com/stridewm/stride/internal/types"
)

// TrackedWindow is the canonical membership record for one managed window.
// The bridge owns the native reference cache; this record holds only the
// state the layout path needs.
type TrackedWindow struct {
	ID       types.WindowID `json:"id"`
	PID      types.PID      `json:"pid"`
	AppName  string         `json:"appName"`
	BundleID string         `json:"bundleId"`
	Title    string         `json:"title"`
	Frame    types.Rect     `json:"frame"`
	Visible  bool           `json:"visible"`
	Floating bool           `json:"floating"`
	// Workspace is the owning workspace name. Exactly one at a time.
	Workspace string `json:"workspace"`
}

// Workspace holds one workspace's window ordering and layout inputs.
// Window order is insertion order and doubles as stack order for layout.
type Workspace struct {
	Name    string           `json:"name"`
	Windows []types.WindowID `json:"windows"`
	// FocusedIndex is an index into Windows, -1 when nothing is focused.
	FocusedIndex int              `json:"focusedIndex"`
	Mode         types.LayoutMode `json:"mode"`
	MasterRatio  float64          `json:"masterRatio"`
	MaxMasters   int              `json:"maxMasters"`
	// Proportions is the cumulative boundary vector for split modes.
	Proportions  []float64 `json:"proportions,omitempty"`
	Screen       string    `json:"screen"`
	ScrollOffset float64   `json:"scrollOffset"`

	cache layoutCache
}

// FocusedWindow returns the focused window id, false when none.
func (ws *Workspace) FocusedWindow() (types.WindowID, bool) {
	if ws.FocusedIndex < 0 || ws.FocusedIndex >= len(ws.Windows) {
		return 0, false
	}
	return ws.Windows[ws.FocusedIndex], true
}

// indexOf returns the position of a window in the ordering, -1 if absent.
func (ws *Workspace) indexOf(id types.WindowID) int {
	for i, w := range ws.Windows {
		if w == id {
			return i
		}
	}
	return -1
}

// TilingState is the root of the model. A single mutex guards all of it:
// every mutation holds it exclusively, and no native calls are made while
// it is held.
type TilingState struct {
	mu sync.Mutex

	workspaces []*Workspace
	// nameIndex maps workspace name to its position in workspaces. Kept
	// consistent incrementally on single insert, rebuilt on bulk mutation.
	nameIndex map[string]int

	windows map[types.WindowID]*TrackedWindow

	focusedWorkspace string
	initialized      bool
}

// New creates an empty state.
func New() *TilingState {
	return &TilingState{
		nameIndex: make(map[string]int),
		windows:   make(map[types.WindowID]*TrackedWindow),
	}
}

// MarkInitialized flips the startup gate after initial enumeration.
func (s *TilingState) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

// Initialized reports whether startup has completed.
func (s *TilingState) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// AddWorkspace appends a workspace and updates the name index
// incrementally. Adding an existing name returns the existing workspace.
func (s *TilingState) AddWorkspace(name string, mode types.LayoutMode) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.nameIndex[name]; ok {
		return s.workspaces[i]
	}

	ws := &Workspace{
		Name:         name,
		FocusedIndex: -1,
		Mode:         mode,
	}
	s.workspaces = append(s.workspaces, ws)
	s.nameIndex[name] = len(s.workspaces) - 1
	return ws
}

// RemoveWorkspace deletes a workspace and rebuilds the name index. Rare;
// workspaces are long-lived. Windows still assigned are untracked by the
// caller first.
func (s *TilingState) RemoveWorkspace(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[name]
	if !ok {
		return false
	}
	s.workspaces = append(s.workspaces[:i], s.workspaces[i+1:]...)
	s.rebuildIndexLocked()
	return true
}

// rebuildIndexLocked regenerates the name index wholesale. Caller holds mu.
func (s *TilingState) rebuildIndexLocked() {
	s.nameIndex = make(map[string]int, len(s.workspaces))
	for i, ws := range s.workspaces {
		s.nameIndex[ws.Name] = i
	}
}

// WorkspaceByName is the O(1) lookup through the name index. Returns nil
// for unknown names; absence is the caller's call to treat as an error.
//
// The returned pointer is shared with the live state and is only safe for
// existence checks and identity comparison. Reading workspace fields must
// go through LayoutView or another accessor that copies under the lock.
func (s *TilingState) WorkspaceByName(name string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.nameIndex[name]; ok {
		return s.workspaces[i]
	}
	return nil
}

// Workspaces returns the workspaces in declaration order. The slice is a
// copy but the elements are the live workspaces; the same read contract as
// WorkspaceByName applies.
func (s *TilingState) Workspaces() []*Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Workspace, len(s.workspaces))
	copy(out, s.workspaces)
	return out
}

// WorkspaceNames returns the names in declaration order.
func (s *TilingState) WorkspaceNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.workspaces))
	for i, ws := range s.workspaces {
		names[i] = ws.Name
	}
	return names
}

// FocusedWorkspace returns the name of the visible workspace.
func (s *TilingState) FocusedWorkspace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusedWorkspace
}

// SetFocusedWorkspace records the visible workspace.
func (s *TilingState) SetFocusedWorkspace(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focusedWorkspace = name
}

// TrackWindow registers a window in a workspace, appending it to the
// ordering. Re-tracking an already tracked window moves it instead.
func (s *TilingState) TrackWindow(w *TrackedWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.windows[w.ID]; ok {
		if existing.Workspace != w.Workspace {
			s.detachLocked(existing)
			s.attachLocked(w)
		} else if i, ok := s.nameIndex[w.Workspace]; ok {
			s.workspaces[i].cache.invalidate()
		}
		*existing = *w
		return
	}

	s.windows[w.ID] = w
	s.attachLocked(w)
}

func (s *TilingState) attachLocked(w *TrackedWindow) {
	i, ok := s.nameIndex[w.Workspace]
	if !ok {
		return
	}
	ws := s.workspaces[i]
	ws.Windows = append(ws.Windows, w.ID)
	ws.cache.invalidate()
	// Boundary vectors are sized to the window count, so membership
	// changes reset them
	ws.Proportions = nil
}

func (s *TilingState) detachLocked(w *TrackedWindow) {
	i, ok := s.nameIndex[w.Workspace]
	if !ok {
		return
	}
	ws := s.workspaces[i]
	idx := ws.indexOf(w.ID)
	if idx < 0 {
		return
	}
	ws.Windows = append(ws.Windows[:idx], ws.Windows[idx+1:]...)
	ws.cache.invalidate()
	ws.Proportions = nil

	// Keep the focus pointer valid
	switch {
	case len(ws.Windows) == 0:
		ws.FocusedIndex = -1
	case ws.FocusedIndex > idx:
		ws.FocusedIndex--
	case ws.FocusedIndex >= len(ws.Windows):
		ws.FocusedIndex = len(ws.Windows) - 1
	}
}

// UntrackWindow removes a window and returns whether it was visible, so
// the caller can refresh caches without a second lookup.
func (s *TilingState) UntrackWindow(id types.WindowID) (wasVisible bool, workspace string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, found := s.windows[id]
	if !found {
		return false, "", false
	}
	delete(s.windows, id)
	s.detachLocked(w)
	return w.Visible, w.Workspace, true
}

// Window returns the tracked record for an id, nil when untracked.
func (s *TilingState) Window(id types.WindowID) *TrackedWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[id]
}

// UpdateWindowFrame records a window's last-known frame.
func (s *TilingState) UpdateWindowFrame(id types.WindowID, frame types.Rect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return false
	}
	w.Frame = frame
	return true
}

// UpdateWindowTitle records a window's current title.
func (s *TilingState) UpdateWindowTitle(id types.WindowID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[id]; ok {
		w.Title = title
	}
}

// SetWindowVisible flips a window's visibility flag.
func (s *TilingState) SetWindowVisible(id types.WindowID, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[id]; ok {
		w.Visible = visible
	}
}

// WindowsForPID returns ids owned by a process, for app-termination cleanup.
func (s *TilingState) WindowsForPID(pid types.PID) []types.WindowID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []types.WindowID
	for id, w := range s.windows {
		if w.PID == pid {
			ids = append(ids, id)
		}
	}
	return ids
}

// WindowCount returns the number of tracked windows.
func (s *TilingState) WindowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// SetFocusedWindow points a workspace's focus at a window it contains.
func (s *TilingState) SetFocusedWindow(workspace string, id types.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	idx := ws.indexOf(id)
	if idx < 0 {
		return false
	}
	ws.FocusedIndex = idx
	return true
}

// MoveWindowBetweenWorkspaces reassigns a window, preserving ordering
// invariants and invalidating both layout caches.
func (s *TilingState) MoveWindowBetweenWorkspaces(id types.WindowID, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[id]
	if !ok {
		return false
	}
	if _, ok := s.nameIndex[to]; !ok {
		return false
	}
	if w.Workspace == to {
		return true
	}

	s.detachLocked(w)
	w.Workspace = to
	s.attachLocked(w)
	return true
}

// SwapWindows exchanges two windows' positions in a workspace ordering.
// Used by drag-swap and tab-swap. Focus follows the focused window's slot.
func (s *TilingState) SwapWindows(workspace string, a, b types.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	ai, bi := ws.indexOf(a), ws.indexOf(b)
	if ai < 0 || bi < 0 {
		return false
	}
	ws.Windows[ai], ws.Windows[bi] = ws.Windows[bi], ws.Windows[ai]
	if ws.FocusedIndex == ai {
		ws.FocusedIndex = bi
	} else if ws.FocusedIndex == bi {
		ws.FocusedIndex = ai
	}
	ws.cache.invalidate()
	return true
}

// ReplaceWindowID substitutes a stale id with a new one in place, keeping
// the ordering slot. Used for tab swaps where the OS allocates a new id
// for the same visual position.
func (s *TilingState) ReplaceWindowID(stale, fresh types.WindowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[stale]
	if !ok {
		return false
	}
	i, ok := s.nameIndex[w.Workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	idx := ws.indexOf(stale)
	if idx < 0 {
		return false
	}

	delete(s.windows, stale)
	w.ID = fresh
	s.windows[fresh] = w
	ws.Windows[idx] = fresh
	ws.cache.invalidate()
	return true
}

// SetLayoutMode switches a workspace's layout and invalidates its cache.
func (s *TilingState) SetLayoutMode(workspace string, mode types.LayoutMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	ws.Mode = mode
	ws.Proportions = nil
	ws.cache.invalidate()
	return true
}

// SetMasterRatio adjusts the master share, clamped to a sane band.
func (s *TilingState) SetMasterRatio(workspace string, ratio float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	if ratio < 0.1 {
		ratio = 0.1
	}
	if ratio > 0.9 {
		ratio = 0.9
	}
	ws := s.workspaces[i]
	ws.MasterRatio = ratio
	ws.cache.invalidate()
	return true
}

// SetMaxMasters adjusts how many windows share the master region.
func (s *TilingState) SetMaxMasters(workspace string, n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	if n < 1 {
		n = 1
	}
	ws := s.workspaces[i]
	ws.MaxMasters = n
	ws.cache.invalidate()
	return true
}

// AdjustScrollOffset shifts the scrolling layout's strip position and
// returns the new offset, clamped at zero.
func (s *TilingState) AdjustScrollOffset(workspace string, delta float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return 0, false
	}
	ws := s.workspaces[i]
	ws.ScrollOffset += delta
	if ws.ScrollOffset < 0 {
		ws.ScrollOffset = 0
	}
	ws.cache.invalidate()
	return ws.ScrollOffset, true
}

// SetProportions replaces a workspace's cumulative boundary vector.
func (s *TilingState) SetProportions(workspace string, cumulative []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	ws.Proportions = cumulative
	ws.cache.invalidate()
	return true
}

// AssignScreen binds a workspace to a screen and invalidates its cache.
func (s *TilingState) AssignScreen(workspace, screen string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return false
	}
	ws := s.workspaces[i]
	ws.Screen = screen
	ws.cache.invalidate()
	return true
}

// LayoutView is a consistent copy of one workspace's layout inputs, taken
// under the state lock so the layout pass never reads the model while a
// concurrent mutation is mid-flight. Floating windows are listed separately
// unless the workspace itself is floating.
type LayoutView struct {
	Mode         types.LayoutMode
	Windows      []types.WindowID
	Floating     []types.WindowID
	Focused      types.WindowID
	MasterRatio  float64
	MaxMasters   int
	Proportions  []float64
	Screen       string
	ScrollOffset float64
	Frames       map[types.WindowID]types.Rect
	Visible      map[types.WindowID]bool
	PIDs         map[types.WindowID]types.PID
}

// LayoutView snapshots a workspace's layout inputs.
func (s *TilingState) LayoutView(name string) (LayoutView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[name]
	if !ok {
		return LayoutView{}, false
	}
	ws := s.workspaces[i]

	v := LayoutView{
		Mode:         ws.Mode,
		MasterRatio:  ws.MasterRatio,
		MaxMasters:   ws.MaxMasters,
		Proportions:  append([]float64(nil), ws.Proportions...),
		Screen:       ws.Screen,
		ScrollOffset: ws.ScrollOffset,
		Frames:       make(map[types.WindowID]types.Rect, len(ws.Windows)),
		Visible:      make(map[types.WindowID]bool, len(ws.Windows)),
		PIDs:         make(map[types.WindowID]types.PID, len(ws.Windows)),
	}
	for _, id := range ws.Windows {
		w, tracked := s.windows[id]
		if !tracked {
			continue
		}
		v.Frames[id] = w.Frame
		v.Visible[id] = w.Visible
		v.PIDs[id] = w.PID
		if w.Floating && ws.Mode != types.LayoutFloating {
			v.Floating = append(v.Floating, id)
			continue
		}
		v.Windows = append(v.Windows, id)
	}
	if id, focused := ws.FocusedWindow(); focused {
		v.Focused = id
	}
	return v, true
}

// InvalidateLayoutCache drops one workspace's cached layout.
func (s *TilingState) InvalidateLayoutCache(workspace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.nameIndex[workspace]; ok {
		s.workspaces[i].cache.invalidate()
	}
}

// InvalidateAllLayoutCaches drops every cached layout. Called on screen
// reconfiguration and gap changes.
func (s *TilingState) InvalidateAllLayoutCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.workspaces {
		ws.cache.invalidate()
	}
}
