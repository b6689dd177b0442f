package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stridewm/stride/internal/types"
)

const (
	// DefaultStateDir is the directory under $HOME for state files
	DefaultStateDir = ".local/state/stride"
	// DefaultStateFile is the state file name
	DefaultStateFile = "state.json"

	// SnapshotVersion is bumped when the snapshot schema changes
	SnapshotVersion = 1
)

// Snapshot is the persisted subset of the model: per-workspace layout
// settings survive restarts, window membership does not (it is re-derived
// from enumeration).
type Snapshot struct {
	Version          int                 `json:"version"`
	LastUpdated      time.Time           `json:"lastUpdated"`
	FocusedWorkspace string              `json:"focusedWorkspace"`
	Workspaces       []WorkspaceSnapshot `json:"workspaces"`
}

// WorkspaceSnapshot persists one workspace's layout inputs.
type WorkspaceSnapshot struct {
	Name         string           `json:"name"`
	Mode         types.LayoutMode `json:"mode"`
	MasterRatio  float64          `json:"masterRatio"`
	MaxMasters   int              `json:"maxMasters"`
	Proportions  []float64        `json:"proportions,omitempty"`
	Screen       string           `json:"screen"`
	ScrollOffset float64          `json:"scrollOffset"`
}

// GetStatePath returns the full path to the state file
func GetStatePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultStateDir, DefaultStateFile)
}

// LoadSnapshot loads the snapshot from the default path, returning an
// empty snapshot if the file doesn't exist
func LoadSnapshot() (*Snapshot, error) {
	return LoadSnapshotFrom(GetStatePath())
}

// LoadSnapshotFrom loads a snapshot from a specific path
func LoadSnapshotFrom(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{Version: SnapshotVersion}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	// Handle version migration if needed
	if snap.Version < SnapshotVersion {
		snap = *migrateSnapshot(&snap)
	}

	return &snap, nil
}

// Snapshot captures the persistable subset of the current state.
func (s *TilingState) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Version:          SnapshotVersion,
		LastUpdated:      time.Now(),
		FocusedWorkspace: s.focusedWorkspace,
	}
	for _, ws := range s.workspaces {
		snap.Workspaces = append(snap.Workspaces, WorkspaceSnapshot{
			Name:         ws.Name,
			Mode:         ws.Mode,
			MasterRatio:  ws.MasterRatio,
			MaxMasters:   ws.MaxMasters,
			Proportions:  ws.Proportions,
			Screen:       ws.Screen,
			ScrollOffset: ws.ScrollOffset,
		})
	}
	return snap
}

// Apply restores persisted workspace settings onto the current state.
// Only workspaces that still exist are touched; membership is untouched.
func (s *TilingState) Apply(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wss := range snap.Workspaces {
		i, ok := s.nameIndex[wss.Name]
		if !ok {
			continue
		}
		ws := s.workspaces[i]
		if wss.Mode != "" {
			ws.Mode = wss.Mode
		}
		if wss.MasterRatio > 0 {
			ws.MasterRatio = wss.MasterRatio
		}
		if wss.MaxMasters > 0 {
			ws.MaxMasters = wss.MaxMasters
		}
		ws.Screen = wss.Screen
		ws.ScrollOffset = wss.ScrollOffset
		ws.cache.invalidate()
	}
}

// Save persists a snapshot to the default path
func (snap *Snapshot) Save() error {
	return snap.SaveTo(GetStatePath())
}

// SaveTo persists a snapshot to a specific path
func (snap *Snapshot) SaveTo(path string) error {
	snap.LastUpdated = time.Now()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Marshal with indentation for readability
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write atomically using temp file + rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file on failure
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

// migrateSnapshot handles migration from older snapshot versions
func migrateSnapshot(old *Snapshot) *Snapshot {
	// Currently no migrations needed - just update version
	migrated := *old
	migrated.Version = SnapshotVersion
	return &migrated
}
