package state

import (
	"github.com/mitchellh/hashstructure/v2"

	"github.com/stridewm/stride/internal/types"
)

// layoutCache holds one workspace's last computed layout, keyed by an
// input fingerprint. Validity is purely trigger-based: every mutation that
// affects an input invalidates it explicitly, never a TTL.
type layoutCache struct {
	valid       bool
	fingerprint uint64
	placements  []types.WindowPlacement
}

func (c *layoutCache) invalidate() {
	c.valid = false
	c.placements = nil
}

func (c *layoutCache) get(fingerprint uint64) ([]types.WindowPlacement, bool) {
	if !c.valid || c.fingerprint != fingerprint {
		return nil, false
	}
	return c.placements, true
}

func (c *layoutCache) update(fingerprint uint64, placements []types.WindowPlacement) {
	c.valid = true
	c.fingerprint = fingerprint
	c.placements = placements
}

// layoutInputs is the exact set of layout-affecting inputs. Anything that
// changes computed geometry must be a field here so it participates in the
// fingerprint.
type layoutInputs struct {
	Mode         types.LayoutMode
	Windows      []types.WindowID
	Screen       types.Rect
	MasterRatio  float64
	MaxMasters   int
	Proportions  []float64
	Gaps         types.Gaps
	ScrollOffset float64
}

// ComputeLayoutHash derives the cache fingerprint for a workspace against
// a screen rect and gap configuration.
func ComputeLayoutHash(ws *Workspace, screen types.Rect, gaps types.Gaps) (uint64, error) {
	inputs := layoutInputs{
		Mode:         ws.Mode,
		Windows:      ws.Windows,
		Screen:       screen,
		MasterRatio:  ws.MasterRatio,
		MaxMasters:   ws.MaxMasters,
		Proportions:  ws.Proportions,
		Gaps:         gaps,
		ScrollOffset: ws.ScrollOffset,
	}
	return hashstructure.Hash(inputs, hashstructure.FormatV2, nil)
}

// Fingerprint derives the cache fingerprint from a snapshotted view. Only
// the tiled ordering participates; floating windows do not affect computed
// geometry.
func (v LayoutView) Fingerprint(screen types.Rect, gaps types.Gaps) (uint64, error) {
	inputs := layoutInputs{
		Mode:         v.Mode,
		Windows:      v.Windows,
		Screen:       screen,
		MasterRatio:  v.MasterRatio,
		MaxMasters:   v.MaxMasters,
		Proportions:  v.Proportions,
		Gaps:         gaps,
		ScrollOffset: v.ScrollOffset,
	}
	return hashstructure.Hash(inputs, hashstructure.FormatV2, nil)
}

// CachedLayout returns the cached placements when the fingerprint matches.
// Hits return the stored slice with no allocation.
func (s *TilingState) CachedLayout(workspace string, fingerprint uint64) ([]types.WindowPlacement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.nameIndex[workspace]
	if !ok {
		return nil, false
	}
	return s.workspaces[i].cache.get(fingerprint)
}

// UpdateLayoutCache stores a computed layout under its fingerprint.
func (s *TilingState) UpdateLayoutCache(workspace string, fingerprint uint64, placements []types.WindowPlacement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.nameIndex[workspace]; ok {
		s.workspaces[i].cache.update(fingerprint, placements)
	}
}
