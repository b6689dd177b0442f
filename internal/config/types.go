package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/stridewm/stride/internal/types"
)

// Config is the consumed tiling configuration. Parsing and schema
// generation live with the configuration collaborator; this package only
// reads the subset the core acts on.
type Config struct {
	// Layout is the default layout mode for workspaces without an override.
	Layout string `yaml:"layout" json:"layout"`

	// Master tunes the master layout.
	Master MasterConfig `yaml:"master" json:"master"`

	// Gaps is the default gap configuration, overridable per screen.
	Gaps GapSpec `yaml:"gaps" json:"gaps"`

	// ScreenGaps holds per-screen gap overrides keyed by screen name.
	ScreenGaps map[string]GapSpec `yaml:"screenGaps" json:"screenGaps"`

	// Workspaces declares the initial workspace set in display order.
	Workspaces []WorkspaceConfig `yaml:"workspaces" json:"workspaces"`

	// Rules assigns matching windows to workspaces at creation time.
	Rules []WindowRule `yaml:"rules" json:"rules"`

	// Ignore excludes processes from tracking entirely.
	Ignore IgnoreConfig `yaml:"ignore" json:"ignore"`

	// Animation tunes the positioning animation.
	Animation AnimationConfig `yaml:"animation" json:"animation"`

	// Scrolling tunes the scrolling layout.
	Scrolling ScrollingConfig `yaml:"scrolling" json:"scrolling"`

	// CoalesceMs is the move/resize coalescing window in milliseconds.
	CoalesceMs int `yaml:"coalesceMs" json:"coalesceMs"`

	// Borders configures the border-decoration collaborator.
	Borders BorderConfig `yaml:"borders" json:"borders"`

	// SocketPath is the window-server bridge socket. Empty uses the default.
	SocketPath string `yaml:"socketPath" json:"socketPath"`
}

// MasterConfig tunes the master layout mode.
type MasterConfig struct {
	// Ratio is the fraction of the primary axis given to the master window.
	Ratio float64 `yaml:"ratio" json:"ratio"`
	// MaxMasters is the number of windows in the master region.
	MaxMasters int `yaml:"maxMasters" json:"maxMasters"`
}

// WorkspaceConfig declares one workspace and its per-workspace overrides.
type WorkspaceConfig struct {
	Name   string `yaml:"name" json:"name"`
	Layout string `yaml:"layout" json:"layout"`
	Screen string `yaml:"screen" json:"screen"`
}

// WindowRule assigns windows matching an app identity to a workspace.
// Title matches by substring, app and bundle ID match exactly.
type WindowRule struct {
	App       string `yaml:"app" json:"app"`
	BundleID  string `yaml:"bundleId" json:"bundleId"`
	Title     string `yaml:"title" json:"title"`
	Workspace string `yaml:"workspace" json:"workspace"`
	Floating  bool   `yaml:"floating" json:"floating"`
}

// IgnoreConfig lists processes excluded from tracking.
type IgnoreConfig struct {
	Apps      []string `yaml:"apps" json:"apps"`
	BundleIDs []string `yaml:"bundleIds" json:"bundleIds"`
}

// AnimationConfig tunes window movement animation.
type AnimationConfig struct {
	Enabled    *bool   `yaml:"enabled" json:"enabled"`
	DurationMs int     `yaml:"durationMs" json:"durationMs"`
	Easing     string  `yaml:"easing" json:"easing"`
	Stiffness  float64 `yaml:"stiffness" json:"stiffness"`
	Damping    float64 `yaml:"damping" json:"damping"`
}

// ScrollingConfig tunes the scrolling layout strip.
type ScrollingConfig struct {
	WindowWidth float64 `yaml:"windowWidth" json:"windowWidth"`
}

// BorderConfig is the contract with the border-decoration process.
type BorderConfig struct {
	SocketPath    string `yaml:"socketPath" json:"socketPath"`
	ActiveColor   string `yaml:"activeColor" json:"activeColor"`
	InactiveColor string `yaml:"inactiveColor" json:"inactiveColor"`
	Width         int    `yaml:"width" json:"width"`
}

// GapSpec accepts either a single uniform value or a structured inner/outer
// block. `gaps: 8` and `gaps: {inner: {horizontal: 8}, outer: {top: 30}}`
// are both valid.
type GapSpec struct {
	uniform *float64
	gaps    types.Gaps
}

// UnmarshalYAML implements yaml.Unmarshaler for the uniform-or-structured form.
func (g *GapSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var v float64
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("invalid uniform gap value: %w", err)
		}
		g.uniform = &v
		return nil
	}
	if err := value.Decode(&g.gaps); err != nil {
		return fmt.Errorf("invalid gap block: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts the same forms for JSON configs.
func (g *GapSpec) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		g.uniform = &v
		return nil
	}
	if err := json.Unmarshal(data, &g.gaps); err != nil {
		return fmt.Errorf("invalid gap block: %w", err)
	}
	return nil
}

// Resolve returns the concrete gap configuration.
func (g GapSpec) Resolve() types.Gaps {
	if g.uniform != nil {
		return types.UniformGaps(*g.uniform)
	}
	return g.gaps
}

// IsSet reports whether a gap value was present in the configuration.
func (g GapSpec) IsSet() bool {
	return g.uniform != nil || !g.gaps.IsZero()
}
