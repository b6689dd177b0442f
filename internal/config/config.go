package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stridewm/stride/internal/types"
)

const (
	DefaultConfigDir  = ".config/stride"
	DefaultConfigFile = "config.yaml"
)

// Defaults applied when the configuration omits a field.
const (
	DefaultLayout               = "dwindle"
	DefaultMasterRatio          = 0.6
	DefaultMaxMasters           = 1
	DefaultAnimationDurationMs  = 200
	DefaultAnimationEasing      = "ease-out"
	DefaultScrollingWindowWidth = 800
	DefaultCoalesceMs           = 4
)

// LoadConfig loads configuration from the specified path or default location
// If path is empty, uses ~/.config/stride/config.yaml
// Supports both .yaml and .json extensions
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		// Try YAML first, then JSON
		yamlPath := filepath.Join(home, DefaultConfigDir, "config.yaml")
		jsonPath := filepath.Join(home, DefaultConfigDir, "config.json")

		if _, err := os.Stat(yamlPath); err == nil {
			path = yamlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			path = jsonPath
		} else {
			// Missing config is not an error; every field has a default.
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	format := "yaml"
	if ext == ".json" {
		format = "json"
	}
	return LoadConfigFromBytes(data, format)
}

// LoadConfigFromBytes loads configuration from raw bytes
// format should be "yaml" or "json"
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	var cfg Config

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

func (c *Config) applyDefaults() {
	if c.Layout == "" {
		c.Layout = DefaultLayout
	}
	if c.Master.Ratio == 0 {
		c.Master.Ratio = DefaultMasterRatio
	}
	if c.Master.MaxMasters == 0 {
		c.Master.MaxMasters = DefaultMaxMasters
	}
	if c.Animation.DurationMs == 0 {
		c.Animation.DurationMs = DefaultAnimationDurationMs
	}
	if c.Animation.Easing == "" {
		c.Animation.Easing = DefaultAnimationEasing
	}
	if c.Scrolling.WindowWidth == 0 {
		c.Scrolling.WindowWidth = DefaultScrollingWindowWidth
	}
	if c.CoalesceMs == 0 {
		c.CoalesceMs = DefaultCoalesceMs
	}
	if len(c.Workspaces) == 0 {
		for i := 1; i <= 9; i++ {
			c.Workspaces = append(c.Workspaces, WorkspaceConfig{Name: fmt.Sprintf("%d", i)})
		}
	}
}

// AnimationEnabled reports whether positioning should animate.
// Defaults to enabled when the config omits the flag.
func (c *Config) AnimationEnabled() bool {
	if c.Animation.Enabled == nil {
		return true
	}
	return *c.Animation.Enabled
}

// GapsForScreen resolves the effective gaps for a screen name.
// Per-screen overrides win over the global block.
func (c *Config) GapsForScreen(screenName string) types.Gaps {
	if spec, ok := c.ScreenGaps[screenName]; ok && spec.IsSet() {
		return spec.Resolve()
	}
	return c.Gaps.Resolve()
}

// LayoutForWorkspace resolves the initial layout mode for a workspace name.
func (c *Config) LayoutForWorkspace(name string) types.LayoutMode {
	for _, ws := range c.Workspaces {
		if ws.Name == name && ws.Layout != "" {
			if mode, ok := types.ParseLayoutMode(ws.Layout); ok {
				return mode
			}
		}
	}
	mode, _ := types.ParseLayoutMode(c.Layout)
	return mode
}

// RuleFor finds the first rule matching a window's app identity.
// Returns nil when no rule matches.
func (c *Config) RuleFor(appName, bundleID, title string) *WindowRule {
	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.App != "" && rule.App != appName {
			continue
		}
		if rule.BundleID != "" && rule.BundleID != bundleID {
			continue
		}
		if rule.Title != "" && !strings.Contains(title, rule.Title) {
			continue
		}
		if rule.App == "" && rule.BundleID == "" && rule.Title == "" {
			continue
		}
		return rule
	}
	return nil
}

// IsIgnored reports whether a process is excluded from tracking.
func (c *Config) IsIgnored(appName, bundleID string) bool {
	for _, name := range c.Ignore.Apps {
		if name == appName {
			return true
		}
	}
	for _, id := range c.Ignore.BundleIDs {
		if id == bundleID {
			return true
		}
	}
	return false
}
