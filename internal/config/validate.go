package config

import (
	"fmt"

	"github.com/stridewm/stride/internal/types"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, ok := types.ParseLayoutMode(c.Layout); !ok {
		return fmt.Errorf("unknown layout mode: %s", c.Layout)
	}

	if c.Master.Ratio <= 0 || c.Master.Ratio >= 1 {
		return fmt.Errorf("master ratio %v out of range (0, 1)", c.Master.Ratio)
	}
	if c.Master.MaxMasters < 1 {
		return fmt.Errorf("master maxMasters must be at least 1, got %d", c.Master.MaxMasters)
	}

	// Validate workspaces: unique names, known layout overrides
	names := make(map[string]bool)
	for i, ws := range c.Workspaces {
		if ws.Name == "" {
			return fmt.Errorf("workspace %d: missing name", i)
		}
		if names[ws.Name] {
			return fmt.Errorf("duplicate workspace name: %s", ws.Name)
		}
		names[ws.Name] = true

		if ws.Layout != "" {
			if _, ok := types.ParseLayoutMode(ws.Layout); !ok {
				return fmt.Errorf("workspace %s: unknown layout mode: %s", ws.Name, ws.Layout)
			}
		}
	}

	// Validate rules reference declared workspaces
	for i, rule := range c.Rules {
		if rule.App == "" && rule.BundleID == "" && rule.Title == "" {
			return fmt.Errorf("rule %d: no match criteria", i)
		}
		if rule.Workspace != "" && !names[rule.Workspace] {
			return fmt.Errorf("rule %d references unknown workspace: %s", i, rule.Workspace)
		}
	}

	if c.Animation.DurationMs < 0 {
		return fmt.Errorf("animation duration cannot be negative")
	}
	if c.Scrolling.WindowWidth <= 0 {
		return fmt.Errorf("scrolling window width must be positive")
	}
	if c.CoalesceMs < 0 {
		return fmt.Errorf("coalesce window cannot be negative")
	}

	if err := validateGaps(c.Gaps.Resolve()); err != nil {
		return fmt.Errorf("gaps: %w", err)
	}
	for name, spec := range c.ScreenGaps {
		if err := validateGaps(spec.Resolve()); err != nil {
			return fmt.Errorf("screenGaps %s: %w", name, err)
		}
	}

	return nil
}

func validateGaps(g types.Gaps) error {
	if g.Inner.Horizontal < 0 || g.Inner.Vertical < 0 {
		return fmt.Errorf("inner gaps cannot be negative")
	}
	if g.Outer.Top < 0 || g.Outer.Bottom < 0 || g.Outer.Left < 0 || g.Outer.Right < 0 {
		return fmt.Errorf("outer gaps cannot be negative")
	}
	return nil
}
