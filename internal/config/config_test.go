package config

import (
	"strings"
	"testing"
)

func TestLoadConfigFromBytesDefaults(t *testing.T) {
	cfg, err := LoadConfigFromBytes([]byte("{}"), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	if cfg.Layout != "dwindle" {
		t.Errorf("default layout = %s, want dwindle", cfg.Layout)
	}
	if cfg.Master.Ratio != 0.6 {
		t.Errorf("default master ratio = %v, want 0.6", cfg.Master.Ratio)
	}
	if cfg.CoalesceMs != 4 {
		t.Errorf("default coalesce window = %d, want 4", cfg.CoalesceMs)
	}
	if len(cfg.Workspaces) != 9 {
		t.Errorf("default workspace count = %d, want 9", len(cfg.Workspaces))
	}
	if !cfg.AnimationEnabled() {
		t.Error("animation should default to enabled")
	}
}

func TestLoadConfigUniformGaps(t *testing.T) {
	yaml := `
gaps: 12
`
	cfg, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	g := cfg.Gaps.Resolve()
	if g.Inner.Horizontal != 12 || g.Inner.Vertical != 12 {
		t.Errorf("uniform inner gaps = %+v, want 12 on both axes", g.Inner)
	}
	if g.Outer.Top != 12 || g.Outer.Left != 12 {
		t.Errorf("uniform outer gaps = %+v, want 12 on all sides", g.Outer)
	}
}

func TestLoadConfigStructuredGaps(t *testing.T) {
	yaml := `
gaps:
  inner:
    horizontal: 8
    vertical: 4
  outer:
    top: 30
screenGaps:
  "DELL U2720Q":
    inner:
      horizontal: 16
      vertical: 16
`
	cfg, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	g := cfg.GapsForScreen("Built-in Retina Display")
	if g.Inner.Horizontal != 8 || g.Inner.Vertical != 4 || g.Outer.Top != 30 {
		t.Errorf("global gaps = %+v, want inner 8/4 outer top 30", g)
	}

	dell := cfg.GapsForScreen("DELL U2720Q")
	if dell.Inner.Horizontal != 16 {
		t.Errorf("per-screen override not applied, got %+v", dell)
	}
}

func TestValidateRejectsBadMasterRatio(t *testing.T) {
	yaml := `
master:
  ratio: 1.5
`
	_, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err == nil {
		t.Fatal("expected error for master ratio out of range")
	}
	if !strings.Contains(err.Error(), "master ratio") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsDuplicateWorkspaces(t *testing.T) {
	yaml := `
workspaces:
  - name: code
  - name: code
`
	_, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err == nil {
		t.Fatal("expected error for duplicate workspace names")
	}
}

func TestValidateRejectsRuleWithUnknownWorkspace(t *testing.T) {
	yaml := `
workspaces:
  - name: code
rules:
  - app: Safari
    workspace: browse
`
	_, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err == nil {
		t.Fatal("expected error for rule referencing unknown workspace")
	}
}

func TestRuleFor(t *testing.T) {
	yaml := `
workspaces:
  - name: code
  - name: media
rules:
  - app: Spotify
    workspace: media
  - bundleId: com.apple.Terminal
    workspace: code
  - title: "DevTools"
    floating: true
`
	cfg, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	if r := cfg.RuleFor("Spotify", "com.spotify.client", "Spotify"); r == nil || r.Workspace != "media" {
		t.Errorf("app rule did not match: %+v", r)
	}
	if r := cfg.RuleFor("Terminal", "com.apple.Terminal", "bash"); r == nil || r.Workspace != "code" {
		t.Errorf("bundle rule did not match: %+v", r)
	}
	if r := cfg.RuleFor("Chrome", "com.google.Chrome", "DevTools - example.com"); r == nil || !r.Floating {
		t.Errorf("title substring rule did not match: %+v", r)
	}
	if r := cfg.RuleFor("Finder", "com.apple.finder", "Documents"); r != nil {
		t.Errorf("expected no rule match, got %+v", r)
	}
}

func TestIsIgnored(t *testing.T) {
	yaml := `
ignore:
  apps: ["Dock", "SystemUIServer"]
  bundleIds: ["com.apple.notificationcenterui"]
`
	cfg, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	if !cfg.IsIgnored("Dock", "com.apple.dock") {
		t.Error("Dock should be ignored by app name")
	}
	if !cfg.IsIgnored("Notification Center", "com.apple.notificationcenterui") {
		t.Error("notification center should be ignored by bundle id")
	}
	if cfg.IsIgnored("Safari", "com.apple.Safari") {
		t.Error("Safari should not be ignored")
	}
}

func TestLayoutForWorkspace(t *testing.T) {
	yaml := `
layout: master
workspaces:
  - name: code
  - name: media
    layout: monocle
`
	cfg, err := LoadConfigFromBytes([]byte(yaml), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes failed: %v", err)
	}

	if mode := cfg.LayoutForWorkspace("media"); mode != "monocle" {
		t.Errorf("workspace override = %s, want monocle", mode)
	}
	if mode := cfg.LayoutForWorkspace("code"); mode != "master" {
		t.Errorf("fallback layout = %s, want master", mode)
	}
	if mode := cfg.LayoutForWorkspace("unknown"); mode != "master" {
		t.Errorf("unknown workspace layout = %s, want master", mode)
	}
}
