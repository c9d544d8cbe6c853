package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-depthanchor/pkg/engine"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MaxAnchors != 20 {
		t.Errorf("Expected MaxAnchors=20, got %d", cfg.MaxAnchors)
	}
	if cfg.ScanStep != 100 || cfg.ScanOrigin != 100 {
		t.Errorf("Expected 100px scan grid, got step=%d origin=%d", cfg.ScanStep, cfg.ScanOrigin)
	}
	if cfg.ZNear != 0.1 || cfg.ZFar != 100 {
		t.Errorf("Expected clip planes 0.1/100, got %v/%v", cfg.ZNear, cfg.ZFar)
	}
	if cfg.Scan {
		t.Error("Expected scan sweep off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestDefault_MatchesEngine(t *testing.T) {
	cfg := Default()
	ec := engine.DefaultConfig()

	if cfg.MaxAnchors != ec.MaxAnchors || cfg.ScanStep != ec.ScanStep || cfg.ScanOrigin != ec.ScanOrigin {
		t.Errorf("pool/grid defaults differ: config %d/%d/%d, engine %d/%d/%d",
			cfg.MaxAnchors, cfg.ScanStep, cfg.ScanOrigin, ec.MaxAnchors, ec.ScanStep, ec.ScanOrigin)
	}
	if cfg.ZNear != ec.ZNear || cfg.ZFar != ec.ZFar || cfg.DepthUnit != ec.DepthUnit {
		t.Errorf("projection defaults differ: config %v/%v/%v, engine %v/%v/%v",
			cfg.ZNear, cfg.ZFar, cfg.DepthUnit, ec.ZNear, ec.ZFar, ec.DepthUnit)
	}
	if cfg.TapQueueSize != ec.TapQueueSize || cfg.NearPlaneFallback != ec.NearPlaneFallback {
		t.Errorf("tap/fallback defaults differ: config %d/%v, engine %d/%v",
			cfg.TapQueueSize, cfg.NearPlaneFallback, ec.TapQueueSize, ec.NearPlaneFallback)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchors.yaml")
	data := []byte("max_anchors: 8\nscan_step: 50\nscan: true\nframe_interval: 16ms\nport: \"9090\"\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxAnchors != 8 || cfg.ScanStep != 50 || !cfg.Scan {
		t.Errorf("YAML not applied: %+v", cfg)
	}
	if cfg.FrameInterval != 16*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 16ms", cfg.FrameInterval)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	// Unset fields keep their defaults.
	if cfg.ZFar != DefaultZFar {
		t.Errorf("ZFar = %v, want default %v", cfg.ZFar, DefaultZFar)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ANCHOR_MAX", "5")
	t.Setenv("SCAN_STEP", "25")
	t.Setenv("DASHBOARD_PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxAnchors != 5 || cfg.ScanStep != 25 || cfg.Port != "7000" || cfg.LogLevel != "debug" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("ANCHOR_MAX", "many")
		if _, err := Load(""); err == nil {
			t.Error("expected error for non-numeric ANCHOR_MAX")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("ANCHOR_MAX", "0")
		if _, err := Load(""); err == nil {
			t.Error("expected validation error for ANCHOR_MAX=0")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max anchors", func(c *Config) { c.MaxAnchors = 0 }},
		{"scan step", func(c *Config) { c.ScanStep = 0 }},
		{"scan origin", func(c *Config) { c.ScanOrigin = -1 }},
		{"near plane", func(c *Config) { c.ZNear = 0 }},
		{"far plane", func(c *Config) { c.ZFar = c.ZNear }},
		{"depth unit", func(c *Config) { c.DepthUnit = 0 }},
		{"frame interval", func(c *Config) { c.FrameInterval = 0 }},
		{"viewport", func(c *Config) { c.ViewportHeight = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected %s to be rejected", tt.name)
			}
		})
	}
}
