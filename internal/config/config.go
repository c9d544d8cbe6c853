// Package config loads settings for the go-depthanchor commands.
//
// Settings come from an optional YAML file, then environment variables
// override individual fields.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/engine"
	"github.com/teslashibe/go-depthanchor/pkg/pointlog"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Defaults. The anchor, grid, projection and tap-queue policy comes from the
// packages that own it.
const (
	DefaultMaxAnchors    = anchor.DefaultMaxAnchors
	DefaultScanStep      = reconstruct.DefaultScanStep
	DefaultScanOrigin    = reconstruct.DefaultScanStep
	DefaultZNear         = engine.DefaultZNear
	DefaultZFar          = engine.DefaultZFar
	DefaultDepthUnit     = engine.DefaultDepthUnit
	DefaultTapQueueSize  = engine.DefaultTapQueueSize
	DefaultFrameInterval = 33 * time.Millisecond
	DefaultPort          = "8080"
	DefaultPointLogPath  = "data/points.json"
	DefaultPointLogMax   = pointlog.DefaultMaxEntries
	DefaultViewportW     = 1080
	DefaultViewportH     = 1920
)

// Config holds every tunable of the anchor scanner.
type Config struct {
	// Anchors
	MaxAnchors int `yaml:"max_anchors"` // Pool capacity, oldest evicted first

	// Scan sweep
	ScanStep   int  `yaml:"scan_step"`   // Grid stride in pixels
	ScanOrigin int  `yaml:"scan_origin"` // First grid coordinate on both axes
	Scan       bool `yaml:"scan"`        // Start with the sweep enabled

	// Projection
	ZNear     float64 `yaml:"z_near"`     // Near clip plane (meters)
	ZFar      float64 `yaml:"z_far"`      // Far clip plane (meters)
	DepthUnit float64 `yaml:"depth_unit"` // Meters per raw depth count

	// NearPlaneFallback anchors samples taken without a depth frame at the
	// near plane instead of skipping them.
	NearPlaneFallback bool `yaml:"near_plane_fallback"`

	// Surface
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// Render loop
	TapQueueSize  int           `yaml:"tap_queue_size"` // Pending taps kept between frames
	FrameInterval time.Duration `yaml:"frame_interval"`

	// Host
	Port         string `yaml:"port"`           // Dashboard port
	PointLogPath string `yaml:"point_log_path"` // Where reconstructed points are recorded
	PointLogMax  int    `yaml:"point_log_max"`  // Oldest points dropped beyond this
	DepthImage   string `yaml:"depth_image"`    // 16-bit depth PNG; empty = synthetic
	LogLevel     string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		MaxAnchors:     DefaultMaxAnchors,
		ScanStep:       DefaultScanStep,
		ScanOrigin:     DefaultScanOrigin,
		ZNear:          DefaultZNear,
		ZFar:           DefaultZFar,
		DepthUnit:      DefaultDepthUnit,
		TapQueueSize:   DefaultTapQueueSize,
		FrameInterval:  DefaultFrameInterval,
		Port:           DefaultPort,
		PointLogPath:   DefaultPointLogPath,
		PointLogMax:    DefaultPointLogMax,
		ViewportWidth:  DefaultViewportW,
		ViewportHeight: DefaultViewportH,
		LogLevel:       "info",
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from ANCHOR_MAX, SCAN_STEP, DASHBOARD_PORT,
// LOG_LEVEL, DEPTH_IMAGE and POINT_LOG.
func (c *Config) applyEnv() error {
	if v := os.Getenv("ANCHOR_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ANCHOR_MAX: %w", err)
		}
		c.MaxAnchors = n
	}
	if v := os.Getenv("SCAN_STEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SCAN_STEP: %w", err)
		}
		c.ScanStep = n
	}
	if v := os.Getenv("DASHBOARD_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DEPTH_IMAGE"); v != "" {
		c.DepthImage = v
	}
	if v := os.Getenv("POINT_LOG"); v != "" {
		c.PointLogPath = v
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.MaxAnchors < 1:
		return errors.New("config: max_anchors must be at least 1")
	case c.ScanStep < 1:
		return errors.New("config: scan_step must be at least 1")
	case c.ScanOrigin < 0:
		return errors.New("config: scan_origin must not be negative")
	case c.ZNear <= 0:
		return errors.New("config: z_near must be positive")
	case c.ZFar <= c.ZNear:
		return errors.New("config: z_far must be greater than z_near")
	case c.DepthUnit <= 0:
		return errors.New("config: depth_unit must be positive")
	case c.ViewportWidth < 1 || c.ViewportHeight < 1:
		return errors.New("config: viewport must have positive width and height")
	case c.FrameInterval <= 0:
		return errors.New("config: frame_interval must be positive")
	}
	return nil
}
