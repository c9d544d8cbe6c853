package engine

import (
	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Default projection and depth units.
const (
	DefaultZNear     = 0.1   // meters
	DefaultZFar      = 100.0 // meters
	DefaultDepthUnit = 0.001 // meters per raw count (millimeters)
)

// Config holds the reconstruction and pooling policy.
type Config struct {
	MaxAnchors int // Pool capacity
	ScanStep   int // Grid stride in pixels
	ScanOrigin int // First grid coordinate on both axes

	// Projection used to turn metric depth into window depth.
	ZNear     float64 // meters
	ZFar      float64 // meters
	DepthUnit float64 // meters per raw depth count

	// NearPlaneFallback anchors samples taken while the depth stream is
	// unavailable at the near plane instead of skipping them.
	NearPlaneFallback bool

	TapQueueSize int
}

// DefaultConfig returns the stock policy: 20 anchors, a 100px grid starting
// at (100,100), millimeter depth and 0.1m/100m clip planes.
func DefaultConfig() Config {
	return Config{
		MaxAnchors:   anchor.DefaultMaxAnchors,
		ScanStep:     reconstruct.DefaultScanStep,
		ScanOrigin:   reconstruct.DefaultScanStep,
		ZNear:        DefaultZNear,
		ZFar:         DefaultZFar,
		DepthUnit:    DefaultDepthUnit,
		TapQueueSize: DefaultTapQueueSize,
	}
}
