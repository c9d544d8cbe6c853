// Package sim stands in for the tracking runtime so the engine can run
// on a desktop: an orbiting camera, a synthetic depth sensor looking at a
// wall, and an in-memory anchor tracker.
package sim

import (
	"errors"
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/pkg/engine"
	"github.com/teslashibe/go-depthanchor/pkg/geom"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Sensor resolution of the simulated depth camera.
const (
	DefaultSensorWidth  = 160
	DefaultSensorHeight = 120
)

// Scene configuration.
type Scene struct {
	Viewport reconstruct.Viewport

	SensorWidth  int
	SensorHeight int

	FOVY   float64 // Vertical field of view, radians
	ZNear  float64 // meters
	ZFar   float64 // meters
	Radius float64 // Orbit radius and distance to the wall, meters
	Height float64 // Camera height, meters
	Speed  float64 // Orbit rate, radians per second

	Tilt float64 // Depth added per sensor column, millimeters

	// HoleColumns leading sensor columns read zero, like a sensor edge
	// with no return.
	HoleColumns int

	// Unavailable withholds the depth frame entirely.
	Unavailable bool

	depth *reconstruct.DepthFrame
}

// NewScene creates a scene viewed through vp with stock optics.
func NewScene(vp reconstruct.Viewport) *Scene {
	return &Scene{
		Viewport:     vp,
		SensorWidth:  DefaultSensorWidth,
		SensorHeight: DefaultSensorHeight,
		FOVY:         60 * math.Pi / 180,
		ZNear:        0.1,
		ZFar:         100,
		Radius:       2,
		Height:       1.5,
		Speed:        0.2,
	}
}

// Camera returns the view and projection matrices at time t into the orbit.
func (s *Scene) Camera(t time.Duration) reconstruct.CameraMatrices {
	theta := s.Speed * t.Seconds()
	eye := r3.Vector{
		X: s.Radius * math.Sin(theta),
		Y: s.Height,
		Z: s.Radius * math.Cos(theta),
	}
	center := r3.Vector{Y: s.Height}
	aspect := float64(s.Viewport.Width) / float64(s.Viewport.Height)

	return reconstruct.CameraMatrices{
		View:       geom.LookAt(eye, center, r3.Vector{Y: 1}),
		Projection: geom.Perspective(s.FOVY, aspect, s.ZNear, s.ZFar),
	}
}

// Depth renders the synthetic depth frame. The returned frame is reused by
// the next call.
func (s *Scene) Depth() *reconstruct.DepthFrame {
	if s.Unavailable {
		return nil
	}
	if s.depth == nil || s.depth.Width != s.SensorWidth || s.depth.Height != s.SensorHeight {
		s.depth = reconstruct.NewDepthFrame(s.SensorWidth, s.SensorHeight)
	}

	base := s.Radius * 1000
	for x := 0; x < s.SensorWidth; x++ {
		var raw uint16
		if x >= s.HoleColumns {
			mm := base + s.Tilt*float64(x)
			raw = uint16(math.Max(0, math.Min(mm, math.MaxUint16)))
		}
		for y := 0; y < s.SensorHeight; y++ {
			s.depth.Set(x, y, raw)
		}
	}
	return s.depth
}

// Frame assembles the frame-coherent input for time t.
func (s *Scene) Frame(t time.Duration, now time.Time) engine.Frame {
	return engine.Frame{
		Viewport:  s.Viewport,
		Camera:    s.Camera(t),
		Depth:     s.Depth(),
		Timestamp: now,
	}
}

// HitTest accepts taps that land on a valid, nonzero depth reading.
func HitTest(f engine.Frame, p reconstruct.ScreenPoint) bool {
	return hit(f, p, false)
}

// NewHitTest returns the tap predicate matching the engine's depth policy.
// With nearPlaneFallback set, on-screen taps are also accepted while the
// depth stream is unavailable, so the engine can anchor them at the near
// plane.
func NewHitTest(nearPlaneFallback bool) engine.HitTest {
	if !nearPlaneFallback {
		return HitTest
	}
	return func(f engine.Frame, p reconstruct.ScreenPoint) bool {
		return hit(f, p, true)
	}
}

func hit(f engine.Frame, p reconstruct.ScreenPoint, nearPlaneFallback bool) bool {
	if !f.Viewport.Contains(p) {
		return false
	}
	s := reconstruct.Sample(p, f.Viewport, f.Depth)
	if nearPlaneFallback && errors.Is(s.Err, reconstruct.ErrDepthUnavailable) {
		return true
	}
	return s.Valid && s.Raw > 0
}

var _ engine.HitTest = HitTest
