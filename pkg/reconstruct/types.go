// Package reconstruct turns screen coordinates into world-space points.
//
// It holds the three pure stages of the pipeline: remapping a screen point
// into the depth sensor's frame and decoding the sample there, unprojecting
// (point, depth) through the inverse view-projection, and generating the
// fixed screen-space grid walked by a scan sweep.
package reconstruct

import (
	"fmt"

	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

// ScreenPoint is a position in viewport pixels, origin at the top-left.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p ScreenPoint) String() string {
	return fmt.Sprintf("(%.0f,%.0f)", p.X, p.Y)
}

// Viewport is the size of the rendering surface in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the viewport has a non-zero area.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Contains reports whether p lies inside the viewport.
func (v Viewport) Contains(p ScreenPoint) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(v.Width) && p.Y < float64(v.Height)
}

// CameraMatrices are the per-frame camera transforms.
type CameraMatrices struct {
	View       geom.Mat4
	Projection geom.Mat4
}

// ViewProjection returns projection×view. It is recomputed on every call so
// it always reflects the matrices of the current frame.
func (c CameraMatrices) ViewProjection() geom.Mat4 {
	return geom.Mul(c.Projection, c.View)
}
