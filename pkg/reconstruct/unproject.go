package reconstruct

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

// minClipW guards the perspective divide.
const minClipW = 1e-12

// Unprojector converts screen points back into world space. It keeps the
// inverse of the last view-projection it saw, so repeated calls within one
// frame invert the matrix once. The zero value is ready to use.
//
// An Unprojector is not safe for concurrent use.
type Unprojector struct {
	inverter geom.Inverter
	last     geom.Mat4
	inverse  geom.Mat4
	lastErr  error
	primed   bool
}

// Unproject returns the world point for screen point p at window depth
// depth in [0, 1]. Depth 0 maps to the near plane and is the fallback used
// when no depth sample is available.
func (u *Unprojector) Unproject(p ScreenPoint, depth float64, vp Viewport, viewProj geom.Mat4) (r3.Vector, error) {
	if !vp.Valid() {
		return r3.Vector{}, ErrInvalidViewport
	}

	inv, err := u.invert(viewProj)
	if err != nil {
		return r3.Vector{}, ErrDegenerateProjection
	}

	ndc := r3.Vector{
		X: 2*p.X/float64(vp.Width) - 1,
		Y: 1 - 2*p.Y/float64(vp.Height),
		Z: 2*depth - 1,
	}

	world, w := inv.Transform(ndc, 1)
	if math.Abs(w) < minClipW {
		return r3.Vector{}, ErrDegenerateProjection
	}
	world = world.Mul(1 / w)
	if !geom.Finite(world) {
		return r3.Vector{}, ErrDegenerateProjection
	}
	return world, nil
}

func (u *Unprojector) invert(m geom.Mat4) (geom.Mat4, error) {
	if u.primed && m == u.last {
		return u.inverse, u.lastErr
	}
	u.inverse, u.lastErr = u.inverter.Invert(m)
	u.last = m
	u.primed = true
	return u.inverse, u.lastErr
}

// Unproject is a convenience wrapper around a throwaway Unprojector.
func Unproject(p ScreenPoint, depth float64, vp Viewport, viewProj geom.Mat4) (r3.Vector, error) {
	var u Unprojector
	return u.Unproject(p, depth, vp, viewProj)
}

// Project maps a world point onto the screen. It returns the screen point,
// its window depth, and false when the point sits on the camera plane.
func Project(world r3.Vector, vp Viewport, viewProj geom.Mat4) (ScreenPoint, float64, bool) {
	clip, w := viewProj.Transform(world, 1)
	if math.Abs(w) < minClipW || !vp.Valid() {
		return ScreenPoint{}, 0, false
	}
	ndc := clip.Mul(1 / w)

	p := ScreenPoint{
		X: (ndc.X + 1) / 2 * float64(vp.Width),
		Y: (1 - ndc.Y) / 2 * float64(vp.Height),
	}
	return p, (ndc.Z + 1) / 2, true
}

// WindowDepth converts a metric depth reading into the window depth that
// Unproject expects for a perspective projection with the given clip planes.
// raw is scaled by unit (meters per count). A zero reading returns 0, the
// near-plane fallback. Readings beyond the clip planes are clamped.
func WindowDepth(raw uint16, unit, near, far float64) float64 {
	if raw == 0 || near <= 0 || far <= near {
		return 0
	}
	z := float64(raw) * unit
	z = math.Max(near, math.Min(far, z))
	return far * (z - near) / (z * (far - near))
}
