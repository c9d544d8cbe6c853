package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Quat is a rotation quaternion stored as (x, y, z, w).
type Quat [4]float64

// IdentityQuat is the orientation given to reconstructed points.
var IdentityQuat = Quat{0, 0, 0, 1}

// Pose is a position plus orientation in world space.
type Pose struct {
	Position    r3.Vector
	Orientation Quat
}

// PoseAt returns a pose at p with the identity orientation.
func PoseAt(p r3.Vector) Pose {
	return Pose{Position: p, Orientation: IdentityQuat}
}

// Matrix returns the model matrix of a pose.
func (p Pose) Matrix() Mat4 {
	x, y, z, w := p.Orientation[0], p.Orientation[1], p.Orientation[2], p.Orientation[3]

	m := Identity()
	m[0] = 1 - 2*(y*y+z*z)
	m[1] = 2 * (x*y + z*w)
	m[2] = 2 * (x*z - y*w)
	m[4] = 2 * (x*y - z*w)
	m[5] = 1 - 2*(x*x+z*z)
	m[6] = 2 * (y*z + x*w)
	m[8] = 2 * (x*z + y*w)
	m[9] = 2 * (y*z - x*w)
	m[10] = 1 - 2*(x*x+y*y)
	m[12], m[13], m[14] = p.Position.X, p.Position.Y, p.Position.Z
	return m
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
