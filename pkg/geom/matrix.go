// Package geom provides the 4x4 transform and pose types shared by the
// reconstruction and anchor packages.
//
// Matrices are column-major, the layout the tracking runtime hands over for
// its view and projection matrices: element (row r, column c) lives at m[c*4+r].
package geom

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a matrix cannot be inverted.
var ErrSingular = errors.New("geom: matrix is singular")

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

// Mul returns a×b.
func Mul(a, b Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+r] * b[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Transform multiplies the homogeneous vector (v, w) by m and returns the
// xyz part together with the resulting w.
func (m Mat4) Transform(v r3.Vector, w float64) (r3.Vector, float64) {
	x := m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*w
	y := m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*w
	z := m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*w
	ow := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*w
	return r3.Vector{X: x, Y: y, Z: z}, ow
}

// Translate returns a translation matrix.
func Translate(t r3.Vector) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	return m
}

// Perspective returns a right-handed OpenGL projection matrix.
// fovY is the vertical field of view in radians.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	rangeInv := 1 / (near - far)

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) * rangeInv
	m[11] = -1
	m[14] = 2 * far * near * rangeInv
	return m
}

// LookAt returns a view matrix for a camera at eye looking toward center.
func LookAt(eye, center, up r3.Vector) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	m := Identity()
	m[0], m[4], m[8] = s.X, s.Y, s.Z
	m[1], m[5], m[9] = u.X, u.Y, u.Z
	m[2], m[6], m[10] = -f.X, -f.Y, -f.Z
	m[12] = -s.Dot(eye)
	m[13] = -u.Dot(eye)
	m[14] = f.Dot(eye)
	return m
}

// Inverse returns the inverse of m.
func Inverse(m Mat4) (Mat4, error) {
	var inv Inverter
	return inv.Invert(m)
}

// Inverter inverts matrices while reusing its gonum scratch storage,
// so a render loop can invert once per sample without allocating.
type Inverter struct {
	src  *mat.Dense
	dst  *mat.Dense
	data [16]float64
}

// Invert returns the inverse of m. Singular and ill-conditioned matrices
// both yield ErrSingular.
func (iv *Inverter) Invert(m Mat4) (Mat4, error) {
	if iv.src == nil {
		iv.src = mat.NewDense(4, 4, nil)
		iv.dst = mat.NewDense(4, 4, nil)
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			iv.data[r*4+c] = m[c*4+r]
		}
	}
	for i, v := range iv.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Mat4{}, ErrSingular
		}
		iv.src.Set(i/4, i%4, v)
	}

	if err := iv.dst.Inverse(iv.src); err != nil {
		return Mat4{}, ErrSingular
	}

	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = iv.dst.At(r, c)
		}
	}
	return out, nil
}
