package reconstruct

import "errors"

// Sentinel errors for reconstruction failures. None of them is fatal: a
// failed sample is skipped and redone on a later frame or tap.
var (
	// ErrDepthUnavailable is reported when the sensor has not produced a
	// depth frame for the current capture cycle yet.
	ErrDepthUnavailable = errors.New("reconstruct: depth frame not available")

	// ErrDepthOutOfBounds is reported when the remapped depth pixel falls
	// outside the depth frame or its buffer.
	ErrDepthOutOfBounds = errors.New("reconstruct: depth sample out of bounds")

	// ErrDegenerateProjection is reported when unprojection produces a
	// non-finite point, usually because the view-projection is singular.
	ErrDegenerateProjection = errors.New("reconstruct: degenerate projection")

	// ErrInvalidViewport is reported when the viewport has no area.
	ErrInvalidViewport = errors.New("reconstruct: invalid viewport")
)
