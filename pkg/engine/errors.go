package engine

import (
	"errors"

	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// ErrTapRejected is returned for taps that failed the hit test.
var ErrTapRejected = errors.New("engine: tap rejected by hit test")

// IsSkipped reports whether err is an expected per-sample skip rather than
// a tracker failure. Skips are never worth retrying within the same frame.
func IsSkipped(err error) bool {
	return errors.Is(err, reconstruct.ErrDepthUnavailable) ||
		errors.Is(err, reconstruct.ErrDepthOutOfBounds) ||
		errors.Is(err, reconstruct.ErrDegenerateProjection) ||
		errors.Is(err, reconstruct.ErrInvalidViewport) ||
		errors.Is(err, ErrTapRejected)
}
