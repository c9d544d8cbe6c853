package anchor

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
)

// Sentinel errors for the anchor package.
var (
	// ErrCreateFailed indicates the tracker refused to create an anchor.
	ErrCreateFailed = errors.New("anchor: creation failed")

	// ErrNonFinitePoint indicates a NaN or Inf position was offered to the pool.
	ErrNonFinitePoint = errors.New("anchor: non-finite point")

	// ErrUnknownAnchor indicates the tracker has no live anchor with that id.
	ErrUnknownAnchor = errors.New("anchor: unknown anchor")

	// ErrDetachedHandle indicates the tracker handed back a handle the pool
	// has already detached.
	ErrDetachedHandle = errors.New("anchor: handle already detached")
)

// CreateError wraps a tracker failure with the point that was being anchored.
type CreateError struct {
	Point r3.Vector
	Err   error
}

// Error implements the error interface.
func (e *CreateError) Error() string {
	return fmt.Sprintf("anchor: create at (%.3f, %.3f, %.3f): %v", e.Point.X, e.Point.Y, e.Point.Z, e.Err)
}

// Unwrap returns the underlying error.
func (e *CreateError) Unwrap() error {
	return e.Err
}

// Is makes every CreateError match ErrCreateFailed.
func (e *CreateError) Is(target error) bool {
	return target == ErrCreateFailed
}
