// Package anchor manages a bounded pool of spatial anchors.
//
// Anchors are created by an external tracking runtime through the Tracker
// interface. The pool keeps them in creation order and detaches the oldest
// one when a new anchor would exceed capacity.
package anchor

import (
	"time"

	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

// DefaultMaxAnchors is the pool capacity used when none is configured.
const DefaultMaxAnchors = 20

// ID is the tracker's opaque anchor handle.
type ID string

// State is the lifecycle state of an anchor.
type State int

const (
	// Pending anchors were requested but the tracker has not confirmed them yet.
	Pending State = iota
	// Active anchors are being tracked.
	Active
	// Detached anchors were evicted or torn down. Detached is terminal.
	Detached
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Detached:
		return "detached"
	default:
		return "unknown"
	}
}

// MarshalText lets states serialize by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Anchor is a pooled anchor handle and the pose it was created at.
type Anchor struct {
	ID        ID        `json:"id"`
	Pose      geom.Pose `json:"pose"`
	State     State     `json:"state"`
	Seq       uint64    `json:"seq"` // Insertion order, starting at 1
	CreatedAt time.Time `json:"created_at"`
}

// Tracker is the capability the pool needs from the tracking runtime.
type Tracker interface {
	// CreateAnchor starts tracking a fixed pose and returns its handle.
	CreateAnchor(pose geom.Pose) (ID, error)

	// Detach releases the tracking resource behind id.
	Detach(id ID) error

	// IsTracking reports whether the runtime is actively tracking id.
	IsTracking(id ID) bool
}
