package sim

import (
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

type trackedAnchor struct {
	pose  geom.Pose
	frame uint64
}

// Tracker is an in-memory anchor.Tracker. New anchors report tracking
// one frame after creation, the way a real runtime confirms them.
type Tracker struct {
	mu      sync.Mutex
	frame   uint64
	anchors map[anchor.ID]trackedAnchor
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{anchors: make(map[anchor.ID]trackedAnchor)}
}

// Advance moves the tracker to the next frame.
func (t *Tracker) Advance() {
	t.mu.Lock()
	t.frame++
	t.mu.Unlock()
}

// CreateAnchor implements anchor.Tracker.
func (t *Tracker) CreateAnchor(pose geom.Pose) (anchor.ID, error) {
	id := anchor.ID(uuid.NewString())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.anchors[id] = trackedAnchor{pose: pose, frame: t.frame}
	return id, nil
}

// Detach implements anchor.Tracker.
func (t *Tracker) Detach(id anchor.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.anchors[id]; !ok {
		return anchor.ErrUnknownAnchor
	}
	delete(t.anchors, id)
	return nil
}

// IsTracking implements anchor.Tracker.
func (t *Tracker) IsTracking(id anchor.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.anchors[id]
	return ok && t.frame > a.frame
}

// Pose returns the pose an anchor was created at.
func (t *Tracker) Pose(id anchor.ID) (geom.Pose, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.anchors[id]
	return a.pose, ok
}

// Len returns the number of live anchors.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.anchors)
}

var _ anchor.Tracker = (*Tracker)(nil)
