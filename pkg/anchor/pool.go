package anchor

import (
	"iter"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

// Pool is a bounded, insertion-ordered collection of anchors with
// oldest-first eviction.
//
// A Pool is driven from the render loop and is not safe for concurrent use:
// Add, Clear and iteration must be sequenced by the caller.
type Pool struct {
	tracker Tracker
	max     int
	anchors []*Anchor
	retired map[ID]struct{} // Handles detached by this pool
	seq     uint64
	onEvict func(Anchor)
	now     func() time.Time
}

// NewPool creates a pool that holds at most max anchors.
// A non-positive max falls back to DefaultMaxAnchors.
func NewPool(tracker Tracker, max int) *Pool {
	if max < 1 {
		max = DefaultMaxAnchors
	}
	return &Pool{
		tracker: tracker,
		max:     max,
		anchors: make([]*Anchor, 0, max),
		retired: make(map[ID]struct{}),
		now:     time.Now,
	}
}

// OnEvict registers a callback invoked after an anchor is evicted to make room.
func (p *Pool) OnEvict(fn func(Anchor)) {
	p.onEvict = fn
}

// Add asks the tracker for an anchor at point and appends it to the pool.
// When the pool is full the oldest anchor is detached and removed first.
// Tracker failures, including a handle the pool already detached, are
// returned as *CreateError.
func (p *Pool) Add(point r3.Vector) (ID, error) {
	if !geom.Finite(point) {
		return "", ErrNonFinitePoint
	}

	if len(p.anchors) >= p.max {
		p.evictOldest()
	}

	pose := geom.PoseAt(point)
	id, err := p.tracker.CreateAnchor(pose)
	if err != nil {
		return "", &CreateError{Point: point, Err: err}
	}
	if _, ok := p.retired[id]; ok {
		return "", &CreateError{Point: point, Err: ErrDetachedHandle}
	}

	p.seq++
	p.anchors = append(p.anchors, &Anchor{
		ID:        id,
		Pose:      pose,
		State:     Pending,
		Seq:       p.seq,
		CreatedAt: p.now(),
	})
	return id, nil
}

func (p *Pool) evictOldest() {
	oldest := p.anchors[0]
	p.detach(oldest)

	copy(p.anchors, p.anchors[1:])
	p.anchors[len(p.anchors)-1] = nil
	p.anchors = p.anchors[:len(p.anchors)-1]

	if p.onEvict != nil {
		p.onEvict(*oldest)
	}
}

// detach releases a's tracking resource once. A tracker error is logged and
// the anchor is still marked detached.
func (p *Pool) detach(a *Anchor) {
	if a.State == Detached {
		return
	}
	if err := p.tracker.Detach(a.ID); err != nil {
		log.Warn("anchor detach failed", "id", a.ID, "error", err)
	}
	a.State = Detached
	p.retired[a.ID] = struct{}{}
}

// Refresh promotes pending anchors the tracker has started tracking.
// Call it once per frame before drawing.
func (p *Pool) Refresh() {
	for _, a := range p.anchors {
		if a.State == Pending && p.tracker.IsTracking(a.ID) {
			a.State = Active
		}
	}
}

// All yields the pooled anchors oldest first. Each call starts a fresh
// traversal.
func (p *Pool) All() iter.Seq[Anchor] {
	return func(yield func(Anchor) bool) {
		for _, a := range p.anchors {
			if !yield(*a) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the pooled anchors, oldest first.
func (p *Pool) Snapshot() []Anchor {
	out := make([]Anchor, 0, len(p.anchors))
	for a := range p.All() {
		out = append(out, a)
	}
	return out
}

// Len returns the number of pooled anchors.
func (p *Pool) Len() int {
	return len(p.anchors)
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.max
}

// Clear detaches and removes every anchor. Clearing an empty pool is a no-op.
func (p *Pool) Clear() {
	for i, a := range p.anchors {
		p.detach(a)
		p.anchors[i] = nil
	}
	p.anchors = p.anchors[:0]
}
