package anchor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-depthanchor/pkg/geom"
)

// Mock implements Tracker for testing.
// All methods can be customized via function fields.
type Mock struct {
	// CreateFunc is called when CreateAnchor is invoked.
	// If nil, a uuid handle is returned and the anchor is tracked immediately.
	CreateFunc func(pose geom.Pose) (ID, error)

	// DetachFunc is called when Detach is invoked.
	// If nil, the handle is released; releasing an unknown handle fails.
	DetachFunc func(id ID) error

	// TrackingFunc is called when IsTracking is invoked.
	// If nil, every live handle is tracking.
	TrackingFunc func(id ID) bool

	mu       sync.Mutex
	live     map[ID]geom.Pose
	created  []ID
	detached []ID
}

// NewMock creates a mock tracker with default behavior.
func NewMock() *Mock {
	return &Mock{live: make(map[ID]geom.Pose)}
}

// CreateAnchor calls CreateFunc and records the handle.
func (m *Mock) CreateAnchor(pose geom.Pose) (ID, error) {
	var (
		id  ID
		err error
	)
	if m.CreateFunc != nil {
		id, err = m.CreateFunc(pose)
	} else {
		id = ID(uuid.NewString())
	}
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live == nil {
		m.live = make(map[ID]geom.Pose)
	}
	m.live[id] = pose
	m.created = append(m.created, id)
	return id, nil
}

// Detach calls DetachFunc and records the handle.
func (m *Mock) Detach(id ID) error {
	m.mu.Lock()
	m.detached = append(m.detached, id)
	_, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()

	if m.DetachFunc != nil {
		return m.DetachFunc(id)
	}
	if !ok {
		return ErrUnknownAnchor
	}
	return nil
}

// IsTracking calls TrackingFunc.
func (m *Mock) IsTracking(id ID) bool {
	if m.TrackingFunc != nil {
		return m.TrackingFunc(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[id]
	return ok
}

// Created returns every handle handed out, in order.
func (m *Mock) Created() []ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ID(nil), m.created...)
}

// Detached returns every Detach call's handle, in order.
func (m *Mock) Detached() []ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ID(nil), m.detached...)
}

// Live returns the number of handles not yet detached.
func (m *Mock) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Pose returns the pose a live handle was created at.
func (m *Mock) Pose(id ID) (geom.Pose, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.live[id]
	return p, ok
}

// Ensure Mock implements Tracker
var _ Tracker = (*Mock)(nil)
