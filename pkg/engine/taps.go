package engine

import (
	"sync"

	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// DefaultTapQueueSize bounds how many taps wait between frames.
const DefaultTapQueueSize = 16

// TapQueue buffers taps from the input goroutine until the render loop
// polls them, one per frame. It is safe for concurrent use.
type TapQueue struct {
	mu      sync.Mutex
	taps    []reconstruct.ScreenPoint
	size    int
	dropped int
}

// NewTapQueue creates a queue holding at most size taps.
func NewTapQueue(size int) *TapQueue {
	if size < 1 {
		size = DefaultTapQueueSize
	}
	return &TapQueue{size: size, taps: make([]reconstruct.ScreenPoint, 0, size)}
}

// Offer queues p. It returns false and drops the tap when the queue is full.
func (q *TapQueue) Offer(p reconstruct.ScreenPoint) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.taps) >= q.size {
		q.dropped++
		return false
	}
	q.taps = append(q.taps, p)
	return true
}

// Poll removes and returns the oldest tap.
func (q *TapQueue) Poll() (reconstruct.ScreenPoint, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.taps) == 0 {
		return reconstruct.ScreenPoint{}, false
	}
	p := q.taps[0]
	copy(q.taps, q.taps[1:])
	q.taps = q.taps[:len(q.taps)-1]
	return p, true
}

// Len returns the number of queued taps.
func (q *TapQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.taps)
}

// Dropped returns how many taps were refused because the queue was full.
func (q *TapQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
