package engine

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Source says which entry point produced a sample.
type Source string

const (
	SourceTap  Source = "tap"
	SourceScan Source = "scan"
)

// Event is emitted to the Observer as the engine works.
type Event interface {
	Kind() string
}

// Observer receives engine events on the render-loop goroutine.
// Implementations must not block.
type Observer func(Event)

// PointReconstructed is emitted when a sample became an anchor.
type PointReconstructed struct {
	Screen      reconstruct.ScreenPoint `json:"screen"`
	World       r3.Vector               `json:"world"`
	Depth       reconstruct.DepthSample `json:"depth"`
	WindowDepth float64                 `json:"window_depth"`
	Anchor      anchor.ID               `json:"anchor"`
	Source      Source                  `json:"source"`
	Time        time.Time               `json:"time"`
}

// Kind implements Event.
func (PointReconstructed) Kind() string { return "point" }

// SampleSkipped is emitted when a sample produced no anchor.
type SampleSkipped struct {
	Screen reconstruct.ScreenPoint `json:"screen"`
	Source Source                  `json:"source"`
	Reason string                  `json:"reason"`
	Err    error                   `json:"-"`
}

// Kind implements Event.
func (SampleSkipped) Kind() string { return "skipped" }

// AnchorEvicted is emitted after the pool dropped its oldest anchor.
type AnchorEvicted struct {
	Anchor anchor.Anchor `json:"anchor"`
}

// Kind implements Event.
func (AnchorEvicted) Kind() string { return "evicted" }

// SweepCompleted is emitted at the end of every scan sweep.
type SweepCompleted struct {
	Report SweepReport `json:"report"`
}

// Kind implements Event.
func (SweepCompleted) Kind() string { return "sweep" }

// SweepReport summarizes one scan sweep.
type SweepReport struct {
	Sampled  int           `json:"sampled"`
	Anchored int           `json:"anchored"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}
