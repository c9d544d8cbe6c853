// Package engine drives screen-to-world reconstruction once per frame.
//
// For each screen point, from a tap or from the scan grid, the engine samples
// the depth frame, unprojects the point through the frame's camera and hands
// the world point to the anchor pool. Everything runs synchronously on the
// render-loop goroutine; only the tap queue and the scan toggle may be
// touched from other goroutines.
package engine

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/debug"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Frame is the frame-coherent input of one render tick.
type Frame struct {
	Viewport  reconstruct.Viewport
	Camera    reconstruct.CameraMatrices
	Depth     *reconstruct.DepthFrame // nil while the sensor has no frame
	Timestamp time.Time
}

// HitTest decides whether a tap landed on something worth anchoring.
// It is supplied by the tracking runtime.
type HitTest func(f Frame, p reconstruct.ScreenPoint) bool

// Result is a successfully anchored sample.
type Result struct {
	Screen      reconstruct.ScreenPoint
	Depth       reconstruct.DepthSample
	WindowDepth float64
	World       r3.Vector
	Anchor      anchor.ID
}

// StepReport summarizes one call to Step.
type StepReport struct {
	Tapped bool
	Tap    error
	Sweep  *SweepReport
}

// Engine owns the anchor pool and the per-frame reconstruction state.
type Engine struct {
	cfg      Config
	pool     *anchor.Pool
	unproj   reconstruct.Unprojector
	taps     *TapQueue
	hitTest  HitTest
	observer Observer
	scanning atomic.Bool

	depthLost bool
	now       func() time.Time
}

// New creates an engine that anchors points through tracker.
func New(cfg Config, tracker anchor.Tracker) *Engine {
	e := &Engine{
		cfg:  cfg,
		pool: anchor.NewPool(tracker, cfg.MaxAnchors),
		taps: NewTapQueue(cfg.TapQueueSize),
		now:  time.Now,
	}
	e.pool.OnEvict(func(a anchor.Anchor) {
		e.emit(AnchorEvicted{Anchor: a})
	})
	return e
}

// SetObserver registers the event callback. Call before the first frame.
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// SetHitTest registers the tap predicate. Without one every tap is accepted.
func (e *Engine) SetHitTest(h HitTest) {
	e.hitTest = h
}

// SetScanning toggles the per-frame scan sweep. Safe from any goroutine.
func (e *Engine) SetScanning(on bool) {
	if e.scanning.Swap(on) != on {
		log.Info("scan sweep toggled", "enabled", on)
	}
}

// Scanning reports whether the scan sweep is on.
func (e *Engine) Scanning() bool {
	return e.scanning.Load()
}

// Taps returns the queue input goroutines push taps into.
func (e *Engine) Taps() *TapQueue {
	return e.taps
}

// Anchors yields the pooled anchors oldest first, for drawing.
func (e *Engine) Anchors() iter.Seq[anchor.Anchor] {
	return e.pool.All()
}

// Pool exposes the anchor pool.
func (e *Engine) Pool() *anchor.Pool {
	return e.pool
}

// Step runs one frame: it refreshes anchor states, runs the scan sweep if
// enabled and handles at most one queued tap.
func (e *Engine) Step(f Frame) StepReport {
	var rep StepReport

	e.pool.Refresh()

	if e.Scanning() {
		sr := e.Sweep(f)
		rep.Sweep = &sr
	}

	if p, ok := e.taps.Poll(); ok {
		rep.Tapped = true
		accepted := e.hitTest == nil || e.hitTest(f, p)
		_, rep.Tap = e.HandleTap(f, p, accepted)
	}
	return rep
}

// HandleTap reconstructs and anchors a single tapped point. accepted is the
// tracking runtime's verdict on the tap; rejected taps are skipped.
func (e *Engine) HandleTap(f Frame, p reconstruct.ScreenPoint, accepted bool) (Result, error) {
	if !accepted {
		e.skip(p, SourceTap, ErrTapRejected)
		return Result{}, ErrTapRejected
	}

	res, err := e.reconstruct(f, p, SourceTap)
	if err != nil && !IsSkipped(err) {
		log.Warn("tap anchor failed", "screen", p, "error", err)
	}
	return res, err
}

// Sweep walks the scan grid once, anchoring every point it can. Failures
// on one point never stop the sweep.
func (e *Engine) Sweep(f Frame) SweepReport {
	start := e.now()
	var (
		rep     SweepReport
		lastErr error
	)

	for p := range reconstruct.Grid(f.Viewport, e.cfg.ScanOrigin, e.cfg.ScanStep) {
		rep.Sampled++
		res, err := e.reconstruct(f, p, SourceScan)
		switch {
		case err == nil:
			rep.Anchored++
			debug.ScanLog("scan point", "screen", p, "raw", res.Depth.Raw, "world", res.World)
		case IsSkipped(err):
			rep.Skipped++
			debug.ScanLog("scan point skipped", "screen", p, "reason", err)
		default:
			rep.Failed++
			lastErr = err
		}
	}
	rep.Duration = e.now().Sub(start)

	if rep.Failed > 0 {
		log.Warn("scan sweep had anchor failures", "failed", rep.Failed, "last_error", lastErr)
	}
	log.Debug("scan sweep done",
		"sampled", rep.Sampled, "anchored", rep.Anchored,
		"skipped", rep.Skipped, "duration", rep.Duration)

	e.emit(SweepCompleted{Report: rep})
	return rep
}

// Reconstruct runs the sample → unproject → anchor chain for one point.
func (e *Engine) Reconstruct(f Frame, p reconstruct.ScreenPoint, src Source) (Result, error) {
	return e.reconstruct(f, p, src)
}

func (e *Engine) reconstruct(f Frame, p reconstruct.ScreenPoint, src Source) (Result, error) {
	res := Result{Screen: p}

	res.Depth = reconstruct.Sample(p, f.Viewport, f.Depth)
	e.trackDepthStream(res.Depth)

	switch {
	case res.Depth.Valid:
		res.WindowDepth = reconstruct.WindowDepth(res.Depth.Raw, e.cfg.DepthUnit, e.cfg.ZNear, e.cfg.ZFar)
	case e.cfg.NearPlaneFallback && errors.Is(res.Depth.Err, reconstruct.ErrDepthUnavailable):
		res.WindowDepth = 0
	default:
		return res, e.skip(p, src, res.Depth.Err)
	}

	world, err := e.unproj.Unproject(p, res.WindowDepth, f.Viewport, f.Camera.ViewProjection())
	if err != nil {
		return res, e.skip(p, src, err)
	}
	res.World = world

	id, err := e.pool.Add(world)
	if err != nil {
		return res, fmt.Errorf("engine: anchor %v: %w", p, err)
	}
	res.Anchor = id

	e.emit(PointReconstructed{
		Screen:      p,
		World:       world,
		Depth:       res.Depth,
		WindowDepth: res.WindowDepth,
		Anchor:      id,
		Source:      src,
		Time:        e.now(),
	})
	return res, nil
}

func (e *Engine) skip(p reconstruct.ScreenPoint, src Source, err error) error {
	e.emit(SampleSkipped{Screen: p, Source: src, Reason: err.Error(), Err: err})
	return fmt.Errorf("engine: sample %v: %w", p, err)
}

// trackDepthStream logs depth availability on change only. A missing depth
// frame is the normal state right after resume and must not flood the log.
func (e *Engine) trackDepthStream(s reconstruct.DepthSample) {
	lost := errors.Is(s.Err, reconstruct.ErrDepthUnavailable)
	if lost == e.depthLost {
		return
	}
	e.depthLost = lost
	if lost {
		log.Debug("depth stream unavailable")
	} else {
		log.Debug("depth stream available")
	}
}

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}

// Close detaches every anchor. Safe to call more than once.
func (e *Engine) Close() {
	e.pool.Clear()
}
