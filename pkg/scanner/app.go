// Package scanner wires the engine to the simulated tracking runtime, the
// point log and the dashboard, and owns the render loop.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-depthanchor/internal/config"
	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/debug"
	"github.com/teslashibe/go-depthanchor/pkg/engine"
	"github.com/teslashibe/go-depthanchor/pkg/pointlog"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
	"github.com/teslashibe/go-depthanchor/pkg/sim"
	"github.com/teslashibe/go-depthanchor/pkg/sim/depthimage"
	"github.com/teslashibe/go-depthanchor/pkg/web"
)

// statusPeriod is how often the dashboard status is refreshed.
const statusPeriod = time.Second

// App is the anchor scanner application.
type App struct {
	config config.Config

	engine  *engine.Engine
	tracker *sim.Tracker
	scene   *sim.Scene
	depth   *reconstruct.DepthFrame // Replayed frame; nil uses the scene
	points  *pointlog.JSONStore
	server  *web.Server

	// Requests from dashboard goroutines, applied on the render loop.
	resize chan reconstruct.Viewport
	clear  chan struct{}

	// Render-loop state
	start      time.Time
	frames     uint64
	lastStatus time.Time
	evicted    int
	skipped    int
	lastSweep  *engine.SweepReport
	depthOK    bool
}

// New creates the application. Call Init before Run.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		config: cfg,
		resize: make(chan reconstruct.Viewport, 1),
		clear:  make(chan struct{}, 1),
	}, nil
}

// EngineConfig maps the application settings onto the engine policy.
func EngineConfig(cfg config.Config) engine.Config {
	return engine.Config{
		MaxAnchors:        cfg.MaxAnchors,
		ScanStep:          cfg.ScanStep,
		ScanOrigin:        cfg.ScanOrigin,
		ZNear:             cfg.ZNear,
		ZFar:              cfg.ZFar,
		DepthUnit:         cfg.DepthUnit,
		NearPlaneFallback: cfg.NearPlaneFallback,
		TapQueueSize:      cfg.TapQueueSize,
	}
}

// Init builds every component.
func (a *App) Init() error {
	vp := reconstruct.Viewport{Width: a.config.ViewportWidth, Height: a.config.ViewportHeight}
	log.Info("starting anchor scanner",
		"viewport", fmt.Sprintf("%dx%d", vp.Width, vp.Height),
		"max_anchors", a.config.MaxAnchors,
		"scan_step", a.config.ScanStep)

	a.scene = sim.NewScene(vp)
	a.scene.ZNear, a.scene.ZFar = a.config.ZNear, a.config.ZFar

	if a.config.DepthImage != "" {
		f, err := depthimage.Load(a.config.DepthImage)
		if err != nil {
			return fmt.Errorf("depth image: %w", err)
		}
		a.depth = f
		log.Info("replaying depth image", "path", a.config.DepthImage,
			"size", fmt.Sprintf("%dx%d", f.Width, f.Height))
	}

	points, err := pointlog.NewJSONStore(a.config.PointLogPath, a.config.PointLogMax)
	if err != nil {
		return fmt.Errorf("point log: %w", err)
	}
	a.points = points

	a.tracker = sim.NewTracker()
	a.engine = engine.New(EngineConfig(a.config), a.tracker)
	a.engine.SetHitTest(sim.NewHitTest(a.config.NearPlaneFallback))
	a.engine.SetObserver(a.observe)
	a.engine.SetScanning(a.config.Scan)

	a.server = web.NewServer(a.config.Port, a.points)
	a.server.OnTap = a.engine.Taps().Offer
	a.server.OnScan = a.engine.SetScanning
	a.server.OnViewport = a.requestResize
	a.server.OnClear = a.requestClear
	return nil
}

// Run serves the dashboard and drives the render loop until ctx is done.
func (a *App) Run(ctx context.Context) error {
	go a.server.Hub().Run(ctx)
	a.server.StartAsync()

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	a.start = time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			a.tick(now)
		}
	}
}

// tick renders one frame.
func (a *App) tick(now time.Time) engine.StepReport {
	a.applyRequests()

	a.tracker.Advance()
	frame := a.scene.Frame(now.Sub(a.start), now)
	if a.depth != nil {
		frame.Depth = a.depth
	}
	a.depthOK = frame.Depth != nil

	rep := a.engine.Step(frame)
	a.frames++
	if rep.Sweep != nil {
		a.lastSweep = rep.Sweep
	}
	if rep.Tapped {
		debug.Log("tap handled", "error", rep.Tap)
	}

	a.server.SetAnchors(a.engine.Pool().Snapshot())
	if now.Sub(a.lastStatus) >= statusPeriod {
		a.lastStatus = now
		a.publishStatus()
		if err := a.points.Flush(); err != nil {
			log.Warn("point log flush failed", "error", err)
		}
	}
	return rep
}

func (a *App) applyRequests() {
	select {
	case vp := <-a.resize:
		a.scene.Viewport = vp
		log.Info("viewport resized", "width", vp.Width, "height", vp.Height)
	default:
	}

	select {
	case <-a.clear:
		n := a.engine.Pool().Len()
		a.engine.Close()
		log.Info("anchors cleared", "detached", n)
	default:
	}
}

// requestResize hands a new viewport to the render loop, replacing any
// resize it has not applied yet.
func (a *App) requestResize(vp reconstruct.Viewport) error {
	if !vp.Valid() {
		return reconstruct.ErrInvalidViewport
	}
	for {
		select {
		case a.resize <- vp:
			return nil
		default:
		}
		select {
		case <-a.resize:
		default:
		}
	}
}

func (a *App) requestClear() {
	select {
	case a.clear <- struct{}{}:
	default:
	}
}

// observe runs on the render loop for every engine event. Every point is
// logged, but only tap results and sweep summaries go to subscribers; a
// sweep can produce dozens of points per frame.
func (a *App) observe(ev engine.Event) {
	switch e := ev.(type) {
	case engine.PointReconstructed:
		a.points.Record(pointlog.Entry{
			ScreenX: e.Screen.X,
			ScreenY: e.Screen.Y,
			World:   e.World,
			Raw:     e.Depth.Raw,
			Anchor:  string(e.Anchor),
			Source:  string(e.Source),
			Time:    e.Time,
		})
		if e.Source != engine.SourceTap {
			return
		}
		log.Info("tap anchored", "screen", e.Screen, "world", e.World, "anchor", e.Anchor)
	case engine.SampleSkipped:
		a.skipped++
		if e.Source != engine.SourceTap {
			return
		}
		log.Info("tap skipped", "screen", e.Screen, "reason", e.Reason)
	case engine.AnchorEvicted:
		a.evicted++
		debug.Log("anchor evicted", "anchor", e.Anchor.ID, "seq", e.Anchor.Seq)
		return
	}
	a.server.Publish(ev)
}

func (a *App) publishStatus() {
	taps := a.engine.Taps()
	a.server.UpdateStatus(func(st *web.Status) {
		st.Scanning = a.engine.Scanning()
		st.Viewport = a.scene.Viewport
		st.Anchors = a.engine.Pool().Len()
		st.MaxAnchors = a.engine.Pool().Cap()
		st.DepthAvailable = a.depthOK
		st.Frames = a.frames
		st.Points = a.points.Count()
		st.Evicted = a.evicted
		st.Skipped = a.skipped
		st.PendingTaps = taps.Len()
		st.DroppedTaps = taps.Dropped()
		st.LastSweep = a.lastSweep
	})
}

// Shutdown detaches every anchor, flushes the point log and stops the
// dashboard.
func (a *App) Shutdown() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.points != nil {
		if err := a.points.Flush(); err != nil {
			log.Warn("point log flush failed", "error", err)
		} else {
			log.Info("point log saved", "path", a.points.Path(), "points", a.points.Count())
		}
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
	}
}
