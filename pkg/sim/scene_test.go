package sim

import (
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/engine"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

var portrait = reconstruct.Viewport{Width: 480, Height: 640}

func TestScene_Depth(t *testing.T) {
	s := NewScene(portrait)
	s.HoleColumns = 10
	s.Tilt = 2

	f := s.Depth()
	if f.Width != DefaultSensorWidth || f.Height != DefaultSensorHeight {
		t.Fatalf("frame is %dx%d", f.Width, f.Height)
	}

	tests := []struct {
		x, y int
		want uint16
	}{
		{0, 0, 0},
		{9, 119, 0},
		{10, 0, 2020},
		{159, 60, 2318},
	}
	for _, tt := range tests {
		got, ok := f.At(tt.x, tt.y)
		if !ok || got != tt.want {
			t.Errorf("At(%d,%d) = %d,%v, want %d", tt.x, tt.y, got, ok, tt.want)
		}
	}

	if s.Depth() != f {
		t.Error("depth buffer not reused")
	}

	s.Unavailable = true
	if s.Depth() != nil {
		t.Error("unavailable scene returned a frame")
	}
}

func TestScene_CameraLooksAtOrbitCenter(t *testing.T) {
	s := NewScene(portrait)

	for _, at := range []time.Duration{0, 3 * time.Second, 11 * time.Second} {
		cam := s.Camera(at)
		p, _, ok := reconstruct.Project(r3.Vector{Y: s.Height}, portrait, cam.ViewProjection())
		if !ok {
			t.Fatalf("t=%v: center not projectable", at)
		}
		if math.Abs(p.X-240) > 1e-6 || math.Abs(p.Y-320) > 1e-6 {
			t.Errorf("t=%v: center projects to %v, want (240, 320)", at, p)
		}
	}
}

func TestHitTest(t *testing.T) {
	s := NewScene(portrait)
	s.HoleColumns = 10
	f := s.Frame(0, time.Now())

	tests := []struct {
		name string
		p    reconstruct.ScreenPoint
		want bool
	}{
		{"on the wall", reconstruct.ScreenPoint{X: 240, Y: 320}, true},
		{"sensor hole", reconstruct.ScreenPoint{X: 240, Y: 10}, false},
		{"off screen", reconstruct.ScreenPoint{X: -5, Y: 320}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(f, tt.p); got != tt.want {
				t.Errorf("HitTest(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	s.Unavailable = true
	if HitTest(s.Frame(0, time.Now()), reconstruct.ScreenPoint{X: 240, Y: 320}) {
		t.Error("tap accepted without depth")
	}
}

func TestNewHitTest_NearPlaneFallback(t *testing.T) {
	s := NewScene(portrait)
	s.HoleColumns = 10
	center := reconstruct.ScreenPoint{X: 240, Y: 320}
	hole := reconstruct.ScreenPoint{X: 240, Y: 10}

	strict, fallback := NewHitTest(false), NewHitTest(true)

	f := s.Frame(0, time.Now())
	if !fallback(f, center) || fallback(f, hole) {
		t.Error("with depth available the fallback predicate should match HitTest")
	}

	s.Unavailable = true
	f = s.Frame(0, time.Now())
	if strict(f, center) {
		t.Error("strict predicate accepted a tap without depth")
	}
	if !fallback(f, center) {
		t.Error("fallback predicate rejected an on-screen tap without depth")
	}
	if fallback(f, reconstruct.ScreenPoint{X: -5, Y: 320}) {
		t.Error("fallback predicate accepted an off-screen tap")
	}

	cfg := engine.DefaultConfig()
	cfg.NearPlaneFallback = true
	e := engine.New(cfg, NewTracker())
	e.SetHitTest(fallback)
	e.Taps().Offer(center)
	if rep := e.Step(f); !rep.Tapped || rep.Tap != nil {
		t.Fatalf("tap without depth: %+v", rep)
	}
	if e.Pool().Len() != 1 {
		t.Errorf("pool = %d, want the tap anchored at the near plane", e.Pool().Len())
	}
}

func TestScene_DrivesEngine(t *testing.T) {
	s := NewScene(portrait)
	tracker := NewTracker()
	e := engine.New(engine.DefaultConfig(), tracker)
	e.SetHitTest(HitTest)

	e.Taps().Offer(reconstruct.ScreenPoint{X: 240, Y: 320})
	rep := e.Step(s.Frame(0, time.Now()))
	if !rep.Tapped || rep.Tap != nil {
		t.Fatalf("tap: %+v", rep)
	}

	var got []anchor.Anchor
	for a := range e.Anchors() {
		got = append(got, a)
	}
	if len(got) != 1 {
		t.Fatalf("anchors = %d, want 1", len(got))
	}
	// The wall sits at the orbit radius, so the screen center lands on the
	// orbit center.
	want := r3.Vector{Y: s.Height}
	if d := got[0].Pose.Position.Sub(want).Norm(); d > 1e-6 {
		t.Errorf("anchored at %v, want %v", got[0].Pose.Position, want)
	}
	if got[0].State != anchor.Pending {
		t.Errorf("state = %v before the next frame", got[0].State)
	}

	tracker.Advance()
	e.Step(s.Frame(33*time.Millisecond, time.Now()))
	for a := range e.Anchors() {
		if a.State != anchor.Active {
			t.Errorf("state = %v after tracker confirmed", a.State)
		}
	}

	e.Close()
	if tracker.Len() != 0 {
		t.Errorf("tracker still holds %d anchors", tracker.Len())
	}
}
