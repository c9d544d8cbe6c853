package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-depthanchor/internal/config"
	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

func testApp(t *testing.T, scan bool) *App {
	t.Helper()

	cfg := config.Default()
	cfg.ViewportWidth, cfg.ViewportHeight = 480, 640
	cfg.PointLogPath = filepath.Join(t.TempDir(), "points.json")
	cfg.Scan = scan
	cfg.Port = "0"

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a.start = time.Now()
	return a
}

func TestTick_ScanFillsPool(t *testing.T) {
	a := testApp(t, true)

	now := a.start
	rep := a.tick(now)
	if rep.Sweep == nil || rep.Sweep.Anchored != 24 {
		t.Fatalf("sweep = %+v, want 24 anchored", rep.Sweep)
	}
	if got := a.engine.Pool().Len(); got != 20 {
		t.Errorf("pool = %d, want 20", got)
	}
	if a.evicted != 4 {
		t.Errorf("evicted = %d, want 4", a.evicted)
	}
	if a.points.Count() != 24 {
		t.Errorf("points = %d, want 24", a.points.Count())
	}

	a.engine.SetScanning(false)
	a.tick(now.Add(33 * time.Millisecond))
	for an := range a.engine.Anchors() {
		if an.State != anchor.Active {
			t.Errorf("anchor %s still %v after a frame", an.ID, an.State)
		}
	}

	// Status was published on the first frame only.
	st := a.server.Status()
	if !st.Scanning || st.MaxAnchors != 20 || st.Frames != 1 || !st.DepthAvailable {
		t.Errorf("status = %+v", st)
	}
}

func TestTick_Tap(t *testing.T) {
	a := testApp(t, false)

	a.engine.Taps().Offer(reconstruct.ScreenPoint{X: 240, Y: 320})
	rep := a.tick(time.Now())
	if !rep.Tapped || rep.Tap != nil {
		t.Fatalf("tap report = %+v", rep)
	}
	if a.engine.Pool().Len() != 1 {
		t.Errorf("pool = %d, want 1", a.engine.Pool().Len())
	}
	if rep.Sweep != nil {
		t.Error("sweep ran with scanning off")
	}
}

func TestRequests_AppliedOnNextTick(t *testing.T) {
	a := testApp(t, true)
	a.tick(time.Now())

	if err := a.requestResize(reconstruct.Viewport{Width: 0, Height: 10}); err == nil {
		t.Error("zero-width viewport accepted")
	}
	a.requestResize(reconstruct.Viewport{Width: 300, Height: 400})
	a.requestResize(reconstruct.Viewport{Width: 240, Height: 320})
	a.requestClear()
	a.engine.SetScanning(false)

	a.tick(time.Now())
	if a.scene.Viewport != (reconstruct.Viewport{Width: 240, Height: 320}) {
		t.Errorf("viewport = %+v, want latest resize", a.scene.Viewport)
	}
	if a.engine.Pool().Len() != 0 {
		t.Errorf("pool = %d after clear", a.engine.Pool().Len())
	}
	if a.tracker.Len() != 0 {
		t.Errorf("tracker holds %d anchors after clear", a.tracker.Len())
	}
}

func TestShutdown_FlushesPoints(t *testing.T) {
	a := testApp(t, true)
	a.tick(time.Now())
	a.Shutdown()

	if _, err := os.Stat(a.config.PointLogPath); err != nil {
		t.Fatalf("point log not written: %v", err)
	}
	if a.tracker.Len() != 0 {
		t.Errorf("tracker holds %d anchors after shutdown", a.tracker.Len())
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxAnchors = 7
	cfg.NearPlaneFallback = true

	ec := EngineConfig(cfg)
	if ec.MaxAnchors != 7 || !ec.NearPlaneFallback || ec.ScanStep != cfg.ScanStep || ec.DepthUnit != cfg.DepthUnit {
		t.Errorf("EngineConfig = %+v", ec)
	}
}
