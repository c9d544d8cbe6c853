package reconstruct

import "iter"

// DefaultScanStep is the grid spacing of a scan sweep in pixels.
const DefaultScanStep = 100

// Grid yields the scan points of vp: every (x, y) with x in [origin, Width)
// and y in [origin, Height), both advancing by step. Columns are walked
// outer, rows inner. A non-positive step yields nothing.
func Grid(vp Viewport, origin, step int) iter.Seq[ScreenPoint] {
	return func(yield func(ScreenPoint) bool) {
		if step <= 0 || origin < 0 {
			return
		}
		for x := origin; x < vp.Width; x += step {
			for y := origin; y < vp.Height; y += step {
				if !yield(ScreenPoint{X: float64(x), Y: float64(y)}) {
					return
				}
			}
		}
	}
}

// GridSize returns how many points Grid yields for the same arguments.
func GridSize(vp Viewport, origin, step int) int {
	if step <= 0 || origin < 0 {
		return 0
	}
	return span(vp.Width, origin, step) * span(vp.Height, origin, step)
}

func span(extent, origin, step int) int {
	if origin >= extent {
		return 0
	}
	return (extent - origin + step - 1) / step
}
