package reconstruct

import (
	"encoding/binary"
	"image"
	"math"
)

// DepthFrame is one plane of 16-bit depth data as delivered by the sensor.
// Values are little-endian. PixelStride and RowStride are in bytes.
type DepthFrame struct {
	Width       int
	Height      int
	PixelStride int
	RowStride   int
	Data        []byte
}

// NewDepthFrame allocates a tightly packed frame.
func NewDepthFrame(width, height int) *DepthFrame {
	return &DepthFrame{
		Width:       width,
		Height:      height,
		PixelStride: 2,
		RowStride:   width * 2,
		Data:        make([]byte, width*height*2),
	}
}

// Set stores raw at depth pixel (x, y). Out-of-range writes are ignored.
func (f *DepthFrame) Set(x, y int, raw uint16) {
	off, ok := f.offset(x, y)
	if !ok {
		return
	}
	binary.LittleEndian.PutUint16(f.Data[off:], raw)
}

// At returns the raw value at depth pixel (x, y).
func (f *DepthFrame) At(x, y int) (uint16, bool) {
	off, ok := f.offset(x, y)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(f.Data[off:]), true
}

func (f *DepthFrame) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, false
	}
	off := x*f.PixelStride + y*f.RowStride
	if off < 0 || off+1 >= len(f.Data) {
		return off, false
	}
	return off, true
}

// DepthSample is the result of sampling a depth frame at a screen point.
// Err is nil for valid samples and says why the sample was rejected otherwise.
type DepthSample struct {
	Raw    uint16      `json:"raw"`
	Valid  bool        `json:"valid"`
	Pixel  image.Point `json:"pixel"`
	Offset int         `json:"offset"`
	XScale float64     `json:"x_scale"`
	YScale float64     `json:"y_scale"`
	Err    error       `json:"-"`
}

// Sample reads the depth value under screen point p.
//
// The sensor frame is stored rotated relative to the display, so the screen
// y axis maps to the depth x axis and the screen x axis maps, mirrored, to
// the depth y axis:
//
//	xScale = frame.Width  / max(vp.Width, vp.Height)
//	yScale = frame.Height / min(vp.Width, vp.Height)
//	xDepth = round(p.Y * xScale)
//	yDepth = round((vp.Width - p.X) * yScale)
//
// A nil frame means the sensor has not produced one yet; the sample is
// returned invalid with ErrDepthUnavailable. Sample never reads outside the
// frame buffer.
func Sample(p ScreenPoint, vp Viewport, frame *DepthFrame) DepthSample {
	if frame == nil {
		return DepthSample{Err: ErrDepthUnavailable}
	}
	if !vp.Valid() {
		return DepthSample{Err: ErrInvalidViewport}
	}

	s := DepthSample{
		XScale: float64(frame.Width) / float64(max(vp.Width, vp.Height)),
		YScale: float64(frame.Height) / float64(min(vp.Width, vp.Height)),
	}
	s.Pixel = image.Point{
		X: int(math.Round(p.Y * s.XScale)),
		Y: int(math.Round((float64(vp.Width) - p.X) * s.YScale)),
	}

	off, ok := frame.offset(s.Pixel.X, s.Pixel.Y)
	s.Offset = off
	if !ok {
		s.Err = ErrDepthOutOfBounds
		return s
	}

	s.Raw = binary.LittleEndian.Uint16(frame.Data[off:])
	s.Valid = true
	return s
}
