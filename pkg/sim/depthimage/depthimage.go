// Package depthimage loads and saves depth frames as 16-bit grayscale
// images, so recorded sensor output can be replayed through the engine.
package depthimage

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// ErrNotDepth indicates the image is not single-channel 16-bit.
var ErrNotDepth = errors.New("depthimage: not a 16-bit single-channel image")

// Load reads a 16-bit grayscale image (PNG, TIFF) into a depth frame.
// Pixel values are taken as raw sensor counts.
func Load(path string) (*reconstruct.DepthFrame, error) {
	img := gocv.IMRead(path, gocv.IMReadAnyDepth)
	if img.Empty() {
		return nil, fmt.Errorf("depthimage: could not read %s", path)
	}
	defer img.Close()

	return FromMat(img)
}

// FromMat copies a CV_16UC1 mat into a depth frame.
func FromMat(m gocv.Mat) (*reconstruct.DepthFrame, error) {
	if m.Type() != gocv.MatTypeCV16UC1 {
		return nil, fmt.Errorf("%w: type %v", ErrNotDepth, m.Type())
	}

	data, err := m.DataPtrUint16()
	if err != nil {
		return nil, fmt.Errorf("depthimage: %w", err)
	}

	f := reconstruct.NewDepthFrame(m.Cols(), m.Rows())
	for i, v := range data {
		f.Set(i%f.Width, i/f.Width, v)
	}
	return f, nil
}

// Save writes a depth frame as a 16-bit grayscale image. The format follows
// the file extension and must support 16-bit depth.
func Save(path string, f *reconstruct.DepthFrame) error {
	m := gocv.NewMatWithSize(f.Height, f.Width, gocv.MatTypeCV16UC1)
	defer m.Close()

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			raw, _ := f.At(x, y)
			m.SetShortAt(y, x, int16(raw))
		}
	}

	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("depthimage: could not write %s", path)
	}
	return nil
}
