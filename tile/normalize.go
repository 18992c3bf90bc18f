/*
Package tile turns raw sample buffers into display-ready 8-bit rasters
and holds a bounded cache of them.
*/
package tile

import (
	"fmt"
	"image"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/zarr"
)

// RenderError wraps a failure to convert a raster into a displayable
// image.  It fails only the tile that hit it.
type RenderError struct {
	Cause error
}

func (e RenderError) Error() string {
	return fmt.Sprintf("can't render tile: %v", e.Cause)
}

func (e RenderError) Unwrap() error {
	return e.Cause
}

// Normalizer maps raw sample values to 8-bit grayscale intensity.
//
// With a fixed range configured, every tile uses it.  Otherwise the
// full extent of the first buffer seen sets a global min/max that all
// later tiles reuse; later tiles are not independently rescanned.
// The auto-computed range lives until Reset or SetFixed.
type Normalizer struct {
	mu       sync.Mutex
	set      bool
	fixed    bool
	min, max float64
}

// NewNormalizer returns an auto-normalizing Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NewFixedNormalizer returns a Normalizer that uses the given range for
// every tile.
func NewFixedNormalizer(min, max float64) *Normalizer {
	return &Normalizer{set: true, fixed: true, min: min, max: max}
}

// Range returns the current normalization range and whether one is set.
func (n *Normalizer) Range() (min, max float64, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.min, n.max, n.set
}

// SetFixed switches to a fixed range, discarding any auto-computed one.
func (n *Normalizer) SetFixed(min, max float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set, n.fixed = true, true
	n.min, n.max = min, max
}

// Reset clears the range so the next buffer recomputes it.  Fixed
// ranges are cleared too.
func (n *Normalizer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set, n.fixed = false, false
	n.min, n.max = 0, 0
}

// Normalize converts a sample buffer into an opaque grayscale RGBA
// raster sized to the buffer's actual shape.
func (n *Normalizer) Normalize(buf *zarr.SampleBuffer) *image.RGBA {
	n.mu.Lock()
	if !n.set {
		n.min = floats.Min(buf.Values)
		n.max = floats.Max(buf.Values)
		n.set = true
		ngffview.Infof("Normalization range set from first %dx%d tile: [%g,%g]\n",
			buf.Cols, buf.Rows, n.min, n.max)
	}
	min, max := n.min, n.max
	n.mu.Unlock()

	rng := max - min
	if rng == 0 {
		rng = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, buf.Cols, buf.Rows))
	for i, v := range buf.Values {
		scaled := (v - min) / rng
		if scaled < 0 {
			scaled = 0
		} else if scaled > 1 {
			scaled = 1
		}
		intensity := uint8(math.Round(scaled * 255))
		p := i * 4
		img.Pix[p] = intensity
		img.Pix[p+1] = intensity
		img.Pix[p+2] = intensity
		img.Pix[p+3] = 255
	}
	return img
}
