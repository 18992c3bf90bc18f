package tile

import (
	"testing"

	"github.com/flyvis/ngffview/zarr"
)

func buffer(rows, cols int, values ...float64) *zarr.SampleBuffer {
	return &zarr.SampleBuffer{Values: values, Rows: rows, Cols: cols}
}

func TestAutoNormalize(t *testing.T) {
	n := NewNormalizer()
	img := n.Normalize(buffer(1, 3, 10, 20, 30))

	min, max, ok := n.Range()
	if !ok || min != 10 || max != 30 {
		t.Fatalf("range: got (%g,%g,%t), want (10,30,true)", min, max, ok)
	}

	if got := img.Pix[0]; got != 0 {
		t.Errorf("value 10: got intensity %d, want 0", got)
	}
	mid := img.Pix[4]
	if mid < 127 || mid > 128 {
		t.Errorf("value 20: got intensity %d, want 128 +/- 1", mid)
	}
	if got := img.Pix[8]; got != 255 {
		t.Errorf("value 30: got intensity %d, want 255", got)
	}
}

func TestNormalizeSetOnce(t *testing.T) {
	n := NewNormalizer()
	n.Normalize(buffer(1, 2, 100, 200))

	// A later buffer with a wider range is not rescanned: values clamp
	// to the frozen [100,200] range.
	img := n.Normalize(buffer(1, 3, 0, 150, 1000))
	if got := img.Pix[0]; got != 0 {
		t.Errorf("below-range value: got %d, want 0", got)
	}
	mid := img.Pix[4]
	if mid < 127 || mid > 128 {
		t.Errorf("mid value: got %d, want 128 +/- 1", mid)
	}
	if got := img.Pix[8]; got != 255 {
		t.Errorf("above-range value: got %d, want 255", got)
	}

	min, max, _ := n.Range()
	if min != 100 || max != 200 {
		t.Errorf("range was recomputed: got (%g,%g)", min, max)
	}
}

func TestNormalizeBounds(t *testing.T) {
	n := NewFixedNormalizer(-50, 50)
	img := n.Normalize(buffer(2, 3, -1e9, -50, -0.5, 0.5, 50, 1e9))
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != img.Pix[i+1] || img.Pix[i] != img.Pix[i+2] {
			t.Fatalf("pixel %d not grayscale: %v", i/4, img.Pix[i:i+4])
		}
		if img.Pix[i+3] != 255 {
			t.Fatalf("pixel %d alpha: got %d, want 255", i/4, img.Pix[i+3])
		}
	}
	if img.Pix[0] != 0 || img.Pix[4] != 0 {
		t.Errorf("below-range values should clamp to 0")
	}
	if img.Pix[16] != 255 || img.Pix[20] != 255 {
		t.Errorf("above-range values should clamp to 255")
	}
}

func TestNormalizeConstantBuffer(t *testing.T) {
	// min == max defaults the range to 1 instead of dividing by zero.
	n := NewNormalizer()
	img := n.Normalize(buffer(1, 2, 42, 42))
	if got := img.Pix[0]; got != 0 {
		t.Errorf("constant buffer intensity: got %d, want 0", got)
	}
}

func TestNormalizeRasterShape(t *testing.T) {
	n := NewFixedNormalizer(0, 255)
	img := n.Normalize(&zarr.SampleBuffer{Values: make([]float64, 7*3), Rows: 7, Cols: 3})
	bounds := img.Bounds()
	if bounds.Dx() != 3 || bounds.Dy() != 7 {
		t.Errorf("raster sized %d x %d, want 3 x 7", bounds.Dx(), bounds.Dy())
	}
}

func TestNormalizerReset(t *testing.T) {
	n := NewNormalizer()
	n.Normalize(buffer(1, 2, 0, 10))
	n.Reset()
	if _, _, ok := n.Range(); ok {
		t.Fatalf("range should be unset after Reset")
	}
	n.Normalize(buffer(1, 2, 100, 300))
	min, max, ok := n.Range()
	if !ok || min != 100 || max != 300 {
		t.Errorf("range after reset: got (%g,%g,%t)", min, max, ok)
	}
}

func TestSetFixedOverridesAuto(t *testing.T) {
	n := NewNormalizer()
	n.Normalize(buffer(1, 2, 0, 10))
	n.SetFixed(0, 100)
	img := n.Normalize(buffer(1, 1, 50))
	mid := img.Pix[0]
	if mid < 127 || mid > 128 {
		t.Errorf("fixed range value 50: got %d, want 128 +/- 1", mid)
	}
}
