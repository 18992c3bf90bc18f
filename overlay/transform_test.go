package overlay

import (
	"math"
	"testing"
)

// affineView is a test view transform: the viewport is the image scaled
// and panned, and the canvas is the viewport scaled by a device pixel
// ratio.
type affineView struct {
	zoom       float64
	panX, panY float64
	dpr        float64
}

func (v affineView) ImageToViewport(x, y float64) (float64, float64) {
	return x*v.zoom + v.panX, y*v.zoom + v.panY
}

func (v affineView) ViewportToImage(x, y float64) (float64, float64) {
	return (x - v.panX) / v.zoom, (y - v.panY) / v.zoom
}

func (v affineView) ViewportToCanvas(x, y float64) (float64, float64) {
	return x * v.dpr, y * v.dpr
}

func (v affineView) CanvasToViewport(x, y float64) (float64, float64) {
	return x / v.dpr, y / v.dpr
}

func TestImageToCanvas(t *testing.T) {
	vt := affineView{zoom: 2, panX: 10, panY: -5, dpr: 1.5}
	cx, cy := ImageToCanvas(vt, 100, 40)
	if cx != 315 || cy != 112.5 {
		t.Errorf("projected to (%g,%g), want (315,112.5)", cx, cy)
	}
}

func TestCanvasImageRoundTrip(t *testing.T) {
	transforms := []affineView{
		{zoom: 1, dpr: 1},
		{zoom: 0.25, panX: 37.5, panY: -12.25, dpr: 2},
		{zoom: 16, panX: -4000, panY: 900, dpr: 1.25},
	}
	points := []Pt{{0, 0}, {512.5, 100.125}, {-3, 7}}
	for _, vt := range transforms {
		for _, p := range points {
			cx, cy := ImageToCanvas(vt, p.X, p.Y)
			x, y := CanvasToImage(vt, cx, cy)
			if math.Abs(x-p.X) > 1e-9 || math.Abs(y-p.Y) > 1e-9 {
				t.Errorf("round trip of (%g,%g) through %+v gave (%g,%g)", p.X, p.Y, vt, x, y)
			}
		}
	}
}

func TestPtDist(t *testing.T) {
	if d := (Pt{0, 0}).Dist(Pt{3, 4}); d != 5 {
		t.Errorf("distance: got %g, want 5", d)
	}
}
