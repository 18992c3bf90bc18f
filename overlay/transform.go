/*
Package overlay projects stored image-pixel annotations into live canvas
coordinates and redraws them on every view change of the hosting
pan/zoom engine.  Three coordinate spaces are involved: image pixels
(stable, what annotations are stored in), the engine's normalized
viewport (changes with pan/zoom/rotate), and canvas pixels (changes
with window size and device pixel ratio).
*/
package overlay

import "math"

// Pt is a point in image-pixel space.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance to another point.
func (p Pt) Dist(q Pt) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// ViewTransform is the narrow slice of the host engine's view state the
// overlays depend on.  Implementations reflect the engine's current
// pan/zoom/rotation at call time, so composite projections must be
// recomputed on every redraw rather than cached.
type ViewTransform interface {
	ImageToViewport(x, y float64) (float64, float64)
	ViewportToImage(x, y float64) (float64, float64)
	ViewportToCanvas(x, y float64) (float64, float64)
	CanvasToViewport(x, y float64) (float64, float64)
}

// ImageToCanvas projects a stored image-pixel point into canvas pixels,
// used when rendering stored annotations.
func ImageToCanvas(vt ViewTransform, x, y float64) (float64, float64) {
	vx, vy := vt.ImageToViewport(x, y)
	return vt.ViewportToCanvas(vx, vy)
}

// CanvasToImage projects a canvas-pixel point into image pixels, used
// when recording new pointer input.
func CanvasToImage(vt ViewTransform, cx, cy float64) (float64, float64) {
	vx, vy := vt.CanvasToViewport(cx, cy)
	return vt.ViewportToImage(vx, vy)
}
