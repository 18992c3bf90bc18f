package overlay

import (
	"image"
	"sync"

	"github.com/gogpu/gg"

	"github.com/flyvis/ngffview/ngffview"
)

// minPointSpacing is the image-pixel distance a pointer must move
// before another point is recorded on the in-progress stroke.
const minPointSpacing = 1.0

// DefaultStrokeColor and DefaultStrokeWidth style newly drawn strokes
// unless changed with SetStyle.
const (
	DefaultStrokeColor = "#ff3333"
	DefaultStrokeWidth = 2.0
)

// EngineControls is the slice of the host engine the drawing overlay
// needs: turning built-in pan/zoom gesture handling on and off so
// exactly one of engine or overlay consumes pointer gestures.
type EngineControls interface {
	SetPanZoomEnabled(enabled bool)
}

type gestureState int

const (
	gestureIdle gestureState = iota
	gestureDrawing
)

// DrawOverlay records freehand strokes from pointer gestures and
// renders them.  Each gesture is a small state machine: Idle until
// pointer-down, Drawing until pointer-up or cancel, committing the
// stroke when it has at least 2 points.
type DrawOverlay struct {
	annotations *Annotations
	engine      EngineControls

	mu        sync.Mutex
	enabled   bool
	state     gestureState
	current   []Pt
	color     string
	lineWidth float64
}

// NewDrawOverlay returns a drawing overlay over the given annotation
// set.  Draw mode starts disabled: the engine keeps pan/zoom gestures.
func NewDrawOverlay(annotations *Annotations, engine EngineControls) *DrawOverlay {
	return &DrawOverlay{
		annotations: annotations,
		engine:      engine,
		color:       DefaultStrokeColor,
		lineWidth:   DefaultStrokeWidth,
	}
}

// SetStyle changes the color and line width of subsequent strokes.
func (o *DrawOverlay) SetStyle(color string, lineWidth float64) {
	o.mu.Lock()
	o.color, o.lineWidth = color, lineWidth
	o.mu.Unlock()
}

// SetEnabled toggles draw mode.  Enabling intercepts pointer gestures
// and suspends the engine's pan/zoom; disabling restores the engine and
// commits any gesture in flight.
func (o *DrawOverlay) SetEnabled(enabled bool) {
	o.mu.Lock()
	if o.enabled == enabled {
		o.mu.Unlock()
		return
	}
	o.enabled = enabled
	o.finishLocked()
	o.mu.Unlock()
	if o.engine != nil {
		o.engine.SetPanZoomEnabled(!enabled)
	}
	ngffview.Debugf("Draw mode enabled: %t\n", enabled)
}

// Enabled reports whether the overlay is consuming pointer gestures.
func (o *DrawOverlay) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// PointerDown starts a stroke at the given canvas position.
func (o *DrawOverlay) PointerDown(vt ViewTransform, cx, cy float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.enabled || o.state != gestureIdle {
		return
	}
	x, y := CanvasToImage(vt, cx, cy)
	o.state = gestureDrawing
	o.current = []Pt{{X: x, Y: y}}
}

// PointerMove extends the in-progress stroke.  Positions closer than
// minPointSpacing image pixels to the last recorded point are dropped.
func (o *DrawOverlay) PointerMove(vt ViewTransform, cx, cy float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != gestureDrawing {
		return
	}
	x, y := CanvasToImage(vt, cx, cy)
	p := Pt{X: x, Y: y}
	if o.current[len(o.current)-1].Dist(p) > minPointSpacing {
		o.current = append(o.current, p)
	}
}

// PointerUp ends the gesture, committing the stroke if it has at least
// 2 points.
func (o *DrawOverlay) PointerUp() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finishLocked()
}

// PointerCancel is equivalent to PointerUp.
func (o *DrawOverlay) PointerCancel() {
	o.PointerUp()
}

func (o *DrawOverlay) finishLocked() {
	if o.state != gestureDrawing {
		return
	}
	if len(o.current) >= 2 {
		o.annotations.AddStroke(Stroke{
			Points:    o.current,
			Color:     o.color,
			LineWidth: o.lineWidth,
		})
	}
	o.state = gestureIdle
	o.current = nil
}

// Render draws all committed strokes plus any stroke in progress into a
// canvas of the given pixel size, re-projecting every point through the
// current view transform.
func (o *DrawOverlay) Render(vt ViewTransform, width, height int) image.Image {
	dc := gg.NewContext(width, height)
	for _, s := range o.annotations.Strokes() {
		o.renderStroke(dc, vt, s)
	}
	o.mu.Lock()
	inProgress := Stroke{Points: o.current, Color: o.color, LineWidth: o.lineWidth}
	o.mu.Unlock()
	if len(inProgress.Points) >= 2 {
		o.renderStroke(dc, vt, inProgress)
	}
	return dc.Image()
}

func (o *DrawOverlay) renderStroke(dc *gg.Context, vt ViewTransform, s Stroke) {
	if len(s.Points) < 2 {
		return
	}
	r, g, b := parseHexColor(s.Color)
	dc.SetRGBA(r, g, b, 1)
	dc.SetLineWidth(s.LineWidth)
	for i, p := range s.Points {
		cx, cy := ImageToCanvas(vt, p.X, p.Y)
		if i == 0 {
			dc.MoveTo(cx, cy)
		} else {
			dc.LineTo(cx, cy)
		}
	}
	dc.Stroke()
}
