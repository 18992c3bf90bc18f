package overlay

import "sync"

// ROI is a labeled axis-aligned rectangle in image-pixel units.
type ROI struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label"`
	Color  string  `json:"color"` // hex color, e.g. "#ffcc00"
}

// Stroke is an ordered freehand polyline in image-pixel units.
type Stroke struct {
	Points    []Pt    `json:"points"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

// Annotations holds the ROIs and strokes of one view.  Mutation happens
// only through add/remove/clear; the renderers read but never own it.
// All exported methods are safe for concurrent use.
type Annotations struct {
	mu      sync.Mutex
	rois    []ROI
	strokes []Stroke
}

// NewAnnotations returns an empty annotation set.
func NewAnnotations() *Annotations {
	return &Annotations{}
}

func (a *Annotations) AddROI(roi ROI) {
	a.mu.Lock()
	a.rois = append(a.rois, roi)
	a.mu.Unlock()
}

// RemoveROI deletes the ith ROI, keeping order; out-of-range is a no-op.
func (a *Annotations) RemoveROI(i int) {
	a.mu.Lock()
	if i >= 0 && i < len(a.rois) {
		a.rois = append(a.rois[:i], a.rois[i+1:]...)
	}
	a.mu.Unlock()
}

func (a *Annotations) ClearROIs() {
	a.mu.Lock()
	a.rois = nil
	a.mu.Unlock()
}

func (a *Annotations) AddStroke(s Stroke) {
	a.mu.Lock()
	a.strokes = append(a.strokes, s)
	a.mu.Unlock()
}

// RemoveStroke deletes the ith stroke; out-of-range is a no-op.
func (a *Annotations) RemoveStroke(i int) {
	a.mu.Lock()
	if i >= 0 && i < len(a.strokes) {
		a.strokes = append(a.strokes[:i], a.strokes[i+1:]...)
	}
	a.mu.Unlock()
}

func (a *Annotations) ClearStrokes() {
	a.mu.Lock()
	a.strokes = nil
	a.mu.Unlock()
}

// ROIs returns a snapshot of the current ROIs.
func (a *Annotations) ROIs() []ROI {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ROI, len(a.rois))
	copy(out, a.rois)
	return out
}

// Strokes returns a snapshot of the current strokes.
func (a *Annotations) Strokes() []Stroke {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Stroke, len(a.strokes))
	copy(out, a.strokes)
	return out
}

// Export is the serializable form of an annotation set.
type Export struct {
	ROIs    []ROI    `json:"rois"`
	Strokes []Stroke `json:"strokes"`
}

// Export returns a snapshot suitable for JSON serialization.
func (a *Annotations) Export() Export {
	return Export{ROIs: a.ROIs(), Strokes: a.Strokes()}
}
