package overlay

import (
	"image"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

const (
	roiFillAlpha   = 0.15
	roiBorderWidth = 2
	badgeHeight    = 16
	badgePadding   = 4
)

// ROIOverlay redraws all ROIs on every view-change event of the hosting
// engine.  It holds no per-frame state: each Render re-projects every
// ROI's corners through the current view transform.  Pointer events
// pass through; the overlay never handles interaction.
type ROIOverlay struct {
	annotations *Annotations
}

// NewROIOverlay returns a renderer over the given annotation set.
func NewROIOverlay(annotations *Annotations) *ROIOverlay {
	return &ROIOverlay{annotations: annotations}
}

// Render draws every ROI into a canvas of the given pixel size:
// translucent fill, solid border, and a label badge sized to the
// measured label width.
func (o *ROIOverlay) Render(vt ViewTransform, width, height int) image.Image {
	dc := gg.NewContext(width, height)
	for _, roi := range o.annotations.ROIs() {
		x0, y0 := ImageToCanvas(vt, roi.X, roi.Y)
		x1, y1 := ImageToCanvas(vt, roi.X+roi.Width, roi.Y+roi.Height)
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		r, g, b := parseHexColor(roi.Color)

		dc.SetRGBA(r, g, b, roiFillAlpha)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()

		dc.SetRGBA(r, g, b, 1)
		dc.SetLineWidth(roiBorderWidth)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()

		if roi.Label != "" {
			w, _ := dc.MeasureString(roi.Label)
			dc.SetRGBA(r, g, b, 1)
			dc.DrawRectangle(x0, y0-badgeHeight, w+2*badgePadding, badgeHeight)
			dc.Fill()
			dc.SetRGB(1, 1, 1)
			dc.DrawStringAnchored(roi.Label, x0+badgePadding, y0-badgeHeight/2, 0, 0.5)
		}
	}
	return dc.Image()
}

// parseHexColor converts "#rgb" or "#rrggbb" into 0-1 channel values,
// defaulting to yellow on malformed input.
func parseHexColor(s string) (r, g, b float64) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 1, 0.8, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 1, 0.8, 0
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255
}
