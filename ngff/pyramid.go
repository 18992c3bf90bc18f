/*
Package ngff loads OME-NGFF style multiscale image descriptors and opens
every declared resolution level as a chunked array.  The descriptor's
declared ordering is kept: level 0 is the highest-resolution layer.
*/
package ngff

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/storage"
	"github.com/flyvis/ngffview/zarr"
)

// MetadataError means the descriptor was unreachable, not valid JSON, or
// lacked the minimum multiscale/axis fields.  Fatal to initialization.
type MetadataError struct {
	Cause error
}

func (e MetadataError) Error() string {
	return fmt.Sprintf("bad multiscale metadata: %v", e.Cause)
}

func (e MetadataError) Unwrap() error {
	return e.Cause
}

// LevelLoadError means one declared level's backing array could not be
// opened.  Fatal to initialization: partial pyramids are not supported.
type LevelLoadError struct {
	Level string
	Cause error
}

func (e LevelLoadError) Error() string {
	return fmt.Sprintf("can't open pyramid level %q: %v", e.Level, e.Cause)
}

func (e LevelLoadError) Unwrap() error {
	return e.Cause
}

// Axis describes one dimension of the multiscale image.
type Axis struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

type coordTransform struct {
	Type  string    `json:"type"`
	Scale []float64 `json:"scale"`
}

type dataset struct {
	Path                      string           `json:"path"`
	CoordinateTransformations []coordTransform `json:"coordinateTransformations"`
}

type multiscale struct {
	Version  string    `json:"version"`
	Name     string    `json:"name"`
	Axes     []Axis    `json:"axes"`
	Datasets []dataset `json:"datasets"`
}

type descriptor struct {
	Multiscales []multiscale    `json:"multiscales"`
	Omero       json.RawMessage `json:"omero"`
}

// Level is one resolution layer of a pyramid.  Immutable once loaded.
type Level struct {
	Path  string
	Scale []float64 // scale transform relative to level 0, may be nil
	Array *zarr.Array
}

// Pyramid is the ordered set of resolution levels of one multiscale
// image, highest resolution first as stored.
type Pyramid struct {
	levels []Level
	axes   []Axis
	omero  json.RawMessage
}

// Load fetches the multiscale descriptor at the store root and opens
// each declared level's backing array, recording actual shapes and
// chunk shapes rather than trusting the descriptor.  Any level failure
// aborts the whole load.
func Load(ctx context.Context, store storage.Store) (*Pyramid, error) {
	timedLog := ngffview.NewTimeLog()

	data, err := store.ReadAll(ctx, ".zattrs")
	if err != nil {
		return nil, MetadataError{fmt.Errorf("can't read descriptor from %s: %v", store, err)}
	}
	var desc descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, MetadataError{err}
	}
	if len(desc.Multiscales) == 0 {
		return nil, MetadataError{fmt.Errorf("no multiscales declared")}
	}
	ms := desc.Multiscales[0]
	if len(ms.Datasets) == 0 {
		return nil, MetadataError{fmt.Errorf("multiscale %q declares no datasets", ms.Name)}
	}
	if len(ms.Axes) == 0 {
		return nil, MetadataError{fmt.Errorf("multiscale %q declares no axes", ms.Name)}
	}

	p := &Pyramid{
		levels: make([]Level, len(ms.Datasets)),
		axes:   ms.Axes,
		omero:  desc.Omero,
	}
	g, gctx := errgroup.WithContext(ctx)
	for n, ds := range ms.Datasets {
		g.Go(func() error {
			array, err := zarr.Open(gctx, store, ds.Path)
			if err != nil {
				return LevelLoadError{Level: ds.Path, Cause: err}
			}
			level := Level{Path: ds.Path, Array: array}
			for _, ct := range ds.CoordinateTransformations {
				if ct.Type == "scale" {
					level.Scale = ct.Scale
					break
				}
			}
			p.levels[n] = level
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timedLog.Infof("Loaded multiscale %q with %d levels from %s", ms.Name, len(p.levels), store)
	return p, nil
}

// NumLevels returns the number of resolution levels.
func (p *Pyramid) NumLevels() int {
	return len(p.levels)
}

// Level returns the nth level in storage numbering (0 = finest).
func (p *Pyramid) Level(n int) Level {
	return p.levels[n]
}

// Finest returns the highest-resolution level.
func (p *Pyramid) Finest() Level {
	return p.levels[0]
}

// Axes returns the declared axis definitions.
func (p *Pyramid) Axes() []Axis {
	return p.axes
}

// Omero returns the descriptor's optional omero block verbatim, nil if
// absent.
func (p *Pyramid) Omero() json.RawMessage {
	return p.omero
}

// omeroChannel is the slice of the omero block we understand.
type omeroChannel struct {
	Window struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"window"`
}

// RenderWindow returns the omero rendering window of the first channel
// when one is declared.  Viewers use it to seed fixed normalization.
func (p *Pyramid) RenderWindow() (min, max float64, ok bool) {
	if len(p.omero) == 0 {
		return 0, 0, false
	}
	var block struct {
		Channels []omeroChannel `json:"channels"`
	}
	if err := json.Unmarshal(p.omero, &block); err != nil || len(block.Channels) == 0 {
		return 0, 0, false
	}
	w := block.Channels[0].Window
	if w.Start == 0 && w.End == 0 {
		return 0, 0, false
	}
	return w.Start, w.End, true
}
