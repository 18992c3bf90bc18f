/*
Package zarr reads regions out of v2-format chunked arrays held in an
object store.  Only the subset of the format needed for multiscale
image pyramids is supported: C-order arrays of 2 or 3 dimensions
(optional leading channel axis), raw/zlib/gzip/zstd compressed chunks.
*/
package zarr

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/storage"
)

// Range is a half-open [Beg, End) index interval along one dimension.
type Range struct {
	Beg, End int
}

// Size returns the number of indices covered by the range.
func (r Range) Size() int {
	return r.End - r.Beg
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Beg, r.End)
}

type compressorMeta struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

type arrayMeta struct {
	ZarrFormat   int             `json:"zarr_format"`
	Shape        []int           `json:"shape"`
	Chunks       []int           `json:"chunks"`
	DType        string          `json:"dtype"`
	Compressor   *compressorMeta `json:"compressor"`
	FillValue    json.RawMessage `json:"fill_value"`
	Order        string          `json:"order"`
	DimSeparator string          `json:"dimension_separator"`
}

// Array is read access to one chunked array under a store.
type Array struct {
	store storage.Store
	path  string // array path under the source root, "" for root

	meta    arrayMeta
	decode  sampleDecoder
	bps     int // bytes per sample
	fill    float64
	sep     string
	nchunks int // samples per chunk across all dimensions
}

// Open reads and validates the array metadata at the given path under
// the store.  The recorded shape and chunk shape come from the array's
// own metadata document, not from any enclosing descriptor.
func Open(ctx context.Context, store storage.Store, path string) (*Array, error) {
	key := ".zarray"
	if path != "" {
		key = strings.TrimSuffix(path, "/") + "/.zarray"
	}
	data, err := store.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("can't read array metadata %q: %v", key, err)
	}
	a := &Array{store: store, path: strings.TrimSuffix(path, "/")}
	if err := json.Unmarshal(data, &a.meta); err != nil {
		return nil, fmt.Errorf("bad array metadata %q: %v", key, err)
	}
	if err := a.initialize(); err != nil {
		return nil, fmt.Errorf("array %q: %v", path, err)
	}
	ngffview.Debugf("Opened array %q: shape %v, chunks %v, dtype %s\n",
		path, a.meta.Shape, a.meta.Chunks, a.meta.DType)
	return a, nil
}

func (a *Array) initialize() error {
	m := &a.meta
	if m.ZarrFormat != 2 {
		return fmt.Errorf("unsupported zarr_format %d", m.ZarrFormat)
	}
	nd := len(m.Shape)
	if nd < 2 || nd > 3 {
		return fmt.Errorf("unsupported number of dimensions %d, must be 2 or 3", nd)
	}
	if len(m.Chunks) != nd {
		return fmt.Errorf("chunks have %d dimensions, shape has %d", len(m.Chunks), nd)
	}
	for dim := 0; dim < nd; dim++ {
		if m.Shape[dim] < 1 || m.Chunks[dim] < 1 {
			return fmt.Errorf("illegal shape %v / chunks %v", m.Shape, m.Chunks)
		}
	}
	if m.Order != "" && m.Order != "C" {
		return fmt.Errorf("unsupported chunk memory order %q", m.Order)
	}
	if m.Compressor != nil {
		if err := checkCodec(m.Compressor.ID); err != nil {
			return err
		}
	}
	var err error
	if a.decode, a.bps, err = newSampleDecoder(m.DType); err != nil {
		return err
	}
	a.fill, err = parseFillValue(m.FillValue)
	if err != nil {
		return err
	}
	a.sep = m.DimSeparator
	if a.sep == "" {
		a.sep = "."
	}
	a.nchunks = 1
	for _, c := range m.Chunks {
		a.nchunks *= c
	}
	return nil
}

// NumDims returns the number of array dimensions (2 or 3).
func (a *Array) NumDims() int {
	return len(a.meta.Shape)
}

// Shape returns the full array shape, slowest dimension first.
func (a *Array) Shape() []int {
	return a.meta.Shape
}

// ChunkShape returns the nominal chunk shape.
func (a *Array) ChunkShape() []int {
	return a.meta.Chunks
}

// Channels returns the size of the leading channel axis, 1 for 2-d arrays.
func (a *Array) Channels() int {
	if len(a.meta.Shape) == 3 {
		return a.meta.Shape[0]
	}
	return 1
}

// Rows returns the array height (second-to-last dimension).
func (a *Array) Rows() int {
	return a.meta.Shape[len(a.meta.Shape)-2]
}

// Cols returns the array width (last dimension).
func (a *Array) Cols() int {
	return a.meta.Shape[len(a.meta.Shape)-1]
}

// ChunkRows returns the nominal chunk height.
func (a *Array) ChunkRows() int {
	return a.meta.Chunks[len(a.meta.Chunks)-2]
}

// ChunkCols returns the nominal chunk width.
func (a *Array) ChunkCols() int {
	return a.meta.Chunks[len(a.meta.Chunks)-1]
}

// DataType returns the array dtype string, e.g. "<u2".
func (a *Array) DataType() string {
	return a.meta.DType
}

func (a *Array) String() string {
	return fmt.Sprintf("array %q [%v] in %s", a.path, a.meta.Shape, a.store)
}

func parseFillValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unsupported fill_value %s", raw)
	}
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return 0, fmt.Errorf("unsupported fill_value %q", s)
}
