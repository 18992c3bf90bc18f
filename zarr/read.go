package zarr

import (
	"context"
	"fmt"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/storage"
)

// SampleBuffer is the result of one region read: row-major float64
// samples plus the true shape of the region, which may be smaller than
// requested when the region crossed the array's bottom/right edge.
type SampleBuffer struct {
	Values []float64
	Rows   int
	Cols   int
}

// At returns the sample at the given row and column of the buffer.
func (b *SampleBuffer) At(r, c int) float64 {
	return b.Values[r*b.Cols+c]
}

// FetchError wraps any transport or decode failure for one region read.
type FetchError struct {
	Array    string
	RowRange Range
	ColRange Range
	Cause    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("read of array %q rows %s cols %s failed: %v",
		e.Array, e.RowRange, e.ColRange, e.Cause)
}

func (e FetchError) Unwrap() error {
	return e.Cause
}

func (a *Array) fetchErr(rows, cols Range, cause error) error {
	return FetchError{Array: a.path, RowRange: rows, ColRange: cols, Cause: cause}
}

// ReadRegion reads the sub-rectangle of one channel given by the row and
// column ranges, clamped to the array's actual shape so out-of-bounds
// indices are never requested.  Chunks the region overlaps are read
// individually; chunks with no stored value yield the fill value.
// There are no retries here: retry policy belongs to the transport.
func (a *Array) ReadRegion(ctx context.Context, channel int, rows, cols Range) (*SampleBuffer, error) {
	timedLog := ngffview.NewTimeLog()

	if channel < 0 || channel >= a.Channels() {
		return nil, a.fetchErr(rows, cols, fmt.Errorf("channel %d outside [0,%d)", channel, a.Channels()))
	}
	if rows.Beg < 0 {
		rows.Beg = 0
	}
	if cols.Beg < 0 {
		cols.Beg = 0
	}
	if rows.End > a.Rows() {
		rows.End = a.Rows()
	}
	if cols.End > a.Cols() {
		cols.End = a.Cols()
	}
	if rows.Size() <= 0 || cols.Size() <= 0 {
		return nil, a.fetchErr(rows, cols, fmt.Errorf("empty region after clamping to shape %v", a.meta.Shape))
	}

	buf := &SampleBuffer{
		Values: make([]float64, rows.Size()*cols.Size()),
		Rows:   rows.Size(),
		Cols:   cols.Size(),
	}
	if a.fill != 0 {
		for i := range buf.Values {
			buf.Values[i] = a.fill
		}
	}

	chunkRows, chunkCols := a.ChunkRows(), a.ChunkCols()
	var chanChunk, chanOff int
	if a.NumDims() == 3 {
		chanChunk = channel / a.meta.Chunks[0]
		chanOff = channel % a.meta.Chunks[0]
	}

	for cr := rows.Beg / chunkRows; cr <= (rows.End-1)/chunkRows; cr++ {
		for cc := cols.Beg / chunkCols; cc <= (cols.End-1)/chunkCols; cc++ {
			chunk, err := a.loadChunk(ctx, chanChunk, cr, cc)
			if err != nil {
				return nil, a.fetchErr(rows, cols, err)
			}
			if chunk == nil {
				continue // unwritten chunk, fill value already in place
			}

			rowBeg, rowEnd := max(rows.Beg, cr*chunkRows), min(rows.End, (cr+1)*chunkRows)
			colBeg, colEnd := max(cols.Beg, cc*chunkCols), min(cols.End, (cc+1)*chunkCols)
			for r := rowBeg; r < rowEnd; r++ {
				chunkRow := chanOff*chunkRows + r - cr*chunkRows
				for c := colBeg; c < colEnd; c++ {
					i := chunkRow*chunkCols + c - cc*chunkCols
					buf.Values[(r-rows.Beg)*buf.Cols+(c-cols.Beg)] = a.decode(chunk, i)
				}
			}
		}
	}
	timedLog.Debugf("Read of array %q rows %s cols %s", a.path, rows, cols)
	return buf, nil
}

// loadChunk returns the decompressed bytes of one chunk, or nil if the
// chunk has no stored value.
func (a *Array) loadChunk(ctx context.Context, chunkIndices ...int) ([]byte, error) {
	nd := a.NumDims()
	indices := chunkIndices[len(chunkIndices)-nd:]
	key := ""
	for dim, i := range indices {
		if dim > 0 {
			key += a.sep
		}
		key += fmt.Sprintf("%d", i)
	}
	if a.path != "" {
		key = a.path + "/" + key
	}

	cacheKey := []byte(a.store.String() + "|" + key)
	raw := cachedChunk(cacheKey)
	if raw == nil {
		var err error
		raw, err = a.store.ReadAll(ctx, key)
		if err == storage.ErrKeyNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		cacheChunk(cacheKey, raw)
	}

	chunk, err := uncompress(a.meta.Compressor, raw)
	if err != nil {
		return nil, fmt.Errorf("chunk %q: %v", key, err)
	}
	if len(chunk) != a.nchunks*a.bps {
		return nil, fmt.Errorf("chunk %q has %d bytes, expected %d", key, len(chunk), a.nchunks*a.bps)
	}
	return chunk, nil
}
