/*
Package source adapts a chunked multiscale pyramid into the tile-source
contract a pan/zoom tile engine consumes: published pyramid geometry, a
synchronous URL stand-in, and asynchronous per-tile delivery that
orchestrates metadata, fetch, normalization, and caching.

The engine numbers levels low-resolution-first (0 = coarsest) while the
pyramid is stored high-resolution-first (0 = finest); this adapter owns
that inversion.
*/
package source

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/flyvis/ngffview/ngff"
	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/storage"
	"github.com/flyvis/ngffview/tile"
	"github.com/flyvis/ngffview/zarr"
)

// State tracks adapter initialization.  Ready and Failed are terminal.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("unknown state %d", int(s))
}

// InvalidLevelError means the consumer requested a level outside the
// pyramid.  It fails only that tile.
type InvalidLevelError struct {
	Level     int
	NumLevels int
}

func (e InvalidLevelError) Error() string {
	return fmt.Sprintf("level %d outside valid range [0,%d]", e.Level, e.NumLevels-1)
}

// Config holds tile source settings accepted at construction.
type Config struct {
	// MaxCacheSize is the tile cache capacity in tiles, default 100.
	MaxCacheSize int `toml:"max_cache_size"`

	// AutoNormalize computes the normalization range from the first
	// tile when no fixed range is given.  Defaults to true.
	AutoNormalize *bool `toml:"auto_normalize"`

	// FixedMin/FixedMax override auto-normalization when both are set.
	FixedMin *float64 `toml:"fixed_min"`
	FixedMax *float64 `toml:"fixed_max"`

	// ChunkCacheMB sizes the shared raw-chunk cache, 0 disables it.
	ChunkCacheMB int `toml:"chunk_cache_mb"`
}

func (c Config) autoNormalize() bool {
	return c.AutoNormalize == nil || *c.AutoNormalize
}

// Geometry is the published pyramid geometry in the consumer's terms.
type Geometry struct {
	Width      int `json:"width"`  // pixel width of the highest-resolution level
	Height     int `json:"height"` // pixel height of the highest-resolution level
	TileWidth  int `json:"tileWidth"`
	TileHeight int `json:"tileHeight"`
	TileSize   int `json:"tileSize"` // max of tile width and height
	MinLevel   int `json:"minLevel"` // always 0, the coarsest level
	MaxLevel   int `json:"maxLevel"` // number of levels - 1, the finest
}

// Adapter is a tile source over one multiscale pyramid.
type Adapter struct {
	store  storage.Store
	config Config

	mu    sync.Mutex
	state State

	pyramid    *ngff.Pyramid
	normalizer *tile.Normalizer
	cache      *tile.Cache
	geo        Geometry
}

// New returns an uninitialized adapter over the given store.
func New(store storage.Store, config Config) *Adapter {
	return &Adapter{
		store:  store,
		config: config,
		state:  Uninitialized,
	}
}

// Initialize loads the pyramid descriptor and opens every level's
// backing array.  Any failure leaves the adapter in the terminal Failed
// state and it must not be used afterward; success transitions to Ready
// and publishes the geometry.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	if a.state != Uninitialized {
		state := a.state
		a.mu.Unlock()
		return fmt.Errorf("tile source can't initialize from state %q", state)
	}
	a.state = Initializing
	a.mu.Unlock()

	timedLog := ngffview.NewTimeLog()
	pyramid, err := ngff.Load(ctx, a.store)
	if err != nil {
		a.setState(Failed)
		return err
	}

	finest := pyramid.Finest().Array
	geo := Geometry{
		Width:      finest.Cols(),
		Height:     finest.Rows(),
		TileWidth:  finest.ChunkCols(),
		TileHeight: finest.ChunkRows(),
		MinLevel:   0,
		MaxLevel:   pyramid.NumLevels() - 1,
	}
	geo.TileSize = max(geo.TileWidth, geo.TileHeight)

	a.mu.Lock()
	a.pyramid = pyramid
	a.geo = geo
	a.normalizer = a.newNormalizer(pyramid)
	a.cache = tile.NewCache(a.config.MaxCacheSize)
	a.state = Ready
	a.mu.Unlock()

	zarr.SetChunkCacheSize(a.config.ChunkCacheMB)
	timedLog.Infof("Tile source ready: %d x %d px, %d levels, %d px tiles",
		geo.Width, geo.Height, pyramid.NumLevels(), geo.TileSize)
	return nil
}

// newNormalizer picks the normalization mode: an explicit fixed range
// wins, then auto-normalization, then the descriptor's omero rendering
// window, then the raw 8-bit identity range.
func (a *Adapter) newNormalizer(pyramid *ngff.Pyramid) *tile.Normalizer {
	if a.config.FixedMin != nil && a.config.FixedMax != nil {
		return tile.NewFixedNormalizer(*a.config.FixedMin, *a.config.FixedMax)
	}
	if a.config.autoNormalize() {
		return tile.NewNormalizer()
	}
	if min, max, ok := pyramid.RenderWindow(); ok {
		ngffview.Infof("Using omero rendering window [%g,%g] for normalization.\n", min, max)
		return tile.NewFixedNormalizer(min, max)
	}
	return tile.NewFixedNormalizer(0, 255)
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// State returns the current adapter state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Geometry returns the published pyramid geometry.  Valid once Ready.
func (a *Adapter) Geometry() Geometry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.geo
}

// Pyramid returns the loaded metadata index, nil before Ready.
func (a *Adapter) Pyramid() *ngff.Pyramid {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pyramid
}

// Normalizer returns the adapter's shared normalization state.
func (a *Adapter) Normalizer() *tile.Normalizer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.normalizer
}

// GetTileURL returns a synchronous placeholder identifier for one tile.
// Consumers use it only as a cache/dedup key; tile data always arrives
// through DownloadTileStart.
func (a *Adapter) GetTileURL(level, x, y int) string {
	return fmt.Sprintf("ngff://tile/%d-%d-%d", level, x, y)
}

// DownloadTileStart begins asynchronous resolution of one tile and
// guarantees exactly one success or failure delivery on the request.
// There is no cancellation once started: a resolution runs to
// completion even if the consumer no longer needs the tile, and a stale
// completion simply populates the cache.
func (a *Adapter) DownloadTileStart(ctx context.Context, req *TileRequest) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ngffview.Criticalf("panic resolving tile (%d,%d,%d): %v\n", req.Level, req.X, req.Y, r)
				req.fail(fmt.Sprintf("internal error resolving tile: %v", r))
			}
		}()
		img, err := a.Tile(ctx, req.Level, req.X, req.Y)
		if err != nil {
			req.fail(err.Error())
			return
		}
		req.succeed(img)
	}()
}

// Tile resolves one tile in the consumer's level numbering, serving
// from cache when possible.  Concurrent requests for the same key are
// not de-duplicated: both fetch and both insert, last write wins.
func (a *Adapter) Tile(ctx context.Context, level, x, y int) (*image.RGBA, error) {
	a.mu.Lock()
	state, pyramid, cache, normalizer := a.state, a.pyramid, a.cache, a.normalizer
	a.mu.Unlock()
	if state != Ready {
		return nil, fmt.Errorf("tile source is %q, not ready", state)
	}

	key := tile.Key{Level: level, X: x, Y: y}
	if img, found := cache.Get(key); found {
		ngffview.Debugf("Tile cache hit for %s\n", key)
		return img, nil
	}

	// Engine level 0 is the coarsest; storage level 0 is the finest.
	storageLevel := pyramid.NumLevels() - 1 - level
	if storageLevel < 0 || storageLevel >= pyramid.NumLevels() {
		return nil, InvalidLevelError{Level: level, NumLevels: pyramid.NumLevels()}
	}

	array := pyramid.Level(storageLevel).Array
	rows := zarr.Range{Beg: y * array.ChunkRows(), End: min((y+1)*array.ChunkRows(), array.Rows())}
	cols := zarr.Range{Beg: x * array.ChunkCols(), End: min((x+1)*array.ChunkCols(), array.Cols())}

	buf, err := array.ReadRegion(ctx, 0, rows, cols)
	if err != nil {
		return nil, err
	}
	img := normalizer.Normalize(buf)
	cache.Put(key, img)
	return img, nil
}
