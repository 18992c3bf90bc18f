package zarr

import (
	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"

	"github.com/flyvis/ngffview/ngffview"
)

// Package-level cache of raw chunk values keyed by store + chunk key,
// shared across all open arrays.  Zero size disables it.
var chunkCache *freecache.Cache

// SetChunkCacheSize makes sure raw chunk caching is initialized if a
// cache size in megabytes is specified.
func SetChunkCacheSize(mbs int) {
	numBytes := mbs << 20
	if chunkCache == nil {
		if numBytes > 0 {
			chunkCache = freecache.NewCache(numBytes)
			ngffview.Infof("Created freecache of ~ %s for raw chunks.\n", humanize.Bytes(uint64(numBytes)))
		}
	} else if numBytes == 0 {
		chunkCache = nil
	} else {
		chunkCache.Clear()
	}
}

func cachedChunk(key []byte) []byte {
	if chunkCache == nil {
		return nil
	}
	val, err := chunkCache.Get(key)
	if err != nil && err != freecache.ErrNotFound {
		ngffview.Errorf("chunk cache get: %v\n", err)
		return nil
	}
	return val
}

func cacheChunk(key, val []byte) {
	if chunkCache == nil {
		return
	}
	if err := chunkCache.Set(key, val, 0); err != nil {
		ngffview.Debugf("chunk cache set for %d byte chunk: %v\n", len(val), err)
	}
}
