package source

import (
	"image"
	"sync"
)

// TileRequest carries one tile resolution and its completion callbacks.
// Exactly one of OnSuccess or OnFailure is invoked per request, exactly
// once, no matter which internal step failed, so the consumer's
// pending-request bookkeeping never leaks.
type TileRequest struct {
	Level, X, Y int

	// OnSuccess receives the display-ready raster.
	OnSuccess func(*image.RGBA)

	// OnFailure receives a human-readable message.
	OnFailure func(msg string)

	once sync.Once
}

func (r *TileRequest) succeed(img *image.RGBA) {
	r.once.Do(func() {
		if r.OnSuccess != nil {
			r.OnSuccess(img)
		}
	})
}

func (r *TileRequest) fail(msg string) {
	r.once.Do(func() {
		if r.OnFailure != nil {
			r.OnFailure(msg)
		}
	})
}
