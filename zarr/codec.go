package zarr

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// checkCodec verifies a compressor id is one we can decode.
func checkCodec(id string) error {
	switch id {
	case "", "zlib", "gzip", "zstd":
		return nil
	}
	return fmt.Errorf("unsupported compressor %q", id)
}

// uncompress inflates one chunk value using the array's compressor.
// A nil compressor means raw chunk bytes.
func uncompress(c *compressorMeta, in []byte) (out []byte, err error) {
	if c == nil || c.ID == "" {
		return in, nil
	}
	switch c.ID {
	case "zlib":
		zr, err := zlib.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, fmt.Errorf("can't uncompress zlib data: %v", err)
		}
		out, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("can't read zlib data: %v", err)
		}
		zr.Close()
		return out, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, fmt.Errorf("can't uncompress gzip data: %v", err)
		}
		out, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("can't read gzip data: %v", err)
		}
		zr.Close()
		return out, nil
	case "zstd":
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out, err = zr.DecodeAll(in, nil)
		if err != nil {
			return nil, fmt.Errorf("can't uncompress zstd data: %v", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compressor %q", c.ID)
}
