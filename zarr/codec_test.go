package zarr

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestUncompress(t *testing.T) {
	payload := []byte("0123456789abcdef0123456789abcdef")

	// raw passthrough
	out, err := uncompress(nil, payload)
	if err != nil || !bytes.Equal(out, payload) {
		t.Errorf("raw: got %q err %v", out, err)
	}

	// gzip
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(payload)
	zw.Close()
	out, err = uncompress(&compressorMeta{ID: "gzip"}, gz.Bytes())
	if err != nil || !bytes.Equal(out, payload) {
		t.Errorf("gzip: got %q err %v", out, err)
	}

	// zstd
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	enc.Close()
	out, err = uncompress(&compressorMeta{ID: "zstd"}, compressed)
	if err != nil || !bytes.Equal(out, payload) {
		t.Errorf("zstd: got %q err %v", out, err)
	}

	// corrupt input fails rather than returning garbage
	if _, err := uncompress(&compressorMeta{ID: "zlib"}, []byte("not zlib")); err == nil {
		t.Errorf("expected error for corrupt zlib data")
	}

	if err := checkCodec("blosc"); err == nil {
		t.Errorf("expected blosc to be rejected")
	}
	if err := checkCodec("zstd"); err != nil {
		t.Errorf("zstd should be accepted: %v", err)
	}
}
