package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// sampleDecoder converts sample i of a decompressed chunk into a float64.
type sampleDecoder func(chunk []byte, i int) float64

// newSampleDecoder returns a decoder plus bytes-per-sample for a numpy-style
// dtype string: an endianness character ('<', '>', or '|' for single bytes),
// a kind character ('u', 'i', 'f'), and a byte size.
func newSampleDecoder(dtype string) (sampleDecoder, int, error) {
	if len(dtype) != 3 {
		return nil, 0, fmt.Errorf("unsupported dtype %q", dtype)
	}
	var order binary.ByteOrder = binary.LittleEndian
	switch dtype[0] {
	case '<', '|':
	case '>':
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("unsupported byte order in dtype %q", dtype)
	}
	switch dtype[1:] {
	case "u1":
		return func(b []byte, i int) float64 {
			return float64(b[i])
		}, 1, nil
	case "i1":
		return func(b []byte, i int) float64 {
			return float64(int8(b[i]))
		}, 1, nil
	case "u2":
		return func(b []byte, i int) float64 {
			return float64(order.Uint16(b[i*2:]))
		}, 2, nil
	case "i2":
		return func(b []byte, i int) float64 {
			return float64(int16(order.Uint16(b[i*2:])))
		}, 2, nil
	case "u4":
		return func(b []byte, i int) float64 {
			return float64(order.Uint32(b[i*4:]))
		}, 4, nil
	case "i4":
		return func(b []byte, i int) float64 {
			return float64(int32(order.Uint32(b[i*4:])))
		}, 4, nil
	case "f4":
		return func(b []byte, i int) float64 {
			return float64(math.Float32frombits(order.Uint32(b[i*4:])))
		}, 4, nil
	case "f8":
		return func(b []byte, i int) float64 {
			return math.Float64frombits(order.Uint64(b[i*8:]))
		}, 8, nil
	}
	return nil, 0, fmt.Errorf("unsupported dtype %q", dtype)
}
