// Package packing implements the little-endian float32 wire format used to
// persist embedding vectors to embeddings.bin (spec.md §4.1, §6). All
// operations are pure and allocate only where the contract requires a
// fresh slice.
package packing

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/irisrag/ragcore/internal/ragerr"
)

// Pack writes vec as 4*len(vec) little-endian bytes.
func Pack(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Unpack reverses Pack. It returns ragerr.CodeInvalidFormat if the byte
// slice length is not a multiple of four.
func Unpack(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, ragerr.New(ragerr.CodeInvalidFormat,
			"packed vector length is not a multiple of 4", nil).
			WithDetail("byte_len", strconv.Itoa(len(b)))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// ReadFloatLE reads a single float32 at byteOffset without allocating. It
// returns ragerr.CodeInvalidFormat if the read would go out of bounds.
func ReadFloatLE(b []byte, byteOffset int) (float32, error) {
	if byteOffset < 0 || byteOffset+4 > len(b) {
		return 0, ragerr.New(ragerr.CodeInvalidFormat,
			"read_float_le offset out of range", nil).
			WithDetail("offset", strconv.Itoa(byteOffset)).
			WithDetail("len", strconv.Itoa(len(b)))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[byteOffset:])), nil
}
