// Package vectormath implements the exact dot-product scoring used by the
// retrieval core (spec.md §4.2). The corpus is small enough that no
// approximate index (HNSW/IVF) is needed — brute-force dot product over
// unpacked or packed vectors is the whole of C2.
package vectormath

import (
	"math"

	"github.com/irisrag/ragcore/internal/packing"
)

// Dot returns the dot product of a and b, accumulating in float64 and
// iterating over min(len(a), len(b)) elements. Both a and b are expected
// to be L2-normalized by the caller, making the result equal to cosine
// similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	i := 0
	// process four at a time where possible
	for ; i+4 <= n; i += 4 {
		sum += float64(a[i])*float64(b[i]) +
			float64(a[i+1])*float64(b[i+1]) +
			float64(a[i+2])*float64(b[i+2]) +
			float64(a[i+3])*float64(b[i+3])
	}
	for ; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// DotPackedLE computes the dot product of query against dim little-endian
// float32 values packed in data starting at byteOffset, without unpacking
// the whole buffer. Bounds are checked; out-of-range reads return an error
// rather than invoking undefined behavior.
func DotPackedLE(query []float32, data []byte, byteOffset int, dim int) (float64, error) {
	n := len(query)
	if dim < n {
		n = dim
	}

	var sum float64
	i := 0
	for ; i+4 <= n; i += 4 {
		v0, err := packing.ReadFloatLE(data, byteOffset+i*4)
		if err != nil {
			return 0, err
		}
		v1, err := packing.ReadFloatLE(data, byteOffset+(i+1)*4)
		if err != nil {
			return 0, err
		}
		v2, err := packing.ReadFloatLE(data, byteOffset+(i+2)*4)
		if err != nil {
			return 0, err
		}
		v3, err := packing.ReadFloatLE(data, byteOffset+(i+3)*4)
		if err != nil {
			return 0, err
		}
		sum += float64(query[i])*float64(v0) +
			float64(query[i+1])*float64(v1) +
			float64(query[i+2])*float64(v2) +
			float64(query[i+3])*float64(v3)
	}
	for ; i < n; i++ {
		v, err := packing.ReadFloatLE(data, byteOffset+i*4)
		if err != nil {
			return 0, err
		}
		sum += float64(query[i]) * float64(v)
	}
	return sum, nil
}

// Norm2 returns the L2 norm of v.
func Norm2(v []float32) float64 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	return math.Sqrt(sumSquares)
}
