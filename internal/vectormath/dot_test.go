package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/packing"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 32.0, Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-9)
	assert.InDelta(t, 0.0, Dot(nil, []float32{1, 2}), 1e-9)
}

func TestDotUnequalLength(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{1, 2, 3}
	assert.InDelta(t, 14.0, Dot(a, b), 1e-9)
}

func TestDotPackedLEEquivalence(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	w := []float32{0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}

	want := Dot(v, w)
	packed := packing.Pack(w)
	got, err := DotPackedLE(v, packed, 0, len(w))
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestDotPackedLEOffset(t *testing.T) {
	w1 := []float32{1, 2, 3}
	w2 := []float32{4, 5, 6}
	packed := append(packing.Pack(w1), packing.Pack(w2)...)

	q := []float32{1, 1, 1}
	got, err := DotPackedLE(q, packed, len(packing.Pack(w1)), 3)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got, 1e-9)
}

func TestDotPackedLEOutOfRange(t *testing.T) {
	packed := packing.Pack([]float32{1, 2})
	_, err := DotPackedLE([]float32{1, 2, 3}, packed, 0, 3)
	require.Error(t, err)
}

func TestNorm2(t *testing.T) {
	assert.InDelta(t, math.Sqrt(25), Norm2([]float32{3, 4}), 1e-9)
}
