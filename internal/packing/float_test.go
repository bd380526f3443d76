package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/ragerr"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := [][]float32{
		{},
		{0},
		{1, -1, 0.5, -0.5},
		{3.14159, -2.71828, 1e10, -1e-10},
	}
	for _, vec := range cases {
		b := Pack(vec)
		require.Len(t, b, len(vec)*4)
		out, err := Unpack(b)
		require.NoError(t, err)
		assert.Equal(t, vec, out)
	}
}

func TestUnpackInvalidLength(t *testing.T) {
	_, err := Unpack([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, ragerr.CodeInvalidFormat, ragerr.Code(err))
}

func TestReadFloatLE(t *testing.T) {
	vec := []float32{1.5, 2.5, 3.5}
	b := Pack(vec)

	for i, want := range vec {
		got, err := ReadFloatLE(b, i*4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadFloatLEOutOfRange(t *testing.T) {
	b := Pack([]float32{1, 2})
	_, err := ReadFloatLE(b, -1)
	require.Error(t, err)

	_, err = ReadFloatLE(b, len(b)-3)
	require.Error(t, err)
	assert.Equal(t, ragerr.CodeInvalidFormat, ragerr.Code(err))
}
