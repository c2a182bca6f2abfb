package bitutil

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitSource(t *testing.T) {
	source := NewBitSource([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 40, source.Available())

	steps := []struct {
		bits      int
		want      int
		available int
	}{
		{1, 0, 39},
		{6, 0, 33},
		{1, 1, 32},
		{8, 2, 24},
		{10, 12, 14},
		{8, 16, 6},
		{6, 5, 0},
	}
	for _, step := range steps {
		got, err := source.ReadBits(step.bits)
		require.NoError(t, err)
		assert.Equal(t, step.want, got)
		assert.Equal(t, step.available, source.Available())
	}

	_, err := source.ReadBits(1)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestBitSource_Offsets(t *testing.T) {
	source := NewBitSource([]byte{0xFF, 0x00})
	_, err := source.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, 0, source.ByteOffset())
	assert.Equal(t, 3, source.BitOffset())
	v, err := source.ReadBits(5)
	require.NoError(t, err)
	assert.Equal(t, 0x1F, v)
	assert.Equal(t, 1, source.ByteOffset())
	assert.Equal(t, 0, source.BitOffset())
}

func TestBitSource_InvalidCount(t *testing.T) {
	source := NewBitSource(make([]byte, 8))
	_, err := source.ReadBits(0)
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = source.ReadBits(33)
	assert.ErrorIs(t, err, common.ErrArgument)
}
