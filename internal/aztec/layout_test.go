package aztec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignmentMap(t *testing.T) {
	m, size := AlignmentMap(true, 2)
	assert.Equal(t, 19, size)
	assert.Len(t, m, 19)
	assert.Equal(t, 0, m[0])
	assert.Equal(t, 18, m[18])

	m, size = AlignmentMap(false, 5)
	assert.Equal(t, 37, size)
	assert.Len(t, m, 34)
	// The center line and the lines 16 away are grid, never data.
	for _, v := range m {
		assert.NotEqual(t, size/2, v)
		assert.NotEqual(t, size/2-16, v)
		assert.NotEqual(t, size/2+16, v)
	}
}

func TestSymbolSize(t *testing.T) {
	tests := []struct {
		compact bool
		layers  int
		size    int
	}{
		{true, 1, 15},
		{true, 4, 27},
		{false, 1, 19},
		{false, 4, 31},
		{false, 5, 37},
		{false, 32, 151},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.size, SymbolSize(tt.compact, tt.layers), "compact=%v layers=%d", tt.compact, tt.layers)
	}
}

func TestTotalBitsInLayers(t *testing.T) {
	assert.Equal(t, 104, TotalBitsInLayers(1, true))
	assert.Equal(t, 608, TotalBitsInLayers(4, true))
	assert.Equal(t, 128, TotalBitsInLayers(1, false))
	assert.Equal(t, 19968, TotalBitsInLayers(32, false))
}

func TestWordSize(t *testing.T) {
	assert.Equal(t, 6, WordSize(1))
	assert.Equal(t, 6, WordSize(2))
	assert.Equal(t, 8, WordSize(8))
	assert.Equal(t, 10, WordSize(9))
	assert.Equal(t, 10, WordSize(22))
	assert.Equal(t, 12, WordSize(23))
	assert.Equal(t, 12, WordSize(32))
}

func TestLayerCells_CoverEachModuleOnce(t *testing.T) {
	for _, tc := range []struct {
		compact bool
		layers  int
	}{{true, 1}, {true, 4}, {false, 1}, {false, 6}} {
		size := SymbolSize(tc.compact, tc.layers)
		seen := make(map[[2]int]bool)
		bits := make(map[int]bool)
		LayerCells(tc.compact, tc.layers, func(bit, x, y int) {
			key := [2]int{x, y}
			assert.False(t, seen[key], "module %v visited twice", key)
			seen[key] = true
			bits[bit] = true
			assert.True(t, x >= 0 && x < size && y >= 0 && y < size)
		})
		total := TotalBitsInLayers(tc.layers, tc.compact)
		assert.Len(t, bits, total)
		assert.Len(t, seen, total)
	}
}

func TestModeMessageCells(t *testing.T) {
	for _, compact := range []bool{true, false} {
		size := SymbolSize(compact, 2)
		count := 0
		ModeMessageCells(compact, size, func(bit, x, y int) { count++ })
		if compact {
			assert.Equal(t, 28, count)
		} else {
			assert.Equal(t, 40, count)
		}
	}
}
