package bitutil

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatrix(t *testing.T, width, height int) *BitMatrix {
	t.Helper()
	m, err := NewBitMatrix(width, height)
	require.NoError(t, err)
	return m
}

func TestBitMatrix_GetSet(t *testing.T) {
	m, err := NewSquareBitMatrix(33)
	require.NoError(t, err)
	assert.Equal(t, 33, m.Height())
	assert.Equal(t, 2, m.RowSize())
	for y := range 33 {
		for x := range 33 {
			if y*x%3 == 0 {
				m.Set(x, y)
			}
		}
	}
	for y := range 33 {
		for x := range 33 {
			assert.Equal(t, y*x%3 == 0, m.Get(x, y))
		}
	}
	m.Unset(0, 0)
	assert.False(t, m.Get(0, 0))
	m.Flip(0, 0)
	assert.True(t, m.Get(0, 0))
}

func TestBitMatrix_InvalidDimensions(t *testing.T) {
	_, err := NewBitMatrix(0, 5)
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = NewBitMatrix(5, -1)
	assert.ErrorIs(t, err, common.ErrArgument)
}

func TestBitMatrix_SetRegion(t *testing.T) {
	m := mustMatrix(t, 5, 5)
	require.NoError(t, m.SetRegion(1, 1, 3, 3))
	for y := range 5 {
		for x := range 5 {
			assert.Equal(t, y >= 1 && y <= 3 && x >= 1 && x <= 3, m.Get(x, y))
		}
	}

	tests := []struct {
		name                      string
		left, top, width, height int
	}{
		{"negative left", -1, 0, 2, 2},
		{"negative top", 0, -1, 2, 2},
		{"zero width", 0, 0, 0, 2},
		{"too wide", 3, 0, 3, 1},
		{"too tall", 0, 4, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, m.SetRegion(tt.left, tt.top, tt.width, tt.height), common.ErrArgument)
		})
	}
}

func TestBitMatrix_EnclosingRectangle(t *testing.T) {
	m := mustMatrix(t, 40, 20)
	_, _, _, _, ok := m.EnclosingRectangle()
	assert.False(t, ok)

	require.NoError(t, m.SetRegion(3, 4, 30, 10))
	left, top, width, height, ok := m.EnclosingRectangle()
	require.True(t, ok)
	assert.Equal(t, []int{3, 4, 30, 10}, []int{left, top, width, height})

	x, y, ok := m.TopLeftOnBit()
	require.True(t, ok)
	assert.Equal(t, []int{3, 4}, []int{x, y})
	x, y, ok = m.BottomRightOnBit()
	require.True(t, ok)
	assert.Equal(t, []int{32, 13}, []int{x, y})
}

func TestBitMatrix_OnBitEmpty(t *testing.T) {
	m := mustMatrix(t, 3, 3)
	_, _, ok := m.TopLeftOnBit()
	assert.False(t, ok)
	_, _, ok = m.BottomRightOnBit()
	assert.False(t, ok)
}

func TestBitMatrix_RowRoundTrip(t *testing.T) {
	m := mustMatrix(t, 70, 3)
	m.Set(0, 1)
	m.Set(69, 1)
	row := m.Row(1, nil)
	assert.True(t, row.Get(0))
	assert.True(t, row.Get(69))

	m.SetRow(2, row)
	assert.True(t, m.Get(0, 2))
	assert.True(t, m.Get(69, 2))

	reused := m.Row(0, row)
	assert.Same(t, row, reused)
	assert.Equal(t, 70, reused.NextSet(0))
}

func TestBitMatrix_Rotate180(t *testing.T) {
	m := mustMatrix(t, 3, 3)
	m.Set(0, 0)
	m.Set(2, 1)
	m.Rotate180()
	assert.True(t, m.Get(2, 2))
	assert.True(t, m.Get(0, 1))
	assert.False(t, m.Get(0, 0))

	wide := mustMatrix(t, 37, 2)
	wide.Set(0, 0)
	wide.Set(36, 0)
	wide.Set(5, 1)
	wide.Rotate180()
	assert.True(t, wide.Get(36, 1))
	assert.True(t, wide.Get(0, 1))
	assert.True(t, wide.Get(31, 0))
}

func TestBitMatrix_Rotate(t *testing.T) {
	m := mustMatrix(t, 3, 2)
	m.Set(0, 0)
	m.Set(2, 1)

	r := m.Clone()
	require.NoError(t, r.Rotate(90))
	assert.Equal(t, 2, r.Width())
	assert.Equal(t, 3, r.Height())
	assert.True(t, r.Get(0, 2))
	assert.True(t, r.Get(1, 0))

	r = m.Clone()
	require.NoError(t, r.Rotate(360))
	assert.True(t, r.Equal(m))

	full := m.Clone()
	for range 4 {
		require.NoError(t, full.Rotate(90))
	}
	assert.True(t, full.Equal(m))

	r = m.Clone()
	require.NoError(t, r.Rotate(270))
	back := r.Clone()
	require.NoError(t, back.Rotate(90))
	assert.True(t, back.Equal(m))

	assert.ErrorIs(t, m.Rotate(45), common.ErrArgument)
}

func TestBitMatrix_Xor(t *testing.T) {
	a := mustMatrix(t, 5, 5)
	b := mustMatrix(t, 5, 5)
	a.Set(1, 1)
	b.Set(1, 1)
	b.Set(4, 4)
	require.NoError(t, a.Xor(b))
	assert.False(t, a.Get(1, 1))
	assert.True(t, a.Get(4, 4))

	assert.ErrorIs(t, a.Xor(mustMatrix(t, 5, 6)), common.ErrArgument)
	assert.ErrorIs(t, a.Xor(mustMatrix(t, 6, 5)), common.ErrArgument)
}

func TestBitMatrix_FlipAllAndClear(t *testing.T) {
	m := mustMatrix(t, 4, 4)
	m.FlipAll()
	assert.True(t, m.Get(3, 3))
	m.Clear()
	_, _, ok := m.TopLeftOnBit()
	assert.False(t, ok)
}

func TestBitMatrix_ParseRoundTrip(t *testing.T) {
	text := "X   X \n  X   \nX X X \n"
	m, err := ParseBitMatrix(text, "X ", "  ")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.True(t, m.Get(0, 0))
	assert.True(t, m.Get(1, 1))
	assert.False(t, m.Get(1, 0))
	assert.Equal(t, text, m.String())

	custom := m.StringWith("1", "0")
	assert.Equal(t, "101\n010\n111\n", custom)
	again, err := ParseBitMatrix(custom, "1", "0")
	require.NoError(t, err)
	assert.True(t, again.Equal(m))
	assert.Equal(t, []string{"101", "010", "111"}, m.Rows("1", "0"))
}

func TestBitMatrix_ParseWithoutTrailingNewline(t *testing.T) {
	m, err := ParseBitMatrix("10\r\n01", "1", "0")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Height())
	assert.True(t, m.Get(1, 1))
}

func TestBitMatrix_ParseErrors(t *testing.T) {
	_, err := ParseBitMatrix("101\n01\n", "1", "0")
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = ParseBitMatrix("1x1\n", "1", "0")
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = ParseBitMatrix("", "1", "0")
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = ParseBitMatrix("1", "", "0")
	assert.ErrorIs(t, err, common.ErrArgument)
}
