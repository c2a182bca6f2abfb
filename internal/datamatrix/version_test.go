package datamatrix

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_Table(t *testing.T) {
	require.Len(t, Versions(), 30)
	for i, v := range Versions() {
		assert.Equal(t, i+1, v.Number)
		assert.Zero(t, v.Rows%2, "version %d", v.Number)
		assert.Zero(t, v.Cols%2, "version %d", v.Number)
		// Each region is framed by a one module border on every side.
		assert.Equal(t, v.Rows, v.RegionsPerColumn()*(v.RegionRows+2), "version %d", v.Number)
		assert.Equal(t, v.Cols, v.RegionsPerRow()*(v.RegionCols+2), "version %d", v.Number)
		assert.Equal(t, v.Square(), i < 24)
	}
}

func TestVersion_Codewords(t *testing.T) {
	tests := []struct {
		number, total, data, blocks int
	}{
		{1, 8, 3, 1},
		{10, 98, 62, 1},
		{15, 288, 204, 2},
		{23, 1800, 1304, 8},
		{24, 2178, 1558, 10},
		{30, 77, 49, 1},
	}
	for _, tt := range tests {
		v, err := VersionForNumber(tt.number)
		require.NoError(t, err)
		assert.Equal(t, tt.total, v.TotalCodewords(), "version %d", tt.number)
		assert.Equal(t, tt.data, v.DataCodewords(), "version %d", tt.number)
		assert.Equal(t, tt.blocks, v.BlockCount(), "version %d", tt.number)
	}
}

func TestVersion_MappingFitsCodewords(t *testing.T) {
	for _, v := range Versions() {
		modules := v.MappingRows() * v.MappingCols()
		assert.GreaterOrEqual(t, modules, 8*v.TotalCodewords(), "version %d", v.Number)
		assert.Less(t, modules-8*v.TotalCodewords(), 8, "version %d", v.Number)
	}
}

func TestVersionForDimensions(t *testing.T) {
	v, err := VersionForDimensions(144, 144)
	require.NoError(t, err)
	assert.Equal(t, LargestSquare, v.Number)

	v, err = VersionForDimensions(8, 18)
	require.NoError(t, err)
	assert.Equal(t, 25, v.Number)
	assert.Equal(t, "25 (8x18)", v.String())

	_, err = VersionForDimensions(11, 11)
	assert.ErrorIs(t, err, common.ErrFormat)
	_, err = VersionForDimensions(18, 8)
	assert.ErrorIs(t, err, common.ErrFormat)

	_, err = VersionForNumber(31)
	assert.ErrorIs(t, err, common.ErrArgument)
	_, err = VersionForNumber(0)
	assert.ErrorIs(t, err, common.ErrArgument)
}
