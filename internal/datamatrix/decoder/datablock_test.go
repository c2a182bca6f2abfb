package decoder

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawCodewords(n int) []byte {
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = byte(i % 251)
	}
	return raw
}

func TestDataBlocks_SingleBlock(t *testing.T) {
	v, err := datamatrix.VersionForNumber(1)
	require.NoError(t, err)
	raw := rawCodewords(v.TotalCodewords())
	blocks, err := dataBlocks(raw, v)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 3, blocks[0].numDataCodewords)
	assert.Equal(t, raw, blocks[0].codewords)
}

func TestDataBlocks_Interleaved(t *testing.T) {
	v, err := datamatrix.VersionForNumber(17)
	require.NoError(t, err)
	raw := rawCodewords(v.TotalCodewords())
	blocks, err := dataBlocks(raw, v)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	for j, b := range blocks {
		require.Len(t, b.codewords, 92+36)
		for i := range b.codewords {
			assert.Equal(t, raw[i*4+j], b.codewords[i], "block %d codeword %d", j, i)
		}
	}
}

func TestDataBlocks_LargestSquare(t *testing.T) {
	v, err := datamatrix.VersionForNumber(datamatrix.LargestSquare)
	require.NoError(t, err)
	raw := rawCodewords(v.TotalCodewords())
	blocks, err := dataBlocks(raw, v)
	require.NoError(t, err)
	require.Len(t, blocks, 10)

	for j, b := range blocks {
		if j < 8 {
			assert.Equal(t, 156, b.numDataCodewords)
			assert.Len(t, b.codewords, 156+62)
		} else {
			assert.Equal(t, 155, b.numDataCodewords)
			assert.Len(t, b.codewords, 155+62)
		}
		for i := range 155 {
			assert.Equal(t, raw[i*10+j], b.codewords[i], "block %d data %d", j, i)
		}
	}
	// The extra data codeword of the eight longer blocks.
	for j := range 8 {
		assert.Equal(t, raw[1550+j], blocks[j].codewords[155], "block %d", j)
	}
	// Error correction rounds start with the two short blocks.
	for round := range 62 {
		base := 1558 + round*10
		assert.Equal(t, raw[base], blocks[8].codewords[155+round], "round %d", round)
		assert.Equal(t, raw[base+1], blocks[9].codewords[155+round], "round %d", round)
		for j := range 8 {
			assert.Equal(t, raw[base+2+j], blocks[j].codewords[156+round], "round %d block %d", round, j)
		}
	}
}

func TestDataBlocks_WrongLength(t *testing.T) {
	v, err := datamatrix.VersionForNumber(5)
	require.NoError(t, err)
	_, err = dataBlocks(rawCodewords(v.TotalCodewords()-1), v)
	assert.ErrorIs(t, err, common.ErrArgument)
}
