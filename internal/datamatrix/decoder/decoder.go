// Package decoder reads ECC 200 Data Matrix symbols from a sampled bit
// matrix holding exactly one symbol, finder pattern included.
package decoder

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/mempool"
	"github.com/MeKo-Tech/pocode/internal/reedsolomon"
)

var rsDecoder = reedsolomon.NewDecoder(reedsolomon.DataMatrixField256)

// Decode reads the codewords, corrects every block and parses the data.
func Decode(matrix *bitutil.BitMatrix) (*common.DecoderResult, error) {
	parser, err := newBitMatrixParser(matrix)
	if err != nil {
		return nil, err
	}
	codewords, err := parser.readCodewords()
	if err != nil {
		return nil, err
	}
	version := parser.version
	blocks, err := dataBlocks(codewords, version)
	if err != nil {
		return nil, err
	}

	numBlocks := len(blocks)
	data := make([]byte, version.DataCodewords())
	errorsCorrected := 0
	for j, block := range blocks {
		n, err := correctErrors(block)
		if err != nil {
			return nil, fmt.Errorf("block %d of %d: %w", j+1, numBlocks, err)
		}
		errorsCorrected += n
		// Interleave the data back into symbol order.
		for i := range block.numDataCodewords {
			data[i*numBlocks+j] = block.codewords[i]
		}
	}

	result, err := decodeBitStream(data)
	if err != nil {
		return nil, err
	}
	result.ErrorsCorrected = errorsCorrected
	return result, nil
}

// correctErrors fixes a block in place and returns the number of
// corrected codewords.
func correctErrors(block dataBlock) (int, error) {
	ints := mempool.GetInts(len(block.codewords))
	defer mempool.PutInts(ints)
	for i, b := range block.codewords {
		ints[i] = int(b)
	}
	n, err := rsDecoder.Decode(ints, len(block.codewords)-block.numDataCodewords)
	if err != nil {
		return 0, err
	}
	for i := range block.numDataCodewords {
		block.codewords[i] = byte(ints[i])
	}
	return n, nil
}
