package decoder

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
)

// dataBlock is one interleaved Reed-Solomon block: data codewords
// followed by the version's error correction codewords.
type dataBlock struct {
	numDataCodewords int
	codewords        []byte
}

// dataBlocks splits the codewords read from a symbol into its blocks.
// All blocks carry the same amount of data except in the 144x144 symbol,
// where the last two blocks hold one data codeword less.
func dataBlocks(raw []byte, v *datamatrix.Version) ([]dataBlock, error) {
	if len(raw) != v.TotalCodewords() {
		return nil, fmt.Errorf("%w: %d codewords for version %s", common.ErrArgument, len(raw), v)
	}
	blocks := make([]dataBlock, 0, v.BlockCount())
	for _, ecb := range v.Blocks {
		for range ecb.Count {
			blocks = append(blocks, dataBlock{
				numDataCodewords: ecb.DataCodewords,
				codewords:        make([]byte, ecb.DataCodewords+v.ECCodewords),
			})
		}
	}
	numBlocks := len(blocks)
	longerTotal := len(blocks[0].codewords)
	longerData := longerTotal - v.ECCodewords
	shorterData := longerData - 1

	offset := 0
	for i := range shorterData {
		for j := range numBlocks {
			blocks[j].codewords[i] = raw[offset]
			offset++
		}
	}

	special := v.Number == datamatrix.LargestSquare
	numLonger := numBlocks
	if special {
		numLonger = 8
	}
	for j := range numLonger {
		blocks[j].codewords[longerData-1] = raw[offset]
		offset++
	}

	for i := longerData; i < longerTotal; i++ {
		for j := range numBlocks {
			jOffset := j
			if special {
				jOffset = (j + 8) % numBlocks
			}
			iOffset := i
			if special && jOffset > 7 {
				iOffset = i - 1
			}
			blocks[jOffset].codewords[iOffset] = raw[offset]
			offset++
		}
	}
	if offset != len(raw) {
		return nil, fmt.Errorf("%w: de-interleaving consumed %d of %d codewords", common.ErrFormat, offset, len(raw))
	}
	return blocks, nil
}
