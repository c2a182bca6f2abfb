package encoder

import (
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
	"github.com/MeKo-Tech/pocode/internal/mempool"
	"github.com/MeKo-Tech/pocode/internal/reedsolomon"
)

var rsEncoder = reedsolomon.NewEncoder(reedsolomon.DataMatrixField256)

// block is one Reed-Solomon block before interleaving.
type block struct {
	numData   int
	codewords []byte
}

// errorCorrection splits padded data into blocks round-robin, appends
// check codewords to each and interleaves them in the order a reader
// expects, including the 144x144 symbol whose last two blocks are one
// data codeword short.
func errorCorrection(data []byte, v *datamatrix.Version) ([]byte, error) {
	blocks := make([]block, 0, v.BlockCount())
	for _, ecb := range v.Blocks {
		for range ecb.Count {
			blocks = append(blocks, block{
				numData:   ecb.DataCodewords,
				codewords: make([]byte, ecb.DataCodewords+v.ECCodewords),
			})
		}
	}
	numBlocks := len(blocks)
	for j := range blocks {
		b := &blocks[j]
		for i := range b.numData {
			b.codewords[i] = data[i*numBlocks+j]
		}
		if err := appendCheckWords(b, v.ECCodewords); err != nil {
			return nil, err
		}
	}
	return interleave(blocks, v), nil
}

func appendCheckWords(b *block, ecWords int) error {
	ints := mempool.GetInts(len(b.codewords))
	defer mempool.PutInts(ints)
	for i := range b.numData {
		ints[i] = int(b.codewords[i])
	}
	if err := rsEncoder.Encode(ints, ecWords); err != nil {
		return err
	}
	for i := b.numData; i < len(b.codewords); i++ {
		b.codewords[i] = byte(ints[i])
	}
	return nil
}

// interleave writes the blocks in symbol order, the exact inverse of the
// reader's de-interleaving.
func interleave(blocks []block, v *datamatrix.Version) []byte {
	out := make([]byte, 0, v.TotalCodewords())
	numBlocks := len(blocks)
	longerTotal := len(blocks[0].codewords)
	longerData := longerTotal - v.ECCodewords

	for i := range longerData - 1 {
		for j := range numBlocks {
			out = append(out, blocks[j].codewords[i])
		}
	}
	special := v.Number == datamatrix.LargestSquare
	numLonger := numBlocks
	if special {
		numLonger = 8
	}
	for j := range numLonger {
		out = append(out, blocks[j].codewords[longerData-1])
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
			out = append(out, blocks[jOffset].codewords[iOffset])
		}
	}
	return out
}
