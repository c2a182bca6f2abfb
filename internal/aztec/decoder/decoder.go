// Package decoder reads pure Aztec symbols: a bit matrix holding exactly
// one symbol, one module per bit and no quiet zone, in any of the four
// right-angle orientations.
package decoder

import (
	"fmt"
	"strconv"

	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/mempool"
	"github.com/MeKo-Tech/pocode/internal/reedsolomon"
)

// Parameters describes the symbol as read from its mode message.
type Parameters struct {
	Compact       bool
	Layers        int
	DataCodewords int
	ModeCorrected int
	Size          int
}

// Decode locates the bullseye, reads the mode message and returns the
// payload.
func Decode(matrix *bitutil.BitMatrix) (*common.DecoderResult, error) {
	oriented, params, err := Detect(matrix)
	if err != nil {
		return nil, err
	}
	rawBits := extractBits(oriented, params)
	defer mempool.PutBool(rawBits)

	corrected, errorsCorrected, ecLevel, err := correctBits(rawBits, params)
	if err != nil {
		return nil, err
	}
	data, err := decodeBits(corrected)
	if err != nil {
		return nil, err
	}
	rawBytes := bitsToBytes(corrected)
	result := common.NewDecoderResult(rawBytes, data.text, data.segments)
	result.NumBits = len(corrected)
	result.ErrorsCorrected = errorsCorrected + params.ModeCorrected
	result.ECLevel = strconv.Itoa(ecLevel)
	result.SymbologyModifier = data.symbologyModifier
	return result, nil
}

// Detect checks the bullseye and orientation marks, rotating the matrix
// until the marks read upright, and decodes the mode message.
func Detect(matrix *bitutil.BitMatrix) (*bitutil.BitMatrix, *Parameters, error) {
	size := matrix.Width()
	if size != matrix.Height() || size < 15 || size%2 == 0 {
		return nil, nil, fmt.Errorf("%w: %dx%d is not an Aztec symbol size", common.ErrNotFound, matrix.Width(), matrix.Height())
	}
	compact, err := bullsEyeKind(matrix)
	if err != nil {
		return nil, nil, err
	}
	radius := aztec.BullsEyeRadius(compact)
	oriented := matrix
	for turn := 0; ; turn++ {
		if orientationMarksUpright(oriented, radius) {
			break
		}
		if turn == 3 {
			return nil, nil, fmt.Errorf("%w: orientation marks not found", common.ErrNotFound)
		}
		if oriented == matrix {
			oriented = matrix.Clone()
		}
		oriented.Rotate90()
	}
	params, err := readModeMessage(oriented, compact)
	if err != nil {
		return nil, nil, err
	}
	if want := aztec.SymbolSize(params.Compact, params.Layers); want != size {
		return nil, nil, fmt.Errorf("%w: mode message claims %d layers (size %d) in a %d module symbol",
			common.ErrFormat, params.Layers, want, size)
	}
	params.Size = size
	return oriented, params, nil
}

// bullsEyeKind checks the finder rings around the center. Full symbols
// have a white ring 5 and a black ring 6; in compact symbols ring 5 holds
// the mode message.
func bullsEyeKind(matrix *bitutil.BitMatrix) (compact bool, err error) {
	center := matrix.Width() / 2
	full := matrix.Width() >= 19 && ringIs(matrix, center, 5, false) && ringIs(matrix, center, 6, true)
	rings := 4
	if full {
		rings = 6
	}
	for r := 0; r <= rings; r++ {
		if !ringIs(matrix, center, r, r%2 == 0) {
			return false, fmt.Errorf("%w: bullseye ring %d broken", common.ErrNotFound, r)
		}
	}
	return !full, nil
}

// ringIs reports whether every module at Chebyshev distance r from the
// center equals on.
func ringIs(matrix *bitutil.BitMatrix, center, r int, on bool) bool {
	for i := -r; i <= r; i++ {
		if matrix.Get(center+i, center-r) != on || matrix.Get(center+i, center+r) != on ||
			matrix.Get(center-r, center+i) != on || matrix.Get(center+r, center+i) != on {
			return false
		}
	}
	return true
}

// orientationMarksUpright checks the three, two, one and zero dark
// modules at the top-left, top-right, bottom-right and bottom-left
// corners of the mode message ring.
func orientationMarksUpright(matrix *bitutil.BitMatrix, radius int) bool {
	c := matrix.Width() / 2
	lo, hi := c-radius, c+radius
	marks := []struct {
		x, y int
		on   bool
	}{
		{lo, lo, true}, {lo + 1, lo, true}, {lo, lo + 1, true},
		{hi, lo, true}, {hi, lo + 1, true}, {hi - 1, lo, false},
		{hi, hi - 1, true}, {hi, hi, false}, {hi - 1, hi, false},
		{lo, hi, false}, {lo + 1, hi, false}, {lo, hi - 1, false},
	}
	for _, m := range marks {
		if matrix.Get(m.x, m.y) != m.on {
			return false
		}
	}
	return true
}

// readModeMessage corrects the mode message in GF(16) and unpacks the
// layer and data word counts.
func readModeMessage(matrix *bitutil.BitMatrix, compact bool) (*Parameters, error) {
	numBits, numData := 40, 4
	if compact {
		numBits, numData = 28, 2
	}
	bits := make([]bool, numBits)
	aztec.ModeMessageCells(compact, matrix.Width(), func(bit, x, y int) {
		bits[bit] = matrix.Get(x, y)
	})
	words := make([]int, numBits/4)
	for i := range words {
		words[i] = readCode(bits, 4*i, 4)
	}
	corrected, err := reedsolomon.NewDecoder(reedsolomon.AztecParam).Decode(words, len(words)-numData)
	if err != nil {
		return nil, fmt.Errorf("mode message: %w", err)
	}
	value := 0
	for _, w := range words[:numData] {
		value = value<<4 | w
	}
	p := &Parameters{Compact: compact, ModeCorrected: corrected}
	if compact {
		p.Layers = value>>6 + 1
		p.DataCodewords = value&0x3F + 1
	} else {
		p.Layers = value>>11 + 1
		p.DataCodewords = value&0x7FF + 1
	}
	return p, nil
}

// extractBits reads the data layers into a pooled buffer.
func extractBits(matrix *bitutil.BitMatrix, p *Parameters) []bool {
	raw := mempool.GetBool(aztec.TotalBitsInLayers(p.Layers, p.Compact))
	aztec.LayerCells(p.Compact, p.Layers, func(bit, x, y int) {
		raw[bit] = matrix.Get(x, y)
	})
	return raw
}

// correctBits runs Reed-Solomon over the codewords and removes stuffed
// bits. It returns the data bits, the corrected word count and the share
// of check words in percent.
func correctBits(rawBits []bool, p *Parameters) ([]bool, int, int, error) {
	codewordSize := aztec.WordSize(p.Layers)
	field, err := reedsolomon.FieldForWordSize(codewordSize)
	if err != nil {
		return nil, 0, 0, err
	}
	numDataCodewords := p.DataCodewords
	numCodewords := len(rawBits) / codewordSize
	if numCodewords < numDataCodewords {
		return nil, 0, 0, fmt.Errorf("%w: %d data words exceed %d codewords", common.ErrFormat, numDataCodewords, numCodewords)
	}
	offset := len(rawBits) % codewordSize
	dataWords := mempool.GetInts(numCodewords)
	defer mempool.PutInts(dataWords)
	for i := range numCodewords {
		dataWords[i] = readCode(rawBits, offset, codewordSize)
		offset += codewordSize
	}
	corrected, err := reedsolomon.NewDecoder(field).Decode(dataWords, numCodewords-numDataCodewords)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("data codewords: %w", err)
	}

	mask := 1<<codewordSize - 1
	stuffedBits := 0
	for _, w := range dataWords[:numDataCodewords] {
		switch w {
		case 0, mask:
			return nil, 0, 0, fmt.Errorf("%w: invalid stuffed codeword %d", common.ErrFormat, w)
		case 1, mask - 1:
			stuffedBits++
		}
	}
	out := make([]bool, 0, numDataCodewords*codewordSize-stuffedBits)
	for _, w := range dataWords[:numDataCodewords] {
		if w == 1 || w == mask-1 {
			// The upper codewordSize-1 bits are all equal; the low bit was stuffing.
			for range codewordSize - 1 {
				out = append(out, w > 1)
			}
			continue
		}
		for bit := codewordSize - 1; bit >= 0; bit-- {
			out = append(out, w&(1<<bit) != 0)
		}
	}
	ecLevel := 100 * (numCodewords - numDataCodewords) / numCodewords
	return out, corrected, ecLevel, nil
}
