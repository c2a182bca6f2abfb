// Package aztec holds the symbol geometry shared by the Aztec encoder and
// decoder.
package aztec

const (
	// MaxLayers is the layer limit of a full symbol.
	MaxLayers = 32
	// MaxLayersCompact is the layer limit of a compact symbol.
	MaxLayersCompact = 4
)

// wordSize[layers] is the codeword size in bits.
var wordSize = [MaxLayers + 1]int{
	4, 6, 6, 8, 8, 8, 8, 8, 8, 10, 10,
	10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
	10, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
}

// WordSize returns the codeword size for a layer count in [0, 32].
func WordSize(layers int) int {
	return wordSize[layers]
}

// TotalBitsInLayers is the module capacity of the data layers.
func TotalBitsInLayers(layers int, compact bool) int {
	base := 112
	if compact {
		base = 88
	}
	return (base + 16*layers) * layers
}

// SymbolSize returns the side length in modules.
func SymbolSize(compact bool, layers int) int {
	_, size := AlignmentMap(compact, layers)
	return size
}

// AlignmentMap returns the symbol coordinate of each logical data
// coordinate and the symbol size. Full symbols skip a reference grid line
// every 16 modules from the center.
func AlignmentMap(compact bool, layers int) (alignmentMap []int, size int) {
	baseMatrixSize := 14 + layers*4
	if compact {
		baseMatrixSize = 11 + layers*4
	}
	alignmentMap = make([]int, baseMatrixSize)
	if compact {
		for i := range alignmentMap {
			alignmentMap[i] = i
		}
		return alignmentMap, baseMatrixSize
	}
	size = baseMatrixSize + 1 + 2*((baseMatrixSize/2-1)/15)
	origCenter := baseMatrixSize / 2
	center := size / 2
	for i := range origCenter {
		newOffset := i + i/15
		alignmentMap[origCenter-i-1] = center - newOffset - 1
		alignmentMap[origCenter+i] = center + newOffset + 1
	}
	return alignmentMap, size
}

// LayerCells calls visit for every data module in placement order: bit
// index, column and row. The encoder writes and the decoder reads through
// the same walk.
func LayerCells(compact bool, layers int, visit func(bit, x, y int)) {
	alignmentMap, _ := AlignmentMap(compact, layers)
	baseMatrixSize := len(alignmentMap)
	rowOffset := 0
	for i := range layers {
		rowSize := (layers-i)*4 + 12
		if compact {
			rowSize = (layers-i)*4 + 9
		}
		low := i * 2
		high := baseMatrixSize - 1 - low
		for j := range rowSize {
			columnOffset := j * 2
			for k := range 2 {
				visit(rowOffset+columnOffset+k, alignmentMap[low+k], alignmentMap[low+j])
				visit(rowOffset+rowSize*2+columnOffset+k, alignmentMap[low+j], alignmentMap[high-k])
				visit(rowOffset+rowSize*4+columnOffset+k, alignmentMap[high-k], alignmentMap[high-j])
				visit(rowOffset+rowSize*6+columnOffset+k, alignmentMap[high-j], alignmentMap[low+k])
			}
		}
		rowOffset += rowSize * 8
	}
}

// ModeMessageCells calls visit for every mode message module: bit index,
// column and row. Compact symbols carry 28 bits, full symbols 40.
func ModeMessageCells(compact bool, size int, visit func(bit, x, y int)) {
	center := size / 2
	if compact {
		for i := range 7 {
			offset := center - 3 + i
			visit(i, offset, center-5)
			visit(i+7, center+5, offset)
			visit(20-i, offset, center+5)
			visit(27-i, center-5, offset)
		}
		return
	}
	for i := range 10 {
		offset := center - 5 + i + i/5
		visit(i, offset, center-7)
		visit(i+10, center+7, offset)
		visit(29-i, offset, center+7)
		visit(39-i, center-7, offset)
	}
}

// BullsEyeRadius is the ring index of the mode message.
func BullsEyeRadius(compact bool) int {
	if compact {
		return 5
	}
	return 7
}
