package encoder

import (
	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
)

// placeSymbol draws data layers, mode message, bullseye and (for full
// symbols) the reference grid.
func placeSymbol(messageBits, modeMessage *bitutil.BitArray, compact bool, layers int) (*bitutil.BitMatrix, int, error) {
	size := aztec.SymbolSize(compact, layers)
	matrix, err := bitutil.NewSquareBitMatrix(size)
	if err != nil {
		return nil, 0, err
	}

	aztec.LayerCells(compact, layers, func(bit, x, y int) {
		if messageBits.Get(bit) {
			matrix.Set(x, y)
		}
	})
	aztec.ModeMessageCells(compact, size, func(bit, x, y int) {
		if modeMessage.Get(bit) {
			matrix.Set(x, y)
		}
	})

	center := size / 2
	drawBullsEye(matrix, center, aztec.BullsEyeRadius(compact))
	if !compact {
		baseMatrixSize := 14 + layers*4
		for i, j := 0, 0; i < baseMatrixSize/2-1; i, j = i+15, j+16 {
			for k := center & 1; k < size; k += 2 {
				matrix.Set(center-j, k)
				matrix.Set(center+j, k)
				matrix.Set(k, center-j)
				matrix.Set(k, center+j)
			}
		}
	}
	return matrix, size, nil
}

// drawBullsEye draws the concentric finder squares and the orientation
// marks at the corners of the mode message ring.
func drawBullsEye(matrix *bitutil.BitMatrix, center, size int) {
	for i := 0; i < size; i += 2 {
		for j := center - i; j <= center+i; j++ {
			matrix.Set(j, center-i)
			matrix.Set(j, center+i)
			matrix.Set(center-i, j)
			matrix.Set(center+i, j)
		}
	}
	matrix.Set(center-size, center-size)
	matrix.Set(center-size+1, center-size)
	matrix.Set(center-size, center-size+1)
	matrix.Set(center+size, center-size)
	matrix.Set(center+size, center-size+1)
	matrix.Set(center+size, center+size-1)
}
