package decoder

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
)

// bitMatrixParser reads codewords out of a symbol in the ECC 200 module
// placement order.
type bitMatrixParser struct {
	version *datamatrix.Version
	mapping *bitutil.BitMatrix
	read    *bitutil.BitMatrix
}

func newBitMatrixParser(matrix *bitutil.BitMatrix) (*bitMatrixParser, error) {
	rows, cols := matrix.Height(), matrix.Width()
	if rows < 8 || rows > 144 || rows&1 != 0 {
		return nil, fmt.Errorf("%w: %dx%d is not a Data Matrix size", common.ErrFormat, cols, rows)
	}
	version, err := datamatrix.VersionForDimensions(rows, cols)
	if err != nil {
		return nil, err
	}
	mapping := extractDataRegion(matrix, version)
	read, err := bitutil.NewBitMatrix(mapping.Width(), mapping.Height())
	if err != nil {
		return nil, err
	}
	return &bitMatrixParser{version: version, mapping: mapping, read: read}, nil
}

// extractDataRegion drops the finder and alignment patterns around each
// data region and joins the regions into one mapping matrix.
func extractDataRegion(matrix *bitutil.BitMatrix, v *datamatrix.Version) *bitutil.BitMatrix {
	regionRows, regionCols := v.RegionRows, v.RegionCols
	out, _ := bitutil.NewBitMatrix(v.MappingCols(), v.MappingRows())
	for regionRow := range v.RegionsPerColumn() {
		for regionCol := range v.RegionsPerRow() {
			for i := range regionRows {
				readRow := regionRow*(regionRows+2) + 1 + i
				writeRow := regionRow*regionRows + i
				for j := range regionCols {
					readCol := regionCol*(regionCols+2) + 1 + j
					if matrix.Get(readCol, readRow) {
						out.Set(regionCol*regionCols+j, writeRow)
					}
				}
			}
		}
	}
	return out
}

// readCodewords walks the mapping matrix diagonally, reading one codeword
// per Utah shape and handling the four corner shapes where they occur.
func (p *bitMatrixParser) readCodewords() ([]byte, error) {
	result := make([]byte, 0, p.version.TotalCodewords())
	numRows, numCols := p.mapping.Height(), p.mapping.Width()
	row, col := 4, 0
	var corner1, corner2, corner3, corner4 bool
	for {
		switch {
		case row == numRows && col == 0 && !corner1:
			result = append(result, p.readCorner(datamatrix.Corner1Cells(numRows, numCols)))
			row -= 2
			col += 2
			corner1 = true
		case row == numRows-2 && col == 0 && numCols&3 != 0 && !corner2:
			result = append(result, p.readCorner(datamatrix.Corner2Cells(numRows, numCols)))
			row -= 2
			col += 2
			corner2 = true
		case row == numRows+4 && col == 2 && numCols&7 == 0 && !corner3:
			result = append(result, p.readCorner(datamatrix.Corner3Cells(numRows, numCols)))
			row -= 2
			col += 2
			corner3 = true
		case row == numRows-2 && col == 0 && numCols&7 == 4 && !corner4:
			result = append(result, p.readCorner(datamatrix.Corner4Cells(numRows, numCols)))
			row -= 2
			col += 2
			corner4 = true
		default:
			// Sweep up and to the right.
			for {
				if row < numRows && col >= 0 && !p.read.Get(col, row) {
					result = append(result, p.readUtah(row, col, numRows, numCols))
				}
				row -= 2
				col += 2
				if row < 0 || col >= numCols {
					break
				}
			}
			row++
			col += 3
			// Sweep down and to the left.
			for {
				if row >= 0 && col < numCols && !p.read.Get(col, row) {
					result = append(result, p.readUtah(row, col, numRows, numCols))
				}
				row += 2
				col -= 2
				if row >= numRows || col < 0 {
					break
				}
			}
			row += 3
			col++
		}
		if row >= numRows && col >= numCols {
			break
		}
	}
	if len(result) != p.version.TotalCodewords() {
		return nil, fmt.Errorf("%w: read %d codewords, version %s holds %d",
			common.ErrFormat, len(result), p.version, p.version.TotalCodewords())
	}
	return result, nil
}

// readModule reads one module, wrapping coordinates that fall off the
// mapping matrix.
func (p *bitMatrixParser) readModule(row, col, numRows, numCols int) bool {
	if row < 0 {
		row += numRows
		col += 4 - ((numRows + 4) & 7)
	}
	if col < 0 {
		col += numCols
		row += 4 - ((numCols + 4) & 7)
	}
	if row >= numRows {
		row -= numRows
	}
	p.read.Set(col, row)
	return p.mapping.Get(col, row)
}

func (p *bitMatrixParser) readUtah(row, col, numRows, numCols int) byte {
	var v byte
	for _, d := range datamatrix.UtahShape {
		v <<= 1
		if p.readModule(row+d[0], col+d[1], numRows, numCols) {
			v |= 1
		}
	}
	return v
}

func (p *bitMatrixParser) readCorner(cells [8][2]int) byte {
	numRows, numCols := p.mapping.Height(), p.mapping.Width()
	var v byte
	for _, c := range cells {
		v <<= 1
		if p.readModule(c[0], c[1], numRows, numCols) {
			v |= 1
		}
	}
	return v
}
