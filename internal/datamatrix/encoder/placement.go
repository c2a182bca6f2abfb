package encoder

import (
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
)

// placement lays codewords into the mapping matrix (the symbol without
// finder and alignment patterns). Cells hold -1 until written.
type placement struct {
	numRows, numCols int
	codewords        []byte
	cells            []int8
}

func newPlacement(codewords []byte, numRows, numCols int) *placement {
	cells := make([]int8, numRows*numCols)
	for i := range cells {
		cells[i] = -1
	}
	return &placement{numRows: numRows, numCols: numCols, codewords: codewords, cells: cells}
}

func (p *placement) bit(row, col int) bool { return p.cells[row*p.numCols+col] == 1 }

func (p *placement) written(row, col int) bool { return p.cells[row*p.numCols+col] >= 0 }

// module writes bit (1 is the most significant) of codeword pos, wrapping
// coordinates that fall off the matrix.
func (p *placement) module(row, col, pos, bit int) {
	if row < 0 {
		row += p.numRows
		col += 4 - ((p.numRows + 4) % 8)
	}
	if col < 0 {
		col += p.numCols
		row += 4 - ((p.numCols + 4) % 8)
	}
	var v int8
	if p.codewords[pos]&(1<<(8-bit)) != 0 {
		v = 1
	}
	p.cells[row*p.numCols+col] = v
}

func (p *placement) utah(row, col, pos int) {
	for i, d := range datamatrix.UtahShape {
		p.module(row+d[0], col+d[1], pos, i+1)
	}
}

func (p *placement) corner(cells [8][2]int, pos int) {
	for i, c := range cells {
		p.module(c[0], c[1], pos, i+1)
	}
}

// place runs the diagonal sweep. The lower right 2x2 square is left
// over in some sizes and gets its fixed pattern.
func (p *placement) place() {
	nr, nc := p.numRows, p.numCols
	pos := 0
	row, col := 4, 0
	for {
		if row == nr && col == 0 {
			p.corner(datamatrix.Corner1Cells(nr, nc), pos)
			pos++
		}
		if row == nr-2 && col == 0 && nc%4 != 0 {
			p.corner(datamatrix.Corner2Cells(nr, nc), pos)
			pos++
		}
		if row == nr-2 && col == 0 && nc%8 == 4 {
			p.corner(datamatrix.Corner4Cells(nr, nc), pos)
			pos++
		}
		if row == nr+4 && col == 2 && nc%8 == 0 {
			p.corner(datamatrix.Corner3Cells(nr, nc), pos)
			pos++
		}
		for {
			if row < nr && col >= 0 && !p.written(row, col) {
				p.utah(row, col, pos)
				pos++
			}
			row -= 2
			col += 2
			if row < 0 || col >= nc {
				break
			}
		}
		row++
		col += 3
		for {
			if row >= 0 && col < nc && !p.written(row, col) {
				p.utah(row, col, pos)
				pos++
			}
			row += 2
			col -= 2
			if row >= nr || col < 0 {
				break
			}
		}
		row += 3
		col++
		if row >= nr && col >= nc {
			break
		}
	}
	if !p.written(nr-1, nc-1) {
		p.cells[(nr-1)*nc+nc-1] = 1
		p.cells[(nr-2)*nc+nc-2] = 1
		p.cells[(nr-1)*nc+nc-2] = 0
		p.cells[(nr-2)*nc+nc-1] = 0
	}
}

// buildSymbol frames each data region with the solid L finder on the
// left and bottom and the dotted clock track on the top and right.
func buildSymbol(p *placement, v *datamatrix.Version) *bitutil.BitMatrix {
	matrix, _ := bitutil.NewBitMatrix(v.Cols, v.Rows)
	regionRows, regionCols := v.RegionRows, v.RegionCols
	for y := range v.Rows {
		ly := y % (regionRows + 2)
		for x := range v.Cols {
			lx := x % (regionCols + 2)
			var on bool
			switch {
			case ly == regionRows+1:
				on = true
			case ly == 0:
				on = x%2 == 0
			case lx == 0:
				on = true
			case lx == regionCols+1:
				on = y%2 == 1
			default:
				row := (y/(regionRows+2))*regionRows + ly - 1
				col := (x/(regionCols+2))*regionCols + lx - 1
				on = p.bit(row, col)
			}
			if on {
				matrix.Set(x, y)
			}
		}
	}
	return matrix
}
