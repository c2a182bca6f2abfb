package datamatrix

// The module placement shapes of ISO/IEC 16022 annex F, as (row, column)
// pairs from the most significant bit of a codeword to the least.

// UtahShape holds offsets from the lower right module of the nominal
// Utah shape.
var UtahShape = [8][2]int{
	{-2, -2}, {-2, -1}, {-1, -2}, {-1, -1}, {-1, 0}, {0, -2}, {0, -1}, {0, 0},
}

// Corner1Cells is used when the sweep reaches (numRows, 0).
func Corner1Cells(numRows, numCols int) [8][2]int {
	return [8][2]int{
		{numRows - 1, 0}, {numRows - 1, 1}, {numRows - 1, 2}, {0, numCols - 2},
		{0, numCols - 1}, {1, numCols - 1}, {2, numCols - 1}, {3, numCols - 1},
	}
}

// Corner2Cells is used at (numRows-2, 0) when numCols is not a multiple
// of 4.
func Corner2Cells(numRows, numCols int) [8][2]int {
	return [8][2]int{
		{numRows - 3, 0}, {numRows - 2, 0}, {numRows - 1, 0}, {0, numCols - 4},
		{0, numCols - 3}, {0, numCols - 2}, {0, numCols - 1}, {1, numCols - 1},
	}
}

// Corner3Cells is used at (numRows+4, 2) when numCols is a multiple of 8.
func Corner3Cells(numRows, numCols int) [8][2]int {
	return [8][2]int{
		{numRows - 1, 0}, {numRows - 1, numCols - 1}, {0, numCols - 3}, {0, numCols - 2},
		{0, numCols - 1}, {1, numCols - 3}, {1, numCols - 2}, {1, numCols - 1},
	}
}

// Corner4Cells is used at (numRows-2, 0) when numCols is 4 mod 8.
func Corner4Cells(numRows, numCols int) [8][2]int {
	return [8][2]int{
		{numRows - 3, 0}, {numRows - 2, 0}, {numRows - 1, 0}, {0, numCols - 2},
		{0, numCols - 1}, {1, numCols - 1}, {2, numCols - 1}, {3, numCols - 1},
	}
}
