// Package datamatrix holds the ECC 200 symbol geometry shared by the Data
// Matrix encoder and decoder.
package datamatrix

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// ECB describes Count blocks of DataCodewords data codewords each.
type ECB struct {
	Count         int
	DataCodewords int
}

// Version is one ECC 200 symbol size.
type Version struct {
	Number         int
	Rows           int
	Cols           int
	RegionRows     int
	RegionCols     int
	ECCodewords    int // per block
	Blocks         []ECB
	totalCodewords int
}

func newVersion(number, rows, cols, regionRows, regionCols, ec int, blocks ...ECB) *Version {
	v := &Version{
		Number:      number,
		Rows:        rows,
		Cols:        cols,
		RegionRows:  regionRows,
		RegionCols:  regionCols,
		ECCodewords: ec,
		Blocks:      blocks,
	}
	for _, b := range blocks {
		v.totalCodewords += b.Count * (b.DataCodewords + ec)
	}
	return v
}

var versions = []*Version{
	newVersion(1, 10, 10, 8, 8, 5, ECB{1, 3}),
	newVersion(2, 12, 12, 10, 10, 7, ECB{1, 5}),
	newVersion(3, 14, 14, 12, 12, 10, ECB{1, 8}),
	newVersion(4, 16, 16, 14, 14, 12, ECB{1, 12}),
	newVersion(5, 18, 18, 16, 16, 14, ECB{1, 18}),
	newVersion(6, 20, 20, 18, 18, 18, ECB{1, 22}),
	newVersion(7, 22, 22, 20, 20, 20, ECB{1, 30}),
	newVersion(8, 24, 24, 22, 22, 24, ECB{1, 36}),
	newVersion(9, 26, 26, 24, 24, 28, ECB{1, 44}),
	newVersion(10, 32, 32, 14, 14, 36, ECB{1, 62}),
	newVersion(11, 36, 36, 16, 16, 42, ECB{1, 86}),
	newVersion(12, 40, 40, 18, 18, 48, ECB{1, 114}),
	newVersion(13, 44, 44, 20, 20, 56, ECB{1, 144}),
	newVersion(14, 48, 48, 22, 22, 68, ECB{1, 174}),
	newVersion(15, 52, 52, 24, 24, 42, ECB{2, 102}),
	newVersion(16, 64, 64, 14, 14, 56, ECB{2, 140}),
	newVersion(17, 72, 72, 16, 16, 36, ECB{4, 92}),
	newVersion(18, 80, 80, 18, 18, 48, ECB{4, 114}),
	newVersion(19, 88, 88, 20, 20, 56, ECB{4, 144}),
	newVersion(20, 96, 96, 22, 22, 68, ECB{4, 174}),
	newVersion(21, 104, 104, 24, 24, 56, ECB{6, 136}),
	newVersion(22, 120, 120, 18, 18, 68, ECB{6, 175}),
	newVersion(23, 132, 132, 20, 20, 62, ECB{8, 163}),
	newVersion(24, 144, 144, 22, 22, 62, ECB{8, 156}, ECB{2, 155}),
	newVersion(25, 8, 18, 6, 16, 7, ECB{1, 5}),
	newVersion(26, 8, 32, 6, 14, 11, ECB{1, 10}),
	newVersion(27, 12, 26, 10, 24, 14, ECB{1, 16}),
	newVersion(28, 12, 36, 10, 16, 18, ECB{1, 22}),
	newVersion(29, 16, 36, 14, 16, 24, ECB{1, 32}),
	newVersion(30, 16, 48, 14, 22, 28, ECB{1, 49}),
}

// LargestSquare is the only version whose blocks differ in size.
const LargestSquare = 24

// Versions returns all 30 versions in table order: 24 square sizes, then
// the 6 rectangular ones.
func Versions() []*Version { return versions }

// VersionForNumber returns version n (1..30).
func VersionForNumber(n int) (*Version, error) {
	if n < 1 || n > len(versions) {
		return nil, fmt.Errorf("%w: no Data Matrix version %d", common.ErrArgument, n)
	}
	return versions[n-1], nil
}

// VersionForDimensions returns the version with the given symbol size.
func VersionForDimensions(rows, cols int) (*Version, error) {
	if rows&1 != 0 || cols&1 != 0 {
		return nil, fmt.Errorf("%w: odd Data Matrix dimension %dx%d", common.ErrFormat, rows, cols)
	}
	for _, v := range versions {
		if v.Rows == rows && v.Cols == cols {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: no Data Matrix version is %dx%d", common.ErrFormat, rows, cols)
}

// TotalCodewords is the number of data plus error correction codewords.
func (v *Version) TotalCodewords() int { return v.totalCodewords }

// DataCodewords is the data capacity over all blocks.
func (v *Version) DataCodewords() int {
	n := 0
	for _, b := range v.Blocks {
		n += b.Count * b.DataCodewords
	}
	return n
}

// BlockCount is the number of interleaved blocks.
func (v *Version) BlockCount() int {
	n := 0
	for _, b := range v.Blocks {
		n += b.Count
	}
	return n
}

// Square reports whether the symbol is square.
func (v *Version) Square() bool { return v.Rows == v.Cols }

// RegionsPerRow is the number of data regions horizontally.
func (v *Version) RegionsPerRow() int { return v.Cols / v.RegionCols }

// RegionsPerColumn is the number of data regions vertically.
func (v *Version) RegionsPerColumn() int { return v.Rows / v.RegionRows }

// MappingRows is the height of the data area without alignment patterns.
func (v *Version) MappingRows() int { return v.RegionsPerColumn() * v.RegionRows }

// MappingCols is the width of the data area without alignment patterns.
func (v *Version) MappingCols() int { return v.RegionsPerRow() * v.RegionCols }

func (v *Version) String() string {
	return fmt.Sprintf("%d (%dx%d)", v.Number, v.Rows, v.Cols)
}
