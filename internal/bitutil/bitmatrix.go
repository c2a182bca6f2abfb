package bitutil

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// BitMatrix is a 2D grid of bits addressed as (x, y) = (column, row).
// Rows are packed into 32-bit words; each row starts on a fresh word.
type BitMatrix struct {
	width   int
	height  int
	rowSize int
	words   []uint32
}

// NewSquareBitMatrix creates an empty dimension x dimension matrix.
func NewSquareBitMatrix(dimension int) (*BitMatrix, error) {
	return NewBitMatrix(dimension, dimension)
}

// NewBitMatrix creates an empty width x height matrix.
func NewBitMatrix(width, height int) (*BitMatrix, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: both dimensions must be greater than 0, got %dx%d", common.ErrArgument, width, height)
	}
	rowSize := (width + 31) / 32
	return &BitMatrix{
		width:   width,
		height:  height,
		rowSize: rowSize,
		words:   make([]uint32, rowSize*height),
	}, nil
}

// ParseBitMatrix reads a matrix rendered with setString/unsetString per
// module and one line per row, the inverse of StringWith.
func ParseBitMatrix(text, setString, unsetString string) (*BitMatrix, error) {
	if setString == "" || unsetString == "" {
		return nil, fmt.Errorf("%w: set and unset strings must not be empty", common.ErrArgument)
	}
	modules := make([]bool, 0, len(text))
	rowStart, rowLength, rows := 0, -1, 0
	endRow := func() error {
		if len(modules) > rowStart {
			if rowLength == -1 {
				rowLength = len(modules) - rowStart
			} else if len(modules)-rowStart != rowLength {
				return fmt.Errorf("%w: row lengths do not match", common.ErrArgument)
			}
			rowStart = len(modules)
			rows++
		}
		return nil
	}
	for pos := 0; pos < len(text); {
		switch {
		case text[pos] == '\n' || text[pos] == '\r':
			if err := endRow(); err != nil {
				return nil, err
			}
			pos++
		case strings.HasPrefix(text[pos:], setString):
			modules = append(modules, true)
			pos += len(setString)
		case strings.HasPrefix(text[pos:], unsetString):
			modules = append(modules, false)
			pos += len(unsetString)
		default:
			return nil, fmt.Errorf("%w: illegal character encountered: %.10q", common.ErrArgument, text[pos:])
		}
	}
	if err := endRow(); err != nil {
		return nil, err
	}
	matrix, err := NewBitMatrix(rowLength, rows)
	if err != nil {
		return nil, err
	}
	for i, on := range modules {
		if on {
			matrix.Set(i%rowLength, i/rowLength)
		}
	}
	return matrix, nil
}

// Width returns the number of columns.
func (m *BitMatrix) Width() int { return m.width }

// Height returns the number of rows.
func (m *BitMatrix) Height() int { return m.height }

// RowSize returns the number of words per row.
func (m *BitMatrix) RowSize() int { return m.rowSize }

// Get reports whether the module at (x, y) is set.
func (m *BitMatrix) Get(x, y int) bool {
	offset := y*m.rowSize + x/32
	return (m.words[offset]>>uint(x&0x1F))&1 != 0
}

// Set sets the module at (x, y).
func (m *BitMatrix) Set(x, y int) {
	m.words[y*m.rowSize+x/32] |= 1 << uint(x&0x1F)
}

// Unset clears the module at (x, y).
func (m *BitMatrix) Unset(x, y int) {
	m.words[y*m.rowSize+x/32] &^= 1 << uint(x&0x1F)
}

// SetBool sets or clears the module at (x, y).
func (m *BitMatrix) SetBool(x, y int, on bool) {
	if on {
		m.Set(x, y)
	} else {
		m.Unset(x, y)
	}
}

// Flip inverts the module at (x, y).
func (m *BitMatrix) Flip(x, y int) {
	m.words[y*m.rowSize+x/32] ^= 1 << uint(x&0x1F)
}

// FlipAll inverts every module.
func (m *BitMatrix) FlipAll() {
	for i := range m.words {
		m.words[i] = ^m.words[i]
	}
}

// Xor flips every module that is set in mask. Dimensions must match.
func (m *BitMatrix) Xor(mask *BitMatrix) error {
	if m.width != mask.width || m.height != mask.height || m.rowSize != mask.rowSize {
		return fmt.Errorf("%w: input matrix dimensions do not match (%dx%d vs %dx%d)",
			common.ErrArgument, m.width, m.height, mask.width, mask.height)
	}
	for y := range m.height {
		offset := y * m.rowSize
		for x := range m.rowSize {
			m.words[offset+x] ^= mask.words[offset+x]
		}
	}
	return nil
}

// Clear unsets every module.
func (m *BitMatrix) Clear() {
	clear(m.words)
}

// SetRegion sets the width x height rectangle whose top-left corner is
// (left, top).
func (m *BitMatrix) SetRegion(left, top, width, height int) error {
	if top < 0 || left < 0 {
		return fmt.Errorf("%w: left and top must be nonnegative", common.ErrArgument)
	}
	if height < 1 || width < 1 {
		return fmt.Errorf("%w: height and width must be at least 1", common.ErrArgument)
	}
	right, bottom := left+width, top+height
	if bottom > m.height || right > m.width {
		return fmt.Errorf("%w: the region must fit inside the matrix", common.ErrArgument)
	}
	for y := top; y < bottom; y++ {
		offset := y * m.rowSize
		for x := left; x < right; x++ {
			m.words[offset+x/32] |= 1 << uint(x&0x1F)
		}
	}
	return nil
}

// Row copies row y into row, allocating a new BitArray when row is nil or
// too small.
func (m *BitMatrix) Row(y int, row *BitArray) *BitArray {
	if row == nil || row.Size() < m.width {
		row = NewBitArray(m.width)
	} else {
		row.Clear()
	}
	offset := y * m.rowSize
	for x := range m.rowSize {
		row.SetBulk(x*32, m.words[offset+x])
	}
	return row
}

// SetRow replaces row y with the bits of row.
func (m *BitMatrix) SetRow(y int, row *BitArray) {
	copy(m.words[y*m.rowSize:(y+1)*m.rowSize], row.Words())
}

// Rotate rotates the matrix counter-clockwise by 0, 90, 180 or 270 degrees.
func (m *BitMatrix) Rotate(degrees int) error {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
	case 90:
		m.Rotate90()
	case 180:
		m.Rotate180()
	case 270:
		m.Rotate90()
		m.Rotate180()
	default:
		return fmt.Errorf("%w: degrees must be a multiple of 0, 90, 180, or 270", common.ErrArgument)
	}
	return nil
}

// Rotate180 rotates the matrix by 180 degrees in place.
func (m *BitMatrix) Rotate180() {
	top := NewBitArray(m.width)
	bottom := NewBitArray(m.width)
	for i := range (m.height + 1) / 2 {
		top = m.Row(i, top)
		bottomIndex := m.height - 1 - i
		bottom = m.Row(bottomIndex, bottom)
		top.Reverse()
		bottom.Reverse()
		m.SetRow(i, bottom)
		m.SetRow(bottomIndex, top)
	}
}

// Rotate90 rotates the matrix 90 degrees counter-clockwise in place.
func (m *BitMatrix) Rotate90() {
	newWidth, newHeight := m.height, m.width
	newRowSize := (newWidth + 31) / 32
	words := make([]uint32, newRowSize*newHeight)
	for y := range m.height {
		for x := range m.width {
			if m.Get(x, y) {
				offset := (newHeight-1-x)*newRowSize + y/32
				words[offset] |= 1 << uint(y&0x1F)
			}
		}
	}
	m.width, m.height, m.rowSize, m.words = newWidth, newHeight, newRowSize, words
}

// EnclosingRectangle returns left, top, width and height of the smallest
// rectangle containing every set module, or ok=false for an empty matrix.
func (m *BitMatrix) EnclosingRectangle() (left, top, width, height int, ok bool) {
	left, top = m.width, m.height
	right, bottom := -1, -1
	for y := range m.height {
		for x := range m.width {
			if !m.Get(x, y) {
				continue
			}
			left, right = min(left, x), max(right, x)
			top, bottom = min(top, y), max(bottom, y)
		}
	}
	if right < left || bottom < top {
		return 0, 0, 0, 0, false
	}
	return left, top, right - left + 1, bottom - top + 1, true
}

// TopLeftOnBit returns the first set module in reading order.
func (m *BitMatrix) TopLeftOnBit() (x, y int, ok bool) {
	for i, w := range m.words {
		if w == 0 {
			continue
		}
		bit := 0
		for w&(1<<uint(bit)) == 0 {
			bit++
		}
		return (i%m.rowSize)*32 + bit, i / m.rowSize, true
	}
	return 0, 0, false
}

// BottomRightOnBit returns the last set module in reading order.
func (m *BitMatrix) BottomRightOnBit() (x, y int, ok bool) {
	for i := len(m.words) - 1; i >= 0; i-- {
		w := m.words[i]
		if w == 0 {
			continue
		}
		bit := 31
		for w>>uint(bit) == 0 {
			bit--
		}
		return (i%m.rowSize)*32 + bit, i / m.rowSize, true
	}
	return 0, 0, false
}

// Clone returns a deep copy.
func (m *BitMatrix) Clone() *BitMatrix {
	words := make([]uint32, len(m.words))
	copy(words, m.words)
	return &BitMatrix{width: m.width, height: m.height, rowSize: m.rowSize, words: words}
}

// Equal reports whether both matrices have the same size and modules.
func (m *BitMatrix) Equal(other *BitMatrix) bool {
	if other == nil || m.width != other.width || m.height != other.height || m.rowSize != other.rowSize {
		return false
	}
	for i := range m.words {
		if m.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Rows renders each row with the given module strings.
func (m *BitMatrix) Rows(setString, unsetString string) []string {
	rows := make([]string, m.height)
	var sb strings.Builder
	for y := range m.height {
		sb.Reset()
		for x := range m.width {
			if m.Get(x, y) {
				sb.WriteString(setString)
			} else {
				sb.WriteString(unsetString)
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

// StringWith renders the matrix with the given module strings, one line
// per row.
func (m *BitMatrix) StringWith(setString, unsetString string) string {
	var sb strings.Builder
	sb.Grow(m.height * (m.width*max(len(setString), len(unsetString)) + 1))
	for _, row := range m.Rows(setString, unsetString) {
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the matrix using "X " for set and "  " for unset modules.
func (m *BitMatrix) String() string {
	return m.StringWith("X ", "  ")
}
