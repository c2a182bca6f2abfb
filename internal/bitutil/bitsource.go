package bitutil

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// BitSource reads bits MSB-first from a byte slice. It is the cursor the
// bit stream parsers use to walk decoded codewords.
type BitSource struct {
	bytes      []byte
	byteOffset int
	bitOffset  int
}

// NewBitSource wraps bytes. The slice is not copied.
func NewBitSource(bytes []byte) *BitSource {
	return &BitSource{bytes: bytes}
}

// ByteOffset returns the index of the next byte to be read from.
func (s *BitSource) ByteOffset() int { return s.byteOffset }

// BitOffset returns the index of the next bit within the current byte.
func (s *BitSource) BitOffset() int { return s.bitOffset }

// Available returns the number of unread bits.
func (s *BitSource) Available() int {
	return 8*(len(s.bytes)-s.byteOffset) - s.bitOffset
}

// ReadBits reads numBits (1..32) bits as an unsigned integer.
func (s *BitSource) ReadBits(numBits int) (int, error) {
	if numBits < 1 || numBits > 32 {
		return 0, fmt.Errorf("%w: cannot read %d bits", common.ErrArgument, numBits)
	}
	if numBits > s.Available() {
		return 0, fmt.Errorf("%w: need %d bits, %d available", common.ErrFormat, numBits, s.Available())
	}
	result := 0
	if s.bitOffset > 0 {
		bitsLeft := 8 - s.bitOffset
		toRead := min(numBits, bitsLeft)
		skip := bitsLeft - toRead
		mask := (0xFF >> uint(8-toRead)) << uint(skip)
		result = (int(s.bytes[s.byteOffset]) & mask) >> uint(skip)
		numBits -= toRead
		s.bitOffset += toRead
		if s.bitOffset == 8 {
			s.bitOffset = 0
			s.byteOffset++
		}
	}
	for numBits >= 8 {
		result = (result << 8) | int(s.bytes[s.byteOffset])
		s.byteOffset++
		numBits -= 8
	}
	if numBits > 0 {
		skip := 8 - numBits
		mask := (0xFF >> uint(skip)) << uint(skip)
		result = (result << uint(numBits)) | ((int(s.bytes[s.byteOffset]) & mask) >> uint(skip))
		s.bitOffset += numBits
	}
	return result, nil
}
