// Package bitutil provides the packed bit containers used by the symbol
// encoders and decoders: BitArray, BitMatrix and BitSource.
package bitutil

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// BitArray is an ordered sequence of bits packed into 32-bit words.
// Bit i lives in word i/32 at position i%32 (least significant first).
type BitArray struct {
	words []uint32
	size  int
}

// NewBitArray creates a BitArray holding size unset bits.
func NewBitArray(size int) *BitArray {
	if size <= 0 {
		return &BitArray{}
	}
	return &BitArray{words: makeWords(size), size: size}
}

// Size returns the number of bits in the array.
func (a *BitArray) Size() int { return a.size }

// SizeInBytes returns the number of bytes needed to hold all bits.
func (a *BitArray) SizeInBytes() int { return (a.size + 7) / 8 }

// grow makes room for at least newSize bits, doubling the storage.
func (a *BitArray) grow(newSize int) {
	if newSize <= len(a.words)*32 {
		return
	}
	capacity := len(a.words) * 32
	if capacity == 0 {
		capacity = 32
	}
	for capacity < newSize {
		capacity *= 2
	}
	words := makeWords(capacity)
	copy(words, a.words)
	a.words = words
}

// Get reports whether bit i is set.
func (a *BitArray) Get(i int) bool {
	return a.words[i/32]&(1<<uint(i&0x1F)) != 0
}

// Set sets bit i.
func (a *BitArray) Set(i int) {
	a.words[i/32] |= 1 << uint(i&0x1F)
}

// Flip inverts bit i.
func (a *BitArray) Flip(i int) {
	a.words[i/32] ^= 1 << uint(i&0x1F)
}

// NextSet returns the index of the first set bit at or after from, or Size
// when there is none.
func (a *BitArray) NextSet(from int) int {
	return a.next(from, 0)
}

// NextUnset returns the index of the first unset bit at or after from, or
// Size when there is none.
func (a *BitArray) NextUnset(from int) int {
	return a.next(from, ^uint32(0))
}

func (a *BitArray) next(from int, invert uint32) int {
	if from >= a.size {
		return a.size
	}
	if from < 0 {
		from = 0
	}
	offset := from / 32
	current := (a.words[offset] ^ invert) & (^uint32(0) << uint(from&0x1F))
	for current == 0 {
		offset++
		if offset == len(a.words) {
			return a.size
		}
		current = a.words[offset] ^ invert
	}
	return min(offset*32+bits.TrailingZeros32(current), a.size)
}

// SetBulk replaces the 32 bits starting at i, which must be a multiple of 32.
func (a *BitArray) SetBulk(i int, word uint32) {
	a.words[i/32] = word
}

// SetRange sets all bits in [start, end).
func (a *BitArray) SetRange(start, end int) error {
	if end < start || start < 0 || end > a.size {
		return fmt.Errorf("%w: range [%d, %d) outside bit array of size %d", common.ErrArgument, start, end, a.size)
	}
	if end == start {
		return nil
	}
	end--
	first, last := start/32, end/32
	for i := first; i <= last; i++ {
		lo, hi := 0, 31
		if i == first {
			lo = start & 0x1F
		}
		if i == last {
			hi = end & 0x1F
		}
		a.words[i] |= uint32((uint64(2) << uint(hi)) - (uint64(1) << uint(lo)))
	}
	return nil
}

// Clear unsets every bit.
func (a *BitArray) Clear() {
	clear(a.words)
}

// IsRange reports whether all bits in [start, end) equal value.
func (a *BitArray) IsRange(start, end int, value bool) (bool, error) {
	if end < start || start < 0 || end > a.size {
		return false, fmt.Errorf("%w: range [%d, %d) outside bit array of size %d", common.ErrArgument, start, end, a.size)
	}
	if end == start {
		return true, nil
	}
	end--
	first, last := start/32, end/32
	for i := first; i <= last; i++ {
		lo, hi := 0, 31
		if i == first {
			lo = start & 0x1F
		}
		if i == last {
			hi = end & 0x1F
		}
		mask := uint32((uint64(2) << uint(hi)) - (uint64(1) << uint(lo)))
		want := uint32(0)
		if value {
			want = mask
		}
		if a.words[i]&mask != want {
			return false, nil
		}
	}
	return true, nil
}

// AppendBit appends a single bit.
func (a *BitArray) AppendBit(bit bool) {
	a.grow(a.size + 1)
	if bit {
		a.words[a.size/32] |= 1 << uint(a.size&0x1F)
	}
	a.size++
}

// AppendBits appends the numBits least significant bits of value, most
// significant first.
func (a *BitArray) AppendBits(value uint32, numBits int) error {
	if numBits < 0 || numBits > 32 {
		return fmt.Errorf("%w: num bits must be between 0 and 32, got %d", common.ErrArgument, numBits)
	}
	next := a.size
	a.grow(next + numBits)
	for mask := numBits - 1; mask >= 0; mask-- {
		if value&(1<<uint(mask)) != 0 {
			a.words[next/32] |= 1 << uint(next&0x1F)
		}
		next++
	}
	a.size = next
	return nil
}

// AppendBitArray appends all bits of other.
func (a *BitArray) AppendBitArray(other *BitArray) {
	a.grow(a.size + other.size)
	for i := 0; i < other.size; i++ {
		a.AppendBit(other.Get(i))
	}
}

// Xor flips every bit that is set in other. Both arrays must be the same size.
func (a *BitArray) Xor(other *BitArray) error {
	if a.size != other.size {
		return fmt.Errorf("%w: sizes don't match (%d vs %d)", common.ErrArgument, a.size, other.size)
	}
	// Only the words holding bits take part; grown arrays carry spare
	// capacity that the other operand may lack.
	for i := range (a.size + 31) / 32 {
		a.words[i] ^= other.words[i]
	}
	return nil
}

// ToBytes packs numBytes bytes starting at bitOffset into array[offset:],
// most significant bit first.
func (a *BitArray) ToBytes(bitOffset int, array []byte, offset, numBytes int) {
	for i := range numBytes {
		var b byte
		for j := range 8 {
			if a.Get(bitOffset) {
				b |= 1 << uint(7-j)
			}
			bitOffset++
		}
		array[offset+i] = b
	}
}

// Words exposes the backing words.
func (a *BitArray) Words() []uint32 { return a.words }

// Reverse reverses the bit order in place.
func (a *BitArray) Reverse() {
	if a.size == 0 {
		return
	}
	n := (a.size-1)/32 + 1
	reversed := make([]uint32, len(a.words))
	for i := range n {
		reversed[n-1-i] = bits.Reverse32(a.words[i])
	}
	if a.size != n*32 {
		shift := uint(n*32 - a.size)
		current := reversed[0] >> shift
		for i := 1; i < n; i++ {
			next := reversed[i]
			current |= next << (32 - shift)
			reversed[i-1] = current
			current = next >> shift
		}
		reversed[n-1] = current
	}
	a.words = reversed
}

// Clone returns a deep copy.
func (a *BitArray) Clone() *BitArray {
	words := make([]uint32, len(a.words))
	copy(words, a.words)
	return &BitArray{words: words, size: a.size}
}

// Equal reports whether both arrays hold the same bits.
func (a *BitArray) Equal(other *BitArray) bool {
	if other == nil || a.size != other.size {
		return false
	}
	for i := 0; i < a.size; i++ {
		if a.Get(i) != other.Get(i) {
			return false
		}
	}
	return true
}

// String renders the bits as X and . with a space before every byte.
func (a *BitArray) String() string {
	var sb strings.Builder
	sb.Grow(a.size + a.size/8 + 1)
	for i := 0; i < a.size; i++ {
		if i&0x07 == 0 {
			sb.WriteByte(' ')
		}
		if a.Get(i) {
			sb.WriteByte('X')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func makeWords(size int) []uint32 {
	return make([]uint32, (size+31)/32)
}
