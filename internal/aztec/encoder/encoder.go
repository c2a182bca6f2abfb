// Package encoder builds Aztec symbols: an optimal high-level encoding of
// the payload, bit stuffing, Reed-Solomon check words and module placement
// around the bullseye.
package encoder

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/charset"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/reedsolomon"
)

const (
	// DefaultECCPercent is the default minimum share of check words.
	DefaultECCPercent = 33
	// DefaultLayers selects the smallest symbol that fits.
	DefaultLayers = 0
)

// rsEncoders caches one encoder per word size so generator polynomials are
// shared between calls.
var rsEncoders = map[int]*reedsolomon.Encoder{
	4:  reedsolomon.NewEncoder(reedsolomon.AztecParam),
	6:  reedsolomon.NewEncoder(reedsolomon.AztecData6),
	8:  reedsolomon.NewEncoder(reedsolomon.AztecData8),
	10: reedsolomon.NewEncoder(reedsolomon.AztecData10),
	12: reedsolomon.NewEncoder(reedsolomon.AztecData12),
}

// Options controls symbol construction.
type Options struct {
	// MinECCPercent is the minimum error correction share; zero means
	// DefaultECCPercent.
	MinECCPercent int
	// Layers forces the layer count: negative for compact (-1..-4),
	// positive for full (1..32), zero for automatic.
	Layers int
	// Charset converts text input and is announced with an ECI unless it
	// is ISO-8859-1. Empty means ISO-8859-1.
	Charset string
	// GS1 prefixes the message with FNC1.
	GS1 bool
	// MaxFrontierStates bounds the high-level encoder search.
	MaxFrontierStates int
}

// AztecCode is an encoded symbol.
type AztecCode struct {
	Compact   bool
	Size      int
	Layers    int
	CodeWords int
	Matrix    *bitutil.BitMatrix
}

// Encode converts text with opts.Charset and builds the symbol.
func Encode(text string, opts Options) (*AztecCode, error) {
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return nil, err
	}
	data, err := cs.Encode(text)
	if err != nil {
		return nil, err
	}
	return encode(data, opts, cs)
}

// EncodeBytes builds a symbol for raw bytes. An ECI is announced only when
// opts.Charset names a charset other than ISO-8859-1.
func EncodeBytes(data []byte, opts Options) (*AztecCode, error) {
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return nil, err
	}
	return encode(data, opts, cs)
}

func encode(data []byte, opts Options, cs *charset.Charset) (*AztecCode, error) {
	hl := HighLevelOptions{ECI: -1, FNC1: opts.GS1, MaxFrontierStates: opts.MaxFrontierStates}
	if cs != charset.ISO8859_1 {
		hl.ECI = cs.ECI
	}
	bits, err := HighLevelEncodeWithOptions(data, hl)
	if err != nil {
		return nil, err
	}
	ecc := opts.MinECCPercent
	if ecc == 0 {
		ecc = DefaultECCPercent
	}
	if ecc < 0 || ecc > 99 {
		return nil, fmt.Errorf("%w: error correction percent %d out of range", common.ErrArgument, ecc)
	}
	return EncodeBits(bits, ecc, opts.Layers)
}

// EncodeBits places an already high-level encoded bit stream into a symbol.
func EncodeBits(bits *bitutil.BitArray, minECCPercent, userSpecifiedLayers int) (*AztecCode, error) {
	if bits.Size() == 0 {
		return nil, fmt.Errorf("%w: nothing to encode", common.ErrArgument)
	}
	eccBits := bits.Size()*minECCPercent/100 + 11
	totalSizeBits := bits.Size() + eccBits

	var (
		compact          bool
		layers           int
		totalBitsInLayer int
		bitsPerWord      int
		stuffed          *bitutil.BitArray
	)
	if userSpecifiedLayers != DefaultLayers {
		compact = userSpecifiedLayers < 0
		layers = abs(userSpecifiedLayers)
		limit := aztec.MaxLayers
		if compact {
			limit = aztec.MaxLayersCompact
		}
		if layers > limit {
			return nil, fmt.Errorf("%w: illegal value %d for layers", common.ErrArgument, userSpecifiedLayers)
		}
		totalBitsInLayer = aztec.TotalBitsInLayers(layers, compact)
		bitsPerWord = aztec.WordSize(layers)
		usableBitsInLayers := totalBitsInLayer - totalBitsInLayer%bitsPerWord
		stuffed = stuffBits(bits, bitsPerWord)
		if stuffed.Size()+eccBits > usableBitsInLayers {
			return nil, fmt.Errorf("%w: data too large for user specified layer", common.ErrArgument)
		}
		if compact && stuffed.Size() > bitsPerWord*64 {
			return nil, fmt.Errorf("%w: data too large for user specified layer", common.ErrArgument)
		}
	} else {
		// Candidates in increasing capacity: compact 1..4, then full 4..32.
		for i := 0; ; i++ {
			if i > aztec.MaxLayers {
				return nil, fmt.Errorf("%w: data too large for an Aztec code", common.ErrArgument)
			}
			compact = i <= 3
			layers = i
			if compact {
				layers = i + 1
			}
			totalBitsInLayer = aztec.TotalBitsInLayers(layers, compact)
			if totalSizeBits > totalBitsInLayer {
				continue
			}
			if stuffed == nil || bitsPerWord != aztec.WordSize(layers) {
				bitsPerWord = aztec.WordSize(layers)
				stuffed = stuffBits(bits, bitsPerWord)
			}
			usableBitsInLayers := totalBitsInLayer - totalBitsInLayer%bitsPerWord
			if compact && stuffed.Size() > bitsPerWord*64 {
				continue
			}
			if stuffed.Size()+eccBits <= usableBitsInLayers {
				break
			}
		}
	}

	messageBits, err := generateCheckWords(stuffed, totalBitsInLayer, bitsPerWord)
	if err != nil {
		return nil, err
	}
	messageSizeInWords := stuffed.Size() / bitsPerWord
	modeMessage, err := generateModeMessage(compact, layers, messageSizeInWords)
	if err != nil {
		return nil, err
	}

	matrix, matrixSize, err := placeSymbol(messageBits, modeMessage, compact, layers)
	if err != nil {
		return nil, err
	}
	return &AztecCode{
		Compact:   compact,
		Size:      matrixSize,
		Layers:    layers,
		CodeWords: messageSizeInWords,
		Matrix:    matrix,
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// stuffBits splits bits into words of size bits. A word whose upper
// size-1 bits are all 0 or all 1 gets a complementary low bit and the
// consumed bit is re-read into the next word. The tail is padded with 1s.
func stuffBits(bits *bitutil.BitArray, size int) *bitutil.BitArray {
	out := &bitutil.BitArray{}
	n := bits.Size()
	mask := uint32(1)<<size - 2
	for i := 0; i < n; i += size {
		var word uint32
		for j := range size {
			if i+j >= n || bits.Get(i+j) {
				word |= 1 << (size - 1 - j)
			}
		}
		switch {
		case word&mask == mask:
			_ = out.AppendBits(word&mask, size)
			i--
		case word&mask == 0:
			_ = out.AppendBits(word|1, size)
			i--
		default:
			_ = out.AppendBits(word, size)
		}
	}
	return out
}

// generateCheckWords appends RS check words in the field for size and
// left-pads the result to totalBits.
func generateCheckWords(bits *bitutil.BitArray, totalBits, size int) (*bitutil.BitArray, error) {
	rs, ok := rsEncoders[size]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported word size %d", common.ErrArgument, size)
	}
	messageSizeInWords := bits.Size() / size
	totalWords := totalBits / size
	words := bitsToWords(bits, size, totalWords)
	if err := rs.Encode(words, totalWords-messageSizeInWords); err != nil {
		return nil, fmt.Errorf("generate check words: %w", err)
	}
	out := &bitutil.BitArray{}
	if err := out.AppendBits(0, totalBits%size); err != nil {
		return nil, err
	}
	for _, w := range words {
		if err := out.AppendBits(uint32(w), size); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bitsToWords(bits *bitutil.BitArray, size, totalWords int) []int {
	words := make([]int, totalWords)
	n := bits.Size() / size
	for i := range n {
		value := 0
		for j := range size {
			if bits.Get(i*size + j) {
				value |= 1 << (size - j - 1)
			}
		}
		words[i] = value
	}
	return words
}

// generateModeMessage encodes layers and data word count with GF(16) check
// nibbles: 28 bits for compact symbols, 40 for full ones.
func generateModeMessage(compact bool, layers, messageSizeInWords int) (*bitutil.BitArray, error) {
	mode := &bitutil.BitArray{}
	if compact {
		_ = mode.AppendBits(uint32(layers-1), 2)
		_ = mode.AppendBits(uint32(messageSizeInWords-1), 6)
		return generateCheckWords(mode, 28, 4)
	}
	_ = mode.AppendBits(uint32(layers-1), 5)
	_ = mode.AppendBits(uint32(messageSizeInWords-1), 11)
	return generateCheckWords(mode, 40, 4)
}
