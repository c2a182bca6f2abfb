package encoder

import (
	"bytes"
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// Codewords of ASCII encodation used by the encoder.
const (
	asciiPad         = 129
	asciiDigitBase   = 130
	latchBase256     = 231
	fnc1             = 232
	upperShift       = 235
	macro05          = 236
	macro06          = 237
	eciCodeword      = 241
	maxECI           = 999999
	minBase256Run    = 3
	groupSeparator   = 0x1D
	macro05Header    = "[)>\x1e05\x1d"
	macro06Header    = "[)>\x1e06\x1d"
	macroTrailer     = "\x1e\x04"
	base256ShortMax  = 249
	base256LengthMax = 250*(255-249) + 249
)

// HighLevelOptions control the data codeword stream.
type HighLevelOptions struct {
	// ECI is written after any FNC1; negative means none.
	ECI int
	// GS1 starts the stream with FNC1 and encodes group separators as
	// FNC1.
	GS1 bool
}

// EncodeHighLevel converts data into data codewords using ASCII
// encodation with digit pairs, upper shift for single high bytes and
// Base 256 for longer runs of them. It does not pad.
func EncodeHighLevel(data []byte, opts HighLevelOptions) ([]byte, error) {
	if opts.ECI > maxECI {
		return nil, fmt.Errorf("%w: ECI %d out of range", common.ErrArgument, opts.ECI)
	}
	out := make([]byte, 0, len(data)+4)
	if opts.GS1 {
		out = append(out, fnc1)
	}
	if opts.ECI >= 0 {
		out = appendECI(out, opts.ECI)
	}
	if !opts.GS1 {
		switch {
		case hasMacro(data, macro05Header):
			out = append(out, macro05)
			data = data[len(macro05Header) : len(data)-len(macroTrailer)]
		case hasMacro(data, macro06Header):
			out = append(out, macro06)
			data = data[len(macro06Header) : len(data)-len(macroTrailer)]
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isDigit(c) && i+1 < len(data) && isDigit(data[i+1]):
			out = append(out, byte(asciiDigitBase+int(c-'0')*10+int(data[i+1]-'0')))
			i += 2
		case opts.GS1 && c == groupSeparator:
			out = append(out, fnc1)
			i++
		case c < 128:
			out = append(out, c+1)
			i++
		default:
			n := highRunLength(data[i:])
			if n < minBase256Run {
				out = append(out, upperShift, c-128+1)
				i++
				continue
			}
			n = min(n, base256LengthMax)
			var err error
			out, err = appendBase256(out, data[i:i+n])
			if err != nil {
				return nil, err
			}
			i += n
		}
	}
	return out, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func hasMacro(data []byte, header string) bool {
	return len(data) >= len(header)+len(macroTrailer) &&
		bytes.HasPrefix(data, []byte(header)) &&
		bytes.HasSuffix(data, []byte(macroTrailer))
}

// highRunLength counts the leading bytes that need an upper shift in
// ASCII encodation.
func highRunLength(data []byte) int {
	n := 0
	for n < len(data) && data[n] >= 128 {
		n++
	}
	return n
}

// appendECI writes the ECI codeword followed by the one to three
// codeword designator.
func appendECI(out []byte, eci int) []byte {
	out = append(out, eciCodeword)
	switch {
	case eci <= 126:
		return append(out, byte(eci+1))
	case eci <= 16382:
		v := eci - 127
		return append(out, byte(v/254+128), byte(v%254+1))
	default:
		v := eci - 16383
		return append(out, byte(v/64516+192), byte((v/254)%254+1), byte(v%254+1))
	}
}

// appendBase256 latches to Base 256, writes the length and the
// randomized bytes. The segment returns to ASCII on its own.
func appendBase256(out, segment []byte) ([]byte, error) {
	n := len(segment)
	if n > base256LengthMax {
		return nil, fmt.Errorf("%w: Base 256 segment of %d bytes", common.ErrArgument, n)
	}
	out = append(out, latchBase256)
	if n <= base256ShortMax {
		out = append(out, randomize255(n, len(out)+1))
	} else {
		out = append(out, randomize255(n/250+249, len(out)+1))
		out = append(out, randomize255(n%250, len(out)+1))
	}
	for _, b := range segment {
		out = append(out, randomize255(int(b), len(out)+1))
	}
	return out, nil
}

// randomize255 scrambles a Base 256 codeword at one-based position.
func randomize255(value, position int) byte {
	pseudoRandom := (149*position)%255 + 1
	v := value + pseudoRandom
	if v > 255 {
		v -= 256
	}
	return byte(v)
}

// randomize253 scrambles a pad codeword at one-based position.
func randomize253(value, position int) byte {
	pseudoRandom := (149*position)%253 + 1
	v := value + pseudoRandom
	if v > 254 {
		v -= 254
	}
	return byte(v)
}

// pad fills codewords up to capacity: one plain pad codeword, then
// randomized ones.
func pad(codewords []byte, capacity int) []byte {
	if len(codewords) < capacity {
		codewords = append(codewords, asciiPad)
	}
	for len(codewords) < capacity {
		codewords = append(codewords, randomize253(asciiPad, len(codewords)+1))
	}
	return codewords
}
