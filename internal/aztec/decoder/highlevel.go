package decoder

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/charset"
	"github.com/MeKo-Tech/pocode/internal/common"
)

type table int

const (
	tableUpper table = iota
	tableLower
	tableMixed
	tableDigit
	tablePunct
	tableBinary
)

// Control entries start with "CTRL_" followed by the target table letter
// and S(hift) or L(atch).
var (
	upperTable = []string{
		"CTRL_PS", " ", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P",
		"Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z", "CTRL_LL", "CTRL_ML", "CTRL_DL", "CTRL_BS",
	}
	lowerTable = []string{
		"CTRL_PS", " ", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p",
		"q", "r", "s", "t", "u", "v", "w", "x", "y", "z", "CTRL_US", "CTRL_ML", "CTRL_DL", "CTRL_BS",
	}
	mixedTable = []string{
		"CTRL_PS", " ", "\x01", "\x02", "\x03", "\x04", "\x05", "\x06", "\x07", "\b", "\t", "\n",
		"\x0b", "\f", "\r", "\x1b", "\x1c", "\x1d", "\x1e", "\x1f", "@", "\\", "^", "_",
		"`", "|", "~", "\x7f", "CTRL_LL", "CTRL_UL", "CTRL_PL", "CTRL_BS",
	}
	punctTable = []string{
		"FLG(n)", "\r", "\r\n", ". ", ", ", ": ", "!", "\"", "#", "$", "%", "&", "'", "(", ")",
		"*", "+", ",", "-", ".", "/", ":", ";", "<", "=", ">", "?", "[", "]", "{", "}", "CTRL_UL",
	}
	digitTable = []string{
		"CTRL_PS", " ", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ",", ".", "CTRL_UL", "CTRL_US",
	}
)

func (t table) entries() []string {
	switch t {
	case tableLower:
		return lowerTable
	case tableMixed:
		return mixedTable
	case tableDigit:
		return digitTable
	case tablePunct:
		return punctTable
	default:
		return upperTable
	}
}

func tableFor(letter byte) table {
	switch letter {
	case 'L':
		return tableLower
	case 'P':
		return tablePunct
	case 'M':
		return tableMixed
	case 'D':
		return tableDigit
	case 'B':
		return tableBinary
	default:
		return tableUpper
	}
}

// decodedData is the text recovered from a corrected bit stream.
type decodedData struct {
	text              string
	segments          [][]byte
	symbologyModifier int
}

// HighLevelDecode parses corrected, unstuffed data bits into text.
func HighLevelDecode(bits []bool) (string, error) {
	data, err := decodeBits(bits)
	if err != nil {
		return "", err
	}
	return data.text, nil
}

func decodeBits(bits []bool) (*decodedData, error) {
	endIndex := len(bits)
	latchTable := tableUpper
	shiftTable := tableUpper
	b := charset.NewECIStringBuilder()
	var segments [][]byte
	var fnc1First bool
	started := false
	index := 0
	for index < endIndex {
		if shiftTable == tableBinary {
			if endIndex-index < 5 {
				break
			}
			length := readCode(bits, index, 5)
			index += 5
			if length == 0 {
				if endIndex-index < 11 {
					break
				}
				length = readCode(bits, index, 11) + 31
				index += 11
			}
			segment := make([]byte, 0, length)
			for range length {
				if endIndex-index < 8 {
					index = endIndex
					break
				}
				segment = append(segment, byte(readCode(bits, index, 8)))
				index += 8
			}
			b.AppendBytes(segment)
			segments = append(segments, segment)
			started = true
			shiftTable = latchTable
			continue
		}

		size := 5
		if shiftTable == tableDigit {
			size = 4
		}
		if endIndex-index < size {
			break
		}
		code := readCode(bits, index, size)
		index += size
		str := shiftTable.entries()[code]
		switch {
		case str == "FLG(n)":
			if endIndex-index < 3 {
				index = endIndex
				break
			}
			n := readCode(bits, index, 3)
			index += 3
			switch n {
			case 0:
				if !started {
					// FNC1 in first position marks GS1 data.
					fnc1First = true
				} else {
					b.AppendByte(0x1D)
				}
			case 7:
				return nil, fmt.Errorf("%w: FLG(7) is reserved", common.ErrFormat)
			default:
				if endIndex-index < 4*n {
					index = endIndex
					break
				}
				eci := 0
				for range n {
					digit := readCode(bits, index, 4)
					index += 4
					if digit < 2 || digit > 11 {
						return nil, fmt.Errorf("%w: ECI digit code %d", common.ErrFormat, digit)
					}
					eci = eci*10 + digit - 2
				}
				if err := b.AppendECI(eci); err != nil {
					return nil, err
				}
			}
			shiftTable = latchTable
		case strings.HasPrefix(str, "CTRL_"):
			// A shift returns to the mode it was invoked from, even when
			// that mode was itself reached by a shift.
			latchTable = shiftTable
			shiftTable = tableFor(str[5])
			if str[6] == 'L' {
				latchTable = shiftTable
			}
		default:
			b.AppendString(str)
			started = true
			shiftTable = latchTable
		}
	}
	text, err := b.Result()
	if err != nil {
		return nil, err
	}
	return &decodedData{
		text:              text,
		segments:          segments,
		symbologyModifier: symbologyModifier(fnc1First, b.HadECI()),
	}, nil
}

// symbologyModifier is the AIM ]z modifier: 1 for GS1, 3 for ECI, 4 for
// both.
func symbologyModifier(fnc1First, hasECI bool) int {
	switch {
	case fnc1First && hasECI:
		return 4
	case hasECI:
		return 3
	case fnc1First:
		return 1
	default:
		return 0
	}
}

// readCode reads length bits MSB first.
func readCode(bits []bool, start, length int) int {
	res := 0
	for i := start; i < start+length; i++ {
		res <<= 1
		if bits[i] {
			res |= 1
		}
	}
	return res
}

// readByte reads up to eight bits, zero-padding past the end.
func readByte(bits []bool, start int) byte {
	n := len(bits) - start
	if n >= 8 {
		return byte(readCode(bits, start, 8))
	}
	return byte(readCode(bits, start, n) << (8 - n))
}

// bitsToBytes packs bits MSB first.
func bitsToBytes(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i := range out {
		out[i] = readByte(bits, 8*i)
	}
	return out
}
