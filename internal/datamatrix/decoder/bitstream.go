package decoder

import (
	"fmt"
	"slices"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/charset"
	"github.com/MeKo-Tech/pocode/internal/common"
)

type mode int

const (
	modePad mode = iota
	modeASCII
	modeC40
	modeText
	modeX12
	modeEDIFACT
	modeBase256
	modeECI
)

// Codewords with a fixed meaning in ASCII encodation.
const (
	codePad            = 129
	codeLatchC40       = 230
	codeLatchBase256   = 231
	codeFNC1           = 232
	codeStructured     = 233
	codeReaderProgram  = 234
	codeUpperShift     = 235
	codeMacro05        = 236
	codeMacro06        = 237
	codeLatchX12       = 238
	codeLatchText      = 239
	codeLatchEDIFACT   = 240
	codeECI            = 241
	codeUnlatch        = 254
	edifactUnlatch     = 0x1F
	groupSeparator     = 0x1D
	macroHeaderFormat  = "[)>\x1e0%c\x1d"
	macroTrailer       = "\x1e\x04"
	minStructuredTotal = 2
	maxStructuredTotal = 16
)

var (
	c40BasicSet = []byte{
		'*', '*', '*', ' ', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N',
		'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
	}
	c40Shift2Set = []byte{
		'!', '"', '#', '$', '%', '&', '\'', '(', ')', '*', '+', ',', '-', '.',
		'/', ':', ';', '<', '=', '>', '?', '@', '[', '\\', ']', '^', '_',
	}
	textBasicSet = []byte{
		'*', '*', '*', ' ', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n',
		'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	}
	textShift3Set = []byte{
		'`', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N',
		'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', '{', '|', '}', '~', 127,
	}
)

// streamParser turns corrected data codewords into text.
type streamParser struct {
	bits          *bitutil.BitSource
	text          *charset.ECIStringBuilder
	trailer       string
	segments      [][]byte
	fnc1Positions []int
	structured    *common.StructuredAppend
}

// decodeBitStream parses the data codewords of a symbol. Any malformed
// content fails the whole decode.
func decodeBitStream(data []byte) (*common.DecoderResult, error) {
	p := &streamParser{
		bits: bitutil.NewBitSource(data),
		text: charset.NewECIStringBuilder(),
	}
	m := modeASCII
	for {
		var err error
		if m == modeASCII {
			m, err = p.decodeASCII()
		} else {
			switch m {
			case modeC40:
				err = p.decodeC40OrText(c40BasicSet, nil)
			case modeText:
				err = p.decodeC40OrText(textBasicSet, textShift3Set)
			case modeX12:
				err = p.decodeX12()
			case modeEDIFACT:
				err = p.decodeEDIFACT()
			case modeBase256:
				err = p.decodeBase256()
			case modeECI:
				err = p.decodeECI()
			default:
				err = fmt.Errorf("%w: unknown mode %d", common.ErrFormat, m)
			}
			m = modeASCII
		}
		if err != nil {
			return nil, err
		}
		if m == modePad || p.bits.Available() <= 0 {
			break
		}
	}
	if p.trailer != "" {
		p.text.AppendString(p.trailer)
	}
	text, err := p.text.Result()
	if err != nil {
		return nil, err
	}
	result := common.NewDecoderResult(data, text, p.segments)
	result.Structured = p.structured
	result.SymbologyModifier = p.symbologyModifier()
	return result, nil
}

// symbologyModifier follows the AIM ]d scheme: 1 plain, 2 GS1 (FNC1
// first), 3 AIM (FNC1 second), each plus 3 when an ECI was present.
func (p *streamParser) symbologyModifier() int {
	modifier := 1
	switch {
	case slices.Contains(p.fnc1Positions, 0) || slices.Contains(p.fnc1Positions, 4):
		modifier = 2
	case slices.Contains(p.fnc1Positions, 1) || slices.Contains(p.fnc1Positions, 5):
		modifier = 3
	}
	if p.text.HadECI() {
		modifier += 3
	}
	return modifier
}

func (p *streamParser) read(n int) (int, error) {
	v, err := p.bits.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("%w: truncated data", common.ErrFormat)
	}
	return v, nil
}

func (p *streamParser) decodeASCII() (mode, error) {
	upperShift := false
	for {
		oneByte, err := p.read(8)
		if err != nil {
			return modePad, err
		}
		switch {
		case oneByte == 0:
			return modePad, fmt.Errorf("%w: codeword 0 in ASCII encodation", common.ErrFormat)
		case oneByte <= 128:
			if upperShift {
				oneByte += 128
			}
			p.text.AppendByte(byte(oneByte - 1))
			return modeASCII, nil
		case oneByte == codePad:
			return modePad, nil
		case oneByte <= 229:
			p.text.AppendString(fmt.Sprintf("%02d", oneByte-130))
		case oneByte == codeLatchC40:
			return modeC40, nil
		case oneByte == codeLatchBase256:
			return modeBase256, nil
		case oneByte == codeFNC1:
			p.fnc1Positions = append(p.fnc1Positions, p.text.Len())
			p.text.AppendByte(groupSeparator)
		case oneByte == codeStructured:
			if err := p.decodeStructuredAppend(); err != nil {
				return modePad, err
			}
		case oneByte == codeReaderProgram:
			// Reader programming symbols carry no data.
		case oneByte == codeUpperShift:
			upperShift = true
		case oneByte == codeMacro05, oneByte == codeMacro06:
			p.text.AppendString(fmt.Sprintf(macroHeaderFormat, '5'+rune(oneByte-codeMacro05)))
			p.trailer = macroTrailer + p.trailer
		case oneByte == codeLatchX12:
			return modeX12, nil
		case oneByte == codeLatchText:
			return modeText, nil
		case oneByte == codeLatchEDIFACT:
			return modeEDIFACT, nil
		case oneByte == codeECI:
			return modeECI, nil
		default:
			// Some encoders end the data with an unlatch while already in
			// ASCII; tolerate that one case.
			if oneByte != codeUnlatch || p.bits.Available() != 0 {
				return modePad, fmt.Errorf("%w: codeword %d in ASCII encodation", common.ErrFormat, oneByte)
			}
		}
		if p.bits.Available() <= 0 {
			return modeASCII, nil
		}
	}
}

// decodeStructuredAppend reads the sequence indicator and the two file
// identification codewords that follow codeword 233.
func (p *streamParser) decodeStructuredAppend() error {
	if p.bits.ByteOffset() != 1 {
		return fmt.Errorf("%w: structured append is not the first codeword", common.ErrFormat)
	}
	sequence, err := p.read(8)
	if err != nil {
		return err
	}
	id1, err := p.read(8)
	if err != nil {
		return err
	}
	id2, err := p.read(8)
	if err != nil {
		return err
	}
	sa := &common.StructuredAppend{
		Index:  sequence >> 4,
		Total:  17 - sequence&0x0F,
		FileID: id1<<8 | id2,
	}
	if sa.Total < minStructuredTotal || sa.Total > maxStructuredTotal || sa.Index >= sa.Total {
		return fmt.Errorf("%w: structured append %d of %d", common.ErrFormat, sa.Index+1, sa.Total)
	}
	p.structured = sa
	return nil
}

// parseTwoBytes unpacks three values from a C40, Text or X12 codeword pair.
func parseTwoBytes(first, second int) [3]int {
	full := first<<8 + second - 1
	c1 := full / 1600
	full -= c1 * 1600
	c2 := full / 40
	return [3]int{c1, c2, full - c2*40}
}

// readTriple reads the next codeword pair. done is set at the unlatch
// codeword or when a single codeword remains, which is ASCII encoded.
func (p *streamParser) readTriple() (values [3]int, done bool, err error) {
	if p.bits.Available() == 8 {
		return values, true, nil
	}
	first, err := p.read(8)
	if err != nil {
		return values, true, err
	}
	if first == codeUnlatch {
		return values, true, nil
	}
	second, err := p.read(8)
	if err != nil {
		return values, true, err
	}
	return parseTwoBytes(first, second), false, nil
}

// decodeC40OrText handles both encodations, which differ only in the
// basic set and shift 3 set. A nil shift3 means C40, where shift 3 maps
// values onto 96..127.
func (p *streamParser) decodeC40OrText(basic, shift3 []byte) error {
	upperShift := false
	shift := 0
	emit := func(c int) {
		if upperShift {
			c += 128
			upperShift = false
		}
		p.text.AppendByte(byte(c))
	}
	for p.bits.Available() > 0 {
		values, done, err := p.readTriple()
		if err != nil || done {
			return err
		}
		for _, v := range values {
			switch shift {
			case 0:
				switch {
				case v < 3:
					shift = v + 1
				case v < len(basic):
					emit(int(basic[v]))
				default:
					return fmt.Errorf("%w: basic set value %d", common.ErrFormat, v)
				}
			case 1:
				emit(v)
				shift = 0
			case 2:
				switch {
				case v < len(c40Shift2Set):
					emit(int(c40Shift2Set[v]))
				case v == 27:
					p.fnc1Positions = append(p.fnc1Positions, p.text.Len())
					p.text.AppendByte(groupSeparator)
				case v == 30:
					upperShift = true
				default:
					return fmt.Errorf("%w: shift 2 value %d", common.ErrFormat, v)
				}
				shift = 0
			case 3:
				switch {
				case shift3 == nil:
					emit(v + 96)
				case v < len(shift3):
					emit(int(shift3[v]))
				default:
					return fmt.Errorf("%w: shift 3 value %d", common.ErrFormat, v)
				}
				shift = 0
			}
		}
	}
	return nil
}

func (p *streamParser) decodeX12() error {
	for p.bits.Available() > 0 {
		values, done, err := p.readTriple()
		if err != nil || done {
			return err
		}
		for _, v := range values {
			switch {
			case v == 0:
				p.text.AppendByte('\r')
			case v == 1:
				p.text.AppendByte('*')
			case v == 2:
				p.text.AppendByte('>')
			case v == 3:
				p.text.AppendByte(' ')
			case v < 14:
				p.text.AppendByte(byte(v + 44))
			case v < 40:
				p.text.AppendByte(byte(v + 51))
			default:
				return fmt.Errorf("%w: X12 value %d", common.ErrFormat, v)
			}
		}
	}
	return nil
}

func (p *streamParser) decodeEDIFACT() error {
	for p.bits.Available() > 0 {
		// Two codewords or less are ASCII encoded.
		if p.bits.Available() <= 16 {
			return nil
		}
		for range 4 {
			v, err := p.read(6)
			if err != nil {
				return err
			}
			if v == edifactUnlatch {
				if left := 8 - p.bits.BitOffset(); left != 8 {
					if _, err := p.read(left); err != nil {
						return err
					}
				}
				return nil
			}
			if v&0x20 == 0 {
				v |= 0x40
			}
			p.text.AppendByte(byte(v))
		}
	}
	return nil
}

func (p *streamParser) decodeBase256() error {
	// Codeword positions are one-based.
	position := 1 + p.bits.ByteOffset()
	next := func() (int, error) {
		v, err := p.read(8)
		if err != nil {
			return 0, err
		}
		v = unrandomize255(v, position)
		position++
		return v, nil
	}
	d1, err := next()
	if err != nil {
		return err
	}
	var count int
	switch {
	case d1 == 0:
		count = p.bits.Available() / 8
	case d1 < 250:
		count = d1
	default:
		d2, err := next()
		if err != nil {
			return err
		}
		count = 250*(d1-249) + d2
	}
	if count < 0 {
		return fmt.Errorf("%w: negative Base 256 length", common.ErrFormat)
	}
	segment := make([]byte, count)
	for i := range segment {
		if p.bits.Available() < 8 {
			return fmt.Errorf("%w: Base 256 segment of %d bytes is truncated", common.ErrFormat, count)
		}
		v, err := next()
		if err != nil {
			return err
		}
		segment[i] = byte(v)
	}
	p.segments = append(p.segments, segment)
	p.text.AppendBytes(segment)
	return nil
}

func unrandomize255(codeword, position int) int {
	pseudoRandom := (149*position)%255 + 1
	v := codeword - pseudoRandom
	if v < 0 {
		v += 256
	}
	return v
}

// decodeECI reads a one to three codeword ECI designator.
func (p *streamParser) decodeECI() error {
	c1, err := p.read(8)
	if err != nil {
		return err
	}
	var value int
	switch {
	case c1 >= 1 && c1 <= 127:
		value = c1 - 1
	case c1 >= 128 && c1 <= 191:
		c2, err := p.read(8)
		if err != nil {
			return err
		}
		value = (c1-128)*254 + 127 + c2 - 1
	case c1 >= 192 && c1 <= 207:
		c2, err := p.read(8)
		if err != nil {
			return err
		}
		c3, err := p.read(8)
		if err != nil {
			return err
		}
		value = (c1-192)*64516 + 16383 + (c2-1)*254 + c3 - 1
	default:
		return fmt.Errorf("%w: ECI codeword %d", common.ErrFormat, c1)
	}
	return p.text.AppendECI(value)
}
