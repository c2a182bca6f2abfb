package decoder

import (
	"strings"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/MeKo-Tech/pocode/internal/aztec/encoder"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitsOf(a *bitutil.BitArray) []bool {
	out := make([]bool, a.Size())
	for i := range out {
		out[i] = a.Get(i)
	}
	return out
}

func TestDecode_ABCDEFGolden(t *testing.T) {
	matrix, err := bitutil.ParseBitMatrix(strings.Join([]string{
		"..X.XX...X.X...",
		"..X.X....XXXXX.",
		".XXX.....X..X.X",
		"..XXXXXXXXXXXXX",
		"...X.......X...",
		"XX.X.XXXXX.XX.X",
		"..XX.X...X.X.X.",
		"X..X.X.X.X.XXXX",
		"...X.X...X.X.XX",
		".X.X.XXXXX.X.XX",
		".X.X.......X..X",
		"...XXXXXXXXXX..",
		"XX..XXX.XXX....",
		".XXXXXXXX..XX..",
		"..XXXX.XXXXXX..",
	}, "\n"), "X", ".")
	require.NoError(t, err)

	result, err := Decode(matrix)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", result.Text)
	assert.Zero(t, result.ErrorsCorrected)
	assert.Equal(t, 0, result.SymbologyModifier)
}

func TestDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts encoder.Options
	}{
		{"upper", "ABCDEF", encoder.Options{}},
		{"mixed case", "Abc123!", encoder.Options{}},
		{"punctuation pairs", "Lorem ipsum. http://test/, a: b\r\nend", encoder.Options{}},
		{"symbols", "http://test/~!@#*^%&)__ ;:'\"[]{}\\|-+-=`1029384", encoder.Options{}},
		{"latin1", "Grüße aus Köln, ÆØÅ", encoder.Options{}},
		{"long", strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20), encoder.Options{}},
		{"forced full", "ABC", encoder.Options{Layers: 1}},
		{"forced compact", "Hello World", encoder.Options{Layers: -4}},
		{"high ecc", "Hello World", encoder.Options{MinECCPercent: 80}},
		{"wikipedia", "This is an example Aztec symbol for Wikipedia.", encoder.Options{MinECCPercent: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := encoder.Encode(tt.text, tt.opts)
			require.NoError(t, err)

			result, err := Decode(code.Matrix)
			require.NoError(t, err)
			assert.Equal(t, tt.text, result.Text)
			assert.Zero(t, result.ErrorsCorrected)
		})
	}
}

func TestDecode_BinaryRoundTrip(t *testing.T) {
	for _, n := range []int{1, 31, 32, 62, 63, 200, 1200} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(128 + i%100)
		}
		code, err := encoder.EncodeBytes(data, encoder.Options{})
		require.NoError(t, err, "length %d", n)

		result, err := Decode(code.Matrix)
		require.NoError(t, err, "length %d", n)
		var got []byte
		for _, seg := range result.ByteSegments {
			got = append(got, seg...)
		}
		assert.Equal(t, data, got, "length %d", n)
	}
}

func TestDecode_ECI(t *testing.T) {
	text := "日本語 and Ελληνικά"
	code, err := encoder.Encode(text, encoder.Options{Charset: "UTF-8"})
	require.NoError(t, err)

	result, err := Decode(code.Matrix)
	require.NoError(t, err)
	assert.Equal(t, text, result.Text)
	assert.Equal(t, 3, result.SymbologyModifier)

	code, err = encoder.Encode("Ünïcödé", encoder.Options{Charset: "ISO-8859-15"})
	require.NoError(t, err)
	result, err = Decode(code.Matrix)
	require.NoError(t, err)
	assert.Equal(t, "Ünïcödé", result.Text)
}

func TestDecode_GS1(t *testing.T) {
	code, err := encoder.Encode("0100012345678905\x1d10ABC", encoder.Options{GS1: true})
	require.NoError(t, err)

	result, err := Decode(code.Matrix)
	require.NoError(t, err)
	assert.Equal(t, "0100012345678905\x1d10ABC", result.Text)
	assert.Equal(t, 1, result.SymbologyModifier)
}

func TestDecode_Rotations(t *testing.T) {
	for _, text := range []string{"ABCDEF", strings.Repeat("rotate me ", 30)} {
		code, err := encoder.Encode(text, encoder.Options{})
		require.NoError(t, err)
		matrix := code.Matrix.Clone()
		for turn := range 4 {
			result, err := Decode(matrix)
			require.NoError(t, err, "turn %d", turn)
			assert.Equal(t, text, result.Text)
			matrix.Rotate90()
		}
	}
}

func TestDecode_CorrectsDamagedModules(t *testing.T) {
	text := "Reed-Solomon keeps this readable."
	code, err := encoder.Encode(text, encoder.Options{MinECCPercent: 50})
	require.NoError(t, err)

	// Flip the first bit of four distinct codewords.
	wordSize := aztec.WordSize(code.Layers)
	pad := aztec.TotalBitsInLayers(code.Layers, code.Compact) % wordSize
	targets := map[int]bool{pad: true, pad + 10*wordSize: true, pad + 20*wordSize: true, pad + 30*wordSize: true}
	damaged := code.Matrix.Clone()
	aztec.LayerCells(code.Compact, code.Layers, func(bit, x, y int) {
		if targets[bit] {
			damaged.Flip(x, y)
		}
	})

	result, err := Decode(damaged)
	require.NoError(t, err)
	assert.Equal(t, text, result.Text)
	assert.Equal(t, 4, result.ErrorsCorrected)
}

func TestDecode_TooDamaged(t *testing.T) {
	code, err := encoder.Encode("ABCDEFGHIJKLMNOPQRSTUVWXYZ", encoder.Options{})
	require.NoError(t, err)

	damaged := code.Matrix.Clone()
	aztec.LayerCells(code.Compact, code.Layers, func(_, x, y int) { damaged.Flip(x, y) })

	_, err = Decode(damaged)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrChecksum)
}

func TestDecode_NotAnAztecSymbol(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"too small", 11, 11},
		{"even size", 16, 16},
		{"not square", 15, 19},
		{"blank", 15, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := bitutil.NewBitMatrix(tt.width, tt.height)
			require.NoError(t, err)
			_, err = Decode(m)
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestDetect_ModeMessage(t *testing.T) {
	code, err := encoder.Encode("Wikipedia, the free encyclopedia", encoder.Options{})
	require.NoError(t, err)
	_, params, err := Detect(code.Matrix)
	require.NoError(t, err)
	assert.Equal(t, code.Compact, params.Compact)
	assert.Equal(t, code.Layers, params.Layers)
	assert.Equal(t, code.CodeWords, params.DataCodewords)
	assert.Equal(t, code.Size, params.Size)
}

func TestDetect_SizeMismatch(t *testing.T) {
	code, err := encoder.Encode("ABC", encoder.Options{Layers: -1})
	require.NoError(t, err)
	// Embed the 15x15 compact symbol in a 17x17 frame: the bullseye stays
	// centered but the layer count no longer matches.
	framed, err := bitutil.NewSquareBitMatrix(17)
	require.NoError(t, err)
	for y := range 15 {
		for x := range 15 {
			if code.Matrix.Get(x, y) {
				framed.Set(x+1, y+1)
			}
		}
	}
	_, _, err = Detect(framed)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestHighLevelDecode(t *testing.T) {
	for _, text := range []string{
		"A. b.",
		"Lorem ipsum.",
		"Lo. Test 123.",
		"Lo...x",
		"ABCdEFG",
		"09  UAG    ^160MEUCIQC0sYS/HpKxnBELR1uB85R20OoqqwFGa0q2uEiYgh6utAIgLl1aBVM4EOTQtMQQYH9M2Z3Dp4qnA/fwWuQ+M8L3V8U=",
		"\x01\x02 mixed \x7f and DIGITS 0123, 4.",
	} {
		bits, err := encoder.HighLevelEncode([]byte(text))
		require.NoError(t, err)
		decoded, err := HighLevelDecode(bitsOf(bits))
		require.NoError(t, err)
		assert.Equal(t, text, decoded)
	}
}

func TestHighLevelDecode_Errors(t *testing.T) {
	// P/S FLG(7)
	flg7 := []bool{false, false, false, false, false, false, false, false, false, false, true, true, true}
	_, err := HighLevelDecode(flg7)
	assert.ErrorIs(t, err, common.ErrFormat)

	// P/S FLG(1) with a non-digit code.
	badDigit := []bool{
		false, false, false, false, false,
		false, false, false, false, false,
		false, false, true,
		true, true, true, true,
	}
	_, err = HighLevelDecode(badDigit)
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestHighLevelDecode_Truncated(t *testing.T) {
	// "A" followed by a partial code.
	decoded, err := HighLevelDecode([]bool{false, false, false, true, false, true, true})
	require.NoError(t, err)
	assert.Equal(t, "A", decoded)
}
