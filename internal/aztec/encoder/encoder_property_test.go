package encoder

import (
	"testing"

	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// allBinaryLength is the cost of sending n bytes in one binary-shift run
// from UPPER.
func allBinaryLength(n int) int {
	switch {
	case n == 0:
		return 0
	case n <= 31:
		return 8*n + 10
	case n <= 62:
		return 8*n + 20
	default:
		return 8*n + 21
	}
}

func genPayload() gopter.Gen {
	return gen.SliceOf(gen.UInt8()).Map(func(b []uint8) []byte {
		if len(b) > 120 {
			b = b[:120]
		}
		return b
	})
}

// TestHighLevelEncode_NeverWorseThanBinary verifies the optimal search never
// loses to the trivial all-binary encoding.
func TestHighLevelEncode_NeverWorseThanBinary(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("bits <= all binary shift", prop.ForAll(
		func(data []byte) bool {
			bits, err := HighLevelEncode(data)
			return err == nil && bits.Size() <= allBinaryLength(len(data))
		},
		genPayload(),
	))

	properties.Property("printable text beats binary", prop.ForAll(
		func(text string) bool {
			if text == "" {
				return true
			}
			bits, err := HighLevelEncode([]byte(text))
			return err == nil && bits.Size() < allBinaryLength(len(text))
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEncode_SymbolSizeConsistent verifies size, layer and compactness agree
// for arbitrary payloads.
func TestEncode_SymbolSizeConsistent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("matrix size matches layers", prop.ForAll(
		func(data []byte) bool {
			code, err := EncodeBytes(data, Options{})
			if len(data) == 0 {
				return err != nil
			}
			if err != nil {
				return false
			}
			size := aztec.SymbolSize(code.Compact, code.Layers)
			return code.Size == size &&
				code.Matrix.Width() == size &&
				code.Matrix.Height() == size &&
				(!code.Compact || code.Layers <= 4)
		},
		genPayload(),
	))

	properties.TestingRun(t)
}
