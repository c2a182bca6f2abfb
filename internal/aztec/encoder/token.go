package encoder

import (
	"github.com/MeKo-Tech/pocode/internal/bitutil"
)

// tokenKind tags the payload carried by a token.
type tokenKind uint8

const (
	// tokenSimple writes a fixed-width code.
	tokenSimple tokenKind = iota
	// tokenBinaryShift writes a B/S header followed by raw bytes.
	tokenBinaryShift
)

// noToken is the handle of the empty chain.
const noToken int32 = -1

// token is one node of a backward-linked chain. Simple tokens use value and
// bits; binary-shift tokens use start and count.
type token struct {
	prev  int32
	kind  tokenKind
	bits  uint8
	value uint16
	start int32
	count int32
}

// tokenArena owns every token created during one encoding pass. States
// refer to chains by handle, so sharing prefixes costs nothing.
type tokenArena struct {
	nodes []token
}

func (a *tokenArena) add(prev int32, value, bits int) int32 {
	a.nodes = append(a.nodes, token{prev: prev, kind: tokenSimple, value: uint16(value), bits: uint8(bits)})
	return int32(len(a.nodes) - 1)
}

func (a *tokenArena) addBinaryShift(prev int32, start, count int) int32 {
	a.nodes = append(a.nodes, token{prev: prev, kind: tokenBinaryShift, start: int32(start), count: int32(count)})
	return int32(len(a.nodes) - 1)
}

// chain returns the tokens ending at handle in emission order.
func (a *tokenArena) chain(handle int32) []token {
	var reversed []token
	for h := handle; h != noToken; h = a.nodes[h].prev {
		reversed = append(reversed, a.nodes[h])
	}
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed
}

// appendTo writes the token's bits. text is the full input, needed for the
// bytes of a binary-shift run.
func (t token) appendTo(bits *bitutil.BitArray, text []byte) error {
	if t.kind == tokenSimple {
		return bits.AppendBits(uint32(t.value), int(t.bits))
	}
	count := int(t.count)
	for i := range count {
		if i == 0 || (i == 31 && count <= 62) {
			// B/S latch then the length header.
			if err := bits.AppendBits(31, 5); err != nil {
				return err
			}
			var err error
			switch {
			case count > 62:
				err = bits.AppendBits(uint32(count-31), 16)
			case i == 0:
				err = bits.AppendBits(uint32(min(count, 31)), 5)
			default:
				err = bits.AppendBits(uint32(count-31), 5)
			}
			if err != nil {
				return err
			}
		}
		if err := bits.AppendBits(uint32(text[int(t.start)+i]), 8); err != nil {
			return err
		}
	}
	return nil
}
