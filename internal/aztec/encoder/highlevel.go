package encoder

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
)

// Character modes of the Aztec high-level encoding.
const (
	modeUpper = iota
	modeLower
	modeDigit
	modeMixed
	modePunct
	numModes
)

// DefaultMaxFrontierStates bounds the states kept per input position.
const DefaultMaxFrontierStates = 512

// maxBinaryShiftBytes is the longest run one B/S token can carry.
const maxBinaryShiftBytes = 2047 + 31

// latchTable[from][to] packs the latch bit count into the high 16 bits and
// the latch code(s) into the low 16 bits.
var latchTable = [numModes][numModes]int{
	{
		0,
		(5 << 16) + 28,              // UPPER -> LOWER
		(5 << 16) + 30,              // UPPER -> DIGIT
		(5 << 16) + 29,              // UPPER -> MIXED
		(10 << 16) + (29 << 5) + 30, // UPPER -> MIXED -> PUNCT
	},
	{
		(9 << 16) + (30 << 4) + 14, // LOWER -> DIGIT -> UPPER
		0,
		(5 << 16) + 30,              // LOWER -> DIGIT
		(5 << 16) + 29,              // LOWER -> MIXED
		(10 << 16) + (29 << 5) + 30, // LOWER -> MIXED -> PUNCT
	},
	{
		(4 << 16) + 14,                           // DIGIT -> UPPER
		(9 << 16) + (14 << 5) + 28,               // DIGIT -> UPPER -> LOWER
		0,
		(9 << 16) + (14 << 5) + 29,               // DIGIT -> UPPER -> MIXED
		(14 << 16) + (14 << 10) + (29 << 5) + 30, // DIGIT -> UPPER -> MIXED -> PUNCT
	},
	{
		(5 << 16) + 29,              // MIXED -> UPPER
		(5 << 16) + 28,              // MIXED -> LOWER
		(10 << 16) + (29 << 5) + 30, // MIXED -> UPPER -> DIGIT
		0,
		(5 << 16) + 30, // MIXED -> PUNCT
	},
	{
		(5 << 16) + 31,              // PUNCT -> UPPER
		(10 << 16) + (31 << 5) + 28, // PUNCT -> UPPER -> LOWER
		(10 << 16) + (31 << 5) + 30, // PUNCT -> UPPER -> DIGIT
		(10 << 16) + (31 << 5) + 29, // PUNCT -> UPPER -> MIXED
		0,
	},
}

// shiftTable[from][to] is the shift code, or -1 when no shift exists.
var shiftTable = [numModes][numModes]int{
	modeUpper: {-1, -1, -1, -1, 0},
	modeLower: {28, -1, -1, -1, 0},
	modeDigit: {15, -1, -1, -1, 0},
	modeMixed: {-1, -1, -1, -1, 0},
	modePunct: {-1, -1, -1, -1, -1},
}

// charMap[mode][b] is the code of byte b in mode, or 0 when b is not
// encodable there.
var charMap = buildCharMap()

func buildCharMap() [numModes][256]int {
	var m [numModes][256]int
	m[modeUpper][' '] = 1
	for c := 'A'; c <= 'Z'; c++ {
		m[modeUpper][c] = int(c-'A') + 2
	}
	m[modeLower][' '] = 1
	for c := 'a'; c <= 'z'; c++ {
		m[modeLower][c] = int(c-'a') + 2
	}
	m[modeDigit][' '] = 1
	for c := '0'; c <= '9'; c++ {
		m[modeDigit][c] = int(c-'0') + 2
	}
	m[modeDigit][','] = 12
	m[modeDigit]['.'] = 13
	mixed := []byte{
		0, ' ', 1, 2, 3, 4, 5, 6, 7, '\b', '\t', '\n', 11, '\f', '\r',
		27, 28, 29, 30, 31, '@', '\\', '^', '_', '`', '|', '~', 127,
	}
	for i, c := range mixed {
		m[modeMixed][c] = i
	}
	punct := []byte{
		0, '\r', 0, 0, 0, 0, '!', '"', '#', '$', '%', '&', '\'',
		'(', ')', '*', '+', ',', '-', '.', '/', ':', ';', '<', '=', '>', '?',
		'[', ']', '{', '}',
	}
	for i, c := range punct {
		if c > 0 {
			m[modePunct][c] = i
		}
	}
	return m
}

// state is one point of the search frontier: the mode, the token chain
// that produced it, the bits used so far and the open binary-shift run.
type state struct {
	tok                  int32
	mode                 int
	binaryShiftByteCount int
	bitCount             int
}

var initialState = state{tok: noToken, mode: modeUpper}

// highLevelEncoder finds the shortest Aztec bit sequence for a byte
// string by exploring every latch/shift/binary-shift choice per position
// and pruning dominated states.
type highLevelEncoder struct {
	text      []byte
	eci       int
	fnc1      bool
	maxStates int
	arena     tokenArena
}

// HighLevelOptions controls the optional prefix tokens and search bounds.
type HighLevelOptions struct {
	// ECI announces a character set with FLG(n); negative means none.
	ECI int
	// FNC1 prefixes the message with FLG(0), marking GS1 data.
	FNC1 bool
	// MaxFrontierStates caps the frontier; zero means the default.
	MaxFrontierStates int
}

// HighLevelEncode returns the minimal bit sequence for text without ECI.
func HighLevelEncode(text []byte) (*bitutil.BitArray, error) {
	return HighLevelEncodeWithOptions(text, HighLevelOptions{ECI: -1})
}

// HighLevelEncodeWithOptions is HighLevelEncode with ECI, FNC1 and a
// frontier bound.
func HighLevelEncodeWithOptions(text []byte, opts HighLevelOptions) (*bitutil.BitArray, error) {
	if opts.ECI > 999999 {
		return nil, fmt.Errorf("%w: ECI %d out of range", common.ErrArgument, opts.ECI)
	}
	maxStates := opts.MaxFrontierStates
	if maxStates <= 0 {
		maxStates = DefaultMaxFrontierStates
	}
	e := &highLevelEncoder{
		text:      text,
		eci:       opts.ECI,
		fnc1:      opts.FNC1,
		maxStates: maxStates,
		arena:     tokenArena{nodes: make([]token, 0, 4*len(text)+16)},
	}
	return e.encode()
}

func (e *highLevelEncoder) encode() (*bitutil.BitArray, error) {
	start := initialState
	if e.eci >= 0 {
		start = e.appendFLGn(start, e.eci)
	}
	if e.fnc1 {
		start = e.appendFLGn(start, -1)
	}
	states := []state{start}
	next := make([]state, 0, 16)
	for index := 0; index < len(e.text); index++ {
		pairCode := e.pairCode(index)
		next = next[:0]
		if pairCode > 0 {
			for _, s := range states {
				next = e.updateStateForPair(next, s, index, pairCode)
			}
			index++
		} else {
			for _, s := range states {
				next = e.updateStateForChar(next, s, index)
			}
		}
		states = e.simplify(next, states[:0])
	}
	best := states[0]
	for _, s := range states[1:] {
		if s.bitCount < best.bitCount {
			best = s
		}
	}
	return e.toBitArray(best)
}

// pairCode returns the PUNCT code for the two-character sequence starting
// at index, or 0.
func (e *highLevelEncoder) pairCode(index int) int {
	var nextChar byte
	if index+1 < len(e.text) {
		nextChar = e.text[index+1]
	}
	switch e.text[index] {
	case '\r':
		if nextChar == '\n' {
			return 2
		}
	case '.':
		if nextChar == ' ' {
			return 3
		}
	case ',':
		if nextChar == ' ' {
			return 4
		}
	case ':':
		if nextChar == ' ' {
			return 5
		}
	}
	return 0
}

// updateStateForChar appends every successor of s that consumes the
// single character at index.
func (e *highLevelEncoder) updateStateForChar(out []state, s state, index int) []state {
	ch := e.text[index]
	charInCurrentTable := charMap[s.mode][ch] > 0
	var stateNoBinary state
	haveNoBinary := false
	for mode := range numModes {
		charInMode := charMap[mode][ch]
		if charInMode <= 0 {
			continue
		}
		if !haveNoBinary {
			stateNoBinary = e.endBinaryShift(s, index)
			haveNoBinary = true
		}
		// Latching to another mode only pays when the character is not
		// in the current one, except for DIGIT which is cheaper per char.
		if !charInCurrentTable || mode == s.mode || mode == modeDigit {
			out = append(out, e.latchAndAppend(stateNoBinary, mode, charInMode))
		}
		if !charInCurrentTable && shiftTable[s.mode][mode] >= 0 {
			out = append(out, e.shiftAndAppend(stateNoBinary, mode, charInMode))
		}
	}
	if s.binaryShiftByteCount > 0 || charMap[s.mode][ch] == 0 {
		out = append(out, e.addBinaryShiftChar(s, index))
	}
	return out
}

// updateStateForPair appends every successor of s that consumes the pair
// starting at index.
func (e *highLevelEncoder) updateStateForPair(out []state, s state, index, pairCode int) []state {
	stateNoBinary := e.endBinaryShift(s, index)
	out = append(out, e.latchAndAppend(stateNoBinary, modePunct, pairCode))
	if s.mode != modePunct {
		out = append(out, e.shiftAndAppend(stateNoBinary, modePunct, pairCode))
	}
	if pairCode == 3 || pairCode == 4 {
		// ". " and ", " as DIGIT punctuation followed by a DIGIT space.
		digit := e.latchAndAppend(stateNoBinary, modeDigit, 16-pairCode)
		out = append(out, e.latchAndAppend(digit, modeDigit, 1))
	}
	if s.binaryShiftByteCount > 0 {
		out = append(out, e.addBinaryShiftChar(e.addBinaryShiftChar(s, index), index+1))
	}
	return out
}

func (e *highLevelEncoder) latchAndAppend(s state, mode, value int) state {
	bitCount := s.bitCount
	tok := s.tok
	if mode != s.mode {
		latch := latchTable[s.mode][mode]
		tok = e.arena.add(tok, latch&0xFFFF, latch>>16)
		bitCount += latch >> 16
	}
	latchModeBitCount := 5
	if mode == modeDigit {
		latchModeBitCount = 4
	}
	tok = e.arena.add(tok, value, latchModeBitCount)
	return state{tok: tok, mode: mode, bitCount: bitCount + latchModeBitCount}
}

func (e *highLevelEncoder) shiftAndAppend(s state, mode, value int) state {
	thisModeBitCount := 5
	if s.mode == modeDigit {
		thisModeBitCount = 4
	}
	tok := e.arena.add(s.tok, shiftTable[s.mode][mode], thisModeBitCount)
	tok = e.arena.add(tok, value, 5)
	return state{tok: tok, mode: s.mode, bitCount: s.bitCount + thisModeBitCount + 5}
}

func (e *highLevelEncoder) addBinaryShiftChar(s state, index int) state {
	tok := s.tok
	mode := s.mode
	bitCount := s.bitCount
	if mode == modePunct || mode == modeDigit {
		latch := latchTable[mode][modeUpper]
		tok = e.arena.add(tok, latch&0xFFFF, latch>>16)
		bitCount += latch >> 16
		mode = modeUpper
	}
	var delta int
	switch s.binaryShiftByteCount {
	case 0, 31:
		delta = 18
	case 62:
		delta = 9
	default:
		delta = 8
	}
	result := state{tok: tok, mode: mode, binaryShiftByteCount: s.binaryShiftByteCount + 1, bitCount: bitCount + delta}
	if result.binaryShiftByteCount == maxBinaryShiftBytes {
		result = e.endBinaryShift(result, index+1)
	}
	return result
}

// endBinaryShift closes an open binary-shift run ending before index.
func (e *highLevelEncoder) endBinaryShift(s state, index int) state {
	if s.binaryShiftByteCount == 0 {
		return s
	}
	tok := e.arena.addBinaryShift(s.tok, index-s.binaryShiftByteCount, s.binaryShiftByteCount)
	return state{tok: tok, mode: s.mode, bitCount: s.bitCount}
}

// appendFLGn emits P/S FLG(n). eci < 0 emits FNC1.
func (e *highLevelEncoder) appendFLGn(s state, eci int) state {
	result := e.shiftAndAppend(s, modePunct, 0)
	tok := result.tok
	bitsAdded := 3
	if eci < 0 {
		tok = e.arena.add(tok, 0, 3)
	} else {
		digits := strconv.Itoa(eci)
		tok = e.arena.add(tok, len(digits), 3)
		for i := range len(digits) {
			tok = e.arena.add(tok, int(digits[i]-'0')+2, 4)
		}
		bitsAdded += 4 * len(digits)
	}
	return state{tok: tok, mode: s.mode, bitCount: result.bitCount + bitsAdded}
}

func calculateBinaryShiftCost(binaryShiftByteCount int) int {
	switch {
	case binaryShiftByteCount > 62:
		return 21
	case binaryShiftByteCount > 31:
		return 20
	case binaryShiftByteCount > 0:
		return 10
	default:
		return 0
	}
}

// isBetterThanOrEqualTo reports whether s can reach other's position at
// no more cost than other, so other can be dropped.
func isBetterThanOrEqualTo(s, other state) bool {
	newModeBitCount := s.bitCount + latchTable[s.mode][other.mode]>>16
	if s.binaryShiftByteCount < other.binaryShiftByteCount {
		newModeBitCount += calculateBinaryShiftCost(other.binaryShiftByteCount) - calculateBinaryShiftCost(s.binaryShiftByteCount)
	} else if s.binaryShiftByteCount > other.binaryShiftByteCount && other.binaryShiftByteCount > 0 {
		newModeBitCount += 10
	}
	return newModeBitCount <= other.bitCount
}

// simplify keeps the states not dominated by another candidate, in
// insertion order, appending them to result.
func (e *highLevelEncoder) simplify(candidates, result []state) []state {
	for _, candidate := range candidates {
		add := true
		kept := result[:0]
		for i, old := range result {
			if isBetterThanOrEqualTo(old, candidate) {
				add = false
				kept = append(kept, result[i:]...)
				break
			}
			if !isBetterThanOrEqualTo(candidate, old) {
				kept = append(kept, old)
			}
		}
		result = kept
		if add {
			result = append(result, candidate)
		}
	}
	if len(result) > e.maxStates {
		sort.SliceStable(result, func(i, j int) bool { return result[i].bitCount < result[j].bitCount })
		result = result[:e.maxStates]
	}
	return result
}

func (e *highLevelEncoder) toBitArray(s state) (*bitutil.BitArray, error) {
	s = e.endBinaryShift(s, len(e.text))
	bits := &bitutil.BitArray{}
	for _, t := range e.arena.chain(s.tok) {
		if err := t.appendTo(bits, e.text); err != nil {
			return nil, err
		}
	}
	return bits, nil
}
