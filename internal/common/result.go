package common

// StructuredAppend describes the position of a symbol inside a sequence of
// linked symbols.
type StructuredAppend struct {
	// Index is the zero-based position of this symbol in the sequence.
	Index int `json:"index"`
	// Total is the number of symbols in the sequence.
	Total int `json:"total"`
	// FileID identifies the sequence (Data Matrix) or carries the parity byte.
	FileID int `json:"file_id"`
}

// DecoderResult is the outcome of a successful decode of a single symbol.
type DecoderResult struct {
	Text            string            `json:"text"`
	RawBytes        []byte            `json:"raw_bytes,omitempty"`
	NumBits         int               `json:"num_bits"`
	ByteSegments    [][]byte          `json:"byte_segments,omitempty"`
	ErrorsCorrected int               `json:"errors_corrected"`
	ECLevel         string            `json:"ec_level,omitempty"`
	Structured      *StructuredAppend `json:"structured_append,omitempty"`
	// SymbologyModifier is the AIM modifier digit (for example 2 for GS1).
	SymbologyModifier int `json:"symbology_modifier"`
}

// NewDecoderResult creates a result for the given raw codewords and text.
func NewDecoderResult(rawBytes []byte, text string, byteSegments [][]byte) *DecoderResult {
	return &DecoderResult{
		Text:         text,
		RawBytes:     rawBytes,
		NumBits:      8 * len(rawBytes),
		ByteSegments: byteSegments,
	}
}

// HasStructuredAppend reports whether the symbol is part of a sequence.
func (r *DecoderResult) HasStructuredAppend() bool {
	return r.Structured != nil && r.Structured.Total > 0
}
