package charset

import (
	"strings"
)

// ECIStringBuilder collects decoded bytes and converts them to text with
// the character set in force, switching sets at each ECI.
type ECIStringBuilder struct {
	pending []byte
	result  strings.Builder
	current *Charset
	length  int
	hadECI  bool
	err     error
}

// NewECIStringBuilder starts in the Default character set.
func NewECIStringBuilder() *ECIStringBuilder {
	return &ECIStringBuilder{current: Default}
}

// AppendByte appends one byte in the current character set.
func (b *ECIStringBuilder) AppendByte(c byte) {
	b.pending = append(b.pending, c)
	b.length++
}

// AppendBytes appends raw bytes in the current character set.
func (b *ECIStringBuilder) AppendBytes(p []byte) {
	b.pending = append(b.pending, p...)
	b.length += len(p)
}

// AppendString appends the bytes of an ASCII literal.
func (b *ECIStringBuilder) AppendString(s string) {
	b.pending = append(b.pending, s...)
	b.length += len(s)
}

// AppendECI switches the character set for subsequent bytes.
func (b *ECIStringBuilder) AppendECI(value int) error {
	cs, err := ForECI(value)
	if err != nil {
		return err
	}
	b.flush()
	b.current = cs
	b.hadECI = true
	return nil
}

func (b *ECIStringBuilder) flush() {
	if len(b.pending) == 0 || b.err != nil {
		return
	}
	text, err := b.current.Decode(b.pending)
	if err != nil {
		b.err = err
		return
	}
	b.result.WriteString(text)
	b.pending = b.pending[:0]
}

// Len is the number of bytes appended so far.
func (b *ECIStringBuilder) Len() int { return b.length }

// HadECI reports whether any ECI was applied.
func (b *ECIStringBuilder) HadECI() bool { return b.hadECI }

// Result flushes pending bytes and returns the text.
func (b *ECIStringBuilder) Result() (string, error) {
	b.flush()
	if b.err != nil {
		return "", b.err
	}
	return b.result.String(), nil
}
