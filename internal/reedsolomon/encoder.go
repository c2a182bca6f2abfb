package reedsolomon

import (
	"fmt"
	"sync"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// Encoder computes systematic Reed-Solomon check words. Generator
// polynomials are cached per degree; an Encoder is safe for concurrent use.
type Encoder struct {
	field      *GenericGF
	mu         sync.Mutex
	generators []*GenericGFPoly
}

// NewEncoder creates an encoder over field.
func NewEncoder(field *GenericGF) *Encoder {
	return &Encoder{
		field:      field,
		generators: []*GenericGFPoly{field.one},
	}
}

// generator returns prod_{i<degree} (x - alpha^(i+base)).
func (e *Encoder) generator(degree int) *GenericGFPoly {
	e.mu.Lock()
	defer e.mu.Unlock()
	for d := len(e.generators); d <= degree; d++ {
		last := e.generators[d-1]
		root := newPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.generatorBase)})
		e.generators = append(e.generators, last.Multiply(root))
	}
	return e.generators[degree]
}

// Encode treats the first len(toEncode)-ecWords values as data and writes
// ecWords check words into the tail of toEncode.
func (e *Encoder) Encode(toEncode []int, ecWords int) error {
	if ecWords <= 0 {
		return fmt.Errorf("%w: no error correction words", common.ErrArgument)
	}
	dataWords := len(toEncode) - ecWords
	if dataWords <= 0 {
		return fmt.Errorf("%w: no data words provided", common.ErrArgument)
	}
	for _, w := range toEncode[:dataWords] {
		if w < 0 || w >= e.field.size {
			return fmt.Errorf("%w: codeword %d outside %s", common.ErrArgument, w, e.field)
		}
	}
	generator := e.generator(ecWords)
	info := make([]int, dataWords)
	copy(info, toEncode[:dataWords])
	shifted := newPoly(e.field, info).shifted(ecWords, 1)
	_, remainder, err := shifted.Divide(generator)
	if err != nil {
		return err
	}
	coefficients := remainder.Coefficients()
	zeros := ecWords - len(coefficients)
	clear(toEncode[dataWords : dataWords+zeros])
	copy(toEncode[dataWords+zeros:], coefficients)
	return nil
}

// Field returns the field the encoder works in.
func (e *Encoder) Field() *GenericGF { return e.field }
