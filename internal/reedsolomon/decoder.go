package reedsolomon

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// Decoder corrects errors in received codewords in place. It is stateless
// and safe for concurrent use.
type Decoder struct {
	field *GenericGF
}

// NewDecoder creates a decoder over field.
func NewDecoder(field *GenericGF) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects received (data followed by twoS check words) in place and
// returns the number of corrected codewords. It fails with
// common.ErrChecksum when the errors exceed the correction capacity.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	if twoS < 0 || twoS > len(received) {
		return 0, fmt.Errorf("%w: %d check words for %d codewords", common.ErrArgument, twoS, len(received))
	}
	f := d.field
	for _, w := range received {
		if w < 0 || w >= f.size {
			return 0, fmt.Errorf("%w: codeword %d outside %s", common.ErrArgument, w, f)
		}
	}
	poly := newPoly(f, received)
	syndromes := make([]int, twoS)
	noError := true
	for i := range twoS {
		eval := poly.EvaluateAt(f.Exp(i + f.generatorBase))
		syndromes[twoS-1-i] = eval
		if eval != 0 {
			noError = false
		}
	}
	if noError {
		return 0, nil
	}
	syndrome := newPoly(f, syndromes)
	sigma, omega, err := d.runEuclideanAlgorithm(f.monomial(twoS, 1), syndrome, twoS)
	if err != nil {
		return 0, err
	}
	locations, err := d.findErrorLocations(sigma)
	if err != nil {
		return 0, err
	}
	if len(locations) > twoS/2 {
		return 0, fmt.Errorf("%w: %d errors exceed capacity %d", common.ErrChecksum, len(locations), twoS/2)
	}
	magnitudes, err := d.findErrorMagnitudes(omega, locations)
	if err != nil {
		return 0, err
	}
	for i, location := range locations {
		position := len(received) - 1 - f.logTable[location]
		if position < 0 {
			return 0, fmt.Errorf("%w: bad error location", common.ErrChecksum)
		}
		received[position] ^= magnitudes[i]
	}
	return len(locations), nil
}

// runEuclideanAlgorithm returns the error locator sigma and error
// evaluator omega for the syndrome polynomial b and a = x^R.
func (d *Decoder) runEuclideanAlgorithm(a, b *GenericGFPoly, R int) (sigma, omega *GenericGFPoly, err error) {
	f := d.field
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := f.zero, f.one
	for 2*r.Degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, fmt.Errorf("%w: r_{i-1} was zero", common.ErrChecksum)
		}
		r = rLastLast
		q := f.zero
		dltInverse, _ := f.Inverse(rLast.Coefficient(rLast.Degree()))
		for r.Degree() >= rLast.Degree() && !r.IsZero() {
			degreeDiff := r.Degree() - rLast.Degree()
			scale := f.Multiply(r.Coefficient(r.Degree()), dltInverse)
			q = q.AddOrSubtract(f.monomial(degreeDiff, scale))
			r = r.AddOrSubtract(rLast.shifted(degreeDiff, scale))
		}
		t = q.Multiply(tLast).AddOrSubtract(tLastLast)
		if r.Degree() >= rLast.Degree() {
			return nil, nil, fmt.Errorf("%w: division algorithm failed to reduce polynomial", common.ErrChecksum)
		}
	}
	sigmaTildeAtZero := t.Coefficient(0)
	if sigmaTildeAtZero == 0 {
		return nil, nil, fmt.Errorf("%w: sigmaTilde(0) was zero", common.ErrChecksum)
	}
	inverse, _ := f.Inverse(sigmaTildeAtZero)
	return t.MultiplyScalar(inverse), r.MultiplyScalar(inverse), nil
}

// findErrorLocations returns the inverses of the roots of errorLocator,
// found by evaluating it at every non-zero field element.
func (d *Decoder) findErrorLocations(errorLocator *GenericGFPoly) ([]int, error) {
	f := d.field
	numErrors := errorLocator.Degree()
	if numErrors == 1 {
		return []int{errorLocator.Coefficient(1)}, nil
	}
	result := make([]int, 0, numErrors)
	for i := 1; i < f.size && len(result) < numErrors; i++ {
		if errorLocator.EvaluateAt(i) == 0 {
			inverse, _ := f.Inverse(i)
			result = append(result, inverse)
		}
	}
	if len(result) != numErrors {
		return nil, fmt.Errorf("%w: error locator degree does not match number of roots", common.ErrChecksum)
	}
	return result, nil
}

// findErrorMagnitudes applies Forney's formula.
func (d *Decoder) findErrorMagnitudes(errorEvaluator *GenericGFPoly, locations []int) ([]int, error) {
	f := d.field
	result := make([]int, len(locations))
	for i, location := range locations {
		xiInverse, err := f.Inverse(location)
		if err != nil {
			return nil, fmt.Errorf("%w: zero error location", common.ErrChecksum)
		}
		denominator := 1
		for j, other := range locations {
			if i == j {
				continue
			}
			term := f.Multiply(other, xiInverse)
			denominator = f.Multiply(denominator, term^1)
		}
		denominatorInverse, err := f.Inverse(denominator)
		if err != nil {
			return nil, fmt.Errorf("%w: repeated error location", common.ErrChecksum)
		}
		result[i] = f.Multiply(errorEvaluator.EvaluateAt(xiInverse), denominatorInverse)
		if f.generatorBase != 0 {
			result[i] = f.Multiply(result[i], xiInverse)
		}
	}
	return result, nil
}

// Field returns the field the decoder works in.
func (d *Decoder) Field() *GenericGF { return d.field }
