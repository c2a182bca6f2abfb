package reedsolomon

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// GenericGFPoly is an immutable polynomial over a GenericGF. Coefficients
// are stored from the highest degree term down to the constant term.
type GenericGFPoly struct {
	field        *GenericGF
	coefficients []int
}

// NewGenericGFPoly builds a polynomial, stripping leading zero terms.
func NewGenericGFPoly(field *GenericGF, coefficients []int) (*GenericGFPoly, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: polynomial needs at least one coefficient", common.ErrArgument)
	}
	return newPoly(field, coefficients), nil
}

func newPoly(field *GenericGF, coefficients []int) *GenericGFPoly {
	if len(coefficients) > 1 && coefficients[0] == 0 {
		first := 1
		for first < len(coefficients) && coefficients[first] == 0 {
			first++
		}
		if first == len(coefficients) {
			return field.zero
		}
		stripped := make([]int, len(coefficients)-first)
		copy(stripped, coefficients[first:])
		coefficients = stripped
	}
	return &GenericGFPoly{field: field, coefficients: coefficients}
}

// Coefficients returns the coefficients, highest degree first.
func (p *GenericGFPoly) Coefficients() []int { return p.coefficients }

// Degree returns the degree of the polynomial.
func (p *GenericGFPoly) Degree() int { return len(p.coefficients) - 1 }

// IsZero reports whether this is the zero polynomial.
func (p *GenericGFPoly) IsZero() bool { return p.coefficients[0] == 0 }

// Coefficient returns the coefficient of x^degree.
func (p *GenericGFPoly) Coefficient(degree int) int {
	return p.coefficients[len(p.coefficients)-1-degree]
}

// EvaluateAt evaluates the polynomial at a using Horner's rule.
func (p *GenericGFPoly) EvaluateAt(a int) int {
	if a == 0 {
		return p.Coefficient(0)
	}
	if a == 1 {
		result := 0
		for _, c := range p.coefficients {
			result ^= c
		}
		return result
	}
	result := p.coefficients[0]
	for _, c := range p.coefficients[1:] {
		result = p.field.Multiply(a, result) ^ c
	}
	return result
}

func (p *GenericGFPoly) mustShareField(other *GenericGFPoly) {
	if p.field != other.field {
		panic("reedsolomon: polynomials do not have the same field")
	}
}

// AddOrSubtract returns p + other.
func (p *GenericGFPoly) AddOrSubtract(other *GenericGFPoly) *GenericGFPoly {
	p.mustShareField(other)
	if p.IsZero() {
		return other
	}
	if other.IsZero() {
		return p
	}
	smaller, larger := p.coefficients, other.coefficients
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}
	sum := make([]int, len(larger))
	diff := len(larger) - len(smaller)
	copy(sum, larger[:diff])
	for i := diff; i < len(larger); i++ {
		sum[i] = smaller[i-diff] ^ larger[i]
	}
	return newPoly(p.field, sum)
}

// Multiply returns p * other.
func (p *GenericGFPoly) Multiply(other *GenericGFPoly) *GenericGFPoly {
	p.mustShareField(other)
	if p.IsZero() || other.IsZero() {
		return p.field.zero
	}
	a, b := p.coefficients, other.coefficients
	product := make([]int, len(a)+len(b)-1)
	for i, ac := range a {
		for j, bc := range b {
			product[i+j] ^= p.field.Multiply(ac, bc)
		}
	}
	return newPoly(p.field, product)
}

// MultiplyScalar returns scalar * p.
func (p *GenericGFPoly) MultiplyScalar(scalar int) *GenericGFPoly {
	switch scalar {
	case 0:
		return p.field.zero
	case 1:
		return p
	}
	product := make([]int, len(p.coefficients))
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, scalar)
	}
	return newPoly(p.field, product)
}

// MultiplyByMonomial returns p * coefficient * x^degree.
func (p *GenericGFPoly) MultiplyByMonomial(degree, coefficient int) (*GenericGFPoly, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: negative monomial degree %d", common.ErrArgument, degree)
	}
	if coefficient == 0 {
		return p.field.zero, nil
	}
	product := make([]int, len(p.coefficients)+degree)
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return newPoly(p.field, product), nil
}

func (p *GenericGFPoly) shifted(degree, coefficient int) *GenericGFPoly {
	q, _ := p.MultiplyByMonomial(degree, coefficient)
	return q
}

// Divide returns the quotient and remainder of p / other.
func (p *GenericGFPoly) Divide(other *GenericGFPoly) (quotient, remainder *GenericGFPoly, err error) {
	p.mustShareField(other)
	if other.IsZero() {
		return nil, nil, fmt.Errorf("%w: divide by 0", common.ErrArgument)
	}
	quotient = p.field.zero
	remainder = p
	inverse, err := p.field.Inverse(other.Coefficient(other.Degree()))
	if err != nil {
		return nil, nil, err
	}
	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		degreeDiff := remainder.Degree() - other.Degree()
		scale := p.field.Multiply(remainder.Coefficient(remainder.Degree()), inverse)
		quotient = quotient.AddOrSubtract(p.field.monomial(degreeDiff, scale))
		remainder = remainder.AddOrSubtract(other.shifted(degreeDiff, scale))
	}
	return quotient, remainder, nil
}

// String renders the polynomial like "a^3x^2 + x + 1".
func (p *GenericGFPoly) String() string {
	if p.IsZero() {
		return "0"
	}
	var sb strings.Builder
	for degree := p.Degree(); degree >= 0; degree-- {
		c := p.Coefficient(degree)
		if c == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" + ")
		}
		if degree == 0 || c != 1 {
			alphaPower := p.field.logTable[c]
			switch alphaPower {
			case 0:
				sb.WriteByte('1')
			case 1:
				sb.WriteByte('a')
			default:
				fmt.Fprintf(&sb, "a^%d", alphaPower)
			}
		}
		switch degree {
		case 0:
		case 1:
			sb.WriteByte('x')
		default:
			fmt.Fprintf(&sb, "x^%d", degree)
		}
	}
	return sb.String()
}
