// Package reedsolomon implements arithmetic over GF(2^m) and the
// Reed-Solomon encoder and decoder used by the barcode formats.
//
// The fields are process-wide constants built once at package
// initialization; they are never mutated afterwards and are safe for
// concurrent use.
package reedsolomon

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/common"
)

// Predefined fields, one per (format, word size).
var (
	AztecData12        = NewGenericGF(0x1069, 4096, 1, "AZTEC_DATA_12") // x^12 + x^6 + x^5 + x^3 + 1
	AztecData10        = NewGenericGF(0x409, 1024, 1, "AZTEC_DATA_10")  // x^10 + x^3 + 1
	AztecData6         = NewGenericGF(0x43, 64, 1, "AZTEC_DATA_6")      // x^6 + x + 1
	AztecParam         = NewGenericGF(0x13, 16, 1, "AZTEC_PARAM")       // x^4 + x + 1
	QRCodeField256     = NewGenericGF(0x011D, 256, 0, "QR_CODE_FIELD_256")
	DataMatrixField256 = NewGenericGF(0x012D, 256, 1, "DATA_MATRIX_FIELD_256")
	AztecData8         = DataMatrixField256
	MaxiCodeField64    = AztecData6
)

// GenericGF is GF(size) with size = 2^m, built from a primitive polynomial.
// generatorBase is the exponent b of the first root alpha^b of the RS
// generator polynomial (0 for QR Code, 1 for the other formats).
type GenericGF struct {
	expTable      []int
	logTable      []int
	zero          *GenericGFPoly
	one           *GenericGFPoly
	size          int
	primitive     int
	generatorBase int
	name          string
}

// NewGenericGF builds the exp/log tables for a field. primitive is the
// irreducible polynomial whose coefficients are the bits of the value.
func NewGenericGF(primitive, size, generatorBase int, name string) *GenericGF {
	f := &GenericGF{
		expTable:      make([]int, size),
		logTable:      make([]int, size),
		size:          size,
		primitive:     primitive,
		generatorBase: generatorBase,
		name:          name,
	}
	x := 1
	for i := range size {
		f.expTable[i] = x
		x *= 2
		if x >= size {
			x ^= primitive
			x &= size - 1
		}
	}
	for i := range size - 1 {
		f.logTable[f.expTable[i]] = i
	}
	f.zero = &GenericGFPoly{field: f, coefficients: []int{0}}
	f.one = &GenericGFPoly{field: f, coefficients: []int{1}}
	return f
}

// Zero returns the zero polynomial.
func (f *GenericGF) Zero() *GenericGFPoly { return f.zero }

// One returns the polynomial 1.
func (f *GenericGF) One() *GenericGFPoly { return f.one }

// BuildMonomial returns coefficient * x^degree.
func (f *GenericGF) BuildMonomial(degree, coefficient int) (*GenericGFPoly, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: negative monomial degree %d", common.ErrArgument, degree)
	}
	if coefficient == 0 {
		return f.zero, nil
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return &GenericGFPoly{field: f, coefficients: coefficients}, nil
}

func (f *GenericGF) monomial(degree, coefficient int) *GenericGFPoly {
	p, _ := f.BuildMonomial(degree, coefficient)
	return p
}

// AddOrSubtract adds two field elements; in GF(2^m) this equals subtraction.
func AddOrSubtract(a, b int) int {
	return a ^ b
}

// Exp returns alpha^a.
func (f *GenericGF) Exp(a int) int {
	return f.expTable[a]
}

// Log returns the discrete logarithm of a, which must be non-zero.
func (f *GenericGF) Log(a int) (int, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: log of zero", common.ErrArgument)
	}
	return f.logTable[a], nil
}

// Inverse returns the multiplicative inverse of a, which must be non-zero.
func (f *GenericGF) Inverse(a int) (int, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: inverse of zero", common.ErrArgument)
	}
	return f.expTable[f.size-f.logTable[a]-1], nil
}

// Multiply returns a*b.
func (f *GenericGF) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.size-1)]
}

// Size returns the number of field elements.
func (f *GenericGF) Size() int { return f.size }

// GeneratorBase returns the exponent of the first generator root.
func (f *GenericGF) GeneratorBase() int { return f.generatorBase }

// Primitive returns the primitive polynomial.
func (f *GenericGF) Primitive() int { return f.primitive }

func (f *GenericGF) String() string {
	if f.name != "" {
		return f.name
	}
	return fmt.Sprintf("GF(0x%x,%d)", f.primitive, f.size)
}

// FieldForWordSize returns the Aztec data field for a codeword size in bits.
func FieldForWordSize(wordSize int) (*GenericGF, error) {
	switch wordSize {
	case 4:
		return AztecParam, nil
	case 6:
		return AztecData6, nil
	case 8:
		return AztecData8, nil
	case 10:
		return AztecData10, nil
	case 12:
		return AztecData12, nil
	default:
		return nil, fmt.Errorf("%w: unsupported word size %d", common.ErrArgument, wordSize)
	}
}
