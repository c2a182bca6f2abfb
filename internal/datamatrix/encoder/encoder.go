// Package encoder builds ECC 200 Data Matrix symbols.
package encoder

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/charset"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
)

// Options for Encode and EncodeBytes.
type Options struct {
	// Shape restricts the sizes tried; square by default.
	Shape Shape
	// Version forces a symbol size (1..30) when non-zero.
	Version int
	// Charset converts text input and is announced with an ECI unless it
	// is ISO-8859-1.
	Charset string
	// GS1 marks the data as GS1 with a leading FNC1.
	GS1 bool
}

// Symbol is an encoded Data Matrix.
type Symbol struct {
	Version *datamatrix.Version
	// Codewords are the interleaved data and check codewords.
	Codewords []byte
	// DataCodewords counts the codewords before padding.
	DataCodewords int
	Matrix        *bitutil.BitMatrix
}

// Encode converts text with opts.Charset and encodes it.
func Encode(text string, opts Options) (*Symbol, error) {
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return nil, err
	}
	data, err := cs.Encode(text)
	if err != nil {
		return nil, err
	}
	return encode(data, opts, cs)
}

// EncodeBytes encodes raw bytes. An ECI is announced only when
// opts.Charset names a charset other than ISO-8859-1.
func EncodeBytes(data []byte, opts Options) (*Symbol, error) {
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return nil, err
	}
	return encode(data, opts, cs)
}

func encode(data []byte, opts Options, cs *charset.Charset) (*Symbol, error) {
	hl := HighLevelOptions{ECI: -1, GS1: opts.GS1}
	if cs != charset.ISO8859_1 {
		hl.ECI = cs.ECI
	}
	codewords, err := EncodeHighLevel(data, hl)
	if err != nil {
		return nil, err
	}

	var version *datamatrix.Version
	if opts.Version != 0 {
		version, err = datamatrix.VersionForNumber(opts.Version)
		if err != nil {
			return nil, err
		}
		if version.DataCodewords() < len(codewords) {
			return nil, fmt.Errorf("%w: %d data codewords do not fit version %s",
				common.ErrArgument, len(codewords), version)
		}
	} else {
		version, err = selectVersion(len(codewords), opts.Shape)
		if err != nil {
			return nil, err
		}
	}
	return EncodeCodewords(codewords, version)
}

// EncodeCodewords pads data codewords to the capacity of version, adds
// error correction and lays out the symbol.
func EncodeCodewords(codewords []byte, version *datamatrix.Version) (*Symbol, error) {
	numData := len(codewords)
	if numData > version.DataCodewords() {
		return nil, fmt.Errorf("%w: %d data codewords do not fit version %s",
			common.ErrArgument, numData, version)
	}
	padded := pad(append([]byte(nil), codewords...), version.DataCodewords())
	all, err := errorCorrection(padded, version)
	if err != nil {
		return nil, err
	}
	p := newPlacement(all, version.MappingRows(), version.MappingCols())
	p.place()
	return &Symbol{
		Version:       version,
		Codewords:     all,
		DataCodewords: numData,
		Matrix:        buildSymbol(p, version),
	}, nil
}
