package barcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	aztecdecoder "github.com/MeKo-Tech/pocode/internal/aztec/decoder"
	aztecencoder "github.com/MeKo-Tech/pocode/internal/aztec/encoder"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	dmdecoder "github.com/MeKo-Tech/pocode/internal/datamatrix/decoder"
	dmencoder "github.com/MeKo-Tech/pocode/internal/datamatrix/encoder"
)

// EncodeOptions select the format and its parameters. Fields that do
// not apply to the chosen format are ignored.
type EncodeOptions struct {
	Format Format
	// ECCPercent is the minimum Aztec error correction share; 0 means 33.
	ECCPercent int
	// Layers forces the Aztec layer count; negative values mean compact.
	Layers int
	// Shape is the Data Matrix size family: square, rectangle or any.
	Shape string
	// Version forces a Data Matrix size (1..30).
	Version int
	// Charset converts text and is announced with an ECI unless it is
	// ISO-8859-1.
	Charset string
	GS1     bool
	// MaxFrontierStates caps the Aztec high-level encoder search.
	MaxFrontierStates int
}

// Symbol is an encoded barcode.
type Symbol struct {
	Format    Format             `json:"format" yaml:"format"`
	Width     int                `json:"width" yaml:"width"`
	Height    int                `json:"height" yaml:"height"`
	Compact   bool               `json:"compact,omitempty" yaml:"compact,omitempty"`
	Layers    int                `json:"layers,omitempty" yaml:"layers,omitempty"`
	Version   int                `json:"version,omitempty" yaml:"version,omitempty"`
	Codewords int                `json:"codewords" yaml:"codewords"`
	Matrix    *bitutil.BitMatrix `json:"-" yaml:"-"`
}

// DecodeResult is a decoded symbol with its format.
type DecodeResult struct {
	Format Format `json:"format" yaml:"format"`
	*common.DecoderResult
}

// EncodeText encodes text, converting it with opts.Charset.
func EncodeText(ctx context.Context, text string, opts EncodeOptions) (*Symbol, error) {
	return encode(ctx, opts, func() (*Symbol, error) {
		switch opts.Format {
		case FormatAztec:
			code, err := aztecencoder.Encode(text, aztecOptions(opts))
			if err != nil {
				return nil, err
			}
			return aztecSymbol(code), nil
		case FormatDataMatrix:
			dmOpts, err := dataMatrixOptions(opts)
			if err != nil {
				return nil, err
			}
			symbol, err := dmencoder.Encode(text, dmOpts)
			if err != nil {
				return nil, err
			}
			return dataMatrixSymbol(symbol), nil
		default:
			return nil, fmt.Errorf("%w: cannot encode format %s", common.ErrArgument, opts.Format)
		}
	})
}

// Encode encodes raw bytes.
func Encode(ctx context.Context, data []byte, opts EncodeOptions) (*Symbol, error) {
	return encode(ctx, opts, func() (*Symbol, error) {
		switch opts.Format {
		case FormatAztec:
			code, err := aztecencoder.EncodeBytes(data, aztecOptions(opts))
			if err != nil {
				return nil, err
			}
			return aztecSymbol(code), nil
		case FormatDataMatrix:
			dmOpts, err := dataMatrixOptions(opts)
			if err != nil {
				return nil, err
			}
			symbol, err := dmencoder.EncodeBytes(data, dmOpts)
			if err != nil {
				return nil, err
			}
			return dataMatrixSymbol(symbol), nil
		default:
			return nil, fmt.Errorf("%w: cannot encode format %s", common.ErrArgument, opts.Format)
		}
	})
}

func encode(ctx context.Context, opts EncodeOptions, fn func() (*Symbol, error)) (*Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := common.StartTimer("duration")
	symbol, err := fn()
	timer.Stop()
	if err != nil {
		slog.Debug("encode failed", "format", opts.Format.String(), "error", err, timer.Attr())
		return nil, err
	}
	slog.Debug("encoded symbol",
		"format", symbol.Format.String(),
		"width", symbol.Width,
		"height", symbol.Height,
		"codewords", symbol.Codewords,
		timer.Attr())
	return symbol, nil
}

func aztecOptions(opts EncodeOptions) aztecencoder.Options {
	return aztecencoder.Options{
		MinECCPercent:     opts.ECCPercent,
		Layers:            opts.Layers,
		Charset:           opts.Charset,
		GS1:               opts.GS1,
		MaxFrontierStates: opts.MaxFrontierStates,
	}
}

func aztecSymbol(code *aztecencoder.AztecCode) *Symbol {
	return &Symbol{
		Format:    FormatAztec,
		Width:     code.Size,
		Height:    code.Size,
		Compact:   code.Compact,
		Layers:    code.Layers,
		Codewords: code.CodeWords,
		Matrix:    code.Matrix,
	}
}

func dataMatrixOptions(opts EncodeOptions) (dmencoder.Options, error) {
	shape, err := dmencoder.ParseShape(opts.Shape)
	if err != nil {
		return dmencoder.Options{}, err
	}
	return dmencoder.Options{
		Shape:   shape,
		Version: opts.Version,
		Charset: opts.Charset,
		GS1:     opts.GS1,
	}, nil
}

func dataMatrixSymbol(symbol *dmencoder.Symbol) *Symbol {
	return &Symbol{
		Format:    FormatDataMatrix,
		Width:     symbol.Version.Cols,
		Height:    symbol.Version.Rows,
		Version:   symbol.Version.Number,
		Codewords: symbol.DataCodewords,
		Matrix:    symbol.Matrix,
	}
}

// Decode reads a pure symbol matrix. FormatUnknown tries Aztec first,
// then Data Matrix, and reports the first success.
func Decode(ctx context.Context, matrix *bitutil.BitMatrix, format Format) (*DecodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if matrix == nil {
		return nil, fmt.Errorf("%w: nil matrix", common.ErrArgument)
	}
	formats := []Format{format}
	if format == FormatUnknown {
		formats = []Format{FormatAztec, FormatDataMatrix}
	}
	var errs []error
	for _, f := range formats {
		timer := common.StartTimer("duration")
		result, err := decodeFormat(matrix, f)
		timer.Stop()
		if err == nil {
			slog.Debug("decoded symbol",
				"format", f.String(),
				"width", matrix.Width(),
				"height", matrix.Height(),
				"errors_corrected", result.ErrorsCorrected,
				timer.Attr())
			return &DecodeResult{Format: f, DecoderResult: result}, nil
		}
		slog.Debug("decode failed", "format", f.String(), "error", err, timer.Attr())
		errs = append(errs, fmt.Errorf("%s: %w", f, err))
	}
	return nil, errors.Join(errs...)
}

func decodeFormat(matrix *bitutil.BitMatrix, format Format) (*common.DecoderResult, error) {
	switch format {
	case FormatAztec:
		return aztecdecoder.Decode(matrix)
	case FormatDataMatrix:
		return dmdecoder.Decode(matrix)
	default:
		return nil, fmt.Errorf("%w: cannot decode format %s", common.ErrArgument, format)
	}
}
