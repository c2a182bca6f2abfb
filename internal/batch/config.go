package batch

import (
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
)

// Mode selects what a batch does with each file.
type Mode string

const (
	// ModeEncode encodes each file's bytes into a symbol.
	ModeEncode Mode = "encode"
	// ModeDecode decodes each file, a text matrix or an image.
	ModeDecode Mode = "decode"
)

// Config holds all configuration for batch processing.
type Config struct {
	Mode Mode

	// Encode settings
	Encode barcode.EncodeOptions
	Render barcode.RenderOptions
	// OutputDir receives one PNG per encoded file when set.
	OutputDir string

	// Decode settings
	DecodeFormat barcode.Format
	SetString    string
	UnsetString  string
	TryHarder    bool

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// DefaultConfig returns a decode configuration with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeDecode,
		Encode:      barcode.EncodeOptions{Format: barcode.FormatAztec},
		SetString:   "X ",
		UnsetString: "  ",
		Workers:     runtime.NumCPU(),
	}
}

// Validate checks the settings the workers depend on.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeEncode:
		if c.Encode.Format == barcode.FormatUnknown {
			return fmt.Errorf("%w: encode needs a concrete format", common.ErrArgument)
		}
	case ModeDecode:
		if c.SetString == "" || c.UnsetString == "" {
			return fmt.Errorf("%w: set and unset strings must not be empty", common.ErrArgument)
		}
	default:
		return fmt.Errorf("%w: unknown batch mode %q", common.ErrArgument, c.Mode)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", common.ErrArgument, c.Workers)
	}
	return nil
}
