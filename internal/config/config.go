package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/charset"
	"github.com/MeKo-Tech/pocode/internal/datamatrix/encoder"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Codec: CodecConfig{
			Format:            "aztec",
			AztecECCPercent:   33,
			AztecLayers:       0,
			DataMatrixShape:   "square",
			Charset:           "",
			MaxFrontierStates: 512,
			ModuleSize:        barcode.DefaultModuleSize,
			QuietZone:         barcode.DefaultQuietZone,
		},
		Output: OutputConfig{
			Format:      "text",
			SetString:   "X ",
			UnsetString: "  ",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			MaxBatchItems:   100,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 120,
				RequestsPerHour:   3000,
			},
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			ContinueOnError: false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml"}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.SetString == "" || c.Output.UnsetString == "" || c.Output.SetString == c.Output.UnsetString {
		return fmt.Errorf("invalid matrix strings: set %q, unset %q (must be non-empty and distinct)",
			c.Output.SetString, c.Output.UnsetString)
	}

	if err := c.Codec.validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.MaxBatchItems <= 0 {
		return fmt.Errorf("invalid max batch items: %d (must be positive)", c.Server.MaxBatchItems)
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 || rl.MaxRequestsPerDay < 0 || rl.MaxDataPerDayMB < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	return nil
}

func (c *CodecConfig) validate() error {
	format, err := barcode.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("invalid codec format: %w", err)
	}
	if format == barcode.FormatUnknown {
		return fmt.Errorf("invalid codec format: %q (must be aztec or datamatrix)", c.Format)
	}
	if c.AztecECCPercent < 0 || c.AztecECCPercent > 90 {
		return fmt.Errorf("invalid aztec ecc percent: %d (must be between 0 and 90)", c.AztecECCPercent)
	}
	if c.AztecLayers < -4 || c.AztecLayers > 32 {
		return fmt.Errorf("invalid aztec layers: %d (must be between -4 and 32)", c.AztecLayers)
	}
	if _, err := encoder.ParseShape(c.DataMatrixShape); err != nil {
		return fmt.Errorf("invalid datamatrix shape: %w", err)
	}
	if c.Charset != "" {
		if _, err := charset.Lookup(c.Charset); err != nil {
			return fmt.Errorf("invalid charset: %w", err)
		}
	}
	if c.MaxFrontierStates < 0 {
		return fmt.Errorf("invalid max frontier states: %d (must not be negative)", c.MaxFrontierStates)
	}
	if c.ModuleSize <= 0 {
		return fmt.Errorf("invalid module size: %d (must be positive)", c.ModuleSize)
	}
	if c.QuietZone < 0 {
		return fmt.Errorf("invalid quiet zone: %d (must not be negative)", c.QuietZone)
	}
	return nil
}

// EncodeOptions converts the codec section into facade options.
func (c *CodecConfig) EncodeOptions() (barcode.EncodeOptions, error) {
	format, err := barcode.ParseFormat(c.Format)
	if err != nil {
		return barcode.EncodeOptions{}, err
	}
	return barcode.EncodeOptions{
		Format:            format,
		ECCPercent:        c.AztecECCPercent,
		Layers:            c.AztecLayers,
		Shape:             c.DataMatrixShape,
		Charset:           c.Charset,
		MaxFrontierStates: c.MaxFrontierStates,
	}, nil
}

// RenderOptions converts the codec section into raster options.
func (c *CodecConfig) RenderOptions() barcode.RenderOptions {
	return barcode.RenderOptions{ModuleSize: c.ModuleSize, QuietZone: c.QuietZone}
}
