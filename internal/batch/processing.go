package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
)

// imageExtensions are decoded through the image backend instead of being
// parsed as text matrices.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// FileResult is the outcome for one input file.
type FileResult struct {
	File            string        `json:"file" yaml:"file"`
	Success         bool          `json:"success" yaml:"success"`
	Format          string        `json:"format,omitempty" yaml:"format,omitempty"`
	Text            string        `json:"text,omitempty" yaml:"text,omitempty"`
	ErrorsCorrected int           `json:"errors_corrected,omitempty" yaml:"errors_corrected,omitempty"`
	Width           int           `json:"width,omitempty" yaml:"width,omitempty"`
	Height          int           `json:"height,omitempty" yaml:"height,omitempty"`
	Codewords       int           `json:"codewords,omitempty" yaml:"codewords,omitempty"`
	Output          string        `json:"output,omitempty" yaml:"output,omitempty"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration        time.Duration `json:"duration_ns" yaml:"duration"`
}

// processor handles single files for one batch run.
type processor struct {
	cfg     *Config
	backend barcode.Backend
}

func newProcessor(cfg *Config) (*processor, error) {
	p := &processor{cfg: cfg}
	if cfg.Mode == ModeDecode {
		backend, err := barcode.NewBackend()
		if err != nil {
			return nil, fmt.Errorf("create image backend: %w", err)
		}
		p.backend = backend
	}
	return p, nil
}

// processFile never returns a nil result; a failure is recorded in it
// and also returned.
func (p *processor) processFile(ctx context.Context, path string) (*FileResult, error) {
	start := time.Now()
	res := &FileResult{File: path}
	var err error
	switch p.cfg.Mode {
	case ModeEncode:
		err = p.encodeFile(ctx, path, res)
	default:
		err = p.decodeFile(ctx, path, res)
	}
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Success = true
	return res, nil
}

func (p *processor) encodeFile(ctx context.Context, path string, res *FileResult) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: batch inputs are user-selected files
	if err != nil {
		return err
	}
	symbol, err := barcode.Encode(ctx, data, p.cfg.Encode)
	if err != nil {
		return err
	}
	res.Format = symbol.Format.String()
	res.Width, res.Height, res.Codewords = symbol.Width, symbol.Height, symbol.Codewords
	if p.cfg.OutputDir == "" {
		return nil
	}
	img, err := barcode.Render(symbol.Matrix, p.cfg.Render)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Base(path)
	out := filepath.Join(p.cfg.OutputDir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
	if err := barcode.SaveImage(img, out); err != nil {
		return err
	}
	res.Output = out
	return nil
}

func (p *processor) decodeFile(ctx context.Context, path string, res *FileResult) error {
	if imageExtensions[strings.ToLower(filepath.Ext(path))] {
		return p.decodeImage(ctx, path, res)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: batch inputs are user-selected files
	if err != nil {
		return err
	}
	matrix, err := bitutil.ParseBitMatrix(string(data), p.cfg.SetString, p.cfg.UnsetString)
	if err != nil {
		return err
	}
	result, err := barcode.Decode(ctx, matrix, p.cfg.DecodeFormat)
	if err != nil {
		return err
	}
	res.Format = result.Format.String()
	res.Text = result.Text
	res.ErrorsCorrected = result.ErrorsCorrected
	res.Width, res.Height = matrix.Width(), matrix.Height()
	return nil
}

func (p *processor) decodeImage(ctx context.Context, path string, res *FileResult) error {
	img, err := barcode.LoadImage(path)
	if err != nil {
		return err
	}
	opts := barcode.ImageOptions{TryHarder: p.cfg.TryHarder}
	if p.cfg.DecodeFormat != barcode.FormatUnknown {
		opts.Formats = []barcode.Format{p.cfg.DecodeFormat}
	}
	results, err := p.backend.Decode(ctx, img, opts)
	if err != nil {
		return err
	}
	first := results[0]
	res.Format = first.Format.String()
	res.Text = first.Text
	res.ErrorsCorrected = max(first.ErrorsCorrected, 0)
	res.Width, res.Height = first.BBox.Dx(), first.BBox.Dy()
	return nil
}
