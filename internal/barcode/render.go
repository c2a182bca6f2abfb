package barcode

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/disintegration/imaging"
)

// Default rendering parameters.
const (
	DefaultModuleSize = 4
	DefaultQuietZone  = 2
)

// RenderOptions control the raster output of a symbol.
type RenderOptions struct {
	// ModuleSize is the edge length of one module in pixels.
	ModuleSize int
	// QuietZone is the blank margin in modules.
	QuietZone int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.ModuleSize == 0 {
		o.ModuleSize = DefaultModuleSize
	}
	if o.QuietZone == 0 {
		o.QuietZone = DefaultQuietZone
	}
	return o
}

// Render draws a matrix black on white. Negative options are rejected.
func Render(matrix *bitutil.BitMatrix, opts RenderOptions) (*image.NRGBA, error) {
	opts = opts.withDefaults()
	if opts.ModuleSize < 1 || opts.QuietZone < 0 {
		return nil, fmt.Errorf("%w: module size %d, quiet zone %d", common.ErrArgument, opts.ModuleSize, opts.QuietZone)
	}
	w, h := matrix.Width(), matrix.Height()
	modules := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.Gray{Y: 0xFF}
			if matrix.Get(x, y) {
				c = color.Gray{Y: 0}
			}
			modules.SetGray(x, y, c)
		}
	}
	scaled := imaging.Resize(modules, w*opts.ModuleSize, h*opts.ModuleSize, imaging.NearestNeighbor)
	margin := 2 * opts.QuietZone * opts.ModuleSize
	canvas := imaging.New(scaled.Bounds().Dx()+margin, scaled.Bounds().Dy()+margin, color.White)
	return imaging.PasteCenter(canvas, scaled), nil
}

// ImageFormat is a raster file format for rendered symbols.
type ImageFormat = imaging.Format

// ImageFormatFromFilename picks the raster format from a file extension.
func ImageFormatFromFilename(name string) (ImageFormat, error) {
	f, err := imaging.FormatFromFilename(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrArgument, err)
	}
	return f, nil
}

// WriteImage encodes img to w.
func WriteImage(w io.Writer, img image.Image, format ImageFormat) error {
	return imaging.Encode(w, img, format)
}

// SaveImage writes img to path, choosing the format from the extension.
func SaveImage(img image.Image, path string) error {
	return imaging.Save(img, path)
}
