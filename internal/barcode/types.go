package barcode

import (
	"context"
	"image"
)

// ImageOptions controls image decoding.
type ImageOptions struct {
	// Formats constrains the symbologies searched; empty means all.
	Formats []Format

	// TryHarder enables a more exhaustive search.
	TryHarder bool

	// ROI optionally restricts decoding to a sub-rectangle of the image.
	// Backends ignore it when it is empty or outside the image.
	ROI image.Rectangle
}

// ImageResult is a symbol found in an image.
type ImageResult struct {
	Format Format          `json:"format" yaml:"format"`
	Text   string          `json:"text" yaml:"text"`
	BBox   image.Rectangle `json:"bbox" yaml:"bbox"`
	// ErrorsCorrected is -1 when the backend does not report it.
	ErrorsCorrected int    `json:"errors_corrected" yaml:"errors_corrected"`
	Backend         string `json:"backend" yaml:"backend"`
}

// Backend decodes symbols from images.
type Backend interface {
	Name() string
	Decode(ctx context.Context, img image.Image, opts ImageOptions) ([]ImageResult, error)
}

// NewBackend returns the backend selected at build time.
func NewBackend() (Backend, error) { return newDefaultBackend() }

func formatsOrAll(formats []Format) []Format {
	if len(formats) == 0 {
		return []Format{FormatAztec, FormatDataMatrix}
	}
	return formats
}

// subImage restricts img to r when r overlaps it.
func subImage(img image.Image, r image.Rectangle) image.Image {
	if r.Empty() {
		return img
	}
	rb := r.Intersect(img.Bounds())
	if rb.Empty() {
		return img
	}
	type subImager interface{ SubImage(r image.Rectangle) image.Image }
	if s, ok := img.(subImager); ok {
		return s.SubImage(rb)
	}
	return img
}
