//go:build barcode_gozxing

package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/pocode/internal/common"
	gozxing "github.com/makiuchi-d/gozxing"
	zxingaztec "github.com/makiuchi-d/gozxing/aztec"
	zxingdatamatrix "github.com/makiuchi-d/gozxing/datamatrix"
)

// newDefaultBackend returns the gozxing-backed implementation when the
// build tag is enabled. Images gozxing cannot locate fall back to the
// pure sampler.
func newDefaultBackend() (Backend, error) {
	return &gozxingBackend{fallback: &pureBackend{}}, nil
}

type gozxingBackend struct {
	fallback Backend
}

func (*gozxingBackend) Name() string { return "gozxing" }

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image, opts ImageOptions) ([]ImageResult, error) {
	img = subImage(img, opts.ROI)
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	for _, f := range formatsOrAll(opts.Formats) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reader, ok := readerFor(f)
		if !ok {
			continue
		}
		r, err := reader.Decode(bitmap, hints)
		if err != nil {
			continue
		}
		return []ImageResult{{
			Format:          f,
			Text:            r.GetText(),
			BBox:            rectFromPoints(r.GetResultPoints()).Add(img.Bounds().Min),
			ErrorsCorrected: -1,
			Backend:         b.Name(),
		}}, nil
	}
	results, err := b.fallback.Decode(ctx, img, opts)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: gozxing and pure sampler found nothing", common.ErrNotFound)
	}
	return results, nil
}

func readerFor(f Format) (gozxing.Reader, bool) {
	switch f {
	case FormatAztec:
		return zxingaztec.NewAztecReader(), true
	case FormatDataMatrix:
		return zxingdatamatrix.NewDataMatrixReader(), true
	default:
		return nil, false
	}
}

func rectFromPoints(pts []gozxing.ResultPoint) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.GetX())
		minY = math.Min(minY, p.GetY())
		maxX = math.Max(maxX, p.GetX())
		maxY = math.Max(maxY, p.GetY())
	}
	return image.Rect(int(minX), int(minY), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}
