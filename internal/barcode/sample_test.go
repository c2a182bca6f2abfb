package barcode

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderText(t *testing.T, text string, opts EncodeOptions) *image.NRGBA {
	t.Helper()
	symbol, err := EncodeText(context.Background(), text, opts)
	require.NoError(t, err)
	img, err := Render(symbol.Matrix, RenderOptions{})
	require.NoError(t, err)
	return img
}

func TestPureBackend_RenderedSymbols(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts EncodeOptions
	}{
		{"aztec compact", "Hello, Aztec!", EncodeOptions{Format: FormatAztec}},
		{"aztec full", "The quick brown fox jumps over the lazy dog", EncodeOptions{Format: FormatAztec, Layers: 5}},
		{"datamatrix square", "Hello, World!", EncodeOptions{Format: FormatDataMatrix}},
		{"datamatrix rectangle", "ABC", EncodeOptions{Format: FormatDataMatrix, Shape: "rectangle"}},
	}
	b := &pureBackend{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := renderText(t, tt.text, tt.opts)
			results, err := b.Decode(context.Background(), img, ImageOptions{})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.text, results[0].Text)
			assert.Equal(t, tt.opts.Format, results[0].Format)
			assert.Equal(t, "pure", results[0].Backend)
			assert.Zero(t, results[0].ErrorsCorrected)
		})
	}
}

func TestPureBackend_BoundingBox(t *testing.T) {
	symbol := renderText(t, "123456", EncodeOptions{Format: FormatDataMatrix})
	canvas := imaging.New(200, 150, color.White)
	canvas = imaging.Paste(canvas, symbol, image.Pt(30, 40))

	results, err := (&pureBackend{}).Decode(context.Background(), canvas, ImageOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "123456", results[0].Text)
	// 10x10 modules of 4 px behind a 2 module quiet zone
	assert.Equal(t, image.Rect(38, 48, 78, 88), results[0].BBox)
}

func TestPureBackend_ROI(t *testing.T) {
	symbol := renderText(t, "ROI", EncodeOptions{Format: FormatDataMatrix})
	canvas := imaging.New(300, 100, color.White)
	canvas = imaging.Paste(canvas, symbol, image.Pt(200, 10))
	// a dark bar outside the ROI would spoil the bounding box
	bar := imaging.New(20, 80, color.Black)
	canvas = imaging.Paste(canvas, bar, image.Pt(10, 10))

	b := &pureBackend{}
	_, err := b.Decode(context.Background(), canvas, ImageOptions{})
	require.ErrorIs(t, err, common.ErrNotFound)

	sub := canvas.SubImage(image.Rect(150, 0, 300, 100))
	results, err := b.Decode(context.Background(), sub, ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ROI", results[0].Text)

	results, err = b.Decode(context.Background(), canvas, ImageOptions{ROI: image.Rect(150, 0, 300, 100)})
	require.NoError(t, err)
	assert.Equal(t, "ROI", results[0].Text)
	assert.GreaterOrEqual(t, results[0].BBox.Min.X, 200)
}

func TestPureBackend_FormatFilter(t *testing.T) {
	img := renderText(t, "only dm", EncodeOptions{Format: FormatDataMatrix})
	b := &pureBackend{}

	_, err := b.Decode(context.Background(), img, ImageOptions{Formats: []Format{FormatAztec}})
	require.ErrorIs(t, err, common.ErrNotFound)

	results, err := b.Decode(context.Background(), img, ImageOptions{Formats: []Format{FormatDataMatrix}})
	require.NoError(t, err)
	assert.Equal(t, "only dm", results[0].Text)
}

func TestPureBackend_TryHarderRotation(t *testing.T) {
	img := imaging.Rotate90(renderText(t, "Rotated", EncodeOptions{Format: FormatDataMatrix}))
	b := &pureBackend{}

	_, err := b.Decode(context.Background(), img, ImageOptions{Formats: []Format{FormatDataMatrix}})
	require.ErrorIs(t, err, common.ErrNotFound)

	results, err := b.Decode(context.Background(), img, ImageOptions{TryHarder: true})
	require.NoError(t, err)
	assert.Equal(t, "Rotated", results[0].Text)
}

func TestPureBackend_DegradedImages(t *testing.T) {
	symbol := renderText(t, "degraded", EncodeOptions{Format: FormatAztec})
	tests := []struct {
		name string
		img  image.Image
	}{
		{name: "noise", img: testutil.AddNoise(symbol, 40, 1)},
		{name: "low contrast", img: testutil.LowerContrast(symbol, 60, 200)},
		{name: "low contrast with noise", img: testutil.AddNoise(testutil.LowerContrast(symbol, 60, 200), 30, 7)},
		{name: "placed on canvas", img: testutil.PlaceOnCanvas(symbol, 240, 180, image.Pt(70, 50))},
	}

	b := &pureBackend{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := b.Decode(context.Background(), tt.img, ImageOptions{})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "degraded", results[0].Text)
		})
	}
}

func TestPureBackend_NoSymbol(t *testing.T) {
	b := &pureBackend{}

	blank := imaging.New(64, 64, color.White)
	_, err := b.Decode(context.Background(), blank, ImageOptions{})
	require.ErrorIs(t, err, common.ErrNotFound)

	noise := imaging.New(64, 64, color.White)
	noise = imaging.Paste(noise, imaging.New(10, 30, color.Black), image.Pt(5, 5))
	_, err = b.Decode(context.Background(), noise, ImageOptions{})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPureBackend_Canceled(t *testing.T) {
	img := renderText(t, "cancel", EncodeOptions{Format: FormatDataMatrix})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&pureBackend{}).Decode(ctx, img, ImageOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend()
	require.NoError(t, err)
	assert.NotEmpty(t, b.Name())

	results, err := b.Decode(context.Background(), renderText(t, "backend", EncodeOptions{Format: FormatDataMatrix}), ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "backend", results[0].Text)
}
