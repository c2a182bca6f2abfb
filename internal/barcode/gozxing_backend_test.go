//go:build barcode_gozxing

package barcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGozxingBackend_ReadsOurSymbols(t *testing.T) {
	b, err := NewBackend()
	require.NoError(t, err)
	assert.Equal(t, "gozxing", b.Name())

	for _, opts := range []EncodeOptions{
		{Format: FormatAztec},
		{Format: FormatDataMatrix},
	} {
		img := renderText(t, "cross-check 0123", opts)
		results, err := b.Decode(context.Background(), img, ImageOptions{Formats: []Format{opts.Format}, TryHarder: true})
		require.NoError(t, err, opts.Format)
		require.Len(t, results, 1)
		assert.Equal(t, "cross-check 0123", results[0].Text, opts.Format)
	}
}
