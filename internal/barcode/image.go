package barcode

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// WebP input for decode --image.
	_ "golang.org/x/image/webp"
)

// LoadImage reads PNG, JPEG, GIF, BMP, TIFF or WebP, applying the EXIF
// orientation of JPEG files.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return img, nil
}

// ReadImage decodes an image from r.
func ReadImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
