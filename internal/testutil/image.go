package testutil

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

// CreateTestImage creates a uniform image.
func CreateTestImage(width, height int, background color.Color) *image.NRGBA {
	return imaging.New(width, height, background)
}

// PlaceOnCanvas pastes img onto a white canvas at pos.
func PlaceOnCanvas(img image.Image, width, height int, pos image.Point) *image.NRGBA {
	return imaging.Paste(CreateTestImage(width, height, color.White), img, pos)
}

// AddNoise shifts every channel by a uniform offset in
// [-amplitude, amplitude]. The same seed gives the same image.
func AddNoise(img image.Image, amplitude int, seed uint64) *image.NRGBA {
	src := imaging.Clone(img)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := image.NewNRGBA(src.Bounds())
	for i := 0; i < len(src.Pix); i += 4 {
		for c := range 3 {
			v := int(src.Pix[i+c]) + rng.IntN(2*amplitude+1) - amplitude
			out.Pix[i+c] = uint8(min(max(v, 0), 255))
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// LowerContrast maps black and white to dark and light grey.
func LowerContrast(img image.Image, dark, light uint8) *image.NRGBA {
	src := imaging.Clone(img)
	scale := float64(light-dark) / 255
	for i := 0; i < len(src.Pix); i += 4 {
		for c := range 3 {
			src.Pix[i+c] = dark + uint8(math.Round(float64(src.Pix[i+c])*scale))
		}
	}
	return src
}

// CompareImages reports whether the mean per-pixel colour distance of
// two equally sized images is within tolerance (0..1).
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	bounds1 := img1.Bounds()
	bounds2 := img2.Bounds()
	if bounds1.Size() != bounds2.Size() {
		return false
	}

	var totalDiff, pixelCount float64
	for y := range bounds1.Dy() {
		for x := range bounds1.Dx() {
			r1, g1, b1, a1 := img1.At(bounds1.Min.X+x, bounds1.Min.Y+y).RGBA()
			r2, g2, b2, a2 := img2.At(bounds2.Min.X+x, bounds2.Min.Y+y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return true
	}

	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return totalDiff/pixelCount/maxDiff <= tolerance
}
