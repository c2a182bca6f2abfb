package barcode

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/pocode/internal/aztec"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
	"github.com/disintegration/imaging"
)

// minContrast is the smallest luminance spread treated as a symbol.
const minContrast = 48

// maxEdgeSlack is how many all-light outer rows or columns a symbol may
// have. An Aztec symbol's data layers can leave its border light.
const maxEdgeSlack = 2

// pureBackend reads unrotated, axis-aligned renders such as the output
// of Render. It finds the dark bounding box and the module pitch, then
// samples module centres for every matching symbol size.
type pureBackend struct{}

func (*pureBackend) Name() string { return "pure" }

func (b *pureBackend) Decode(ctx context.Context, img image.Image, opts ImageOptions) ([]ImageResult, error) {
	img = subImage(img, opts.ROI)
	s, err := newSampler(img)
	if err != nil {
		return nil, err
	}
	for _, f := range formatsOrAll(opts.Formats) {
		for _, size := range gridSizes(f) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, origin := range s.origins(size) {
				matrix := s.sample(origin, size)
				result, err := decodeRotations(matrix, f, opts.TryHarder)
				if err != nil {
					continue
				}
				bbox := image.Rectangle{
					Min: origin,
					Max: origin.Add(image.Pt(int(float64(size.X)*s.pitch), int(float64(size.Y)*s.pitch))),
				}
				return []ImageResult{{
					Format:          f,
					Text:            result.Text,
					BBox:            bbox.Add(img.Bounds().Min),
					ErrorsCorrected: result.ErrorsCorrected,
					Backend:         b.Name(),
				}}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no symbol could be sampled", common.ErrNotFound)
}

// decodeRotations tries the matrix as sampled and, when tryHarder is
// set, in the other three orientations. Aztec finds its own orientation.
func decodeRotations(matrix *bitutil.BitMatrix, f Format, tryHarder bool) (*common.DecoderResult, error) {
	result, err := decodeFormat(matrix, f)
	if err == nil || !tryHarder || f == FormatAztec {
		return result, err
	}
	rotated := matrix.Clone()
	for range 3 {
		rotated.Rotate90()
		if result, err = decodeFormat(rotated, f); err == nil {
			return result, nil
		}
	}
	return nil, err
}

// gridSizes lists candidate module grids as (columns, rows).
func gridSizes(f Format) []image.Point {
	var sizes []image.Point
	switch f {
	case FormatAztec:
		for layers := 1; layers <= aztec.MaxLayersCompact; layers++ {
			n := aztec.SymbolSize(true, layers)
			sizes = append(sizes, image.Pt(n, n))
		}
		for layers := 1; layers <= aztec.MaxLayers; layers++ {
			n := aztec.SymbolSize(false, layers)
			sizes = append(sizes, image.Pt(n, n))
		}
	case FormatDataMatrix:
		for _, v := range datamatrix.Versions() {
			sizes = append(sizes, image.Pt(v.Cols, v.Rows))
		}
	}
	return sizes
}

type sampler struct {
	gray      *image.NRGBA
	threshold uint8
	box       image.Rectangle
	pitch     float64
}

// newSampler binarizes img at mid-range luminance. Coordinates are
// relative to the image's top-left corner.
func newSampler(img image.Image) (*sampler, error) {
	gray := imaging.Grayscale(img)
	s := &sampler{gray: gray}
	lo, hi := uint8(255), uint8(0)
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := gray.NRGBAAt(x, y).R
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if int(hi)-int(lo) < minContrast {
		return nil, fmt.Errorf("%w: image has no contrast", common.ErrNotFound)
	}
	s.threshold = lo + (hi-lo)/2
	s.box = image.Rectangle{Min: b.Max, Max: b.Min}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if s.dark(x, y) {
				s.box.Min.X = min(s.box.Min.X, x)
				s.box.Min.Y = min(s.box.Min.Y, y)
				s.box.Max.X = max(s.box.Max.X, x+1)
				s.box.Max.Y = max(s.box.Max.Y, y+1)
			}
		}
	}
	s.pitch = float64(s.shortestRun())
	if s.pitch < 1 {
		return nil, fmt.Errorf("%w: no modules found", common.ErrNotFound)
	}
	return s, nil
}

func (s *sampler) dark(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(s.gray.Bounds()) {
		return false
	}
	return s.gray.NRGBAAt(x, y).R < s.threshold
}

// shortestRun returns the shortest same-colour run inside the bounding
// box, scanning rows and columns. Every symbol has single-module runs in
// its finder pattern, so this is the module pitch of a clean render.
func (s *sampler) shortestRun() int {
	best := max(s.box.Dx(), s.box.Dy())
	for y := s.box.Min.Y; y < s.box.Max.Y; y++ {
		run := 1
		for x := s.box.Min.X + 1; x < s.box.Max.X; x++ {
			if s.dark(x, y) == s.dark(x-1, y) {
				run++
				continue
			}
			best = min(best, run)
			run = 1
		}
	}
	for x := s.box.Min.X; x < s.box.Max.X; x++ {
		run := 1
		for y := s.box.Min.Y + 1; y < s.box.Max.Y; y++ {
			if s.dark(x, y) == s.dark(x, y-1) {
				run++
				continue
			}
			best = min(best, run)
			run = 1
		}
	}
	return best
}

// origins returns the candidate top-left pixels of a grid of size
// modules. The dark box may be up to maxEdgeSlack modules short of the
// grid on any side.
func (s *sampler) origins(size image.Point) []image.Point {
	bw := math.Round(float64(s.box.Dx()) / s.pitch)
	bh := math.Round(float64(s.box.Dy()) / s.pitch)
	slackX, slackY := size.X-int(bw), size.Y-int(bh)
	if slackX < 0 || slackY < 0 || slackX > maxEdgeSlack || slackY > maxEdgeSlack {
		return nil
	}
	var out []image.Point
	for oy := 0; oy <= slackY; oy++ {
		for ox := 0; ox <= slackX; ox++ {
			out = append(out, image.Pt(
				s.box.Min.X-int(float64(ox)*s.pitch),
				s.box.Min.Y-int(float64(oy)*s.pitch),
			))
		}
	}
	return out
}

// sample reads the centre pixel of each module.
func (s *sampler) sample(origin, size image.Point) *bitutil.BitMatrix {
	matrix, _ := bitutil.NewBitMatrix(size.X, size.Y)
	for r := range size.Y {
		py := origin.Y + int((float64(r)+0.5)*s.pitch)
		for c := range size.X {
			px := origin.X + int((float64(c)+0.5)*s.pitch)
			if s.dark(px, py) {
				matrix.Set(c, r)
			}
		}
	}
	return matrix
}
