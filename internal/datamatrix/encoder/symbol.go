package encoder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/datamatrix"
)

// Shape restricts the symbol sizes considered.
type Shape int

const (
	// ShapeSquare uses the 24 square sizes.
	ShapeSquare Shape = iota
	// ShapeRectangle uses the 6 rectangular sizes.
	ShapeRectangle
	// ShapeAny picks the smallest size of either kind.
	ShapeAny
)

var shapeNames = map[Shape]string{
	ShapeSquare:    "square",
	ShapeRectangle: "rectangle",
	ShapeAny:       "any",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape accepts the names printed by Shape.String.
func ParseShape(name string) (Shape, error) {
	for s, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	if name == "" {
		return ShapeSquare, nil
	}
	return 0, fmt.Errorf("%w: unknown symbol shape %q", common.ErrArgument, name)
}

// candidates lists the versions allowed by shape, smallest capacity
// first; equal capacities prefer the smaller area.
func candidates(shape Shape) []*datamatrix.Version {
	var out []*datamatrix.Version
	for _, v := range datamatrix.Versions() {
		if shape == ShapeAny || (shape == ShapeSquare) == v.Square() {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b *datamatrix.Version) int {
		if a.DataCodewords() != b.DataCodewords() {
			return a.DataCodewords() - b.DataCodewords()
		}
		return a.Rows*a.Cols - b.Rows*b.Cols
	})
	return out
}

// selectVersion returns the smallest version of the shape that holds
// dataCodewords.
func selectVersion(dataCodewords int, shape Shape) (*datamatrix.Version, error) {
	if shape < ShapeSquare || shape > ShapeAny {
		return nil, fmt.Errorf("%w: unknown symbol shape %d", common.ErrArgument, shape)
	}
	for _, v := range candidates(shape) {
		if v.DataCodewords() >= dataCodewords {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %d data codewords do not fit a %s symbol", common.ErrArgument, dataCodewords, shape)
}
