package testutil

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/stretchr/testify/require"
)

// Module strings used by the fixture matrices.
const (
	FixtureSet   = "X "
	FixtureUnset = "  "
)

// SymbolFixture is a golden symbol produced by an independent encoder.
type SymbolFixture struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Format      string   `json:"format"`
	Text        string   `json:"text"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Matrix      []string `json:"matrix"`
}

// BitMatrix parses the fixture matrix.
func (f SymbolFixture) BitMatrix(t *testing.T) *bitutil.BitMatrix {
	t.Helper()

	m, err := bitutil.ParseBitMatrix(strings.Join(f.Matrix, "\n"), FixtureSet, FixtureUnset)
	require.NoError(t, err, "fixture %s", f.Name)
	return m
}

// LoadSymbolFixtures reads testdata/fixtures/symbols.json.
func LoadSymbolFixtures(t *testing.T) []SymbolFixture {
	t.Helper()

	path := filepath.Join(GetFixturesDir(t), "symbols.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixture path is fixed
	require.NoError(t, err, "Failed to read fixture file: %s", path)

	var fixtures []SymbolFixture
	require.NoError(t, json.Unmarshal(data, &fixtures), "Failed to unmarshal fixture JSON")
	for _, f := range fixtures {
		ValidateFixture(t, f)
	}
	return fixtures
}

// FixturesFor returns the fixtures of one format.
func FixturesFor(t *testing.T, format string) []SymbolFixture {
	t.Helper()

	var out []SymbolFixture
	for _, f := range LoadSymbolFixtures(t) {
		if f.Format == format {
			out = append(out, f)
		}
	}
	require.NotEmpty(t, out, "no fixtures for format %s", format)
	return out
}

// ValidateFixture checks that the fixture is self-consistent.
func ValidateFixture(t *testing.T, f SymbolFixture) {
	t.Helper()

	require.NotEmpty(t, f.Name, "fixture name should not be empty")
	require.NotEmpty(t, f.Format, "fixture %s: format should not be empty", f.Name)
	require.Len(t, f.Matrix, f.Height, "fixture %s: row count", f.Name)
	for i, row := range f.Matrix {
		require.Len(t, row, f.Width*len(FixtureSet), "fixture %s: row %d length", f.Name, i)
	}
}

// FlipModules inverts the given modules of m in place.
func FlipModules(m *bitutil.BitMatrix, points ...image.Point) {
	for _, p := range points {
		m.Flip(p.X, p.Y)
	}
}
