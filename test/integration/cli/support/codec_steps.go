package support

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/testutil"
	"github.com/cucumber/godog"
)

func loadFixture(name string) (testutil.SymbolFixture, error) {
	root, err := testutil.GetProjectRoot()
	if err != nil {
		return testutil.SymbolFixture{}, fmt.Errorf("failed to find project root: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "testdata", "fixtures", "symbols.json"))
	if err != nil {
		return testutil.SymbolFixture{}, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var fixtures []testutil.SymbolFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return testutil.SymbolFixture{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	for _, f := range fixtures {
		if f.Name == name {
			return f, nil
		}
	}
	return testutil.SymbolFixture{}, fmt.Errorf("fixture %q not found", name)
}

// theGoldenFixtureSavedAs writes a fixture matrix as a text file.
func (testCtx *TestContext) theGoldenFixtureSavedAs(name, filename string) error {
	f, err := loadFixture(name)
	if err != nil {
		return err
	}
	return os.WriteFile(testCtx.path(filename), []byte(strings.Join(f.Matrix, "\n")+"\n"), 0o600)
}

// aSymbolSavedAs encodes text and writes it as a text matrix, or as an
// image when the file name has an image extension.
func (testCtx *TestContext) aSymbolSavedAs(format, text, filename string) error {
	f, err := barcode.ParseFormat(format)
	if err != nil {
		return err
	}
	symbol, err := barcode.EncodeText(context.Background(), text, barcode.EncodeOptions{Format: f})
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", text, err)
	}
	path := testCtx.path(filename)
	if _, err := barcode.ImageFormatFromFilename(filename); err == nil {
		img, err := barcode.Render(symbol.Matrix, barcode.RenderOptions{})
		if err != nil {
			return err
		}
		return barcode.SaveImage(img, path)
	}
	return os.WriteFile(path, []byte(symbol.Matrix.String()), 0o600)
}

// iFlipTheModuleAt inverts one module of a text matrix file.
func (testCtx *TestContext) iFlipTheModuleAt(xs, ys, filename string) error {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return err
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return err
	}
	path := testCtx.path(filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := bitutil.ParseBitMatrix(string(data), testutil.FixtureSet, testutil.FixtureUnset)
	if err != nil {
		return err
	}
	if x >= m.Width() || y >= m.Height() {
		return fmt.Errorf("module %d,%d outside %dx%d matrix", x, y, m.Width(), m.Height())
	}
	m.Flip(x, y)
	return os.WriteFile(path, []byte(m.String()), 0o600)
}

func (testCtx *TestContext) theOutputShouldBeTheTextOfFixture(name string) error {
	f, err := loadFixture(name)
	if err != nil {
		return err
	}
	return testCtx.theOutputShouldBe(f.Text)
}

// RegisterCodecSteps registers steps that prepare symbols.
func (testCtx *TestContext) RegisterCodecSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the golden fixture "([^"]*)" saved as "([^"]*)"$`, testCtx.theGoldenFixtureSavedAs)
	sc.Step(`^an? (aztec|datamatrix) symbol for "([^"]*)" saved as "([^"]*)"$`, testCtx.aSymbolSavedAs)
	sc.Step(`^I flip the module at (\d+),(\d+) in "([^"]*)"$`, testCtx.iFlipTheModuleAt)
	sc.Step(`^the output should be the text of fixture "([^"]*)"$`, testCtx.theOutputShouldBeTheTextOfFixture)
}
