package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
}

func writeMatrix(t *testing.T, dir, name, text string, format barcode.Format) {
	t.Helper()
	symbol, err := barcode.EncodeText(context.Background(), text, barcode.EncodeOptions{Format: format})
	require.NoError(t, err)
	writeInputs(t, dir, map[string]string{name: symbol.Matrix.String()})
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := []func(*Config){
		func(c *Config) { c.Mode = "print" },
		func(c *Config) { c.Workers = 0 },
		func(c *Config) { c.UnsetString = "" },
		func(c *Config) { c.Mode = ModeEncode; c.Encode.Format = barcode.FormatUnknown },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), common.ErrArgument, "case %d", i)
	}
}

func TestProcess_Encode(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeInputs(t, in, map[string]string{
		"one.txt":   "first payload",
		"two.txt":   "second payload",
		"three.bin": "\x00\x01\x02\xff",
	})

	cfg := DefaultConfig()
	cfg.Mode = ModeEncode
	cfg.Encode = barcode.EncodeOptions{Format: barcode.FormatDataMatrix}
	cfg.OutputDir = out
	cfg.Workers = 2

	res, err := Process(context.Background(), []string{in}, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	for _, r := range res.Results {
		require.True(t, r.Success, r.Error)
		assert.Equal(t, "datamatrix", r.Format)
		assert.FileExists(t, r.Output)
		assert.Positive(t, r.Width)
	}

	s := res.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 3, s.Succeeded)
	assert.Zero(t, s.Failed)

	// the rendered PNGs decode back through the image path
	dcfg := DefaultConfig()
	dcfg.IncludePatterns = []string{"*.png"}
	decoded, err := Process(context.Background(), []string{out}, &dcfg)
	require.NoError(t, err)
	texts := map[string]string{}
	for _, r := range decoded.Results {
		require.True(t, r.Success, r.Error)
		texts[filepath.Base(r.File)] = r.Text
	}
	assert.Equal(t, "first payload", texts["one.png"])
	assert.Equal(t, "second payload", texts["two.png"])
	assert.Equal(t, "\x00\x01\x02ÿ", texts["three.png"])
}

func TestProcess_DecodeMatrices(t *testing.T) {
	dir := t.TempDir()
	writeMatrix(t, dir, "aztec.txt", "Aztec in a batch", barcode.FormatAztec)
	writeMatrix(t, dir, "dm.txt", "Data Matrix in a batch", barcode.FormatDataMatrix)

	cfg := DefaultConfig()
	res, err := Process(context.Background(), []string{dir}, &cfg)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "aztec", res.Results[0].Format)
	assert.Equal(t, "Aztec in a batch", res.Results[0].Text)
	assert.Equal(t, "datamatrix", res.Results[1].Format)
	assert.Equal(t, "Data Matrix in a batch", res.Results[1].Text)
}

func TestProcess_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeMatrix(t, dir, "good.txt", "good", barcode.FormatDataMatrix)
	writeInputs(t, dir, map[string]string{"bad.txt": "not a matrix\n"})

	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.ContinueOnError = true
	res, err := Process(context.Background(), []string{dir}, &cfg)
	require.NoError(t, err)

	s := res.Summary()
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, res.Results[0].Success)
	assert.NotEmpty(t, res.Results[0].Error)
	assert.True(t, res.Results[1].Success)
}

func TestProcess_StopsOnError(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir, map[string]string{"a.txt": "garbage"})
	writeMatrix(t, dir, "b.txt", "never mind", barcode.FormatDataMatrix)

	cfg := DefaultConfig()
	cfg.Workers = 1
	res, err := Process(context.Background(), []string{dir}, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.txt")
	require.NotNil(t, res)
	assert.False(t, res.Results[0].Success)
}

func TestProcess_Errors(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Process(context.Background(), []string{t.TempDir()}, &cfg)
	require.ErrorIs(t, err, ErrNoFiles)

	cfg.Workers = -1
	_, err = Process(context.Background(), []string{t.TempDir()}, &cfg)
	require.ErrorIs(t, err, common.ErrArgument)

	dir := t.TempDir()
	writeMatrix(t, dir, "x.txt", "x", barcode.FormatAztec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg = DefaultConfig()
	_, err = Process(ctx, []string{dir}, &cfg)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResult_PrintStats(t *testing.T) {
	dir := t.TempDir()
	writeMatrix(t, dir, "x.txt", "stats", barcode.FormatAztec)
	cfg := DefaultConfig()
	res, err := Process(context.Background(), []string{dir}, &cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	res.PrintStats(&buf)
	assert.Contains(t, buf.String(), "Total files: 1")
	assert.Contains(t, buf.String(), "Succeeded: 1")
	assert.NotContains(t, buf.String(), "Skipped")
}
