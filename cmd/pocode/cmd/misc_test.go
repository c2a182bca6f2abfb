package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/MeKo-Tech/pocode/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatsCommand(t *testing.T) {
	out, _, err := executeCommand(t, "", "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "aztec")
	assert.Contains(t, out, "datamatrix")

	out, _, err = executeCommand(t, "", "formats", "--output-format", "json")
	require.NoError(t, err)
	var formats []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &formats))
	assert.Len(t, formats, 2)

	_, _, err = executeCommand(t, "", "formats", "--output-format", "xml")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pocode "+version.Version)
	assert.Contains(t, out, "Commit:")

	out, _, err = executeCommand(t, "", "version", "--output-format", "json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestBenchCommand(t *testing.T) {
	out, _, err := executeCommand(t, "", "bench", "-n", "2", "--payload", "bench")
	require.NoError(t, err)
	assert.Contains(t, out, "payload: 5 bytes, 2 iterations")
	assert.Contains(t, out, "aztec/encode: 2 iterations")
	assert.Contains(t, out, "aztec/decode: 2 iterations")
	assert.Contains(t, out, "datamatrix/encode: 2 iterations")
	assert.Contains(t, out, "datamatrix/decode: 2 iterations")

	out, _, err = executeCommand(t, "", "bench", "-n", "1", "--format", "dm", "--repeat", "3")
	require.NoError(t, err)
	assert.NotContains(t, out, "aztec/")
	assert.Contains(t, out, "datamatrix/encode")

	_, _, err = executeCommand(t, "", "bench", "--repeat", "0")
	require.Error(t, err)
	_, _, err = executeCommand(t, "", "bench", "-n", "0", "--format", "aztec")
	require.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pocode.yaml")

	out, _, err := executeCommand(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.DefaultConfig().Codec, cfg.Codec)

	_, _, err = executeCommand(t, "", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCommand(t, "", "config", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigFileDrivesCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	cfg := config.DefaultConfig()
	cfg.Codec.Format = "datamatrix"
	cfg.Output.Format = "json"
	require.NoError(t, config.WriteConfig(cfg, path))

	out, _, err := executeCommand(t, "", "--config", path, "encode", "123456")
	require.NoError(t, err)
	var sym symbolOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sym))
	assert.Equal(t, "datamatrix", sym.Format)

	// flags beat the file
	out, _, err = executeCommand(t, "", "--config", path, "encode", "--format", "aztec", "--output-format", "text", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "X ")
	assert.NotContains(t, out, "{")
}

func TestEnvironmentDrivesCommands(t *testing.T) {
	t.Setenv("POCODE_CODEC_FORMAT", "datamatrix")
	t.Setenv("POCODE_OUTPUT_FORMAT", "yaml")

	out, _, err := executeCommand(t, "", "encode", "env")
	require.NoError(t, err)
	var sym symbolOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &sym))
	assert.Equal(t, "datamatrix", sym.Format)
}

func TestConfigShow(t *testing.T) {
	out, _, err := executeCommand(t, "", "config", "show", "--output-format", "json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "aztec", cfg.Codec.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}
