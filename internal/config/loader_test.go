package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())
}

func TestLoad_NoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Codec, cfg.Codec)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_SearchPathFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeFile(t, filepath.Join(dir, "pocode.yaml"), `
log_level: debug
codec:
  format: datamatrix
  datamatrix_shape: rectangle
`)

	loader := newTestLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "datamatrix", cfg.Codec.Format)
	assert.Equal(t, "rectangle", cfg.Codec.DataMatrixShape)
	assert.Equal(t, 33, cfg.Codec.AztecECCPercent)
	assert.Contains(t, loader.GetConfigFileUsed(), "pocode.yaml")
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
server:
  port: 9090
  rate_limit:
    enabled: true
    requests_per_minute: 5
batch:
  workers: 3
  include: ["*.txt", "*.bin"]
`)

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Server.RateLimit.RequestsPerMinute)
	assert.Equal(t, 3000, cfg.Server.RateLimit.RequestsPerHour)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, []string{"*.txt", "*.bin"}, cfg.Batch.Include)
}

func TestLoadWithFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := newTestLoader().LoadWithFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "codec: [unterminated\n")
	_, err = newTestLoader().LoadWithFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "codec:\n  format: qr\n")
	_, err = newTestLoader().LoadWithFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWithoutValidation(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeFile(t, filepath.Join(dir, "pocode.yaml"), "log_level: loud\n")

	_, err := newTestLoader().Load()
	require.Error(t, err)

	cfg, err := newTestLoader().LoadWithoutValidation()
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.LogLevel)
}

func TestEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("POCODE_LOG_LEVEL", "warn")
	t.Setenv("POCODE_CODEC_FORMAT", "datamatrix")
	t.Setenv("POCODE_SERVER_PORT", "7070")
	t.Setenv("POCODE_SERVER_RATE_LIMIT_ENABLED", "true")
	t.Setenv("POCODE_BATCH_CONTINUE_ON_ERROR", "true")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "datamatrix", cfg.Codec.Format)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.True(t, cfg.Batch.ContinueOnError)
}

func TestPrecedence_FlagOverEnvOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pocode.yaml")
	writeFile(t, path, "codec:\n  aztec_ecc_percent: 40\n  aztec_layers: 5\n  module_size: 6\n")
	t.Setenv("POCODE_CODEC_AZTEC_ECC_PERCENT", "50")
	t.Setenv("POCODE_CODEC_AZTEC_LAYERS", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("ecc", 33, "")
	require.NoError(t, flags.Parse([]string{"--ecc=60"}))

	loader := newTestLoader()
	require.NoError(t, loader.BindFlags(flags, map[string]string{"codec.aztec_ecc_percent": "ecc"}))

	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Codec.AztecECCPercent)
	assert.Equal(t, 7, cfg.Codec.AztecLayers)
	assert.Equal(t, 6, cfg.Codec.ModuleSize)
}

func TestBindFlag_Undefined(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := newTestLoader().BindFlags(flags, map[string]string{"codec.format": "format"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec.format")
}

func TestCurrent_SeesLateChanges(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	loader := newTestLoader()
	_, err := loader.Load()
	require.NoError(t, err)

	loader.Set("output.format", "json")
	assert.Equal(t, "json", loader.GetString("output.format"))
	assert.Equal(t, "json", loader.Get("output.format"))

	cfg, err := loader.Current()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Contains(t, loader.GetResolvedConfig(), "codec")
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)

	loaded, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Codec, loaded.Codec)
}

func TestGenerateDefaultConfigFile_EmptyName(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, GenerateDefaultConfigFile(""))
	assert.FileExists(t, filepath.Join(dir, "pocode.yaml"))
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, []string{".", filepath.Join("/xdg", "pocode"), "/etc/pocode"}, paths)
}
