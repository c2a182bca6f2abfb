//nolint:lll
package config

// Config is the complete configuration of the pocode CLI and server. It
// is loaded from a config file, POCODE_* environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Codec defaults for encode and decode
	Codec CodecConfig `mapstructure:"codec" yaml:"codec" json:"codec"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// CodecConfig holds symbol defaults.
type CodecConfig struct {
	Format            string `mapstructure:"format" yaml:"format" json:"format"`
	AztecECCPercent   int    `mapstructure:"aztec_ecc_percent" yaml:"aztec_ecc_percent" json:"aztec_ecc_percent"`
	AztecLayers       int    `mapstructure:"aztec_layers" yaml:"aztec_layers" json:"aztec_layers"`
	DataMatrixShape   string `mapstructure:"datamatrix_shape" yaml:"datamatrix_shape" json:"datamatrix_shape"`
	Charset           string `mapstructure:"charset" yaml:"charset" json:"charset"`
	MaxFrontierStates int    `mapstructure:"max_frontier_states" yaml:"max_frontier_states" json:"max_frontier_states"`
	ModuleSize        int    `mapstructure:"module_size" yaml:"module_size" json:"module_size"`
	QuietZone         int    `mapstructure:"quiet_zone" yaml:"quiet_zone" json:"quiet_zone"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
	SetString   string `mapstructure:"set_string" yaml:"set_string" json:"set_string"`
	UnsetString string `mapstructure:"unset_string" yaml:"unset_string" json:"unset_string"`
	File        string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBatchItems   int             `mapstructure:"max_batch_items" yaml:"max_batch_items" json:"max_batch_items"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include,omitempty" json:"include,omitempty"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude,omitempty" json:"exclude,omitempty"`
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}
