package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/MeKo-Tech/pocode/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration loader for the running command.
	configLoader *config.Loader
	// Configuration resolved before the command ran.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// NewRootCommand builds the command tree. Each call returns an
// independent tree with fresh flag state.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pocode",
		Short: "Aztec and Data Matrix encoder and decoder",
		Long: `pocode encodes text and binary data into Aztec and Data Matrix 2D barcodes
and decodes them back from text matrices or images.

This tool provides:
- Aztec encoding with optimal high-level encoding, compact and full symbols
- Data Matrix ECC 200 encoding with all encodation modes
- Reed-Solomon error correction on decode
- Batch processing of many files in parallel
- An HTTP and WebSocket server

Examples:
  pocode encode "Hello World"
  pocode encode --format datamatrix --output hello.png "Hello World"
  pocode decode symbol.txt
  pocode decode --image photo.png
  pocode serve --port 8080`,
		Version:       version.Info().Short(),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $XDG_CONFIG_HOME/pocode or $HOME/.config/pocode, /etc/pocode)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newEncodeCommand(),
		newDecodeCommand(),
		newBatchCommand(),
		newServeCommand(),
		newFormatsCommand(),
		newBenchCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initConfig loads configuration for cmd from its file, POCODE_*
// environment variables and the root flags, then sets up logging.
func initConfig(cmd *cobra.Command) error {
	configLoader = config.NewLoaderWithViper(viper.New())
	if err := configLoader.BindFlags(cmd.Root().PersistentFlags(), map[string]string{
		"verbose":   "verbose",
		"log_level": "log-level",
	}); err != nil {
		return err
	}

	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	globalConfig = cfg

	setupLogging(cmd, cfg)
	if used := configLoader.GetConfigFileUsed(); used != "" {
		slog.Debug("loaded configuration", "file", used)
	}
	return nil
}

// setupLogging installs a JSON logger on the command's error stream so
// that command output on stdout stays machine-readable.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// GetConfig returns the configuration loaded for the running command,
// or the defaults when none was loaded.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	return globalConfig
}

// GetConfigLoader returns the loader of the running command.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoaderWithViper(viper.New())
	}
	return configLoader
}

// loadCommandConfig binds the command's flags to configuration keys and
// resolves the result with flag > env > file > default precedence.
func loadCommandConfig(cmd *cobra.Command, keys map[string]string) (*config.Config, error) {
	loader := GetConfigLoader()
	if err := loader.BindFlags(cmd.Flags(), keys); err != nil {
		return nil, err
	}
	cfg, err := loader.Current()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
