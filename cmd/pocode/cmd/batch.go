package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/batch"
	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/spf13/cobra"
)

var batchConfigKeys = map[string]string{
	"batch.workers":             "workers",
	"batch.recursive":           "recursive",
	"batch.include":             "include",
	"batch.exclude":             "exclude",
	"batch.output_dir":          "output-dir",
	"batch.continue_on_error":   "continue-on-error",
	"codec.aztec_ecc_percent":   "ecc",
	"codec.aztec_layers":        "layers",
	"codec.datamatrix_shape":    "shape",
	"codec.charset":             "charset",
	"codec.module_size":         "module-size",
	"codec.quiet_zone":          "quiet-zone",
	"output.format":             "output-format",
	"output.file":               "output",
	"output.set_string":         "set",
	"output.unset_string":       "unset",
	"codec.max_frontier_states": "max-frontier-states",
}

func newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [dirs|files...]",
		Short: "Encode or decode many files in parallel",
		Long: `Encode or decode many files in parallel.

In decode mode each file is a text matrix, or an image when its extension
is .png, .jpg, .jpeg, .gif, .bmp, .tif, .tiff or .webp. In encode mode
the raw bytes of each file are encoded; with --output-dir every symbol is
also rendered as a PNG named after its input file.

Examples:
  pocode batch symbols/
  pocode batch symbols/ --recursive --include "*.txt" --workers 8
  pocode batch --mode encode --format datamatrix --output-dir out/ payloads/
  pocode batch images/ --output-format json --output results.json`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runBatchCommand,
	}

	d := config.DefaultConfig()
	f := cmd.Flags()
	f.String("mode", string(batch.ModeDecode), "batch mode: encode or decode")
	f.StringP("format", "f", "", "symbology (encode default from config, decode default auto)")
	f.IntP("workers", "w", d.Batch.Workers, "number of parallel workers")
	f.BoolP("recursive", "r", d.Batch.Recursive, "process directories recursively")
	f.StringSlice("include", nil, "glob patterns of files to include")
	f.StringSlice("exclude", nil, "glob patterns of files to exclude")
	f.String("output-dir", d.Batch.OutputDir, "directory for rendered PNG symbols (encode mode)")
	f.Bool("continue-on-error", d.Batch.ContinueOnError, "continue with remaining files after a failure")
	f.Bool("try-harder", false, "spend more time on image decoding")
	f.Int("ecc", d.Codec.AztecECCPercent, "Aztec error correction percent")
	f.Int("layers", d.Codec.AztecLayers, "Aztec layers: negative for compact, 0 for the smallest fit")
	f.String("shape", d.Codec.DataMatrixShape, "Data Matrix shape: square, rectangle or any")
	f.String("charset", d.Codec.Charset, "character set announced by ECI")
	f.Int("max-frontier-states", d.Codec.MaxFrontierStates, "Aztec encoder state cap (0 for unlimited)")
	f.Int("module-size", d.Codec.ModuleSize, "pixels per module for rendered symbols")
	f.Int("quiet-zone", d.Codec.QuietZone, "quiet zone in modules for rendered symbols")
	f.String("set", d.Output.SetString, "string for a dark module in text matrices")
	f.String("unset", d.Output.UnsetString, "string for a light module in text matrices")
	f.StringP("output", "o", d.Output.File, "write results to file instead of stdout")
	f.String("output-format", d.Output.Format, "output format: text, json or yaml")
	f.Bool("stats", false, "print processing statistics")
	return cmd
}

// configToBatchConfig maps the resolved configuration and the
// command-only flags to batch.Config.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	bc := batch.DefaultConfig()

	mode, _ := cmd.Flags().GetString("mode")
	bc.Mode = batch.Mode(mode)

	encode, err := cfg.Codec.EncodeOptions()
	if err != nil {
		return nil, err
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := barcode.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	if format != barcode.FormatUnknown {
		encode.Format = format
	}
	bc.Encode = encode
	bc.Render = cfg.Codec.RenderOptions()
	bc.OutputDir = cfg.Batch.OutputDir

	bc.DecodeFormat = format
	bc.SetString = cfg.Output.SetString
	bc.UnsetString = cfg.Output.UnsetString
	bc.TryHarder, _ = cmd.Flags().GetBool("try-harder")

	bc.Workers = cfg.Batch.Workers
	bc.ContinueOnError = cfg.Batch.ContinueOnError
	bc.Recursive = cfg.Batch.Recursive
	bc.IncludePatterns = cfg.Batch.Include
	bc.ExcludePatterns = cfg.Batch.Exclude
	return &bc, nil
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadCommandConfig(cmd, batchConfigKeys)
	if err != nil {
		return err
	}
	bc, err := configToBatchConfig(cfg, cmd)
	if err != nil {
		return err
	}

	slog.Debug("starting batch", "mode", bc.Mode, "inputs", len(args), "workers", bc.Workers)
	result, err := batch.Process(cmd.Context(), args, bc)
	if err != nil {
		if result == nil {
			if errors.Is(err, batch.ErrNoFiles) {
				return fmt.Errorf("no files to process in %v", args)
			}
			return err
		}
		// Report what completed before the failure.
		_ = result.SaveResults(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.File)
		return err
	}

	if err := result.SaveResults(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.File); err != nil {
		return err
	}
	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(cmd.ErrOrStderr())
	}
	s := result.Summary()
	slog.Info("batch completed", "total", s.Total, "succeeded", s.Succeeded, "failed", s.Failed)
	return nil
}
