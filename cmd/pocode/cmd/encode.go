package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/spf13/cobra"
)

var encodeConfigKeys = map[string]string{
	"codec.format":              "format",
	"codec.aztec_ecc_percent":   "ecc",
	"codec.aztec_layers":        "layers",
	"codec.datamatrix_shape":    "shape",
	"codec.charset":             "charset",
	"codec.max_frontier_states": "max-frontier-states",
	"codec.module_size":         "module-size",
	"codec.quiet_zone":          "quiet-zone",
	"output.format":             "output-format",
	"output.set_string":         "set",
	"output.unset_string":       "unset",
	"output.file":               "output",
}

func newEncodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [text]",
		Short: "Encode text or bytes into a symbol",
		Long: `Encode text or raw bytes into an Aztec or Data Matrix symbol.

Text comes from the argument, or from --input as raw bytes (use "-" for
stdin). The symbol is printed as a text matrix, as JSON or YAML, or
rendered to an image when --output names a .png, .jpg, .gif, .bmp or
.tif file.

Examples:
  pocode encode "Hello World"
  pocode encode --format datamatrix --shape rectangle "RECT 2024"
  pocode encode --layers -2 --output-format json "compact"
  pocode encode --input payload.bin --output payload.png`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runEncode,
	}

	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringP("format", "f", d.Codec.Format, "symbology: aztec or datamatrix")
	f.Int("ecc", d.Codec.AztecECCPercent, "Aztec error correction percent")
	f.Int("layers", d.Codec.AztecLayers, "Aztec layers: negative for compact, 0 for the smallest fit")
	f.String("shape", d.Codec.DataMatrixShape, "Data Matrix shape: square, rectangle or any")
	f.Int("symbol-version", 0, "force a Data Matrix symbol version (1-30, 0 for automatic)")
	f.String("charset", d.Codec.Charset, "character set for text, announced by ECI when not ISO-8859-1")
	f.Bool("gs1", false, "mark the data as GS1 (FNC1 in first position)")
	f.Int("max-frontier-states", d.Codec.MaxFrontierStates, "Aztec encoder state cap (0 for unlimited)")
	f.StringP("input", "i", "", "read raw bytes from file (\"-\" for stdin)")
	f.StringP("output", "o", d.Output.File, "output file; image extensions render a raster")
	f.String("output-format", d.Output.Format, "output format: text, json or yaml")
	f.String("set", d.Output.SetString, "string for a dark module in text output")
	f.String("unset", d.Output.UnsetString, "string for a light module in text output")
	f.Int("module-size", d.Codec.ModuleSize, "pixels per module for image output")
	f.Int("quiet-zone", d.Codec.QuietZone, "quiet zone in modules for image output")
	return cmd
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := loadCommandConfig(cmd, encodeConfigKeys)
	if err != nil {
		return err
	}
	opts, err := cfg.Codec.EncodeOptions()
	if err != nil {
		return err
	}
	opts.Version, _ = cmd.Flags().GetInt("symbol-version")
	opts.GS1, _ = cmd.Flags().GetBool("gs1")

	input, _ := cmd.Flags().GetString("input")
	var symbol *barcode.Symbol
	switch {
	case input != "" && len(args) > 0:
		return fmt.Errorf("%w: give either text or --input, not both", common.ErrArgument)
	case input != "":
		data, err := readInput(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}
		symbol, err = barcode.Encode(cmd.Context(), data, opts)
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}
	case len(args) == 1:
		symbol, err = barcode.EncodeText(cmd.Context(), args[0], opts)
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}
	default:
		return errors.New("nothing to encode: pass text or --input")
	}

	slog.Debug("encoded",
		"format", symbol.Format.String(),
		"width", symbol.Width,
		"height", symbol.Height,
		"codewords", symbol.Codewords)
	return writeSymbol(cmd, cfg, symbol)
}

func writeSymbol(cmd *cobra.Command, cfg *config.Config, symbol *barcode.Symbol) error {
	if imgFormat, err := barcode.ImageFormatFromFilename(cfg.Output.File); cfg.Output.File != "" && err == nil {
		img, err := barcode.Render(symbol.Matrix, cfg.Codec.RenderOptions())
		if err != nil {
			return err
		}
		w, closeFn, err := openOutput(cmd.OutOrStdout(), cfg.Output.File)
		if err != nil {
			return err
		}
		if err := barcode.WriteImage(w, img, imgFormat); err != nil {
			_ = closeFn()
			return fmt.Errorf("failed to write image: %w", err)
		}
		return closeFn()
	}

	w, closeFn, err := openOutput(cmd.OutOrStdout(), cfg.Output.File)
	if err != nil {
		return err
	}
	if err := formatSymbol(w, cfg, symbol); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func formatSymbol(w io.Writer, cfg *config.Config, symbol *barcode.Symbol) error {
	set, unset := cfg.Output.SetString, cfg.Output.UnsetString
	if cfg.Output.Format == "text" || cfg.Output.Format == "" {
		_, err := io.WriteString(w, symbol.Matrix.StringWith(set, unset))
		return err
	}
	return writeStructured(w, cfg.Output.Format, newSymbolOutput(symbol, set, unset))
}
