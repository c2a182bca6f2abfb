package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/spf13/cobra"
)

var decodeConfigKeys = map[string]string{
	"output.format":       "output-format",
	"output.set_string":   "set",
	"output.unset_string": "unset",
	"output.file":         "output",
}

func newDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a symbol from a text matrix or an image",
		Long: `Decode an Aztec or Data Matrix symbol.

The input is a text matrix, one row per line, using the --set and --unset
module strings. With --image (or an image file extension) the input is a
PNG, JPEG, GIF, BMP, TIFF or WebP picture that is handed to the image
backend. Without a file argument the input is read from stdin.

Examples:
  pocode decode symbol.txt
  pocode decode --format datamatrix --set "#" --unset "." symbol.txt
  pocode decode --image --try-harder photo.jpg
  pocode encode "round trip" | pocode decode`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runDecode,
	}

	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringP("format", "f", "auto", "symbology: aztec, datamatrix or auto")
	f.Bool("image", false, "treat the input as an image")
	f.Bool("try-harder", false, "spend more time on image decoding (rotations)")
	f.String("set", d.Output.SetString, "string for a dark module in the text matrix")
	f.String("unset", d.Output.UnsetString, "string for a light module in the text matrix")
	f.StringP("output", "o", d.Output.File, "output file (default stdout)")
	f.String("output-format", d.Output.Format, "output format: text, json or yaml")
	return cmd
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadCommandConfig(cmd, decodeConfigKeys)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("format")
	format, err := barcode.ParseFormat(name)
	if err != nil {
		return err
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	isImage, _ := cmd.Flags().GetBool("image")
	if !isImage && path != "" {
		_, extErr := barcode.ImageFormatFromFilename(path)
		isImage = extErr == nil
	}

	w, closeFn, err := openOutput(cmd.OutOrStdout(), cfg.Output.File)
	if err != nil {
		return err
	}
	if isImage {
		tryHarder, _ := cmd.Flags().GetBool("try-harder")
		err = decodeImage(cmd, w, cfg, data, format, tryHarder)
	} else {
		err = decodeMatrix(cmd, w, cfg, data, format)
	}
	if err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func decodeMatrix(cmd *cobra.Command, w io.Writer, cfg *config.Config, data []byte, format barcode.Format) error {
	matrix, err := bitutil.ParseBitMatrix(string(data), cfg.Output.SetString, cfg.Output.UnsetString)
	if err != nil {
		return fmt.Errorf("failed to parse matrix: %w", err)
	}
	result, err := barcode.Decode(cmd.Context(), matrix, format)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	slog.Debug("decoded",
		"format", result.Format.String(),
		"errors_corrected", result.ErrorsCorrected,
		"num_bits", result.NumBits)

	if cfg.Output.Format == "text" || cfg.Output.Format == "" {
		_, err = fmt.Fprintln(w, result.Text)
		return err
	}
	return writeStructured(w, cfg.Output.Format, result)
}

func decodeImage(cmd *cobra.Command, w io.Writer, cfg *config.Config, data []byte, format barcode.Format, tryHarder bool) error {
	img, err := barcode.ReadImage(bytes.NewReader(data))
	if err != nil {
		return err
	}
	backend, err := barcode.NewBackend()
	if err != nil {
		return err
	}
	opts := barcode.ImageOptions{TryHarder: tryHarder}
	if format != barcode.FormatUnknown {
		opts.Formats = []barcode.Format{format}
	}
	results, err := backend.Decode(cmd.Context(), img, opts)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	slog.Debug("decoded image", "backend", backend.Name(), "results", len(results))

	if cfg.Output.Format == "text" || cfg.Output.Format == "" {
		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		_, err = fmt.Fprintln(w, strings.Join(texts, "\n"))
		return err
	}
	return writeStructured(w, cfg.Output.Format, results)
}
