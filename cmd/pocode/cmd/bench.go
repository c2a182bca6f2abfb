package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/spf13/cobra"
)

const defaultBenchPayload = "pocode benchmark payload 0123456789 ABCDEFGHIJKLMNOPQRSTUVWXYZ abcdefghijklmnopqrstuvwxyz"

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure encode and decode throughput",
		Long: `Encode a payload repeatedly, then decode the resulting symbol repeatedly,
for each selected symbology, and report time and allocations per operation.

Examples:
  pocode bench
  pocode bench --iterations 1000 --format datamatrix
  pocode bench --payload "short" --repeat 20`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runBench,
	}
	f := cmd.Flags()
	f.IntP("iterations", "n", 200, "iterations per measurement")
	f.StringP("format", "f", "auto", "symbology to measure: aztec, datamatrix or auto for all")
	f.String("payload", defaultBenchPayload, "payload text")
	f.Int("repeat", 1, "repeat the payload this many times")
	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	iterations, _ := cmd.Flags().GetInt("iterations")
	name, _ := cmd.Flags().GetString("format")
	payload, _ := cmd.Flags().GetString("payload")
	repeat, _ := cmd.Flags().GetInt("repeat")
	if repeat < 1 {
		return fmt.Errorf("%w: repeat must be positive, got %d", common.ErrArgument, repeat)
	}
	payload = strings.Repeat(payload, repeat)

	format, err := barcode.ParseFormat(name)
	if err != nil {
		return err
	}
	formats := []barcode.Format{format}
	if format == barcode.FormatUnknown {
		formats = []barcode.Format{barcode.FormatAztec, barcode.FormatDataMatrix}
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "payload: %d bytes, %d iterations\n", len(payload), iterations)
	var errs []error
	for _, f := range formats {
		opts := barcode.EncodeOptions{Format: f}
		symbol, err := barcode.EncodeText(ctx, payload, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		_, _ = fmt.Fprintf(out, "%s: %dx%d symbol, %d codewords\n", f, symbol.Width, symbol.Height, symbol.Codewords)

		results := []common.BenchmarkResult{
			common.RunBenchmark(f.String()+"/encode", iterations, func() error {
				_, err := barcode.EncodeText(ctx, payload, opts)
				return err
			}),
			common.RunBenchmark(f.String()+"/decode", iterations, func() error {
				_, err := barcode.Decode(ctx, symbol.Matrix, f)
				return err
			}),
		}
		for _, r := range results {
			_, _ = fmt.Fprintln(out, "  "+r.String())
			if r.Err != nil {
				errs = append(errs, r.Err)
			}
		}
	}
	return errors.Join(errs...)
}
