package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/spf13/cobra"
)

func newFormatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "formats",
		Short:        "List supported symbologies",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFormat, _ := cmd.Flags().GetString("output-format")
			formats := barcode.Formats()
			if outputFormat != "text" {
				return writeStructured(cmd.OutOrStdout(), outputFormat, formats)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tALIASES\tENCODE\tDECODE\tDESCRIPTION")
			for _, f := range formats {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\n",
					f.Name, strings.Join(f.Aliases, ","), f.Encode, f.Decode, f.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("output-format", "text", "output format: text, json or yaml")
	return cmd
}
