package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/pocode/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			format, _ := cmd.Flags().GetString("output-format")
			if format == "text" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}
			return writeStructured(cmd.OutOrStdout(), format, info)
		},
	}
	cmd.Flags().String("output-format", "text", "output format: text, json or yaml")
	return cmd
}
