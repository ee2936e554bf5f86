package cli

import (
	"github.com/spf13/cobra"

	"fbvideodl/internal/api"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			printf(cmd.OutOrStdout(), "fbvideodl version %s\n", api.Version)
		},
	}
}
