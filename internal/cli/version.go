package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engage/pkg/engage"
)

const modulePath = "github.com/mesh-intelligence/engage"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engage version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "engage v%s\nmodule: %s\n", engage.Version, modulePath)
			return nil
		},
	}
}
