package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the backlog release version.
const Version = "0.3.0"

const modulePath = "github.com/mesh-intelligence/backlog"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the backlog version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "backlog v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
