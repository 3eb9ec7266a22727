package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the stored backlog with the products in a text file",
		Long: "Read a backlog text file and replace every stored product with its\n" +
			"contents. Malformed product sections and products without tasks are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Import(args[0]); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("file not found: %s", args[0])
				}
				return systemError(err)
			}
			if err := s.Persist(); err != nil {
				return storeError(err)
			}

			var names []string
			_ = s.Do(func(c *types.Catalog) error {
				names = c.ProductNames()
				return nil
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products from %s\n", len(names), args[0])
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the backlog to a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Export(args[0]); err != nil {
				return storeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported backlog to %s\n", args[0])
			return nil
		},
	}
}
