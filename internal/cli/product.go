package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products",
	}
	cmd.AddCommand(newProductAddCmd())
	cmd.AddCommand(newProductListCmd())
	cmd.AddCommand(newProductRenameCmd())
	cmd.AddCommand(newProductRemoveCmd())
	return cmd
}

func newProductAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add an empty product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			var first string
			err := mutate(func(c *types.Catalog) error {
				if err := c.AddProduct(name); err != nil {
					return err
				}
				first = c.ProductNames()[0]
				return nil
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added product %q\n", name)
			// The selection is not stored; later commands start from the first product.
			if first != name {
				fmt.Fprintf(out, "Task commands use %q unless --product %q is given\n", first, name)
			}
			return nil
		},
	}
}

type productJSON struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Tasks    int    `json:"tasks"`
}

func newProductListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return view(func(c *types.Catalog) error {
				out := cmd.OutOrStdout()
				selected := c.SelectedName()

				var items []productJSON
				for _, p := range c.Products() {
					items = append(items, productJSON{Name: p.Name(), Selected: p.Name() == selected, Tasks: p.Len()})
				}
				if flags.jsonMode {
					if items == nil {
						items = []productJSON{}
					}
					return printJSON(out, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No products")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, it := range items {
					mark := ""
					if it.Selected {
						mark = "*"
					}
					rows = append(rows, []string{mark, it.Name, fmt.Sprint(it.Tasks)})
				}
				renderTable(out, []string{"", "Product", "Tasks"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}
}

func newProductRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NEW_NAME",
		Short: "Rename the selected product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var old string
			err := mutate(func(c *types.Catalog) error {
				old = c.SelectedName()
				return c.Rename(args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed product %q to %q\n", old, args[0])
			return nil
		},
	}
}

func newProductRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the selected product and all of its tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed, next string
			err := mutate(func(c *types.Catalog) error {
				removed = c.SelectedName()
				if err := c.RemoveSelected(); err != nil {
					return err
				}
				next = c.SelectedName()
				return nil
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed product %q\n", removed)
			if next != "" {
				fmt.Fprintf(out, "Selected product %q\n", next)
			}
			return nil
		},
	}
}
