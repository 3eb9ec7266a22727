package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the tasks of the selected product",
		Long: "Task commands act on the selected product: the first product in the\n" +
			"catalog, or the one named with --product. Each command reports the\n" +
			"product it acted on.",
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	for _, kind := range types.AllCommandKinds() {
		cmd.AddCommand(newTransitionCmd(kind))
	}
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var title, typeName, creator, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to the Backlog of the selected product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType, err := types.ParseTaskTypeName(typeName)
			if err != nil {
				return err
			}

			var (
				task    *types.Task
				product string
			)
			err = mutate(func(c *types.Catalog) error {
				p, err := requireSelection(c)
				if err != nil {
					return err
				}
				product = p.Name()
				task, err = c.AddTask(title, taskType, creator, note)
				return err
			})
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), toTaskJSON(task))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d to %q\n", task.ID(), product)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&typeName, "type", "", "task type: feature, bug, technical-work, knowledge-acquisition or F, B, TW, KA (required)")
	cmd.Flags().StringVar(&creator, "creator", "", "who created the task (required)")
	cmd.Flags().StringVar(&note, "note", "", "founding note (required)")
	for _, name := range []string{"title", "type", "creator", "note"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tasks of the selected product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return view(func(c *types.Catalog) error {
				out := cmd.OutOrStdout()
				rows := c.TaskRows()
				if flags.jsonMode {
					return printJSON(out, rowsJSON(rows))
				}
				if c.Selected() == nil {
					fmt.Fprintln(out, "No product selected")
					return nil
				}
				if len(rows) == 0 {
					fmt.Fprintf(out, "No tasks in %q\n", c.SelectedName())
					return nil
				}

				cells := make([][]string, 0, len(rows))
				for _, r := range rows {
					cells = append(cells, r.Fields())
				}
				renderTable(out, []string{"ID", "State", "Type", "Title"}, cells,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
				return nil
			})
		},
	}
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a task and its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return view(func(c *types.Catalog) error {
				p, err := requireSelection(c)
				if err != nil {
					return err
				}
				t, ok := c.TaskByID(id)
				if !ok {
					return taskNotFound(p.Name(), id)
				}
				if flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), toTaskJSON(t))
				}
				printTask(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task from the selected product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			var product string
			err = mutate(func(c *types.Catalog) error {
				p, err := requireSelection(c)
				if err != nil {
					return err
				}
				product = p.Name()
				if _, ok := c.TaskByID(id); !ok {
					return taskNotFound(product, id)
				}
				c.RemoveTask(id)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d from %q\n", id, product)
			return nil
		},
	}
}

// transitionHelp is the short help for each command kind.
var transitionHelp = map[types.CommandKind]string{
	types.CommandBacklog:  "Return a task to the Backlog",
	types.CommandClaim:    "Claim a Backlog task for an owner",
	types.CommandProcess:  "Start or continue work on a task",
	types.CommandVerify:   "Hand a processed task over for verification",
	types.CommandComplete: "Mark a task Done",
	types.CommandReject:   "Reject a task",
}

// newTransitionCmd returns "task <kind> ID --note ..." for one command kind.
func newTransitionCmd(kind types.CommandKind) *cobra.Command {
	var owner, note string

	cmd := &cobra.Command{
		Use:   string(kind) + " ID",
		Short: transitionHelp[kind],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			command, err := types.NewCommand(kind, owner, note)
			if err != nil {
				return err
			}

			var (
				from, to types.State
				product  string
			)
			err = mutate(func(c *types.Catalog) error {
				p, err := requireSelection(c)
				if err != nil {
					return err
				}
				product = p.Name()
				t, ok := c.TaskByID(id)
				if !ok {
					return taskNotFound(p.Name(), id)
				}
				from = t.State()
				if err := c.Execute(id, command); err != nil {
					return err
				}
				to = t.State()
				return nil
			})
			var te *types.TransitionError
			if errors.As(err, &te) {
				return fmt.Errorf("task %d: %w", id, err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d in %q: %s -> %s\n", id, product, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note recorded with the transition (required)")
	_ = cmd.MarkFlagRequired("note")
	if kind == types.CommandClaim {
		cmd.Flags().StringVar(&owner, "owner", "", "new owner of the task (required)")
		_ = cmd.MarkFlagRequired("owner")
	}
	return cmd
}
