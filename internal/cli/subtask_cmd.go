package cli

import (
	"fmt"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/spf13/cobra"
)

func newSubtaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage the subtasks of a leaf node",
	}

	cmd.AddCommand(
		newSubtaskAddCmd(app),
		newSubtaskListCmd(app),
		newSubtaskUpdateCmd(app),
		newSubtaskRemoveCmd(app),
	)

	return cmd
}

func newSubtaskAddCmd(app *App) *cobra.Command {
	var projectRef string
	var weight float64
	var in service.SubtaskInput

	cmd := &cobra.Command{
		Use:   "add <node>",
		Short: "Add a subtask to a leaf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			in.NodeID = n.ID
			in.Weight = floatIfChanged(cmd.Flags(), "weight", weight)
			st, err := app.WBS.AddSubtask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %q to %s [%s]\n", st.Name, n.WbsCode, st.ID[:8])
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&in.Name, "name", "", "Subtask name")
	cmd.Flags().Float64Var(&weight, "weight", 1, "Weight relative to the other subtasks")
	cmd.Flags().Float64Var(&in.Quantity, "qty", 0, "Planned quantity")
	cmd.Flags().Float64Var(&in.QuantityDone, "qty-done", 0, "Executed quantity")
	cmd.Flags().Var(subtaskStatusValue{s: &in.Status}, "status", "pending, in_progress or done")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSubtaskListCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "list <node>",
		Short: "List the subtasks of a leaf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			list, err := app.WBS.ListSubtasks(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSubtasks(list, app.numbers()))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newSubtaskUpdateCmd(app *App) *cobra.Command {
	var projectRef, name string
	var weight, qty, qtyDone float64
	var status domain.SubtaskStatus

	cmd := &cobra.Command{
		Use:   "update <node> <subtask>",
		Short: "Edit a subtask; only the flags given are changed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			st, err := resolveSubtask(ctx, app, n.ID, args[1])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			upd := service.SubtaskUpdate{
				Name:         stringIfChanged(fs, "name", name),
				Weight:       floatIfChanged(fs, "weight", weight),
				Quantity:     floatIfChanged(fs, "qty", qty),
				QuantityDone: floatIfChanged(fs, "qty-done", qtyDone),
			}
			if fs.Changed("status") {
				upd.Status = &status
			}
			updated, err := app.WBS.UpdateSubtask(ctx, st.ID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated subtask %q (%s)\n",
				updated.Name, app.numbers().NodePercent(updated.Percent()))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	fs := cmd.Flags()
	fs.StringVar(&name, "name", "", "Subtask name")
	fs.Float64Var(&weight, "weight", 0, "Weight relative to the other subtasks")
	fs.Float64Var(&qty, "qty", 0, "Planned quantity")
	fs.Float64Var(&qtyDone, "qty-done", 0, "Executed quantity")
	fs.Var(subtaskStatusValue{s: &status}, "status", "pending, in_progress or done")

	return cmd
}

func newSubtaskRemoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "remove <node> <subtask>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			st, err := resolveSubtask(ctx, app, n.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.WBS.DeleteSubtask(ctx, st.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed subtask %q from %s\n", st.Name, n.WbsCode)
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}
