package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/spf13/cobra"
)

func newWBSCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wbs",
		Short: "Edit the work breakdown structure",
	}

	cmd.AddCommand(
		newWBSAddCmd(app),
		newWBSShowCmd(app),
		newWBSInspectCmd(app),
		newWBSUpdateCmd(app),
		newWBSMoveCmd(app),
		newWBSSetProgressCmd(app),
		newWBSRemoveCmd(app),
	)

	return cmd
}

func newWBSAddCmd(app *App) *cobra.Command {
	var projectRef, parentRef string
	var in service.NodeInput
	var weight float64
	var start *time.Time

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node under a parent, or as a root phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			in.ProjectID = p.ID
			in.Weight = floatIfChanged(cmd.Flags(), "weight", weight)
			in.PlannedStart = start
			if parentRef != "" {
				parent, _, err := resolveNode(ctx, app, p.ID, parentRef)
				if err != nil {
					return err
				}
				in.ParentID = &parent.ID
			}
			n, err := app.WBS.CreateNode(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", n.WbsCode, n.Name)
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&in.Name, "name", "", "Node name")
	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent WBS code or ID (omit for a root phase)")
	cmd.Flags().IntVar(&in.SortOrder, "order", 0, "Position among siblings (default: after the last)")
	cmd.Flags().Float64Var(&weight, "weight", 1, "Weight relative to siblings")
	cmd.Flags().IntVar(&in.DurationDays, "days", 0, "Planned duration in days")
	cmd.Flags().Var(newDateValue(&start), "start", "Planned start (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&in.PlannedCost, "cost", 0, "Planned cost")
	cmd.Flags().Float64Var(&in.Quantity, "qty", 0, "Planned quantity")
	cmd.Flags().BoolVar(&in.IsMilestone, "milestone", false, "Mark as milestone")
	cmd.Flags().BoolVar(&in.IsInspection, "inspection", false, "Mark as inspection point")
	cmd.Flags().BoolVar(&in.DateLocked, "locked", false, "Pin the planned start")
	cmd.Flags().BoolVar(&in.ManualDates, "manual-dates", false, "Author a summary's dates instead of deriving them")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newWBSShowCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the WBS tree with rolled-up progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sum, err := app.Progress.Summary(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatWBS(p.ShortID+"  "+p.Name, sum, app.numbers()))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newWBSInspectCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "inspect <node>",
		Short: "Show one node and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, tree, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatNode(n, app.numbers()))
			if tree.IsLeaf(n.ID) {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatter.FormatSubtasks(tree.Subtasks(n.ID), app.numbers()))
			}
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newWBSUpdateCmd(app *App) *cobra.Command {
	var projectRef, name string
	var weight, cost, actualCost, qty, qtyDone float64
	var days int
	var start *time.Time
	var milestone, inspection, manualProgress, manualDates, locked bool

	cmd := &cobra.Command{
		Use:   "update <node>",
		Short: "Edit a node; only the flags given are changed",
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
			fs := cmd.Flags()
			upd := service.NodeUpdate{
				Name:           stringIfChanged(fs, "name", name),
				Weight:         floatIfChanged(fs, "weight", weight),
				DurationDays:   intIfChanged(fs, "days", days),
				PlannedStart:   start,
				PlannedCost:    floatIfChanged(fs, "cost", cost),
				ActualCost:     floatIfChanged(fs, "actual-cost", actualCost),
				Quantity:       floatIfChanged(fs, "qty", qty),
				QuantityDone:   floatIfChanged(fs, "qty-done", qtyDone),
				IsMilestone:    boolIfChanged(fs, "milestone", milestone),
				IsInspection:   boolIfChanged(fs, "inspection", inspection),
				ManualOverride: boolIfChanged(fs, "manual-progress", manualProgress),
				ManualDates:    boolIfChanged(fs, "manual-dates", manualDates),
				DateLocked:     boolIfChanged(fs, "locked", locked),
			}
			updated, err := app.WBS.UpdateNode(ctx, n.ID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", updated.WbsCode, updated.Name)
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	fs := cmd.Flags()
	fs.StringVar(&name, "name", "", "Node name")
	fs.Float64Var(&weight, "weight", 0, "Weight relative to siblings")
	fs.IntVar(&days, "days", 0, "Planned duration in days")
	fs.Var(newDateValue(&start), "start", "Planned start (YYYY-MM-DD)")
	fs.Float64Var(&cost, "cost", 0, "Planned cost")
	fs.Float64Var(&actualCost, "actual-cost", 0, "Actual cost")
	fs.Float64Var(&qty, "qty", 0, "Planned quantity")
	fs.Float64Var(&qtyDone, "qty-done", 0, "Executed quantity")
	fs.BoolVar(&milestone, "milestone", false, "Milestone flag")
	fs.BoolVar(&inspection, "inspection", false, "Inspection flag")
	fs.BoolVar(&manualProgress, "manual-progress", false, "Let a summary carry a manually set percent")
	fs.BoolVar(&manualDates, "manual-dates", false, "Author a summary's dates instead of deriving them")
	fs.BoolVar(&locked, "locked", false, "Pin the planned start")

	return cmd
}

func newWBSMoveCmd(app *App) *cobra.Command {
	var projectRef, parentRef string
	var toRoot bool

	cmd := &cobra.Command{
		Use:   "move <node>",
		Short: "Move a node and its subtree under another parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (parentRef == "") == !toRoot {
				return fmt.Errorf("give exactly one of --parent or --root")
			}
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			var newParent *string
			if !toRoot {
				parent, _, err := resolveNode(ctx, app, p.ID, parentRef)
				if err != nil {
					return err
				}
				newParent = &parent.ID
			}
			old := n.WbsCode
			moved, err := app.WBS.MoveNode(ctx, n.ID, newParent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", old, moved.WbsCode)
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&parentRef, "parent", "", "New parent WBS code or ID")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Make the node a root phase")

	return cmd
}

func newWBSSetProgressCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "progress <node> <percent>",
		Short: "Set the percent complete of a leaf",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pct, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid percent %q: %w", args[1], err)
			}
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			n, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.WBS.SetManualProgress(ctx, n.ID, pct); err != nil {
				return err
			}
			sum, err := app.Progress.Summary(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s set to %s, project at %s\n",
				n.WbsCode, n.Name, app.numbers().NodePercent(pct), app.numbers().ProjectPercent(sum.Overall))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newWBSRemoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "remove <node>",
		Short: "Soft-delete a node and its subtree",
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
			count, err := app.WBS.DeleteNode(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s (%d node(s))\n", n.WbsCode, n.Name, count)
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}
