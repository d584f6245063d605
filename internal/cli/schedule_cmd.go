package cli

import (
	"fmt"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	var projectRef string
	var apply bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Propagate planned dates through dependencies and the hierarchy",
		Long: `Computes every node's planned start and end from the project start,
the dependency graph and the WBS. Without --apply nothing is written.
Locked starts and recorded actuals are never moved; clashes are listed
as conflicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			report, err := app.Schedule.Propagate(ctx, p.ID, apply)
			if err != nil {
				return err
			}
			tree, err := app.WBS.Tree(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(report, tree))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the computed dates")

	return cmd
}

func newProgressCmd(app *App) *cobra.Command {
	var projectRef string
	var recalc bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show rolled-up progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			summarize := app.Progress.Summary
			if recalc {
				summarize = app.Progress.Recalculate
			}
			sum, err := summarize(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatWBS(p.ShortID+"  "+p.Name, sum, app.numbers()))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().BoolVar(&recalc, "recalc", false, "Recompute and store every node's percent first")

	return cmd
}
