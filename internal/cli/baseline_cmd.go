package cli

import (
	"fmt"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newBaselineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Snapshot the plan and compare against it",
	}

	cmd.AddCommand(
		newBaselineCreateCmd(app),
		newBaselineListCmd(app),
		newBaselineCompareCmd(app),
		newBaselineCurveCmd(app),
	)

	return cmd
}

func newBaselineCreateCmd(app *App) *cobra.Command {
	var projectRef, description, createdBy string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the live WBS as the new active baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			bl, err := app.Baselines.CreateBaseline(ctx, p.ID, description, createdBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline #%d captured %d node(s)\n", bl.BaselineNumber, len(bl.SnapshotData))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	cmd.Flags().StringVar(&createdBy, "by", "", "Author")

	return cmd
}

func newBaselineListCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			list, err := app.Baselines.List(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBaselineList(list))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newBaselineCompareCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "compare [baseline]",
		Short: "Compare a baseline (default: active) with the live WBS",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			bl, err := resolveBaseline(ctx, app, p.ID, firstArg(args))
			if err != nil {
				return err
			}
			v, err := app.Baselines.Compare(ctx, bl.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", formatter.Header(fmt.Sprintf("Baseline #%d vs live", bl.BaselineNumber)))
			fmt.Fprint(out, formatter.FormatVariance(v, app.numbers()))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newBaselineCurveCmd(app *App) *cobra.Command {
	var projectRef string
	var step int

	cmd := &cobra.Command{
		Use:   "curve [baseline]",
		Short: "Print the planned S-curve of a baseline (default: active)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			bl, err := resolveBaseline(ctx, app, p.ID, firstArg(args))
			if err != nil {
				return err
			}
			points, err := app.Baselines.PlannedCurve(ctx, bl.ID, step)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCurve(points, app.numbers()))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().IntVar(&step, "step", 7, "Days between samples")

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
