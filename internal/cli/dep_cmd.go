package cli

import (
	"fmt"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/spf13/cobra"
)

func newDepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage precedence dependencies",
	}

	cmd.AddCommand(
		newDepAddCmd(app),
		newDepRemoveCmd(app),
		newDepListCmd(app),
		newDepOrderCmd(app),
	)

	return cmd
}

func newDepAddCmd(app *App) *cobra.Command {
	var projectRef string
	var lag int
	depType := domain.FinishToStart

	cmd := &cobra.Command{
		Use:   "add <predecessor> <successor>",
		Short: "Add a dependency; cycles are rejected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			pred, tree, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			succ, _, err := resolveNode(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			d, err := app.Deps.AddDependency(ctx, service.DependencyInput{
				PredecessorID: pred.ID,
				SuccessorID:   succ.ID,
				Type:          depType,
				LagDays:       lag,
			})
			if err != nil {
				return describeOffending(err, tree)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s %+dd)\n", pred.WbsCode, succ.WbsCode, d.Type, d.LagDays)
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().Var(depTypeValue{t: &depType}, "type", "Dependency type")
	cmd.Flags().IntVar(&lag, "lag", 0, "Lag in days; negative for overlap")

	return cmd
}

func newDepRemoveCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "remove <predecessor> <successor>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			pred, _, err := resolveNode(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			succ, _, err := resolveNode(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.Deps.RemoveDependency(ctx, pred.ID, succ.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s -> %s\n", pred.WbsCode, succ.WbsCode)
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newDepListCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the dependencies of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			deps, err := app.Deps.ListDependencies(ctx, p.ID)
			if err != nil {
				return err
			}
			tree, err := app.WBS.Tree(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDependencies(deps, tree))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newDepOrderCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the nodes in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			order, err := app.Deps.TopologicalOrder(ctx, p.ID)
			if err != nil {
				return err
			}
			ids, err := order.All()
			if err != nil {
				return err
			}
			tree, err := app.WBS.Tree(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOrder(ids, tree))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}
