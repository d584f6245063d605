package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cronograma/internal/cli/formatter"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/service"
	"github.com/spf13/cobra"
)

func newSprintCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Plan sprints and record execution",
	}

	cmd.AddCommand(
		newSprintCreateCmd(app),
		newSprintListCmd(app),
		newSprintShowCmd(app),
		newSprintTransitionCmd(app, "activate", "Start a future sprint",
			func(ctx context.Context, id string) (*domain.Sprint, error) {
				return app.Sprints.ActivateSprint(ctx, id)
			}),
		newSprintTransitionCmd(app, "complete", "Close an active sprint",
			func(ctx context.Context, id string) (*domain.Sprint, error) {
				return app.Sprints.CompleteSprint(ctx, id)
			}),
		newSprintAssignCmd(app),
		newSprintStartTaskCmd(app),
		newSprintBlockTaskCmd(app),
		newSprintDoneTaskCmd(app),
	)

	return cmd
}

func newSprintCreateCmd(app *App) *cobra.Command {
	var projectRef, name string
	var start, end *time.Time

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if start == nil || end == nil {
				return fmt.Errorf("--start and --end are required")
			}
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sp, err := app.Sprints.CreateSprint(ctx, service.SprintInput{
				ProjectID: p.ID, Name: name, StartDate: *start, EndDate: *end,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created sprint %q [%s]\n", sp.Name, sp.ID[:8])
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&name, "name", "", "Sprint name")
	cmd.Flags().Var(newDateValue(&start), "start", "First day (YYYY-MM-DD)")
	cmd.Flags().Var(newDateValue(&end), "end", "Last day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSprintListCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			list, err := app.Sprints.ListSprints(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSprintList(list, app.numbers()))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newSprintShowCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "show <sprint>",
		Short: "Show a sprint and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sp, err := resolveSprint(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			rows, err := sprintTaskRows(ctx, app, p.ID, sp.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSprint(sp, rows, app.numbers()))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

// sprintTaskRows labels each task with its node code and subtask name.
// Tasks whose node was deleted keep a short ID.
func sprintTaskRows(ctx context.Context, app *App, projectID, sprintID string) ([]formatter.SprintTaskRow, error) {
	tasks, err := app.Sprints.ListTasks(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	tree, err := app.WBS.Tree(ctx, projectID)
	if err != nil {
		return nil, err
	}
	rows := make([]formatter.SprintTaskRow, 0, len(tasks))
	for _, t := range tasks {
		row := formatter.SprintTaskRow{Task: t, Node: formatter.Dim(t.BacklogID[:min(8, len(t.BacklogID))])}
		if n, ok := tree.Node(t.BacklogID); ok {
			row.Node = n.WbsCode + " " + n.Name
			if t.SubtaskID != nil {
				for _, st := range tree.Subtasks(n.ID) {
					if st.ID == *t.SubtaskID {
						row.Subtask = st.Name
					}
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func newSprintTransitionCmd(app *App, use, short string,
	move func(context.Context, string) (*domain.Sprint, error),
) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   use + " <sprint>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sp, err := resolveSprint(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			sp, err = move(ctx, sp.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sprint %q is now %s\n", sp.Name, sp.Status)
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newSprintAssignCmd(app *App) *cobra.Command {
	var projectRef, subtaskRef, assignee string
	var on *time.Time

	cmd := &cobra.Command{
		Use:   "assign <sprint> <node>",
		Short: "Put a leaf node, or one of its subtasks, into a sprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sp, err := resolveSprint(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			n, tree, err := resolveNode(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			in := service.TaskAssignment{SprintID: sp.ID, NodeID: n.ID, AssignedTo: assignee, ScheduledFor: on}
			if subtaskRef != "" {
				st, err := resolveSubtask(ctx, app, n.ID, subtaskRef)
				if err != nil {
					return err
				}
				in.SubtaskID = &st.ID
			}
			task, err := app.Sprints.AssignTask(ctx, in)
			if err != nil {
				return describeOffending(err, tree)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %q [%s]\n", n.WbsCode, sp.Name, task.ID[:8])
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&subtaskRef, "subtask", "", "Subtask name or ID")
	cmd.Flags().StringVar(&assignee, "to", "", "Assignee")
	cmd.Flags().Var(newDateValue(&on), "on", "Scheduled day (YYYY-MM-DD)")

	return cmd
}

// taskCmd builds a command addressed by <sprint> <task> that runs fn on the
// resolved task.
func taskCmd(app *App, use, short string,
	setup func(cmd *cobra.Command),
	fn func(ctx context.Context, cmd *cobra.Command, task *domain.SprintTask) (*domain.SprintTask, error),
) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   use + " <sprint> <task>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			sp, err := resolveSprint(ctx, app, p.ID, args[0])
			if err != nil {
				return err
			}
			task, err := resolveTask(ctx, app, sp.ID, args[1])
			if err != nil {
				return err
			}
			task, err = fn(ctx, cmd, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", task.ID[:8], task.Status)
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	if setup != nil {
		setup(cmd)
	}
	return cmd
}

func newSprintStartTaskCmd(app *App) *cobra.Command {
	var at time.Time
	return taskCmd(app, "start", "Mark a task in progress",
		func(cmd *cobra.Command) {
			cmd.Flags().Var(instantValue{t: &at}, "at", "When work started (default now)")
		},
		func(ctx context.Context, cmd *cobra.Command, task *domain.SprintTask) (*domain.SprintTask, error) {
			return app.Sprints.StartTask(ctx, task.ID, instantOrNow(app, at))
		})
}

func newSprintBlockTaskCmd(app *App) *cobra.Command {
	return taskCmd(app, "block", "Mark a task blocked", nil,
		func(ctx context.Context, cmd *cobra.Command, task *domain.SprintTask) (*domain.SprintTask, error) {
			return app.Sprints.BlockTask(ctx, task.ID)
		})
}

func newSprintDoneTaskCmd(app *App) *cobra.Command {
	var at time.Time
	var qty float64
	return taskCmd(app, "done", "Record a task as executed and feed it back into the WBS",
		func(cmd *cobra.Command) {
			cmd.Flags().Var(instantValue{t: &at}, "at", "When work finished (default now)")
			cmd.Flags().Float64Var(&qty, "qty", 0, "Quantity executed, for quantity-tracked work")
		},
		func(ctx context.Context, cmd *cobra.Command, task *domain.SprintTask) (*domain.SprintTask, error) {
			return app.Sprints.CompleteTask(ctx, task.ID, instantOrNow(app, at), floatIfChanged(cmd.Flags(), "qty", qty))
		})
}

func instantOrNow(app *App, at time.Time) time.Time {
	if at.IsZero() {
		return app.now()
	}
	return at
}
