package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
	"github.com/spf13/cobra"
)

// addProjectFlag registers the --project/-p flag shared by project-scoped
// commands.
func addProjectFlag(cmd *cobra.Command, ref *string) {
	cmd.Flags().StringVarP(ref, "project", "p", "", "Project short ID or ID")
	_ = cmd.MarkFlagRequired("project")
}

func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("project is required")
	}
	return app.Projects.Resolve(ctx, ref)
}

// resolveNode finds a live node by WBS code, full ID or unique ID prefix.
func resolveNode(ctx context.Context, app *App, projectID, ref string) (*domain.WbsNode, *schedule.Tree, error) {
	tree, err := app.WBS.Tree(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	var prefixed []*domain.WbsNode
	for _, id := range tree.PreOrder() {
		n, _ := tree.Node(id)
		if n.WbsCode == ref || n.ID == ref {
			return n, tree, nil
		}
		if strings.HasPrefix(n.ID, ref) {
			prefixed = append(prefixed, n)
		}
	}
	switch len(prefixed) {
	case 0:
		return nil, nil, fmt.Errorf("node not found: %q", ref)
	case 1:
		return prefixed[0], tree, nil
	default:
		return nil, nil, fmt.Errorf("node ID prefix %q is ambiguous (%d matches)", ref, len(prefixed))
	}
}

func resolveSprint(ctx context.Context, app *App, projectID, ref string) (*domain.Sprint, error) {
	sprints, err := app.Sprints.ListSprints(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Sprint
	for _, sp := range sprints {
		if sp.ID == ref || strings.EqualFold(sp.Name, ref) {
			return sp, nil
		}
		if strings.HasPrefix(sp.ID, ref) {
			matches = append(matches, sp)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("sprint not found: %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("sprint ID prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func resolveTask(ctx context.Context, app *App, sprintID, ref string) (*domain.SprintTask, error) {
	tasks, err := app.Sprints.ListTasks(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	var matches []*domain.SprintTask
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("task not found: %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func resolveSubtask(ctx context.Context, app *App, nodeID, ref string) (*domain.Subtask, error) {
	subtasks, err := app.WBS.ListSubtasks(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Subtask
	for _, s := range subtasks {
		if s.ID == ref || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("subtask not found: %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("subtask ID prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func resolveBaseline(ctx context.Context, app *App, projectID, ref string) (*domain.ScheduleBaseline, error) {
	if ref == "" {
		return app.Baselines.Active(ctx, projectID)
	}
	list, err := app.Baselines.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	num := strings.TrimPrefix(ref, "#")
	for _, bl := range list {
		if fmt.Sprint(bl.BaselineNumber) == num || bl.ID == ref || strings.HasPrefix(bl.ID, ref) {
			return bl, nil
		}
	}
	return nil, fmt.Errorf("baseline not found: %q", ref)
}
