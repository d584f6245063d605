package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/service"
)

// FormatProjectList renders the project table.
func FormatProjectList(projects []*domain.Project) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.DisplayID(),
			Bold(p.Name),
			p.StartDate.Format(domain.DateLayout),
		})
	}
	return RenderTable([]string{"ID", "NAME", "START"}, rows)
}

// FormatImportResult renders the summary line of a finished import.
func FormatImportResult(res *service.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Imported %s [%s]\n", StyleGreen.Render("✔"), Bold(res.Project.Name), res.Project.ShortID)
	fmt.Fprintf(&b, "  %d nodes, %d subtasks, %d dependencies\n", res.NodeCount, res.SubtaskCount, res.DependencyCount)
	return b.String()
}

// FormatSprintList renders the sprints of a project.
func FormatSprintList(sprints []*domain.Sprint, num *Numbers) string {
	if len(sprints) == 0 {
		return Dim("No sprints yet.") + "\n"
	}
	rows := make([][]string, 0, len(sprints))
	for _, sp := range sprints {
		rows = append(rows, []string{
			Dim(shortID(sp.ID)),
			sp.Name,
			sp.StartDate.Format(domain.DateLayout) + " → " + sp.EndDate.Format(domain.DateLayout),
			SprintStatusPill(sp.Status),
			num.ProjectPercent(sp.ProgressPercentage),
		})
	}
	return RenderTable([]string{"ID", "NAME", "WINDOW", "STATUS", "DONE"}, rows, 4)
}

// SprintTaskRow pairs a sprint task with the labels of what it executes.
type SprintTaskRow struct {
	Task    *domain.SprintTask
	Node    string
	Subtask string
}

// FormatSprint renders a sprint header and its task table.
func FormatSprint(sp *domain.Sprint, tasks []SprintTaskRow, num *Numbers) string {
	var b strings.Builder
	b.WriteString(Header(sp.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s → %s  %s %s\n\n",
		SprintStatusPill(sp.Status),
		sp.StartDate.Format(domain.DateLayout), sp.EndDate.Format(domain.DateLayout),
		RenderBar(sp.ProgressPercentage, barWidth), num.ProjectPercent(sp.ProgressPercentage))

	if len(tasks) == 0 {
		b.WriteString(Dim("No tasks assigned.") + "\n")
		return b.String()
	}
	rows := make([][]string, 0, len(tasks))
	for _, r := range tasks {
		work := r.Node
		if r.Subtask != "" {
			work += Dim(" / ") + r.Subtask
		}
		executed := Dim("--")
		if r.Task.ExecutedAt != nil {
			executed = r.Task.ExecutedAt.Format(domain.DateLayout)
		}
		assignee := r.Task.AssignedTo
		if assignee == "" {
			assignee = Dim("--")
		}
		rows = append(rows, []string{
			Dim(shortID(r.Task.ID)),
			work,
			assignee,
			TaskStatusPill(r.Task.Status),
			executed,
		})
	}
	b.WriteString(RenderTable([]string{"ID", "WORK", "ASSIGNEE", "STATUS", "EXECUTED"}, rows))
	return b.String()
}
